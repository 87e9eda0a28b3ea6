package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streamhive/vidtube/database"
	"github.com/streamhive/vidtube/models"
	"github.com/streamhive/vidtube/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ChannelController serves the derived read-only views: channel profiles
// with subscriber cardinalities and the viewer's watch history.
type ChannelController struct {
	cols *database.Collections
}

func NewChannelController(cols *database.Collections) *ChannelController {
	return &ChannelController{cols: cols}
}

// channelProfilePipeline joins subscriptions twice: once with the channel
// as the foreign key (who follows this channel) and once with the
// subscriber as the foreign key (who this channel follows). The viewer's
// membership in the first set yields isSubscribed.
func channelProfilePipeline(username string, viewerID bson.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "username", Value: username},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "subscriptions"},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "channel"},
			{Key: "as", Value: "subscribers"},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "subscriptions"},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "subscriber"},
			{Key: "as", Value: "subscribedTo"},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "subscribersCount", Value: bson.D{{Key: "$size", Value: "$subscribers"}}},
			{Key: "channelsSubscribedToCount", Value: bson.D{{Key: "$size", Value: "$subscribedTo"}}},
			{Key: "isSubscribed", Value: bson.D{{Key: "$in", Value: bson.A{viewerID, "$subscribers.subscriber"}}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "fullName", Value: 1},
			{Key: "username", Value: 1},
			{Key: "email", Value: 1},
			{Key: "avatar", Value: 1},
			{Key: "coverImage", Value: 1},
			{Key: "subscribersCount", Value: 1},
			{Key: "channelsSubscribedToCount", Value: 1},
			{Key: "isSubscribed", Value: 1},
		}}},
	}
}

// GET /api/v1/users/c/:username
func (cc *ChannelController) GetUserChannelProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := utils.NormalizeUsername(c.Param("username"))
		if username == "" {
			_ = c.Error(utils.BadRequest("Username is required"))
			return
		}

		viewerID, err := requestUserID(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		ctx := c.Request.Context()

		cursor, err := cc.cols.Users.Aggregate(ctx, channelProfilePipeline(username, viewerID))
		if err != nil {
			_ = c.Error(utils.Internal("failed to load channel profile", err))
			return
		}
		defer cursor.Close(ctx)

		var channels []models.ChannelProfile
		if err := cursor.All(ctx, &channels); err != nil {
			_ = c.Error(utils.Internal("failed to decode channel profile", err))
			return
		}
		if len(channels) == 0 {
			_ = c.Error(utils.NotFound("Channel not found"))
			return
		}

		utils.Respond(c, http.StatusOK, channels[0], "Channel profile fetched successfully")
	}
}

// GET /api/v1/users/history
func (cc *ChannelController) GetWatchHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		viewerID, err := requestUserID(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		ctx := c.Request.Context()

		var user models.User
		if err := cc.cols.Users.FindOne(ctx, bson.M{"_id": viewerID}).Decode(&user); err != nil {
			_ = c.Error(utils.NotFound("User not found"))
			return
		}

		if len(user.WatchHistory) == 0 {
			utils.Respond(c, http.StatusOK, []models.Video{}, "Watch history fetched successfully")
			return
		}

		cursor, err := cc.cols.Videos.Find(ctx, bson.M{"_id": bson.M{"$in": user.WatchHistory}})
		if err != nil {
			_ = c.Error(utils.Internal("failed to load watch history", err))
			return
		}
		defer cursor.Close(ctx)

		var videos []models.Video
		if err := cursor.All(ctx, &videos); err != nil {
			_ = c.Error(utils.Internal("failed to decode watch history", err))
			return
		}

		utils.Respond(c, http.StatusOK, orderVideos(user.WatchHistory, videos), "Watch history fetched successfully")
	}
}

// orderVideos puts the joined videos back into the order of the stored
// watch-history list. Ids with no matching video are dropped.
func orderVideos(order []bson.ObjectID, videos []models.Video) []models.Video {
	byID := make(map[bson.ObjectID]models.Video, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}
	out := make([]models.Video, 0, len(order))
	for _, id := range order {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out
}
