package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type User struct {
	ID            bson.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username      string          `bson:"username" json:"username"`
	Email         string          `bson:"email" json:"email"`
	FullName      string          `bson:"fullName" json:"fullName"`
	PasswordHash  string          `bson:"passwordHash" json:"-"` // never expose
	RefreshToken  string          `bson:"refreshToken,omitempty" json:"-"`
	AvatarURL     string          `bson:"avatar" json:"avatar"`
	CoverImageURL string          `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	WatchHistory  []bson.ObjectID `bson:"watchHistory" json:"watchHistory"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// PublicView strips credential fields before a user record leaves the API.
func (u User) PublicView() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		WatchHistory:  u.WatchHistory,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

type PublicUser struct {
	ID            bson.ObjectID   `bson:"_id" json:"id"`
	Username      string          `bson:"username" json:"username"`
	Email         string          `bson:"email" json:"email"`
	FullName      string          `bson:"fullName" json:"fullName"`
	AvatarURL     string          `bson:"avatar" json:"avatar"`
	CoverImageURL string          `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	WatchHistory  []bson.ObjectID `bson:"watchHistory,omitempty" json:"watchHistory,omitempty"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// Subscription is a directed edge: Subscriber follows Channel.
type Subscription struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Subscriber bson.ObjectID `bson:"subscriber" json:"subscriber"`
	Channel    bson.ObjectID `bson:"channel" json:"channel"`
	CreatedAt  time.Time     `bson:"createdAt" json:"createdAt"`
}

type Video struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner        bson.ObjectID `bson:"owner" json:"owner"`
	Title        string        `bson:"title" json:"title"`
	Description  string        `bson:"description,omitempty" json:"description,omitempty"`
	VideoURL     string        `bson:"videoFile" json:"videoFile"`
	ThumbnailURL string        `bson:"thumbnail" json:"thumbnail"`
	Duration     float64       `bson:"duration" json:"duration"`
	Views        int64         `bson:"views" json:"views"`
	IsPublished  bool          `bson:"isPublished" json:"isPublished"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
}

// ChannelProfile is the whitelisted projection returned by the channel
// aggregation. It never carries password or token fields.
type ChannelProfile struct {
	ID                        bson.ObjectID `bson:"_id" json:"id"`
	Username                  string        `bson:"username" json:"username"`
	FullName                  string        `bson:"fullName" json:"fullName"`
	Email                     string        `bson:"email" json:"email"`
	AvatarURL                 string        `bson:"avatar" json:"avatar"`
	CoverImageURL             string        `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	SubscribersCount          int64         `bson:"subscribersCount" json:"subscribersCount"`
	ChannelsSubscribedToCount int64         `bson:"channelsSubscribedToCount" json:"channelsSubscribedToCount"`
	IsSubscribed              bool          `bson:"isSubscribed" json:"isSubscribed"`
}
