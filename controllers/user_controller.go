package controllers

import (
	"context"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/streamhive/vidtube/config"
	"github.com/streamhive/vidtube/database"
	"github.com/streamhive/vidtube/dto"
	"github.com/streamhive/vidtube/middleware"
	"github.com/streamhive/vidtube/models"
	"github.com/streamhive/vidtube/storage"
	"github.com/streamhive/vidtube/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UserController holds every collaborator the user flows need. All of them
// are provided at startup; nothing here reaches for the environment.
type UserController struct {
	cols      *database.Collections
	tokens    *utils.TokenManager
	media     storage.MediaStore
	validator *storage.FileValidator
	cfg       *config.Config
}

func NewUserController(
	cols *database.Collections,
	tokens *utils.TokenManager,
	media storage.MediaStore,
	validator *storage.FileValidator,
	cfg *config.Config,
) *UserController {
	return &UserController{
		cols:      cols,
		tokens:    tokens,
		media:     media,
		validator: validator,
		cfg:       cfg,
	}
}

// POST /api/v1/users/register
func (uc *UserController) Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RegisterDTO
		if err := c.ShouldBind(&body); err != nil {
			_ = c.Error(utils.BadRequest("invalid form data"))
			return
		}

		fullName := strings.TrimSpace(body.FullName)
		email := strings.ToLower(strings.TrimSpace(body.Email))
		username := utils.NormalizeUsername(body.Username)

		if fullName == "" || email == "" || username == "" || body.Password == "" {
			_ = c.Error(utils.BadRequest("All fields are required"))
			return
		}

		ctx := c.Request.Context()

		count, err := uc.cols.Users.CountDocuments(ctx, bson.M{
			"$or": bson.A{bson.M{"email": email}, bson.M{"username": username}},
		})
		if err != nil {
			_ = c.Error(utils.Internal("failed to check existing users", err))
			return
		}
		if count > 0 {
			_ = c.Error(utils.Conflict("User with this email or username already exists"))
			return
		}

		avatarFile, err := c.FormFile("avatar")
		if err != nil {
			_ = c.Error(utils.BadRequest("Avatar file is required"))
			return
		}

		var coverFile *multipart.FileHeader
		if form, err := c.MultipartForm(); err == nil {
			if files := form.File["coverImage"]; len(files) > 0 {
				coverFile = files[0]
			}
		}

		if _, err := uc.validator.ValidateFile(avatarFile); err != nil {
			_ = c.Error(utils.BadRequest(err.Error()))
			return
		}
		if coverFile != nil {
			if _, err := uc.validator.ValidateFile(coverFile); err != nil {
				_ = c.Error(utils.BadRequest(err.Error()))
				return
			}
		}

		avatar, cover, err := uploadRegistrationMedia(ctx, uc.media, avatarFile, coverFile)
		if err != nil {
			_ = c.Error(err)
			return
		}
		uploaded := []*storage.Asset{avatar}
		if cover != nil {
			uploaded = append(uploaded, cover)
		}

		hash, err := utils.HashPassword(body.Password)
		if err != nil {
			deleteAssets(ctx, uc.media, uploaded)
			_ = c.Error(utils.Internal("failed to hash password", err))
			return
		}

		now := time.Now().UTC()
		user := models.User{
			ID:           bson.NewObjectID(),
			Username:     username,
			Email:        email,
			FullName:     fullName,
			PasswordHash: hash,
			AvatarURL:    avatar.URL,
			WatchHistory: []bson.ObjectID{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if cover != nil {
			user.CoverImageURL = cover.URL
		}

		if _, err := uc.cols.Users.InsertOne(ctx, user); err != nil {
			deleteAssets(ctx, uc.media, uploaded)
			if utils.IsDuplicateKey(err) {
				_ = c.Error(utils.Conflict("User with this email or username already exists"))
				return
			}
			_ = c.Error(utils.Internal("Failed to register user", err))
			return
		}

		utils.Respond(c, http.StatusCreated, user.PublicView(), "User registered successfully")
	}
}

// POST /api/v1/users/login
func (uc *UserController) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			_ = c.Error(utils.BadRequest("invalid request body"))
			return
		}
		if body.Password == "" || (body.Email == "" && body.Username == "") {
			_ = c.Error(utils.BadRequest("email or username and password are required"))
			return
		}

		ctx := c.Request.Context()

		or := bson.A{}
		if body.Email != "" {
			or = append(or, bson.M{"email": strings.ToLower(strings.TrimSpace(body.Email))})
		}
		if body.Username != "" {
			or = append(or, bson.M{"username": utils.NormalizeUsername(body.Username)})
		}

		var user models.User
		if err := uc.cols.Users.FindOne(ctx, bson.M{"$or": or}).Decode(&user); err != nil {
			_ = c.Error(lookupError(err, utils.NotFound("User not found")))
			return
		}

		if err := utils.CheckPassword(user.PasswordHash, body.Password); err != nil {
			_ = c.Error(utils.Unauthorized("Invalid credentials"))
			return
		}

		pair, err := uc.tokens.IssuePair(user.ID.Hex(), user.Username, user.Email)
		if err != nil {
			_ = c.Error(utils.Internal("failed to issue tokens", err))
			return
		}

		// Rotation point: the stored value is overwritten, so any previously
		// issued refresh token dies here.
		_, err = uc.cols.Users.UpdateByID(ctx, user.ID, bson.M{
			"$set": bson.M{"refreshToken": pair.RefreshToken, "updatedAt": time.Now().UTC()},
		})
		if err != nil {
			_ = c.Error(utils.Internal("failed to persist refresh token", err))
			return
		}

		uc.setAuthCookies(c, pair)
		utils.Respond(c, http.StatusOK, gin.H{
			"user":         user.PublicView(),
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		}, "User logged in successfully")
	}
}

// POST /api/v1/users/refresh-token
func (uc *UserController) Refresh() gin.HandlerFunc {
	return func(c *gin.Context) {
		incoming, _ := c.Cookie("refreshToken")
		if incoming == "" {
			var body dto.RefreshDTO
			if err := c.ShouldBindJSON(&body); err == nil {
				incoming = body.RefreshToken
			}
		}
		if incoming == "" {
			_ = c.Error(utils.Unauthorized("No refresh token provided"))
			return
		}

		claims, err := uc.tokens.ParseRefresh(incoming)
		if err != nil {
			_ = c.Error(err)
			return
		}

		userID, err := bson.ObjectIDFromHex(claims.UserID)
		if err != nil {
			_ = c.Error(utils.Unauthorized("Invalid refresh token"))
			return
		}

		ctx := c.Request.Context()

		var user models.User
		if err := uc.cols.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			_ = c.Error(lookupError(err, utils.Unauthorized("Invalid refresh token")))
			return
		}

		if _, err := uc.tokens.VerifyRefresh(incoming, user.RefreshToken); err != nil {
			_ = c.Error(err)
			return
		}

		pair, err := uc.tokens.IssuePair(user.ID.Hex(), user.Username, user.Email)
		if err != nil {
			_ = c.Error(utils.Internal("Something went wrong while refreshing access token", err))
			return
		}

		// Compare-and-swap on the old token value. If a concurrent refresh or
		// a logout got there first, the filter matches nothing and this
		// rotation loses. MatchedCount is the CAS outcome: a same-second
		// re-issue can produce an identical token, leaving nothing modified
		// even though the swap succeeded.
		res, err := uc.cols.Users.UpdateOne(ctx,
			bson.M{"_id": user.ID, "refreshToken": incoming},
			bson.M{"$set": bson.M{"refreshToken": pair.RefreshToken, "updatedAt": time.Now().UTC()}},
		)
		if err != nil {
			_ = c.Error(utils.Internal("failed to rotate refresh token", err))
			return
		}
		if res.MatchedCount == 0 {
			_ = c.Error(utils.Unauthorized("refresh token is expired or already used"))
			return
		}

		uc.setAuthCookies(c, pair)
		utils.Respond(c, http.StatusOK, gin.H{
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		}, "Access token refreshed successfully")
	}
}

// POST /api/v1/users/logout
func (uc *UserController) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := requestUserID(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		// The field is removed, not expired: a later refresh with the old
		// token fails the stored-copy check outright.
		_, err = uc.cols.Users.UpdateByID(c.Request.Context(), userID, bson.M{
			"$unset": bson.M{"refreshToken": ""},
			"$set":   bson.M{"updatedAt": time.Now().UTC()},
		})
		if err != nil {
			_ = c.Error(utils.Internal("failed to log out", err))
			return
		}

		uc.clearAuthCookies(c)
		utils.Respond(c, http.StatusOK, gin.H{}, "User logged out successfully")
	}
}

// POST /api/v1/users/change-password
func (uc *UserController) ChangePassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.ChangePasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil || body.OldPassword == "" || body.NewPassword == "" {
			_ = c.Error(utils.BadRequest("old and new passwords are required"))
			return
		}

		userID, err := requestUserID(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		ctx := c.Request.Context()

		var user models.User
		if err := uc.cols.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			_ = c.Error(lookupError(err, utils.Unauthorized("invalid user")))
			return
		}

		if err := utils.CheckPassword(user.PasswordHash, body.OldPassword); err != nil {
			_ = c.Error(utils.Unauthorized("Invalid old password"))
			return
		}

		hash, err := utils.HashPassword(body.NewPassword)
		if err != nil {
			_ = c.Error(utils.Internal("failed to hash password", err))
			return
		}

		_, err = uc.cols.Users.UpdateByID(ctx, userID, bson.M{
			"$set": bson.M{"passwordHash": hash, "updatedAt": time.Now().UTC()},
		})
		if err != nil {
			_ = c.Error(utils.Internal("failed to update password", err))
			return
		}

		utils.Respond(c, http.StatusOK, gin.H{}, "Password changed successfully")
	}
}

// GET /api/v1/users/current-user
func (uc *UserController) CurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := requestUserID(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var user models.User
		if err := uc.cols.Users.FindOne(c.Request.Context(), bson.M{"_id": userID}).Decode(&user); err != nil {
			_ = c.Error(lookupError(err, utils.NotFound("User not found")))
			return
		}

		utils.Respond(c, http.StatusOK, user.PublicView(), "User found successfully")
	}
}

// PATCH /api/v1/users/update-account
func (uc *UserController) UpdateAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.UpdateAccountDTO
		if err := c.ShouldBindJSON(&body); err != nil || body.FullName == "" || body.Email == "" {
			_ = c.Error(utils.BadRequest("fullName and email are required"))
			return
		}

		userID, err := requestUserID(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(body.Email))
		ctx := c.Request.Context()

		// The email may only move to this account if nobody else holds it.
		count, err := uc.cols.Users.CountDocuments(ctx, bson.M{
			"email": email,
			"_id":   bson.M{"$ne": userID},
		})
		if err != nil {
			_ = c.Error(utils.Internal("failed to check existing users", err))
			return
		}
		if count > 0 {
			_ = c.Error(utils.Conflict("Email already in use"))
			return
		}

		updated, err := uc.findAndUpdate(ctx, userID, bson.M{
			"fullName": strings.TrimSpace(body.FullName),
			"email":    email,
		})
		if err != nil {
			_ = c.Error(err)
			return
		}

		utils.Respond(c, http.StatusOK, updated.PublicView(), "User updated successfully")
	}
}

// PATCH /api/v1/users/avatar
func (uc *UserController) UpdateAvatar() gin.HandlerFunc {
	return uc.updateImage("avatar", "avatars", "Please provide an avatar", "Avatar updated successfully")
}

// PATCH /api/v1/users/cover-image
func (uc *UserController) UpdateCoverImage() gin.HandlerFunc {
	return uc.updateImage("coverImage", "covers", "Please provide a cover image", "Cover image updated successfully")
}

func (uc *UserController) updateImage(field, folder, missingMsg, okMsg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := requestUserID(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		fh, err := c.FormFile(field)
		if err != nil {
			_ = c.Error(utils.BadRequest(missingMsg))
			return
		}
		if _, err := uc.validator.ValidateFile(fh); err != nil {
			_ = c.Error(utils.BadRequest(err.Error()))
			return
		}

		ctx := c.Request.Context()

		asset, err := uc.media.Upload(ctx, fh, folder)
		if err != nil {
			_ = c.Error(utils.Internal("Failed to upload "+field, err))
			return
		}

		now := time.Now().UTC()
		opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

		var prev models.User
		err = uc.cols.Users.FindOneAndUpdate(ctx, bson.M{"_id": userID},
			bson.M{"$set": bson.M{field: asset.URL, "updatedAt": now}}, opts).Decode(&prev)
		if err != nil {
			// The record was not updated, so the fresh object would be orphaned.
			deleteAssets(ctx, uc.media, []*storage.Asset{asset})
			_ = c.Error(lookupError(err, utils.NotFound("User not found")))
			return
		}

		// The record now points at the new object; the replaced one is
		// unreachable, so it is removed best effort.
		oldURL := prev.AvatarURL
		if field == "coverImage" {
			oldURL = prev.CoverImageURL
		}
		if oldURL != "" && oldURL != asset.URL {
			if name, err := uc.media.ObjectNameFromURL(oldURL); err == nil {
				deleteAssets(ctx, uc.media, []*storage.Asset{{ObjectName: name}})
			} else {
				log.Printf("cannot resolve replaced %s object from %s: %v", field, oldURL, err)
			}
		}

		updated := prev
		updated.UpdatedAt = now
		if field == "coverImage" {
			updated.CoverImageURL = asset.URL
		} else {
			updated.AvatarURL = asset.URL
		}

		utils.Respond(c, http.StatusOK, updated.PublicView(), okMsg)
	}
}

// lookupError maps a failed user read: a missing document keeps the
// caller-chosen domain error, anything else is an infrastructure fault.
func lookupError(err error, missing *utils.ApiError) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return missing
	}
	return utils.Internal("failed to look up user", err)
}

func (uc *UserController) findAndUpdate(ctx context.Context, userID bson.ObjectID, set bson.M) (*models.User, error) {
	set["updatedAt"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := uc.cols.Users.FindOneAndUpdate(ctx, bson.M{"_id": userID}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NotFound("User not found")
		}
		return nil, utils.Internal("failed to update user", err)
	}
	return &user, nil
}

// uploadRegistrationMedia uploads the required avatar and the optional
// cover image. When the cover upload fails the already-uploaded avatar is
// deleted, so a failed registration never retains media.
func uploadRegistrationMedia(ctx context.Context, media storage.MediaStore, avatarFile, coverFile *multipart.FileHeader) (*storage.Asset, *storage.Asset, error) {
	avatar, err := media.Upload(ctx, avatarFile, "avatars")
	if err != nil {
		return nil, nil, utils.Internal("Failed to upload avatar", err)
	}
	if coverFile == nil {
		return avatar, nil, nil
	}

	cover, err := media.Upload(ctx, coverFile, "covers")
	if err != nil {
		deleteAssets(ctx, media, []*storage.Asset{avatar})
		return nil, nil, utils.Internal("Failed to upload cover image", err)
	}
	return avatar, cover, nil
}

func deleteAssets(ctx context.Context, media storage.MediaStore, assets []*storage.Asset) {
	for _, a := range assets {
		if a == nil {
			continue
		}
		if err := media.Delete(ctx, a.ObjectName); err != nil {
			log.Printf("failed to delete orphaned media object %s: %v", a.ObjectName, err)
		}
	}
}

func (uc *UserController) setAuthCookies(c *gin.Context, pair *utils.TokenPair) {
	uc.setCookie(c, "accessToken", pair.AccessToken, int(uc.cfg.AccessTokenTTL.Seconds()))
	uc.setCookie(c, "refreshToken", pair.RefreshToken, int(uc.cfg.RefreshTokenTTL.Seconds()))
}

func (uc *UserController) clearAuthCookies(c *gin.Context) {
	uc.setCookie(c, "accessToken", "", -1)
	uc.setCookie(c, "refreshToken", "", -1)
}

func (uc *UserController) setCookie(c *gin.Context, name, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if uc.cfg.IsProduction() {
		sameSite = http.SameSiteNoneMode // for cross-site
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   uc.cfg.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   uc.cfg.IsProduction(),
		SameSite: sameSite,
	})
}

// requestUserID pulls the authenticated user id set by the auth middleware.
func requestUserID(c *gin.Context) (bson.ObjectID, error) {
	raw, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return bson.ObjectID{}, utils.Unauthorized("missing auth context")
	}
	id, err := bson.ObjectIDFromHex(raw.(string))
	if err != nil {
		return bson.ObjectID{}, utils.Unauthorized("invalid auth context")
	}
	return id, nil
}
