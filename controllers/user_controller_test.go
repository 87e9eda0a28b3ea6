package controllers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/streamhive/vidtube/config"
	"github.com/streamhive/vidtube/middleware"
	"github.com/streamhive/vidtube/storage"
	"github.com/streamhive/vidtube/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(env string) *config.Config {
	return &config.Config{
		Env:             env,
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 14 * 24 * time.Hour,
	}
}

// newTestController builds a controller without database or media store;
// only handler paths that fail before touching them are exercised here.
func newTestController(env string) *UserController {
	tokens := utils.NewTokenManager("access", "refresh", 15*time.Minute, 14*24*time.Hour)
	return NewUserController(nil, tokens, nil, nil, testConfig(env))
}

func newTestRouter(uc *UserController) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler(false))
	r.POST("/register", uc.Register())
	r.POST("/login", uc.Login())
	r.POST("/refresh-token", uc.Refresh())
	r.POST("/change-password", uc.ChangePassword())
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterMissingFields(t *testing.T) {
	r := newTestRouter(newTestController("development"))

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("fullName=Alice"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "All fields are required")
}

func TestLoginMalformedBody(t *testing.T) {
	r := newTestRouter(newTestController("development"))
	w := postJSON(r, "/login", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginMissingCredentials(t *testing.T) {
	r := newTestRouter(newTestController("development"))

	w := postJSON(r, "/login", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/login", `{"password":"pw"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshMissingToken(t *testing.T) {
	r := newTestRouter(newTestController("development"))
	w := postJSON(r, "/refresh-token", `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "No refresh token provided")
}

func TestRefreshGarbageToken(t *testing.T) {
	r := newTestRouter(newTestController("development"))
	w := postJSON(r, "/refresh-token", `{"refreshToken":"not.a.jwt"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChangePasswordMissingFields(t *testing.T) {
	r := newTestRouter(newTestController("development"))
	w := postJSON(r, "/change-password", `{"oldPassword":"only-old"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// fakeMediaStore records uploads and deletes; folders listed in failOn
// make Upload fail.
type fakeMediaStore struct {
	failOn   map[string]bool
	uploads  []string
	deletes  []string
	sequence int
}

func (f *fakeMediaStore) Upload(_ context.Context, _ *multipart.FileHeader, folder string) (*storage.Asset, error) {
	if f.failOn[folder] {
		return nil, errors.New("upstream unavailable")
	}
	f.sequence++
	name := fmt.Sprintf("%s/object-%d", folder, f.sequence)
	f.uploads = append(f.uploads, name)
	return &storage.Asset{
		URL:        "https://media.example.com/" + name,
		ObjectName: name,
	}, nil
}

func (f *fakeMediaStore) Delete(_ context.Context, objectName string) error {
	f.deletes = append(f.deletes, objectName)
	return nil
}

func (f *fakeMediaStore) ObjectNameFromURL(raw string) (string, error) {
	return strings.TrimPrefix(raw, "https://media.example.com/"), nil
}

func TestUploadRegistrationMediaCoverFailureDeletesAvatar(t *testing.T) {
	media := &fakeMediaStore{failOn: map[string]bool{"covers": true}}

	_, _, err := uploadRegistrationMedia(t.Context(), media, nil, &multipart.FileHeader{Filename: "cover.png"})
	require.Error(t, err)

	var apiErr *utils.ApiError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, utils.KindInternal, apiErr.Kind)

	// The avatar made it up before the cover failed; nothing may be retained.
	require.Len(t, media.uploads, 1)
	assert.Equal(t, media.uploads, media.deletes)
}

func TestUploadRegistrationMediaAvatarFailure(t *testing.T) {
	media := &fakeMediaStore{failOn: map[string]bool{"avatars": true}}

	_, _, err := uploadRegistrationMedia(t.Context(), media, nil, nil)
	require.Error(t, err)
	assert.Empty(t, media.uploads)
	assert.Empty(t, media.deletes)
}

func TestUploadRegistrationMediaSuccess(t *testing.T) {
	media := &fakeMediaStore{}

	avatar, cover, err := uploadRegistrationMedia(t.Context(), media, nil, &multipart.FileHeader{Filename: "cover.png"})
	require.NoError(t, err)
	require.NotNil(t, avatar)
	require.NotNil(t, cover)
	assert.True(t, strings.HasPrefix(avatar.ObjectName, "avatars/"))
	assert.True(t, strings.HasPrefix(cover.ObjectName, "covers/"))
	assert.Empty(t, media.deletes)

	// Without a cover file only the avatar goes up.
	media = &fakeMediaStore{}
	avatar, cover, err = uploadRegistrationMedia(t.Context(), media, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, avatar)
	assert.Nil(t, cover)
}

func TestLookupError(t *testing.T) {
	t.Parallel()

	missing := utils.Unauthorized("Invalid refresh token")

	var apiErr *utils.ApiError
	require.True(t, errors.As(lookupError(mongo.ErrNoDocuments, missing), &apiErr))
	assert.Equal(t, utils.KindUnauthorized, apiErr.Kind)
	assert.Equal(t, "Invalid refresh token", apiErr.Message)

	// An infrastructure fault must not masquerade as bad credentials.
	require.True(t, errors.As(lookupError(errors.New("conn reset"), missing), &apiErr))
	assert.Equal(t, utils.KindInternal, apiErr.Kind)
}

func TestAuthCookiesFlags(t *testing.T) {
	cases := []struct {
		env        string
		wantSecure bool
	}{
		{"development", false},
		{"production", true},
	}

	for _, tc := range cases {
		t.Run(tc.env, func(t *testing.T) {
			uc := newTestController(tc.env)
			pair, err := uc.tokens.IssuePair("u1", "", "")
			require.NoError(t, err)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			uc.setAuthCookies(c, pair)

			cookies := w.Result().Cookies()
			require.Len(t, cookies, 2)
			byName := map[string]*http.Cookie{}
			for _, ck := range cookies {
				byName[ck.Name] = ck
			}

			for _, name := range []string{"accessToken", "refreshToken"} {
				ck, ok := byName[name]
				require.True(t, ok, "missing %s cookie", name)
				assert.True(t, ck.HttpOnly, "%s must be http-only", name)
				assert.Equal(t, tc.wantSecure, ck.Secure, "%s secure flag", name)
				assert.NotEmpty(t, ck.Value)
			}
			assert.Greater(t, byName["refreshToken"].MaxAge, byName["accessToken"].MaxAge)
		})
	}
}

func TestClearAuthCookies(t *testing.T) {
	uc := newTestController("development")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	uc.clearAuthCookies(c)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, ck := range cookies {
		assert.Empty(t, ck.Value)
		assert.Negative(t, ck.MaxAge)
	}
}
