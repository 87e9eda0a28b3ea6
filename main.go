package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/streamhive/vidtube/config"
	"github.com/streamhive/vidtube/controllers"
	"github.com/streamhive/vidtube/database"
	"github.com/streamhive/vidtube/middleware"
	"github.com/streamhive/vidtube/storage"
	"github.com/streamhive/vidtube/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	client, cols, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal("MongoDB connection error: ", err)
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Println("mongo disconnect: ", err)
		}
	}()

	media, err := storage.New(ctx, &cfg.Media)
	if err != nil {
		log.Fatal("media store init: ", err)
	}

	tokens := utils.NewTokenManager(
		cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL,
	)
	validator := storage.NewFileValidator(&cfg.Media)

	userCtl := controllers.NewUserController(cols, tokens, media, validator, cfg)
	channelCtl := controllers.NewChannelController(cols)

	r := gin.New()

	allowedOrigins := map[string]bool{}
	for _, origin := range cfg.AllowedOrigins {
		allowedOrigins[origin] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.ErrorHandler(cfg.IsProduction()))

	v1 := r.Group("/api/v1")
	v1.GET("/healthcheck", controllers.Healthcheck())

	users := v1.Group("/users")
	{
		users.POST("/register", userCtl.Register())
		users.POST("/login", userCtl.Login())
		users.POST("/refresh-token", userCtl.Refresh())

		authed := users.Group("")
		authed.Use(middleware.AuthMiddleware(tokens))
		{
			authed.POST("/logout", userCtl.Logout())
			authed.POST("/change-password", userCtl.ChangePassword())
			authed.GET("/current-user", userCtl.CurrentUser())
			authed.PATCH("/update-account", userCtl.UpdateAccount())
			authed.PATCH("/avatar", userCtl.UpdateAvatar())
			authed.PATCH("/cover-image", userCtl.UpdateCoverImage())
			authed.GET("/c/:username", channelCtl.GetUserChannelProfile())
			authed.GET("/history", channelCtl.GetWatchHistory())
		}
	}

	log.Printf("Server is listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
