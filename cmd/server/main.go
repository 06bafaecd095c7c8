package main

import (
	"log"

	"github.com/saad-deshmukh/typing-test-website/internal/config"
	"github.com/saad-deshmukh/typing-test-website/internal/database"
	"github.com/saad-deshmukh/typing-test-website/internal/game"
	"github.com/saad-deshmukh/typing-test-website/internal/handlers"
	"github.com/saad-deshmukh/typing-test-website/internal/middleware"
	"github.com/saad-deshmukh/typing-test-website/internal/services"
	"github.com/saad-deshmukh/typing-test-website/internal/workers"
	"github.com/saad-deshmukh/typing-test-website/internal/ws"

	_ "github.com/saad-deshmukh/typing-test-website/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Typing Test API
// @version         1.0
// @description     API for typing-speed practice with multiplayer rooms and a leaderboard
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	hub := ws.NewHub()

	registry := game.NewRegistry(database.NewGameStore(db), hub, services.PickText, game.Options{
		Capacity:        cfg.RoomCapacity,
		MinPlayers:      cfg.MinPlayers,
		DisconnectGrace: cfg.DisconnectGrace,
	})

	authService := services.NewAuthService(db, cfg.JWTSecret)
	statsService := services.NewStatsService(db)

	authHandler := handlers.NewAuthHandler(authService)
	gameHandler := handlers.NewGameHandler(registry)
	statsHandler := handlers.NewStatsHandler(statsService)
	wsHandler := handlers.NewWSHandler(authService, registry, hub, cfg.ProgressInterval)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws/game", wsHandler.HandleGameSocket)

	sweeper := workers.NewRoomSweeper(registry, cfg.RoomMaxIdle)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("failed to start room sweeper: %v", err)
	}
	defer sweeper.Stop()

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.JWTAuth(authService), authHandler.Me)
		}

		games := api.Group("/game")
		games.Use(middleware.JWTAuth(authService))
		{
			games.POST("/create-room", gameHandler.CreateRoom)
			games.POST("/join-room", gameHandler.JoinRoom)
			games.POST("/leave", gameHandler.Leave)
			games.GET("/status", gameHandler.Status)
			games.GET("/room/:roomToken", gameHandler.GetRoom)
		}

		stats := api.Group("/stats")
		{
			stats.GET("/leaderboard", statsHandler.Leaderboard)
			stats.POST("/save", middleware.JWTAuth(authService), statsHandler.SaveResult)
			stats.GET("/me", middleware.JWTAuth(authService), statsHandler.MyStats)
		}
	}

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
