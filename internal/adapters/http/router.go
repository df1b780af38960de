package http

import (
	"context"

	"github.com/dkeye/Classroom/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const sessionName = "ClassroomSessions"

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, room *Classroom) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	limit := RateLimit(NewActionRateLimiter(cfg.ActionLimit, cfg.ActionInterval))

	api := r.Group("/api")

	classroom := api.Group("/classroom")
	classroom.GET("", room.handleTree)
	classroom.POST("/start", limit, room.handleStart)
	classroom.POST("/stop", limit, room.handleStop)
	classroom.DELETE("/participants/:id", room.handleRemoveParticipant)
	classroom.PUT("/fullscreen", room.handleFullscreen)
	classroom.PUT("/overlay", room.handleOverlay)
	classroom.PUT("/camera", room.handleCamera)
	classroom.PUT("/microphone", room.handleMicrophone)

	members := api.Group("/members")
	members.GET("", room.handleMembers)
	members.PUT("/:id", room.handleUpsertMember)
	members.DELETE("/:id", room.handleRemoveMember)

	api.GET("/ws/view", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws view endpoint hit")
		room.HandleView(ctx, c)
	})

	return r
}
