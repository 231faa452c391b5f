package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mindguard/internal/handler"
	"mindguard/internal/middleware"
)

// Deps collects everything the HTTP layer needs. Review is nil when
// the review store is disabled.
type Deps struct {
	Assess    handler.AssessHandler
	Incidents handler.IncidentHandler
	Auth      handler.AuthHandler
	Lexicon   handler.LexiconHandler
	Review    handler.ReviewHandler
	JWTSecret []byte
	CORS      []string
}

type Server struct {
	router *gin.Engine
	srv    *http.Server
	log    *zap.Logger
}

func NewServer(deps Deps, log *zap.Logger) *Server {
	router := gin.Default()

	if len(deps.CORS) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = deps.CORS
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
		router.Use(cors.New(corsCfg))
	}

	s := &Server{
		router: router,
		log:    log,
	}
	s.setupRoutes(deps)

	return s
}

func (s *Server) setupRoutes(deps Deps) {
	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// Authentication routes
	authGroup := s.router.Group("/api/auth")
	authGroup.POST("/register", deps.Auth.Register)
	authGroup.POST("/login", deps.Auth.Login)

	// Authenticated routes
	authRequired := s.router.Group("/api")
	authRequired.Use(middleware.AuthMiddleware(deps.JWTSecret, s.log))
	{
		authRequired.POST("/auth/logout", deps.Auth.Logout)

		authRequired.POST("/assess", deps.Assess.Assess)
		authRequired.POST("/chat", deps.Assess.Chat)

		authRequired.GET("/incidents", deps.Incidents.GetAllIncidents)
		authRequired.GET("/incidents/:id", deps.Incidents.GetIncidentByID)
		authRequired.PUT("/incidents/:id/status", deps.Incidents.UpdateIncidentStatus)
		authRequired.GET("/assessments", deps.Incidents.GetRecentAssessments)

		authRequired.GET("/lexicon", deps.Lexicon.GetLexicon)

		if deps.Review != nil {
			authRequired.GET("/review/samples", deps.Review.ListPendingSamples)
			authRequired.PUT("/review/samples/:id", deps.Review.MarkSampleReviewed)
		}
	}
}

func (s *Server) Run(addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info("Server starting", zap.String("addr", addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
