package server

import (
	"context"
	"heartbeat/config"
	"heartbeat/logger"
	"heartbeat/schedule"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SnapshotFunc returns the live scheduler state
type SnapshotFunc func() schedule.Snapshot

// Server is a gin based router exposing the scheduler status
type Server struct {
	config   config.Config
	snapshot SnapshotFunc
	router   *gin.Engine
}

func NewServer(config config.Config, snapshot SnapshotFunc) *Server {
	// always in release mode
	gin.SetMode(gin.ReleaseMode)

	// don't use default logging since it would log every status poll
	router := gin.New()

	// use recovery middleware to handle any panics and returns a 500 if there was one
	router.Use(gin.Recovery())

	// ignore trusted proxies since we don't use any and there's a warning for this
	router.SetTrustedProxies(nil)

	s := &Server{
		config:   config,
		snapshot: snapshot,
		router:   router,
	}

	router.GET("/healthz", s.GetHealth)
	router.GET("/status", Authentication(config.StatusToken), s.GetStatus)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is done
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("Starting status server", "port", s.config.Port)

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) GetHealth(c *gin.Context) {
	snapshot := s.snapshot()
	if !snapshot.Running {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "stopped"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"uuid":      s.config.UUID.String(),
		"version":   s.config.Version,
		"scheduler": s.snapshot(),
	})
}
