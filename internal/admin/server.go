// Package admin exposes the optional local status listener. It is disabled
// unless an address is configured; the always-on reporting surface remains the
// periodic stats lines on standard output.
package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/edgelab-io/sensorlogd/internal/acquire"
)

// StatusSource supplies point-in-time endpoint counters.
type StatusSource interface {
	Snapshots() []acquire.Snapshot
}

// Server serves /health and /status on a local address.
type Server struct {
	addr      string
	engine    *gin.Engine
	logger    zerolog.Logger
	startedAt time.Time
}

func New(addr string, source StatusSource, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"http://localhost:3000"},
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	s := &Server{
		addr:      addr,
		engine:    r,
		logger:    logger,
		startedAt: time.Now(),
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.startedAt).String(),
			"service": "sensorlogd",
			"version": "0.1.0",
		})
	})
	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"endpoints": source.Snapshots(),
		})
	})
	return s
}

// Handler exposes the route tree for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve runs the listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info().Str("addr", s.addr).Msg("admin listener started")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
