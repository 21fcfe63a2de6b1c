package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the operator-facing HTTP surface: health and Prometheus
// scrape endpoints for one running refactorcore process. The "/metrics"
// scrape endpoint is bound to this process's own Metrics registry rather
// than the global default one (see Metrics.Registry's doc comment).
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

// NewServer builds the gin engine and registers its routes. addr is the
// listen address (e.g. ":9090"); the server does not start listening
// until Run is called.
func NewServer(addr string, metrics *Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handler := promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})
	engine.GET("/metrics", gin.WrapH(handler))

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run blocks serving HTTP until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
