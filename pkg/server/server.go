// Package server exposes the walrs-core deployment over HTTP: rollout
// status, the rendered manifests, lint results, and Prometheus metrics.
package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/walrs/walrsctl/pkg/kube"
	"github.com/walrs/walrsctl/pkg/lint"
	"github.com/walrs/walrsctl/pkg/manifest"
)

// Server serves the status endpoint for one descriptor pair.
type Server struct {
	manager *kube.Manager
	opts    manifest.Options
	engine  *gin.Engine
}

// New builds a Server with routes and metrics middleware installed.
func New(manager *kube.Manager, opts manifest.Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), metricsMiddleware())

	s := &Server{
		manager: manager,
		opts:    opts,
		engine:  engine,
	}

	engine.GET("/healthz", s.healthzHandler)
	engine.GET("/status", s.statusHandler)
	engine.GET("/manifests", s.manifestsHandler)
	engine.GET("/lint", s.lintHandler)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("Serving walrs-core status on %s", addr)
	return s.engine.Run(addr)
}

func (s *Server) healthzHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusHandler reports the live rollout state of the broker pair.
func (s *Server) statusHandler(c *gin.Context) {
	status, err := s.manager.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": gin.H{
				"message": err.Error(),
				"type":    "status_failed",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deployment": s.opts.Namespace + "/" + s.opts.Name,
		"service":    s.opts.Namespace + "/" + s.opts.ServiceName(),
		"status":     status,
	})
}

// manifestsHandler returns the rendered YAML for the configured pair.
func (s *Server) manifestsHandler(c *gin.Context) {
	out, err := manifest.RenderYAML(s.opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"message": err.Error(),
				"type":    "render_failed",
			},
		})
		return
	}
	c.Data(http.StatusOK, "application/yaml", out)
}

// lintHandler runs the structural checks against the configured pair.
func (s *Server) lintHandler(c *gin.Context) {
	findings := lint.Check(manifest.Deployment(s.opts), manifest.Service(s.opts))
	if findings == nil {
		findings = []lint.Finding{}
	}
	c.JSON(http.StatusOK, gin.H{
		"findings": findings,
		"clean":    len(findings) == 0,
	})
}
