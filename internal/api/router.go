package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/retroline/retroline/internal/app"
	"github.com/retroline/retroline/internal/middleware"
	"github.com/retroline/retroline/internal/node"
	"github.com/retroline/retroline/internal/ws"
)

// NewRouter builds the Gin engine, wires middleware and registers routes.
// The terminal itself lives on /ws; the rest is operational surface.
func NewRouter(cfg *app.Config, db *gorm.DB, terminal *ws.Handler, nodes *node.Registry) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if terminal == nil {
		return nil, fmt.Errorf("terminal handler must be provided")
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	r.GET("/ws", terminal.Serve)

	if cfg.Monitoring.Health.Enabled {
		r.GET("/api/health", healthHandler(db))
	}

	r.GET("/api/board", boardHandler(cfg, nodes))
	r.GET("/api/nodes", nodesHandler(nodes))

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	return r, nil
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"status":  "degraded",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"status":     "ok",
			"checked_at": time.Now().UTC(),
		})
	}
}

// boardHandler exposes the public board banner data the frontend shows on
// its connect screen.
func boardHandler(cfg *app.Config, nodes *node.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		online := 0
		maxNodes := cfg.Board.MaxNodes
		if nodes != nil {
			online = nodes.Count()
			maxNodes = nodes.MaxNodes()
		}
		c.JSON(http.StatusOK, gin.H{
			"name":      cfg.Board.Name,
			"tagline":   cfg.Board.Tagline,
			"online":    online,
			"max_nodes": maxNodes,
		})
	}
}

func nodesHandler(nodes *node.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if nodes == nil {
			c.JSON(http.StatusOK, gin.H{"nodes": []any{}})
			return
		}
		type nodeView struct {
			ID        int    `json:"id"`
			Handle    string `json:"handle"`
			Activity  string `json:"activity"`
			OnlineFor string `json:"online_for"`
		}
		list := nodes.List()
		out := make([]nodeView, 0, len(list))
		for _, info := range list {
			out = append(out, nodeView{
				ID:        info.ID,
				Handle:    info.Handle,
				Activity:  info.Activity,
				OnlineFor: time.Since(info.ConnectedAt).Truncate(time.Second).String(),
			})
		}
		c.JSON(http.StatusOK, gin.H{"nodes": out})
	}
}
