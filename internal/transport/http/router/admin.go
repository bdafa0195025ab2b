package router

import (
	"context"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	mdw "go-gin-graphql-users/internal/transport/http/middleware"
)

// NewAdminEngine serves liveness, readiness and prometheus metrics. It is
// meant for a private listener and has no CORS.
func NewAdminEngine(l *zap.Logger, ready func(context.Context) error) *gin.Engine {
	r := gin.New()
	r.Use(
		mdw.SimpleRecovery(l),
		ginzap.Ginzap(l.Named("admin"), time.RFC3339, true),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": 0, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
