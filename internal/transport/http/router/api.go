package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	graphql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-gin-graphql-users/internal/core/server"
	"go-gin-graphql-users/internal/transport/gql"
	mdw "go-gin-graphql-users/internal/transport/http/middleware"
	resp "go-gin-graphql-users/internal/transport/http/response"
)

// APIOptions switch on the optional limits; zero values disable them.
type APIOptions struct {
	GraphQLPath    string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	RateLimitRPS   float64
	RateLimitBurst int
	RateLimitPerIP bool // true: 每个客户端 IP 一个令牌桶
	MaxConcurrent  int64
}

func NewAPIEngine(l *zap.Logger, schema *graphql.Schema, o APIOptions) *gin.Engine {
	r := server.NewRouter(l)

	chain := []gin.HandlerFunc{mdw.RequestID(), mdw.Metrics(), mdw.AccessLog(l)}
	if o.RateLimitRPS > 0 {
		limit := mdw.RateLimit
		if o.RateLimitPerIP {
			limit = mdw.RateLimitPerIP
		}
		chain = append(chain, limit(rate.Limit(o.RateLimitRPS), max(1, o.RateLimitBurst)))
	}
	if o.MaxConcurrent > 0 {
		chain = append(chain, mdw.ConcurrencyLimit(o.MaxConcurrent))
	}
	if o.MaxBodyBytes > 0 {
		chain = append(chain, mdw.MaxBodyBytes(o.MaxBodyBytes))
	}
	if o.RequestTimeout > 0 {
		chain = append(chain, mdw.Timeout(o.RequestTimeout))
	}
	r.Use(chain...)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	h := gql.Handler(schema)
	path := o.GraphQLPath
	if path == "" {
		path = "/graphql"
	}
	r.POST(path, h)
	r.GET(path, h)
	// 兼容挂在根路径的客户端
	if path != "/" {
		r.POST("/", h)
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, resp.Error(resp.CodeNotFound, ""))
	})
	return r
}
