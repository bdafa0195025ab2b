// Package gql serves the users GraphQL schema on top of a
// domain.UserRepository.
package gql

import (
	"context"
	_ "embed"

	graphql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"

	mdw "go-gin-graphql-users/internal/transport/http/middleware"
)

//go:embed schema.graphql
var schemaSDL string

type Options struct {
	MaxDepth       int // 0 = 不限制
	MaxParallelism int
}

// NewSchema parses the SDL and binds it to r. It fails if a schema field has
// no matching resolver method.
func NewSchema(r *Resolver, l *zap.Logger, o Options) (*graphql.Schema, error) {
	if l == nil {
		l = zap.NewNop()
	}
	opts := []graphql.SchemaOpt{
		graphql.Logger(panicLogger{l: l.Named("graphql")}),
	}
	if o.MaxDepth > 0 {
		opts = append(opts, graphql.MaxDepth(o.MaxDepth))
	}
	if o.MaxParallelism > 0 {
		opts = append(opts, graphql.MaxParallelism(o.MaxParallelism))
	}
	return graphql.ParseSchema(schemaSDL, r, opts...)
}

type panicLogger struct{ l *zap.Logger }

func (p panicLogger) LogPanic(ctx context.Context, value interface{}) {
	p.l.Error("resolver panic",
		zap.Any("panic", value),
		zap.String("rid", mdw.RequestIDFrom(ctx)),
		zap.Stack("stack"),
	)
}
