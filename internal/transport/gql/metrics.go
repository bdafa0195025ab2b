package gql

import (
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var gqlOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "users_api",
	Name:      "graphql_operations_total",
	Help:      "Count of executed GraphQL operations",
}, []string{"operation", "outcome"})

func observe(op string, r *graphql.Response) {
	outcome := "ok"
	switch {
	case len(r.Errors) > 0 && len(r.Data) == 0:
		outcome = "error"
	case len(r.Errors) > 0:
		outcome = "partial"
	}
	gqlOpsTotal.WithLabelValues(op, outcome).Inc()
}
