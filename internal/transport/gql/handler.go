package gql

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	mdw "go-gin-graphql-users/internal/transport/http/middleware"
	resp "go-gin-graphql-users/internal/transport/http/response"
)

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// Handler executes GraphQL requests: JSON bodies on POST, query string
// parameters on GET. GET only runs queries; a mutation over GET gets 405.
func Handler(schema *graphql.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in request
		switch c.Request.Method {
		case http.MethodGet:
			in.Query = c.Query("query")
			in.OperationName = c.Query("operationName")
			if v := c.Query("variables"); v != "" {
				if err := json.Unmarshal([]byte(v), &in.Variables); err != nil {
					c.AbortWithStatusJSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, "variables must be a JSON object"))
					return
				}
			}
		default:
			if err := c.ShouldBindJSON(&in); err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp.Error(resp.CodeTooLarge, ""))
					return
				}
				c.AbortWithStatusJSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, "invalid request body: "+err.Error()))
				return
			}
		}
		if in.Query == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, "query is required"))
			return
		}
		if c.Request.Method == http.MethodGet && operationType(in.Query, in.OperationName) == ast.Mutation {
			c.Header("Allow", http.MethodPost)
			c.AbortWithStatusJSON(http.StatusMethodNotAllowed, resp.Error(resp.CodeMethodNotAllowed, "mutations must be sent with POST"))
			return
		}

		op := in.OperationName
		if op == "" {
			op = "anonymous"
		}
		c.Set(mdw.KeyOperation, op)

		out := schema.Exec(c.Request.Context(), in.Query, in.OperationName, in.Variables)
		observe(op, out)
		c.JSON(http.StatusOK, out)
	}
}

// operationType reports the type of the operation that name selects in doc.
// Unparseable or ambiguous documents return "" and are left to the executor
// to reject.
func operationType(doc, name string) ast.Operation {
	q, err := parser.ParseQuery(&ast.Source{Input: doc})
	if err != nil {
		return ""
	}
	op := q.Operations.ForName(name)
	if op == nil {
		return ""
	}
	return op.Operation
}
