package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-gin-graphql-users/internal/testutil"
	"go-gin-graphql-users/internal/transport/gql"
	"go-gin-graphql-users/internal/transport/http/router"
)

func init() { gin.SetMode(gin.TestMode) }

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
		Path    []any  `json:"path"`
	} `json:"errors"`
}

type user struct {
	UserID    int     `json:"userId"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      *string `json:"role"`
}

type client struct {
	t *testing.T
	h http.Handler
}

func newClient(t *testing.T, o router.APIOptions) *client {
	t.Helper()
	schema, err := gql.NewSchema(gql.NewResolver(testutil.NewUserRepo(t)), zap.NewNop(), gql.Options{})
	require.NoError(t, err)
	return &client{t: t, h: router.NewAPIEngine(zap.NewNop(), schema, o)}
}

func (c *client) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)
	return w
}

func (c *client) do(query string, vars map[string]any) gqlResponse {
	c.t.Helper()
	b, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	require.NoError(c.t, err)
	w := c.post("/graphql", string(b))
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	var out gqlResponse
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (c *client) ok(query string, vars map[string]any) gqlResponse {
	c.t.Helper()
	out := c.do(query, vars)
	require.Empty(c.t, out.Errors)
	return out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func p(s string) *string { return &s }

const (
	createAda = `mutation { createUser(firstName: "Ada", lastName: "Lovelace", role: "admin") { userId firstName lastName role } }`
	getUser   = `query($id: Int!) { getUser(userId: $id) { userId firstName lastName role } }`
	getUsers  = `{ getUsers { userId firstName lastName role } }`
)

func TestAPI_CreateThenGetAndList(t *testing.T) {
	c := newClient(t, router.APIOptions{})

	created := decode[user](t, c.ok(createAda, nil).Data["createUser"])
	require.NotZero(t, created.UserID)
	require.Equal(t, user{UserID: created.UserID, FirstName: p("Ada"), LastName: p("Lovelace"), Role: p("admin")}, created)

	got := decode[*user](t, c.ok(getUser, map[string]any{"id": created.UserID}).Data["getUser"])
	require.Equal(t, &created, got)

	all := decode[[]user](t, c.ok(getUsers, nil).Data["getUsers"])
	require.Contains(t, all, created)
}

func TestAPI_IDsAreUnique(t *testing.T) {
	c := newClient(t, router.APIOptions{})
	seen := map[int]bool{}
	for i := 0; i < 10; i++ {
		u := decode[user](t, c.ok(createAda, nil).Data["createUser"])
		require.False(t, seen[u.UserID])
		seen[u.UserID] = true
	}
	require.Len(t, decode[[]user](t, c.ok(getUsers, nil).Data["getUsers"]), 10)
}

// updateUser with only firstName overwrites lastName and role with null.
func TestAPI_UpdateOverwritesOmittedFieldsWithNull(t *testing.T) {
	c := newClient(t, router.APIOptions{})
	created := decode[user](t, c.ok(createAda, nil).Data["createUser"])

	out := c.ok(`mutation($id: Int!) { updateUser(userId: $id, firstName: "A.") { userId firstName lastName role } }`,
		map[string]any{"id": created.UserID})
	echoed := decode[user](t, out.Data["updateUser"])
	require.Equal(t, user{UserID: created.UserID, FirstName: p("A.")}, echoed)

	stored := decode[*user](t, c.ok(getUser, map[string]any{"id": created.UserID}).Data["getUser"])
	require.Equal(t, &user{UserID: created.UserID, FirstName: p("A.")}, stored)
}

func TestAPI_UpdateAllFields(t *testing.T) {
	c := newClient(t, router.APIOptions{})
	created := decode[user](t, c.ok(createAda, nil).Data["createUser"])

	c.ok(`mutation($id: Int!) { updateUser(userId: $id, firstName: "Grace", lastName: "Hopper", role: "user") { userId } }`,
		map[string]any{"id": created.UserID})
	stored := decode[*user](t, c.ok(getUser, map[string]any{"id": created.UserID}).Data["getUser"])
	require.Equal(t, &user{UserID: created.UserID, FirstName: p("Grace"), LastName: p("Hopper"), Role: p("user")}, stored)
}

func TestAPI_UpdateMissingIDStillEchoes(t *testing.T) {
	c := newClient(t, router.APIOptions{})
	out := c.ok(`mutation { updateUser(userId: 4242, role: "ghost") { userId role } }`, nil)
	require.JSONEq(t, `{"userId":4242,"role":"ghost"}`, string(out.Data["updateUser"]))

	require.JSONEq(t, `null`, string(c.ok(getUser, map[string]any{"id": 4242}).Data["getUser"]))
}

func TestAPI_DeleteThenGetIsNull(t *testing.T) {
	c := newClient(t, router.APIOptions{})
	created := decode[user](t, c.ok(createAda, nil).Data["createUser"])

	out := c.ok(`mutation($id: Int!) { deleteUser(userId: $id) }`, map[string]any{"id": created.UserID})
	require.JSONEq(t, `"User deleted"`, string(out.Data["deleteUser"]))

	require.JSONEq(t, `null`, string(c.ok(getUser, map[string]any{"id": created.UserID}).Data["getUser"]))
	require.JSONEq(t, `[]`, string(c.ok(getUsers, nil).Data["getUsers"]))
}

func TestAPI_DeleteMissingIDSucceeds(t *testing.T) {
	c := newClient(t, router.APIOptions{})
	out := c.ok(`mutation { deleteUser(userId: 9999) }`, nil)
	require.JSONEq(t, `"User deleted"`, string(out.Data["deleteUser"]))
}

func TestAPI_GetMissingUserIsNullNotError(t *testing.T) {
	c := newClient(t, router.APIOptions{})
	out := c.ok(`{ getUser(userId: 9999) { userId } }`, nil)
	require.JSONEq(t, `null`, string(out.Data["getUser"]))
}

func TestAPI_HelloAndRandomNumber(t *testing.T) {
	c := newClient(t, router.APIOptions{})
	out := c.ok(`{ hello randomNumber }`, nil)
	require.JSONEq(t, `"world"`, string(out.Data["hello"]))
	n := decode[int](t, out.Data["randomNumber"])
	assert.GreaterOrEqual(t, n, 0)
	assert.Less(t, n, 100)
}

func TestAPI_ValidationErrors(t *testing.T) {
	c := newClient(t, router.APIOptions{})
	out := c.do(`{ getUser { userId } }`, nil)
	require.NotEmpty(t, out.Errors)
	require.Nil(t, out.Data)
}

func TestAPI_Transport(t *testing.T) {
	c := newClient(t, router.APIOptions{MaxBodyBytes: 256})

	t.Run("root path accepts POST", func(t *testing.T) {
		w := c.post("/", `{"query":"{ hello }"}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"data":{"hello":"world"}}`, w.Body.String())
	})

	t.Run("GET with variables", func(t *testing.T) {
		q := url.Values{}
		q.Set("query", `query Get($id: Int!) { getUser(userId: $id) { userId } }`)
		q.Set("operationName", "Get")
		q.Set("variables", `{"id": 1}`)
		w := httptest.NewRecorder()
		c.h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/graphql?"+q.Encode(), nil))
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"data":{"getUser":null}}`, w.Body.String())
	})

	t.Run("malformed body", func(t *testing.T) {
		w := c.post("/graphql", `{"query":`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, w.Body.String(), `"errors"`)
	})

	t.Run("missing query", func(t *testing.T) {
		w := c.post("/graphql", `{"variables":{}}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.JSONEq(t, `{"errors":[{"message":"query is required","extensions":{"code":400}}]}`, w.Body.String())
	})

	t.Run("body too large", func(t *testing.T) {
		big := `{"query":"{ hello }","variables":{"pad":"` + strings.Repeat("x", 512) + `"}}`
		w := c.post("/graphql", big)
		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("cors on responses", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewBufferString(`{"query":"{ hello }"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		c.h.ServeHTTP(w, req)
		require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		require.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		c.h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, w.Code)
	})
}

func (c *client) get(query, opName string) *httptest.ResponseRecorder {
	q := url.Values{}
	q.Set("query", query)
	if opName != "" {
		q.Set("operationName", opName)
	}
	req := httptest.NewRequest(http.MethodGet, "/graphql?"+q.Encode(), nil)
	req.Header.Set("Origin", "http://other-site.test")
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)
	return w
}

// GET is a CORS simple request, so it must not be able to write.
func TestAPI_GetRefusesMutations(t *testing.T) {
	c := newClient(t, router.APIOptions{})

	w := c.get(createAda, "")
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.Equal(t, http.MethodPost, w.Header().Get("Allow"))
	require.JSONEq(t, `{"errors":[{"message":"mutations must be sent with POST","extensions":{"code":405}}]}`, w.Body.String())

	w = c.get(`mutation Del { deleteUser(userId: 1) }`, "Del")
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)

	require.JSONEq(t, `[]`, string(c.ok(getUsers, nil).Data["getUsers"]))

	// 同一文档里选中的是 query 时照常执行
	w = c.get(`query Hi { hello } mutation Make { createUser(firstName: "a", lastName: "b", role: "c") { userId } }`, "Hi")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"data":{"hello":"world"}}`, w.Body.String())
	require.JSONEq(t, `[]`, string(c.ok(getUsers, nil).Data["getUsers"]))

	// 无法解析的文档交给执行器报错
	w = c.get(`{ hello `, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"errors"`)
}

func TestAPI_RateLimitPerIP(t *testing.T) {
	c := newClient(t, router.APIOptions{RateLimitRPS: 0.0001, RateLimitBurst: 1, RateLimitPerIP: true})

	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ hello }"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = ip + ":40000"
		w := httptest.NewRecorder()
		c.h.ServeHTTP(w, req)
		return w.Code
	}
	require.Equal(t, http.StatusOK, from("10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, from("10.0.0.1"))
	require.Equal(t, http.StatusOK, from("10.0.0.2"))
}

func TestAPI_RateLimitGlobal(t *testing.T) {
	c := newClient(t, router.APIOptions{RateLimitRPS: 0.0001, RateLimitBurst: 1})

	require.Equal(t, http.StatusOK, c.post("/graphql", `{"query":"{ hello }"}`).Code)
	w := c.post("/graphql", `{"query":"{ hello }"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.JSONEq(t, `{"errors":[{"message":"too many requests","extensions":{"code":429}}]}`, w.Body.String())
}

func TestAPI_UnknownPathIsGraphQLShaped404(t *testing.T) {
	c := newClient(t, router.APIOptions{})

	w := c.post("/nope", `{"query":"{ hello }"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"errors":[{"message":"Not Found","extensions":{"code":404}}]}`, w.Body.String())
}

func TestAdminEngine(t *testing.T) {
	var readyErr error
	h := router.NewAdminEngine(zap.NewNop(), func(context.Context) error { return readyErr })
	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	require.Equal(t, http.StatusOK, get("/health").Code)
	require.Equal(t, http.StatusOK, get("/readyz").Code)

	readyErr = errors.New("database is closed")
	w := get("/readyz")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "database is closed")

	w = get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "go_goroutines")
}
