package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklist/internal/auth"
	"tasklist/internal/controller"
	"tasklist/internal/models"
	"tasklist/internal/repository"
	"tasklist/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	store := repository.NewMemory()
	tokens, err := auth.NewTokenService("router-test-secret", time.Hour, "")
	require.NoError(t, err)
	accounts := service.NewAccounts(service.AccountsParams{
		Store:  store,
		Hasher: auth.NewScryptHasher(auth.ScryptParams{N: 1 << 10, R: 8, P: 1}, 4),
		Tokens: tokens,
	})
	todos := service.NewTodos(service.TodosParams{Store: store})
	return Router(Deps{
		Accounts:    controller.NewAccounts(accounts),
		Todos:       controller.NewTodos(todos),
		Health:      controller.NewHealth(nil),
		Tokens:      tokens,
		CORSOrigins: []string{"http://localhost:3000"},
		GinMode:     gin.TestMode,
	})
}

func call(t *testing.T, r http.Handler, method, path, token, body string) (int, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	out := map[string]json.RawMessage{}
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func str(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}

func signupAndSignin(t *testing.T, r http.Handler, email, password string) (string, string) {
	t.Helper()
	creds := `{"email":"` + email + `","password":"` + password + `"}`
	code, body := call(t, r, http.MethodPost, "/api/v1/signup", "", creds)
	require.Equal(t, http.StatusOK, code)
	userID := str(t, body["userId"])

	code, body = call(t, r, http.MethodPost, "/api/v1/signin", "", creds)
	require.Equal(t, http.StatusOK, code)
	return userID, str(t, body["token"])
}

func TestEndToEnd(t *testing.T) {
	r := newTestRouter(t)
	userA, tokenA := signupAndSignin(t, r, "a@x.io", "pw1")

	code, body := call(t, r, http.MethodPost, "/api/v1/todo", tokenA, `{"title":"t1","description":"d1"}`)
	require.Equal(t, http.StatusOK, code)
	var created models.Todo
	require.NoError(t, json.Unmarshal(body["todo"], &created))
	assert.Equal(t, userA, created.UserID)
	assert.Equal(t, "t1", created.Title)
	assert.False(t, created.Completed)

	code, body = call(t, r, http.MethodGet, "/api/v1/todos", tokenA, "")
	require.Equal(t, http.StatusOK, code)
	var list []models.Todo
	require.NoError(t, json.Unmarshal(body["todos"], &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	_, tokenB := signupAndSignin(t, r, "b@x.io", "pw2")
	code, body = call(t, r, http.MethodGet, "/api/v1/todos", tokenB, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(body["todos"]))
}

func TestSignupConflictAndBadPassword(t *testing.T) {
	r := newTestRouter(t)
	signupAndSignin(t, r, "a@x.io", "pw1")

	code, body := call(t, r, http.MethodPost, "/api/v1/signup", "", `{"email":"a@x.io","password":"pw1"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "User already exists", str(t, body["message"]))

	code, body = call(t, r, http.MethodPost, "/api/v1/signin", "", `{"email":"a@x.io","password":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid password", str(t, body["message"]))
}

func TestMissingFields(t *testing.T) {
	r := newTestRouter(t)

	code, _ := call(t, r, http.MethodPost, "/api/v1/signup", "", `{"email":"a@x.io"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	_, token := signupAndSignin(t, r, "a@x.io", "pw1")
	code, _ = call(t, r, http.MethodPost, "/api/v1/todo", token, `{"title":"only title"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAuthRequired(t *testing.T) {
	r := newTestRouter(t)

	code, body := call(t, r, http.MethodGet, "/api/v1/todos", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized", str(t, body["message"]))

	code, _ = call(t, r, http.MethodPost, "/api/v1/todo", "garbage", `{"title":"t","description":"d"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	other, err := auth.NewTokenService("another-secret", time.Hour, "")
	require.NoError(t, err)
	forged, err := other.Issue("someone")
	require.NoError(t, err)
	code, _ = call(t, r, http.MethodGet, "/api/v1/todos", forged, "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRouteTableDeclaresAuth(t *testing.T) {
	authed := map[string]bool{}
	for _, rt := range Routes(Deps{
		Accounts: &controller.Accounts{},
		Todos:    &controller.Todos{},
		Health:   &controller.Health{},
	}) {
		authed[rt.Method+" "+rt.Path] = rt.Auth
	}
	assert.False(t, authed["POST /api/v1/signup"])
	assert.False(t, authed["POST /api/v1/signin"])
	assert.True(t, authed["POST /api/v1/todo"])
	assert.True(t, authed["GET /api/v1/todos"])
}

func TestProbesAndNotFound(t *testing.T) {
	r := newTestRouter(t)

	code, _ := call(t, r, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, r, http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, r, http.MethodGet, "/api/v1/nope", "", "")
	assert.Equal(t, http.StatusNotFound, code)
}
