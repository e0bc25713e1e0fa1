package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tasklist/internal/controller"
	"tasklist/internal/middleware"
)

// Route is one entry of the HTTP surface. Auth routes run behind the bearer-token gate.
type Route struct {
	Method  string
	Path    string
	Auth    bool
	Handler gin.HandlerFunc
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Accounts    *controller.Accounts
	Todos       *controller.Todos
	Health      *controller.Health
	Tokens      middleware.TokenValidator
	CORSOrigins []string
	GinMode     string
}

// Routes is the API table.
func Routes(d Deps) []Route {
	return []Route{
		// Health for load balancers and K8s probes
		{Method: http.MethodGet, Path: "/health", Handler: d.Health.Live},
		{Method: http.MethodGet, Path: "/ready", Handler: d.Health.Ready},

		{Method: http.MethodPost, Path: "/api/v1/signup", Handler: d.Accounts.Signup},
		{Method: http.MethodPost, Path: "/api/v1/signin", Handler: d.Accounts.Signin},

		{Method: http.MethodPost, Path: "/api/v1/todo", Auth: true, Handler: d.Todos.CreateTodo},
		{Method: http.MethodGet, Path: "/api/v1/todos", Auth: true, Handler: d.Todos.ListTodos},
	}
}

func Router(d Deps) *gin.Engine {
	if d.GinMode != "" {
		gin.SetMode(d.GinMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger())
	if len(d.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  d.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders: []string{middleware.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	gate := middleware.AuthMiddleware(d.Tokens)
	for _, r := range Routes(d) {
		handlers := make([]gin.HandlerFunc, 0, 2)
		if r.Auth {
			handlers = append(handlers, gate)
		}
		router.Handle(r.Method, r.Path, append(handlers, r.Handler)...)
	}
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	})

	return router
}
