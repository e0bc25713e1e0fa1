package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"tasklist/internal/apperror"
	"tasklist/internal/middleware"
	"tasklist/internal/models"
	"tasklist/internal/service"
)

// TodoService is implemented by service.Todos.
type TodoService interface {
	CreateTodo(ctx context.Context, userID string, in service.CreateTodoInput) (*models.Todo, error)
	ListTodos(ctx context.Context, userID string) ([]models.Todo, error)
}

// Todos serves the authenticated todo endpoints. The owner is always the
// authenticated user; a userId in the body is ignored.
type Todos struct {
	svc TodoService
}

func NewTodos(svc TodoService) *Todos {
	return &Todos{svc: svc}
}

// CreateTodo (auth): returns {"todo": ...}.
func (h *Todos) CreateTodo(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		respondError(c, "CreateTodo", apperror.ErrUnauthorized)
		return
	}
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Completed   bool   `json:"completed"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, "CreateTodo", apperror.ErrInvalidBody.WithCause(err))
		return
	}
	todo, err := h.svc.CreateTodo(c.Request.Context(), uid, service.CreateTodoInput{
		Title:       body.Title,
		Description: body.Description,
		Completed:   body.Completed,
	})
	if err != nil {
		respondError(c, "CreateTodo", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": todo})
}

// ListTodos (auth): returns {"todos": [...]} for the caller only.
func (h *Todos) ListTodos(c *gin.Context) {
	uid, ok := middleware.UserID(c)
	if !ok {
		respondError(c, "ListTodos", apperror.ErrUnauthorized)
		return
	}
	todos, err := h.svc.ListTodos(c.Request.Context(), uid)
	if err != nil {
		respondError(c, "ListTodos", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todos": todos})
}
