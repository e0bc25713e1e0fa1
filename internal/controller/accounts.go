package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"tasklist/internal/apperror"
)

// AccountService is implemented by service.Accounts.
type AccountService interface {
	Signup(ctx context.Context, email, password string) (string, error)
	Signin(ctx context.Context, email, password string) (string, error)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Accounts serves the public signup and signin endpoints.
type Accounts struct {
	svc AccountService
}

func NewAccounts(svc AccountService) *Accounts {
	return &Accounts{svc: svc}
}

// Signup registers a user and returns {"userId": ...}.
func (h *Accounts) Signup(c *gin.Context) {
	var body credentialsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, "Signup", apperror.ErrInvalidBody.WithCause(err))
		return
	}
	userID, err := h.svc.Signup(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		respondError(c, "Signup", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID})
}

// Signin exchanges credentials for {"token": ...}.
func (h *Accounts) Signin(c *gin.Context) {
	var body credentialsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, "Signin", apperror.ErrInvalidBody.WithCause(err))
		return
	}
	token, err := h.svc.Signin(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		respondError(c, "Signin", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
