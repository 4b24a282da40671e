package handlers

import (
	"errors"
	"log"
	"net/http"

	"crop-catch/internal/authz"
	"crop-catch/internal/models"
	"crop-catch/internal/repository"
	"crop-catch/internal/service"
	"crop-catch/internal/session"

	"github.com/gin-gonic/gin"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error apiError `json:"error"`
}

// mapError classifies err into an HTTP status and error code. The message
// is the error text itself.
func mapError(err error) (int, apiError) {
	var te *models.TransitionError
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, session.ErrInvalidInput),
		errors.As(err, &te):
		return http.StatusBadRequest, apiError{"INVALID_REQUEST", err.Error()}
	case errors.Is(err, session.ErrInvalidCredentials),
		errors.Is(err, session.ErrInvalidToken),
		errors.Is(err, authz.ErrNotAuthenticated):
		return http.StatusUnauthorized, apiError{"UNAUTHENTICATED", err.Error()}
	case errors.Is(err, authz.ErrUnauthorized):
		return http.StatusForbidden, apiError{"UNAUTHORIZED", err.Error()}
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, apiError{"NOT_FOUND", err.Error()}
	case errors.Is(err, session.ErrEmailTaken),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, apiError{"CONFLICT", err.Error()}
	default:
		return http.StatusInternalServerError, apiError{"INTERNAL_ERROR", err.Error()}
	}
}

func renderError(c *gin.Context, err error) {
	status, body := mapError(err)
	if status == http.StatusInternalServerError {
		log.Printf("[http] %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, errorBody{Error: body})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorBody{Error: apiError{"INVALID_REQUEST", message}})
}
