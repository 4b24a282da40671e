package handlers

import (
	"context"
	"log"
	"net/http"

	"crop-catch/internal/middleware"
	"crop-catch/internal/models"
	"crop-catch/internal/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type SessionManager interface {
	SignUp(ctx context.Context, email, password string, fields session.SignUpFields) error
	SignIn(ctx context.Context, email, password string) (*session.Session, error)
	SignOut(ctx context.Context, token string) error
	UpdateProfile(ctx context.Context, id *session.Identity, upd session.ProfileUpdate) (*models.Profile, error)
}

type ProfileReader interface {
	Get(ctx context.Context, id string) (models.Profile, error)
}

type AuthHandler struct {
	sessions SessionManager
	profiles ProfileReader
}

func NewAuthHandler(sessions SessionManager, profiles ProfileReader) *AuthHandler {
	return &AuthHandler{sessions: sessions, profiles: profiles}
}

type signUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid sign-up payload")
		return
	}

	err := h.sessions.SignUp(c.Request.Context(), req.Email, req.Password, session.SignUpFields{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Company:   req.Company,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Account created successfully! Please check your email to verify your account."})
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn stores the token in the cookie session and also returns it for
// Bearer clients.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid sign-in payload")
		return
	}

	sess, err := h.sessions.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		renderError(c, err)
		return
	}

	cookie := sessions.Default(c)
	cookie.Set(middleware.SessionTokenKey, sess.Token)
	if err := cookie.Save(); err != nil {
		log.Printf("[http] save session cookie: %v", err)
	}
	c.JSON(http.StatusOK, sess)
}

// SignOut always clears the cookie; a failed remote revocation is
// reported after the fact.
func (h *AuthHandler) SignOut(c *gin.Context) {
	token := middleware.CurrentToken(c)

	cookie := sessions.Default(c)
	cookie.Clear()
	if err := cookie.Save(); err != nil {
		log.Printf("[http] clear session cookie: %v", err)
	}

	if token == "" {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.sessions.SignOut(c.Request.Context(), token); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Profile(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	p, err := h.profiles.Get(c.Request.Context(), id.ID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": id, "profile": p})
}

type profileRequest struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid profile payload")
		return
	}

	p, err := h.sessions.UpdateProfile(c.Request.Context(), middleware.CurrentIdentity(c), session.ProfileUpdate{
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
