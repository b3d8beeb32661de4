package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"faceattend/internal/models"
)

// CredentialStore is the slice of the user store the auth endpoints need.
type CredentialStore interface {
	UserByEmail(ctx context.Context, email string) (models.User, string, error)
	UserByID(ctx context.Context, id string) (models.User, error)
	TouchLastLogin(ctx context.Context, id string) error
}

// RefreshStore persists refresh tokens for rotation checks.
type RefreshStore interface {
	SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	RefreshTokenActive(ctx context.Context, token string) (bool, error)
	RevokeRefreshToken(ctx context.Context, token string) error
}

// Handler serves login, refresh and the current-user endpoint.
type Handler struct {
	creds      CredentialStore
	refresh    RefreshStore
	issuer     string
	signingKey string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewHandler creates the auth handler.
func NewHandler(creds CredentialStore, refresh RefreshStore, issuer, signingKey string, accessTTL, refreshTTL time.Duration) *Handler {
	return &Handler{
		creds:      creds,
		refresh:    refresh,
		issuer:     issuer,
		signingKey: signingKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Login exchanges email+password for a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}

	user, hash, err := h.creds.UserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if !user.IsActive || !CheckPassword(hash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	tokens, err := Issue(user.ID, string(user.Role), h.issuer, h.signingKey, h.accessTTL, h.refreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	if err := h.refresh.SaveRefreshToken(c.Request.Context(), user.ID, tokens.RefreshToken, tokens.RefreshExp); err != nil {
		log.Printf("save refresh token failed: %v", err)
	}
	if err := h.creds.TouchLastLogin(c.Request.Context(), user.ID); err != nil {
		log.Printf("touch last login failed: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
		"user":          user,
	})
}

// Refresh rotates a refresh token into a new pair.
func (h *Handler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}

	claims, err := ParseRefresh(req.RefreshToken, h.signingKey, h.issuer)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	active, err := h.refresh.RefreshTokenActive(c.Request.Context(), req.RefreshToken)
	if err != nil || !active {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	tokens, err := Issue(claims.Subject, claims.Role, h.issuer, h.signingKey, h.accessTTL, h.refreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	// Rotation: the presented token is single-use.
	_ = h.refresh.RevokeRefreshToken(c.Request.Context(), req.RefreshToken)
	if err := h.refresh.SaveRefreshToken(c.Request.Context(), claims.Subject, tokens.RefreshToken, tokens.RefreshExp); err != nil {
		log.Printf("save refresh token failed: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// Me returns the authenticated user.
func (h *Handler) Me(c *gin.Context) {
	claims, ok := CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	user, err := h.creds.UserByID(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
