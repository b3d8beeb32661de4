package adminclient

import (
	"context"
	"net/http"

	"faceattend/internal/models"
)

// Session is the token pair plus the signed-in user.
type Session struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    int64       `json:"expires_at"`
	User         models.User `json:"user"`
}

// Login signs in and stores the returned tokens.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var sess Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &sess); err != nil {
		return Session{}, err
	}
	c.tokens.Set(sess.AccessToken, sess.RefreshToken)
	return sess, nil
}

// RefreshSession rotates the stored refresh token into a new pair.
func (c *Client) RefreshSession(ctx context.Context) (Session, error) {
	var sess Session
	body := map[string]string{"refresh_token": c.tokens.RefreshToken()}
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil, body, &sess); err != nil {
		return Session{}, err
	}
	c.tokens.Set(sess.AccessToken, sess.RefreshToken)
	return sess, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &out)
	return out.User, err
}

// Logout drops the stored credential. Purely client-side; access tokens
// simply expire server-side.
func (c *Client) Logout() {
	c.tokens.Clear()
}
