package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/pkg/logging"
)

const userKey = "auth.user"

// LoginURL is where anonymous users are sent
const LoginURL = "/auth/login/"

// UserLookup loads a user by id
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// LoadUser resolves the session cookie into the current user.
// Invalid cookies and inactive users leave the request anonymous.
func LoadUser(sessions *Sessions, users UserLookup) gin.HandlerFunc {
	logger := logging.WithComponent("auth")
	return func(c *gin.Context) {
		token, err := c.Cookie(CookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		id, err := sessions.Parse(token)
		if err != nil {
			c.Next()
			return
		}

		user, err := users.GetByID(c.Request.Context(), id)
		if err != nil {
			logger.Error("failed to load session user", zap.Int64("user_id", id), zap.Error(err))
			c.Next()
			return
		}
		if user != nil && user.IsActive {
			SetUser(c, user)
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// SetUser marks the request as authenticated as u
func SetUser(c *gin.Context, u *models.User) {
	c.Set(userKey, u)
}

// LoginRedirect builds "/auth/login/?next=<escaped path>"
func LoginRedirect(next string) string {
	return LoginURL + "?next=" + url.QueryEscape(next)
}

// LoginRequired sends anonymous users to the login page
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginRedirect(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// StaffRequired lets only staff users through
func StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := CurrentUser(c); u == nil || !u.IsStaff {
			c.Redirect(http.StatusFound, LoginRedirect(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// SafeNext returns next when it is a local absolute path, otherwise fallback
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}
