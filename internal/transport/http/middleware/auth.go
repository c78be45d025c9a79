package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rewear-api/internal/app"
	"rewear-api/internal/model"
	"rewear-api/internal/transport/http/response"
)

const ContextUserKey = "current_user"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// AuthBearer resolves the bearer token to a stored user and places it on the context.
func AuthBearer(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticate(c, auth) {
			c.Next()
		}
	}
}

// OptionalBearer lets anonymous requests through. A presented token must still be valid.
func OptionalBearer(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.TrimSpace(c.GetHeader("Authorization")) == "" {
			c.Next()
			return
		}
		if authenticate(c, auth) {
			c.Next()
		}
	}
}

func authenticate(c *gin.Context, auth Authenticator) bool {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		response.Unauthorized(c, "missing authorization header")
		return false
	}

	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		response.Unauthorized(c, "invalid authorization scheme")
		return false
	}

	user, err := auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, app.ErrUnauthorized) {
			response.Unauthorized(c, app.ErrUnauthorized.Error())
			return false
		}
		log.Printf("resolve bearer token failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "authentication failed")
		return false
	}

	c.Set(ContextUserKey, user)
	return true
}

type AdminGate interface {
	RequireAdmin(user *model.User) error
}

// RequireAdmin must run after AuthBearer.
func RequireAdmin(gate AdminGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := CurrentUser(c)
		if err := gate.RequireAdmin(user); err != nil {
			if errors.Is(err, app.ErrForbidden) {
				response.Error(c, http.StatusForbidden, response.CodeForbidden, err.Error())
				return
			}
			response.Unauthorized(c, app.ErrUnauthorized.Error())
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*model.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*model.User)
	return user, ok && user != nil
}
