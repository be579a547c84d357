package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"molvis-backend/internal/config"
	"molvis-backend/internal/models"
	"molvis-backend/internal/repository"
)

const UserKey = "user"

// RequireAuth validates the bearer token and puts the resolved user in the
// Gin context. Users are provisioned on first sight from the token's
// subject; the identity provider itself (OIDC login, token issuance) lives
// upstream.
func RequireAuth(cfg *config.Config, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolveUser(c, cfg, users)
		if err != nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized", Message: err.Error()})
			c.Abort()
			return
		}
		c.Set(UserKey, user)
		c.Next()
	}
}

// OptionalAuth resolves the user when a valid token is present and
// continues anonymously otherwise.
func OptionalAuth(cfg *config.Config, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := resolveUser(c, cfg, users); err == nil {
			c.Set(UserKey, user)
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user from the context, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(UserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func resolveUser(c *gin.Context, cfg *config.Config, users repository.UserRepository) (*models.User, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, errMissingToken
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return nil, errMalformedHeader
	}
	tokenString := strings.TrimSpace(parts[1])

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errMissingSubject
	}

	user, err := users.GetBySub(c.Request.Context(), sub)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &models.User{
			ID:           uuid.New(),
			Sub:          sub,
			StorageQuota: cfg.DefaultStorageQuota,
		}
		if name, ok := claims["name"].(string); ok {
			user.Name = name
		}
		if email, ok := claims["email"].(string); ok {
			user.Email = email
		}
		if err := users.Create(c.Request.Context(), user); err != nil {
			return nil, err
		}
	}
	return user, nil
}
