package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molvis-backend/internal/config"
	"molvis-backend/internal/models"
	"molvis-backend/internal/repository"
)

const testSecret = "test-secret"

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           testSecret,
		DefaultStorageQuota: 5 << 30,
	}
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authRouter(users repository.UserRepository, required bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	cfg := testConfig()

	mw := RequireAuth(cfg, users)
	if !required {
		mw = OptionalAuth(cfg, users)
	}
	router.GET("/protected", mw, func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sub": user.Sub})
	})
	return router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuthMissingHeader(t *testing.T) {
	router := authRouter(repository.NewMemoryUserRepository(), true)

	w := doRequest(router, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	router := authRouter(repository.NewMemoryUserRepository(), true)

	for _, header := range []string{"Bearer", "Basic abc", "Bearer "} {
		w := doRequest(router, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestRequireAuthInvalidSignature(t *testing.T) {
	router := authRouter(repository.NewMemoryUserRepository(), true)

	token := signToken(t, "wrong-secret", jwt.MapClaims{"sub": "auth0|123"})
	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthExpiredToken(t *testing.T) {
	router := authRouter(repository.NewMemoryUserRepository(), true)

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "auth0|123",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthMissingSubject(t *testing.T) {
	router := authRouter(repository.NewMemoryUserRepository(), true)

	token := signToken(t, testSecret, jwt.MapClaims{"name": "no subject"})
	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthProvisionsUser(t *testing.T) {
	users := repository.NewMemoryUserRepository()
	router := authRouter(users, true)

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":   "auth0|new-user",
		"name":  "Ada",
		"email": "ada@example.org",
	})
	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)

	user, err := users.GetBySub(context.Background(), "auth0|new-user")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.org", user.Email)
	assert.Equal(t, int64(5<<30), user.StorageQuota)
}

func TestRequireAuthReusesExistingUser(t *testing.T) {
	users := repository.NewMemoryUserRepository()
	existing := &models.User{ID: uuid.New(), Sub: "auth0|known", StorageQuota: 42}
	require.NoError(t, users.Create(context.Background(), existing))

	router := authRouter(users, true)
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "auth0|known"})

	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)

	user, err := users.GetBySub(context.Background(), "auth0|known")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
	assert.Equal(t, int64(42), user.StorageQuota)
}

func TestOptionalAuthAnonymous(t *testing.T) {
	router := authRouter(repository.NewMemoryUserRepository(), false)

	w := doRequest(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")
}

func TestOptionalAuthWithToken(t *testing.T) {
	router := authRouter(repository.NewMemoryUserRepository(), false)

	token := signToken(t, testSecret, jwt.MapClaims{"sub": "auth0|opt"})
	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "auth0|opt")
}
