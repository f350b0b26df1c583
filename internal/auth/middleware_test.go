package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedRouter(service *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(service, service.Lookup))
	r.GET("/me", func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "email": user.Email})
	})
	return r
}

func TestAuthMiddlewareInjectsUser(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testConfig())
	_, err := service.Register(context.Background(), Credentials{Email: "alice@example.com", Password: "StrongPass1!"})
	require.NoError(t, err)
	token, err := service.Login(context.Background(), Credentials{Email: "alice@example.com", Password: "StrongPass1!"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token.Token)
	rr := httptest.NewRecorder()
	newProtectedRouter(service).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":1,"email":"alice@example.com"}`, rr.Body.String())
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	service := NewService(newMemoryStore(), testConfig())

	rr := httptest.NewRecorder()
	newProtectedRouter(service).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthMiddlewareRejectsDeletedUser(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testConfig())
	_, err := service.Register(context.Background(), Credentials{Email: "bob@example.com", Password: "StrongPass1!"})
	require.NoError(t, err)
	token, err := service.Login(context.Background(), Credentials{Email: "bob@example.com", Password: "StrongPass1!"})
	require.NoError(t, err)

	delete(store.users, "bob@example.com")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token.Token)
	rr := httptest.NewRecorder()
	newProtectedRouter(service).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "abc", extractBearerToken("Bearer abc"))
	assert.Equal(t, "abc", extractBearerToken("bearer  abc "))
	assert.Equal(t, "", extractBearerToken("Basic abc"))
}
