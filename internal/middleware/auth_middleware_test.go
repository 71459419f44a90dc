package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkenzhe/photomatte/internal/auth"
)

const testSecret = "test-secret"

func protectedEngine() *route.Engine {
	e := route.NewEngine(config.NewOptions([]config.Option{}))
	e.Use(AuthMiddleware([]byte(testSecret)))
	e.GET("/protected", func(ctx context.Context, c *app.RequestContext) {
		userID, _ := c.Get("userId")
		c.JSON(http.StatusOK, map[string]interface{}{"userId": userID})
	})
	return e
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	resp := ut.PerformRequest(protectedEngine(), "GET", "/protected", nil).Result()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	resp := ut.PerformRequest(protectedEngine(), "GET", "/protected", nil,
		ut.Header{Key: "Authorization", Value: "Token abc"}).Result()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())

	resp = ut.PerformRequest(protectedEngine(), "GET", "/protected", nil,
		ut.Header{Key: "Authorization", Value: "Bearer not-a-jwt"}).Result()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	token, err := auth.GenerateJWT("user-42")
	require.NoError(t, err)

	resp := ut.PerformRequest(protectedEngine(), "GET", "/protected", nil,
		ut.Header{Key: "Authorization", Value: "Bearer " + token}).Result()
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), "user-42")
}

func TestAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "some-other-secret")
	token, err := auth.GenerateJWT("user-42")
	require.NoError(t, err)

	resp := ut.PerformRequest(protectedEngine(), "GET", "/protected", nil,
		ut.Header{Key: "Authorization", Value: "Bearer " + token}).Result()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
}
