package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/dance-studio-admin/internal/config"
)

func TestAsInt64(t *testing.T) {
	assert.Equal(t, int64(5), asInt64(int64(5)))
	assert.Equal(t, int64(5), asInt64(int(5)))
	assert.Equal(t, int64(5), asInt64(int32(5)))
	assert.Equal(t, int64(5), asInt64(float64(5.9)))
	assert.Equal(t, int64(5), asInt64("5"))
	assert.Equal(t, int64(0), asInt64("nope"))
	assert.Equal(t, int64(0), asInt64(nil))
}

func rateCtx(t *testing.T, userID any) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest("PUT", "/v1/attendance", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/attendance")
	if userID != nil {
		c.Set("user_id", userID)
	}
	return c
}

func TestBuildRateKeyStrategies(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl"}

	cfg.KeyStrategy = "user"
	key := buildRateKey(cfg, rateCtx(t, float64(12)))
	assert.Equal(t, "rl:user:12", key)

	cfg.KeyStrategy = "route"
	key = buildRateKey(cfg, rateCtx(t, nil))
	assert.Equal(t, "rl:route:PUT /v1/attendance", key)

	cfg.KeyStrategy = "ip_user_route"
	key = buildRateKey(cfg, rateCtx(t, nil))
	assert.Contains(t, key, "ip:10.0.0.9")
	assert.Contains(t, key, "user:anon")
}

func TestCurrentUserIDFallsBackToAnon(t *testing.T) {
	assert.Equal(t, "anon", currentUserID(rateCtx(t, nil)))
	assert.Equal(t, "7", currentUserID(rateCtx(t, float64(7))))
	assert.Equal(t, "8", currentUserID(rateCtx(t, uint64(8))))
	assert.Equal(t, "9", currentUserID(rateCtx(t, "9")))
}

func TestNewTokenBucketDisabledPassThrough(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)
	c := rateCtx(t, nil)

	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	assert.True(t, called)
}
