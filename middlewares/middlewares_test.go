package middlewares

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/practice-app/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupAuthRouter() *gin.Engine {
	r := gin.New()
	r.GET("/whoami", AuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetUint(ContextUserID), "role": c.GetString(ContextRole)})
	})
	r.GET("/staff", AuthMiddleware(), RequireRoles("coordinator", "admin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func request(r http.Handler, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := setupAuthRouter()
	tok, err := utils.GenerateToken(10, "student", time.Hour)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		w := request(r, "/whoami", "Bearer "+tok)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":10,"role":"student"}`, w.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		w := request(r, "/whoami", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		w := request(r, "/whoami", "Basic "+tok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := request(r, "/whoami", "Bearer not.a.token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := utils.GenerateToken(10, "student", -time.Minute)
		require.NoError(t, err)
		w := request(r, "/whoami", "Bearer "+expired)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRoles(t *testing.T) {
	r := setupAuthRouter()

	student, err := utils.GenerateToken(10, "student", time.Hour)
	require.NoError(t, err)
	admin, err := utils.GenerateToken(50, "admin", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, request(r, "/staff", "Bearer "+student).Code)
	assert.Equal(t, http.StatusNoContent, request(r, "/staff", "Bearer "+admin).Code)
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(1, 2).RateLimit())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, request(r, "/ping", "").Code)
	assert.Equal(t, http.StatusOK, request(r, "/ping", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, request(r, "/ping", "").Code)
}

func TestStrictRateLimiterIsPerUser(t *testing.T) {
	r := gin.New()
	asUser := func(c *gin.Context) {
		var id uint
		fmt.Sscan(c.GetHeader("X-Test-User"), &id)
		if id != 0 {
			c.Set(ContextUserID, id)
		}
	}
	r.POST("/request", asUser, NewStrictRateLimiter(), func(c *gin.Context) { c.Status(http.StatusAccepted) })

	send := func(user, ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/request", nil)
		req.RemoteAddr = ip + ":1234"
		if user != "" {
			req.Header.Set("X-Test-User", user)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	// One user rotating addresses still spends a single bucket.
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusAccepted, send("10", fmt.Sprintf("10.0.0.%d", i+1)))
	}
	assert.Equal(t, http.StatusTooManyRequests, send("10", "10.0.0.9"))

	// Another user behind the same address is unaffected.
	assert.Equal(t, http.StatusAccepted, send("11", "10.0.0.9"))

	// Anonymous callers fall back to their IP.
	assert.Equal(t, http.StatusAccepted, send("", "10.0.0.1"))
}

func TestRateLimiterPrunesPeriodically(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	now := time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.lastPrune = now

	rl.get("10.0.0.1")
	rl.get("10.0.0.2")
	require.Len(t, rl.limiters, 2)

	// Idle buckets survive until the next prune tick.
	now = now.Add(rl.ttl + time.Second)
	rl.lastPrune = now
	rl.get("10.0.0.3")
	assert.Len(t, rl.limiters, 3)

	now = now.Add(rl.pruneEvery)
	rl.get("10.0.0.3")
	assert.Len(t, rl.limiters, 1)
	assert.Contains(t, rl.limiters, "10.0.0.3")
}

func TestSecurityAndCORSHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(), CORSMiddlewares("https://portal.example.edu"))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := request(r, "/ping", "")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "https://portal.example.edu", w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
