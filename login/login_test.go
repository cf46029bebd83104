package login

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, exp, err := signToken("admin@residencyclub.com", time.Hour, false)
	require.NoError(t, err)
	assert.Greater(t, exp, time.Now().Unix())

	tp, ok := parseToken(token)
	require.True(t, ok)
	assert.Equal(t, "admin@residencyclub.com", tp.Email)
	assert.False(t, tp.Rem)
	assert.NotEmpty(t, tp.Jti)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	token, _, err := signToken("admin@residencyclub.com", time.Hour, false)
	require.NoError(t, err)

	_, ok := parseToken(token + "x")
	assert.False(t, ok)

	_, ok = parseToken("no.es.token")
	assert.False(t, ok)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, _, err := signToken("admin@residencyclub.com", -time.Minute, false)
	require.NoError(t, err)

	_, ok := parseToken(token)
	assert.False(t, ok)
}

func TestBlacklistedTokenIsInvalid(t *testing.T) {
	token, exp, err := signToken("admin@residencyclub.com", time.Hour, false)
	require.NoError(t, err)

	blacklistMu.Lock()
	blacklist[token] = exp
	blacklistMu.Unlock()

	_, ok := parseToken(token)
	assert.False(t, ok)
}

func TestRequireAuthBlocksWithoutToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protegida", RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": c.GetString("user_email")})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protegida", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, _, err := signToken("admin@residencyclub.com", time.Hour, true)
	require.NoError(t, err)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protegida", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin@residencyclub.com")
}
