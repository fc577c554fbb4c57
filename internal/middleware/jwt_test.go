package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("uid-1", "manager")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.UID)
	assert.Equal(t, "manager", claims.Role)
}

func TestValidateGarbageToken(t *testing.T) {
	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)
}

func protectedRouter(role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireAuthWithRole(role), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": c.GetString("uid")})
	})
	return r
}

func TestRequireAuthMissingHeader(t *testing.T) {
	r := protectedRouter("manager")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthWithRole(t *testing.T) {
	r := protectedRouter("manager")
	token, err := GenerateToken("uid-1", "manager")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "uid-1")
}

func TestRequireAuthWrongRole(t *testing.T) {
	r := protectedRouter("manager")
	token, err := GenerateToken("uid-2", "driver")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// The handler behind a role gate must never execute for the wrong role, not
// merely lose the status-code race after the fact.
func TestWrongRoleNeverReachesHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handlerRan := false
	r := gin.New()
	r.POST("/admin", RequireAuthWithRole("manager"), func(c *gin.Context) {
		handlerRan = true
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	token, err := GenerateToken("uid-2", "driver")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, handlerRan, "protected handler executed despite wrong role")
}
