package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"quizadmin/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
		"Bearer a b":   "a b",
	}
	for header, want := range cases {
		assert.Equal(t, want, bearerToken(header), header)
	}
}

func serve(r *gin.Engine, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitIsPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(0.001, 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, "10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, serve(r, "10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, serve(r, "10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, serve(r, "10.0.0.2:1000"))
}

func TestRequirePermission(t *testing.T) {
	gin.SetMode(gin.TestMode)

	withRole := func(role models.Role) int {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if role != "" {
				c.Set(actorKey, &models.Actor{ID: "u1", Role: role})
			}
		})
		r.GET("/", RequirePermission(models.PermBackup), func(c *gin.Context) { c.Status(http.StatusOK) })
		return serve(r, "10.0.0.1:1000")
	}

	assert.Equal(t, http.StatusOK, withRole(models.RoleSuperAdmin))
	assert.Equal(t, http.StatusForbidden, withRole(models.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, withRole(""))
}
