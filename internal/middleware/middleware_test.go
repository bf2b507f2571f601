package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-revision-api/internal/models"
	appErrors "github.com/noah-isme/sma-revision-api/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
	err    error
	token  string
}

func (v *validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	v.token = token
	return v.claims, v.err
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "meta": ExtractMeta(c)})
	})
	r.GET("/students/:studentId/revision-lists", handlers...)
	return r
}

func TestJWTRequiresBearerToken(t *testing.T) {
	stub := &validatorStub{claims: &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent}}
	router := newRouter(JWT(stub))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/students/stu-1/revision-lists", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/students/stu-1/revision-lists", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/students/stu-1/revision-lists", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", stub.token)
}

func TestJWTPropagatesValidationError(t *testing.T) {
	router := newRouter(JWT(&validatorStub{err: appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")}))
	req := httptest.NewRequest(http.MethodGet, "/students/stu-1/revision-lists", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func withClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}
}

func TestRBAC(t *testing.T) {
	cases := []struct {
		name   string
		claims *models.JWTClaims
		path   string
		want   int
	}{
		{"teacher allowed", &models.JWTClaims{UserID: "tch-1", Role: models.RoleTeacher}, "/students/stu-1/revision-lists", http.StatusOK},
		{"student self", &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent}, "/students/stu-1/revision-lists", http.StatusOK},
		{"student other", &models.JWTClaims{UserID: "stu-2", Role: models.RoleStudent}, "/students/stu-1/revision-lists", http.StatusForbidden},
		{"anonymous", nil, "/students/stu-1/revision-lists", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newRouter(withClaims(tc.claims), RBAC(string(models.RoleTeacher), string(models.RoleAdmin), "SELF"))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestResponseMeta(t *testing.T) {
	router := newRouter(WithResponseMeta(), func(c *gin.Context) {
		SetMeta(c, "supply_gaps", 2)
		c.Next()
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/students/stu-1/revision-lists", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"supply_gaps":2`)
}
