package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-wellbeing-api/internal/models"
	appErrors "github.com/noah-isme/sma-wellbeing-api/pkg/errors"
)

type stubValidator struct {
	claims map[string]*models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s.claims[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

var testTokens = stubValidator{claims: map[string]*models.JWTClaims{
	"counselor": {UserID: "u-1", Role: models.RoleCounselor},
	"student":   {UserID: "u-2", Role: models.RoleStudent, StudentID: "stu-2"},
	"teacher":   {UserID: "u-3", Role: models.RoleTeacher},
}}

func newProtectedRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	chain := append([]gin.HandlerFunc{JWT(testTokens)}, handlers...)
	chain = append(chain, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/students/:id", chain...)
	return router
}

func serve(router http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestJWT(t *testing.T) {
	router := newProtectedRouter()

	assert.Equal(t, http.StatusUnauthorized, serve(router, "/students/stu-1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "/students/stu-1", "bogus").Code)
	assert.Equal(t, http.StatusNoContent, serve(router, "/students/stu-1", "counselor").Code)

	req := httptest.NewRequest(http.MethodGet, "/students/stu-1", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRBAC(t *testing.T) {
	router := newProtectedRouter(RBAC(string(models.RoleCounselor), string(models.RoleAdmin), SelfStudent))

	assert.Equal(t, http.StatusNoContent, serve(router, "/students/stu-1", "counselor").Code)
	assert.Equal(t, http.StatusNoContent, serve(router, "/students/stu-2", "student").Code)
	assert.Equal(t, http.StatusForbidden, serve(router, "/students/stu-1", "student").Code)
	assert.Equal(t, http.StatusForbidden, serve(router, "/students/stu-1", "teacher").Code)
}

func TestRBACWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusUnauthorized, serve(router, "/x", "").Code)
}

type recordingAudit struct {
	logs []*models.AuditLog
	err  error
}

func (r *recordingAudit) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return r.err
}

func TestAuditRecordsSuccessfulTransitions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	audit := &recordingAudit{}
	router := gin.New()
	router.Use(JWT(testTokens))
	router.POST("/alerts/:id/resolve", Audit(audit, nil, models.AuditActionAlertResolve, "alert"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.POST("/alerts/:id/read", Audit(audit, nil, models.AuditActionAlertRead, "alert"), func(c *gin.Context) {
		c.Status(http.StatusConflict)
	})

	for _, path := range []string{"/alerts/a-1/resolve", "/alerts/a-1/read"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Authorization", "Bearer counselor")
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Len(t, audit.logs, 1)
	log := audit.logs[0]
	assert.Equal(t, models.AuditActionAlertResolve, log.Action)
	assert.Equal(t, "alert", log.Resource)
	require.NotNil(t, log.ResourceID)
	assert.Equal(t, "a-1", *log.ResourceID)
	require.NotNil(t, log.UserID)
	assert.Equal(t, "u-1", *log.UserID)
}

func TestAuditWriteFailureDoesNotAffectResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", Audit(&recordingAudit{err: errors.New("db down")}, nil, "X", "x"), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	assert.Equal(t, http.StatusAccepted, serve(router, "/x", "").Code)
}

type recordingObserver struct {
	paths    []string
	statuses []int
}

func (r *recordingObserver) ObserveHTTPRequest(_ string, path string, status int, _ time.Duration) {
	r.paths = append(r.paths, path)
	r.statuses = append(r.statuses, status)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/alerts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, "/alerts/a-1", "")
	serve(router, "/nope", "")

	assert.Equal(t, []string{"/alerts/:id", "unmatched"}, observer.paths)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, observer.statuses)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	router := gin.New()
	router.Use(WithResponseMeta())
	router.GET("/x", func(c *gin.Context) {
		SetCacheHit(c, true)
		SetDegraded(c, false)
		meta = ResponseMeta(c)
		c.Status(http.StatusOK)
	})
	router.GET("/empty", func(c *gin.Context) {
		meta = ResponseMeta(c)
		c.Status(http.StatusOK)
	})

	serve(router, "/x", "")
	assert.Equal(t, true, meta[cacheHitMetaKey])
	assert.Equal(t, false, meta[degradedMetaKey])
	assert.Contains(t, meta, processingMetaKey)

	serve(router, "/empty", "")
	assert.Nil(t, meta)
}
