package memberships

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	gin.SetMode(gin.TestMode)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db)
	svc := NewService(repo, nil, nil, t.TempDir())
	svc.now = func() time.Time { return verifyNow }

	r := gin.New()
	NewHandler(svc, repo).RegisterRoutes(r, func(c *gin.Context) { c.Next() })
	return r, mock
}

func TestAdminRoutesRequireAuthButVerifyIsPublic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db)
	svc := NewService(repo, nil, nil, t.TempDir())

	reject := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token inválido"})
	}
	r := gin.New()
	NewHandler(svc, repo).RegisterRoutes(r, reject)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/memberships/createMembership", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// La verificación de QR no pasa por el middleware.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/memberships/verify", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No se proporcionaron datos")
}

func TestVerifyEndpointWithoutData(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/memberships/verify", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No se proporcionaron datos")
}

func TestPreviewEndpointReturnsServerComputation(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, max_members, price, duration_days FROM membership_plans WHERE id=? LIMIT 1`)).
		WithArgs(1).WillReturnRows(planRows(1, "Individual", 1, 500, 30))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/memberships/preview?plan_id=1&start_date=2025-01-01&discount=10", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"precio_final":450,"fecha_fin":"2025-01-31"}`, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreviewEndpointRejectsUnknownPlan(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, max_members, price, duration_days FROM membership_plans WHERE id=? LIMIT 1`)).
		WithArgs(99).WillReturnRows(sqlmock.NewRows([]string{"id", "name", "max_members", "price", "duration_days"}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/memberships/preview?plan_id=99&start_date=2025-01-01", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccessHistoryEndpointPaginates(t *testing.T) {
	r, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM entry_log WHERE DATE(entered_at) = ?`)).
		WithArgs("2025-03-10").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(35))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT e.id, e.active_membership_id, e.access_area, c.full_name, e.entered_at FROM entry_log e JOIN active_memberships am ON e.active_membership_id = am.id JOIN clients c ON am.client_id = c.id WHERE DATE(e.entered_at) = ? ORDER BY e.entered_at DESC LIMIT ? OFFSET ?`)).
		WithArgs("2025-03-10", accessHistoryPageSize, accessHistoryPageSize).
		WillReturnRows(sqlmock.NewRows([]string{"id", "active_membership_id", "access_area", "full_name", "entered_at"}).
			AddRow(21, 42, "Alberca", "Juan Pérez", time.Now()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/memberships/access-history?date=2025-03-10&page=2", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":35`)
	assert.Contains(t, w.Body.String(), "Juan Pérez")
	assert.NoError(t, mock.ExpectationsWereMet())
}
