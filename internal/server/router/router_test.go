package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agriflow/reporting/internal/domain/models"
	"github.com/agriflow/reporting/internal/repository/artifacts"
	"github.com/agriflow/reporting/internal/server/handlers"
)

type captureDispatcher struct {
	mu   sync.Mutex
	reqs []models.ReportRequest
}

func (d *captureDispatcher) Enqueue(req models.ReportRequest) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reqs = append(d.reqs, req)
}

func (d *captureDispatcher) last(t *testing.T) models.ReportRequest {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.NotEmpty(t, d.reqs)
	return d.reqs[len(d.reqs)-1]
}

func bearerFor(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-checked-here"))
	require.NoError(t, err)
	return "Bearer " + token
}

func newTestServer(t *testing.T, remoteOK bool) (http.Handler, *captureDispatcher, *artifacts.FileStore) {
	t.Helper()
	store, err := artifacts.NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	dispatcher := &captureDispatcher{}
	handler := handlers.NewReportHandler(dispatcher, store, remoteOK, zap.NewNop())
	return New(handler, zap.NewNop()), dispatcher, store
}

func graphUpload(t *testing.T, body string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("data", "graph.json")
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	engine, _, _ := newTestServer(t, true)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReportRoutesRequireBearer(t *testing.T) {
	engine, dispatcher, _ := newTestServer(t, true)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not a bearer", header: "Basic abc"},
		{name: "garbage token", header: "Bearer not.a.jwt"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/irrigation-report/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
	assert.Empty(t, dispatcher.reqs)
}

func TestReportRoutesRejectTokenWithoutUserID(t *testing.T) {
	engine, dispatcher, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/irrigation-report/", nil)
	req.Header.Set("Authorization", bearerFor(t, jwt.MapClaims{"sub": "someone"}))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, dispatcher.reqs)
}

func TestCreateReportReturnsUUID(t *testing.T) {
	engine, dispatcher, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/reports/irrigation-report/?irrigation_id=op-1&parcel_id=P1&from_date=2024-03-01&to_date=2024-03-31", nil)
	req.Header.Set("Authorization", bearerFor(t, jwt.MapClaims{"user_id": "u1"}))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["uuid"])

	queued := dispatcher.last(t)
	assert.Equal(t, body["uuid"], queued.ReportID)
	assert.Equal(t, models.ReportIrrigation, queued.Kind)
	assert.Equal(t, "u1", queued.UserID)
	assert.Equal(t, "op-1", queued.OperationID)
	assert.Equal(t, "P1", queued.ParcelID)
	require.NotNil(t, queued.FromDate)
	assert.Equal(t, "2024-03-01", queued.FromDate.Format(models.QueryDateLayout))
	require.NotNil(t, queued.ToDate)
	assert.Equal(t, "2024-03-31", queued.ToDate.Format(models.QueryDateLayout))
	assert.NotEmpty(t, queued.Token)
}

func TestCreateReportWithUploadedGraph(t *testing.T) {
	engine, dispatcher, _ := newTestServer(t, false)

	buf, contentType := graphUpload(t, `{"@graph": []}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/compost-report/?calendar_activity_type=Compost", buf)
	req.Header.Set("Authorization", bearerFor(t, jwt.MapClaims{"user_id": "u2"}))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	queued := dispatcher.last(t)
	assert.Equal(t, models.ReportCompost, queued.Kind)
	assert.Equal(t, "Compost", queued.ActivityType)
	assert.JSONEq(t, `{"@graph": []}`, string(queued.Upload))
}

func TestCreateReportRemoteDisabledWithoutUpload(t *testing.T) {
	engine, dispatcher, _ := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/pesticides-report/", nil)
	req.Header.Set("Authorization", bearerFor(t, jwt.MapClaims{"user_id": "u1"}))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, dispatcher.reqs)
}

func TestCreateReportRejectsBadDate(t *testing.T) {
	engine, dispatcher, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/fertilization-report/?from_date=03-01-2024", nil)
	req.Header.Set("Authorization", bearerFor(t, jwt.MapClaims{"user_id": "u1"}))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, dispatcher.reqs)
}

func TestCreateAnimalReportFilters(t *testing.T) {
	engine, dispatcher, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/reports/animal-report/?animal_group=herd-a&name=Bella&parcel=P2&status=1", nil)
	req.Header.Set("Authorization", bearerFor(t, jwt.MapClaims{"user_id": "u1"}))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	queued := dispatcher.last(t)
	assert.Equal(t, models.ReportAnimals, queued.Kind)
	assert.Equal(t, "herd-a", queued.Animal.Group)
	assert.Equal(t, "Bella", queued.Animal.Name)
	assert.Equal(t, "P2", queued.Animal.Parcel)
	require.NotNil(t, queued.Animal.Status)
	assert.Equal(t, 1, *queued.Animal.Status)
}

func TestDownloadNotReadyThenReady(t *testing.T) {
	engine, _, store := newTestServer(t, true)
	auth := bearerFor(t, jwt.MapClaims{"user_id": "u1"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/r1/", nil)
	req.Header.Set("Authorization", auth)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "still being generated")

	require.NoError(t, store.Save("u1", "r1", ".pdf", []byte("%PDF-1.7 test")))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports/r1/", nil)
	req.Header.Set("Authorization", auth)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.7 test", rec.Body.String())
}

func TestDownloadIsNamespacedByUser(t *testing.T) {
	engine, _, store := newTestServer(t, true)
	require.NoError(t, store.Save("owner", "r9", ".pdf", []byte("%PDF owner data")))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/r9/", nil)
	req.Header.Set("Authorization", bearerFor(t, jwt.MapClaims{"user_id": "someone-else"}))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}
