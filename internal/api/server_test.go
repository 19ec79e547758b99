package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symptom-triage-server/internal/domain"
	"github.com/symptom-triage-server/internal/history"
	"github.com/symptom-triage-server/internal/service"
)

// staticConfig is a fixed-value ConfigManager for tests.
type staticConfig struct {
	config *domain.Config
}

func (s *staticConfig) GetConfig() *domain.Config             { return s.config }
func (s *staticConfig) GetServerConfig() *domain.ServerConfig { return &s.config.Server }
func (s *staticConfig) Validate() error                       { return nil }

// memStore is an in-memory history store for handler tests.
type memStore struct {
	records []*history.Record
}

func (m *memStore) Save(ctx context.Context, record *history.Record) error {
	m.records = append(m.records, record)
	return nil
}
func (m *memStore) Get(ctx context.Context, patientID, day string) (*history.Record, error) {
	return nil, nil
}
func (m *memStore) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*history.Record, error) {
	var out []*history.Record
	for _, rec := range m.records {
		if rec.PatientID == patientID {
			out = append(out, rec)
		}
	}
	return out, nil
}
func (m *memStore) Count(ctx context.Context) (int64, error)           { return int64(len(m.records)), nil }
func (m *memStore) Delete(ctx context.Context, id int64) error         { return nil }
func (m *memStore) ExportJSON(ctx context.Context, w io.Writer) error  { return nil }
func (m *memStore) ImportJSON(ctx context.Context, r io.Reader) (int, int, error) {
	return 0, 0, nil
}
func (m *memStore) Close() error { return nil }

func newTestServer(t *testing.T) (*Server, *memStore) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	table, err := service.NewModelTable(service.DefaultDiseaseModels(), logger)
	require.NoError(t, err)
	labRules, err := service.NewLabRuleSet(service.DefaultLabRules(), logger)
	require.NoError(t, err)

	predictor := service.NewPredictorService(
		logger, table, service.DefaultKeySymptomRules(),
		domain.DefaultLexicon(), service.DefaultEngineConfig(),
	)

	store := &memStore{}
	triage := service.NewTriageService(logger, nil, labRules, predictor, nil, store)

	cfg := &domain.Config{
		Server: domain.ServerConfig{
			Host:         "127.0.0.1",
			Port:         0,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Logging: domain.LoggingConfig{Level: "error"},
	}

	server := NewServer(&staticConfig{config: cfg}, logger, triage, labRules, store, nil)
	return server, store
}

func doJSON(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestDiagnoseWithVector(t *testing.T) {
	server, store := newTestServer(t)

	vector := make([]int, domain.CatalogLength())
	vector[domain.SymptomIndex(domain.Stridor)] = 2
	vector[domain.SymptomIndex(domain.Cough)] = 3

	rec := doJSON(t, server, http.MethodPost, "/api/v1/diagnose", DiagnoseRequest{
		PatientID: "p-1",
		Day:       "2026-08-30",
		Vector:    vector,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DiagnoseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.Croup, resp.Result.DiseaseName)
	assert.True(t, resp.SymptomsFound)
	assert.False(t, resp.LabDataUsed)

	require.Len(t, store.records, 1)
	assert.Equal(t, "p-1", store.records[0].PatientID)
}

func TestDiagnoseWithLabResults(t *testing.T) {
	server, _ := newTestServer(t)

	vector := make([]int, domain.CatalogLength())
	vector[domain.SymptomIndex(domain.Cough)] = 3
	vector[domain.SymptomIndex(domain.Fever)] = 2
	vector[domain.SymptomIndex(domain.RespiratoryDistress)] = 2

	rec := doJSON(t, server, http.MethodPost, "/api/v1/diagnose", DiagnoseRequest{
		Vector: vector,
		LabResults: []domain.LabResultItem{
			{Name: "CRP", Status: domain.LabStatusHigh},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DiagnoseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.LabDataUsed)
	assert.Equal(t, domain.Pneumonia, resp.Result.DiseaseName)
	assert.NotEmpty(t, resp.Result.LabInfluences)
}

func TestDiagnoseAllZeroVector(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/diagnose", DiagnoseRequest{
		Vector: make([]int, domain.CatalogLength()),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DiagnoseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Result.Undetermined())
	assert.False(t, resp.LabDataUsed)
}

func TestDiagnoseWrongVectorLength(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/diagnose", DiagnoseRequest{
		Vector: []int{1, 2, 3},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), domain.ErrCodeValidation)
}

func TestDiagnoseRequiresTextOrVector(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/diagnose", DiagnoseRequest{
		PatientID: "p-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiagnoseTextWithoutExtractor(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/diagnose", DiagnoseRequest{
		Text: "my child has a fever",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLabInterpret(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/lab/interpret", LabInterpretRequest{
		Items: []domain.LabResultItem{
			{Name: "СРБ", Status: domain.LabStatusHigh},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var labCtx domain.LabContext
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &labCtx))
	assert.True(t, labCtx.HasData)
	assert.Len(t, labCtx.Influences, 1)
}

func TestHistoryEndpoint(t *testing.T) {
	server, store := newTestServer(t)
	store.records = append(store.records, &history.Record{
		PatientID: "p-1", Day: "2026-08-30", Disease: "Croup",
	})

	rec := doJSON(t, server, http.MethodGet, "/api/v1/history/p-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Croup")

	rec = doJSON(t, server, http.MethodGet, "/api/v1/history/p-2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestAnnotationsUnavailableWithoutDatabase(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/annotations", AnnotationRequest{
		PatientID: "p-1", Day: "2026-08-30", Author: "dr-ivanova",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/annotations/p-1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
