package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	backend "house-price-backend/internal/api"
	"house-price-backend/internal/auth"
	"house-price-backend/internal/core"
	"house-price-backend/internal/database"
	"house-price-backend/internal/features"
	"house-price-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const historicalCSV = `dayhours,price,room_bed,living_measure,yr_built,total_area
20140521T000000,221900,3,1180,1955,6830
20141209T000000,538000,3,2570,1990,9812
20150225T000000,180000,2,770,$,
`

func createDB(t *testing.T, create ...any) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.GetMigrator(db).Migrate())

	for _, c := range create {
		require.NoError(t, db.Create(c).Error)
	}

	return db
}

// linearModel prices a house from a handful of the encoded features.
type linearModel struct {
	err error
}

var linearFeatures = []string{
	"room_bed", "living_measure", "total_area",
	"dayhours_20141209T000000", "dayhours_20150225T000000",
	"yr_built_1955", "yr_built_1990",
}

func (m *linearModel) FeatureNames() []string {
	return linearFeatures
}

func (m *linearModel) Predict(row []float64) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return 100000*row[0] + 100*row[1] + row[2] + 5000*row[6], nil
}

func (m *linearModel) Release() {}

func createPipeline(t *testing.T, model core.Regressor) *core.Pipeline {
	path := filepath.Join(t.TempDir(), "innercity.csv")
	require.NoError(t, os.WriteFile(path, []byte(historicalCSV), 0644))

	assembler, err := features.LoadRegistry(path, model.FeatureNames())
	require.NoError(t, err)

	pipeline, err := core.NewPipeline(assembler, model)
	require.NoError(t, err)
	return pipeline
}

type recordingSink struct {
	mu      sync.Mutex
	records []database.PredictionRecord
	err     error
}

func (s *recordingSink) RecordPrediction(ctx context.Context, record database.PredictionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

func (s *recordingSink) Records() []database.PredictionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]database.PredictionRecord(nil), s.records...)
}

type testEnv struct {
	db       *gorm.DB
	sessions *auth.SessionManager
	router   chi.Router
}

// setupService wires the service against a fresh database. A nil sink
// records predictions directly in that database.
func setupService(t *testing.T, model core.Regressor, sink backend.PredictionSink) testEnv {
	db := createDB(t)
	if sink == nil {
		sink = database.NewPredictionStore(db)
	}

	sessions, err := auth.NewSessionManager("test-secret", time.Hour, false)
	require.NoError(t, err)

	service := backend.NewBackendService(db, createPipeline(t, model), sink, sessions)
	router := chi.NewRouter()
	service.AddRoutes(router)

	return testEnv{db: db, sessions: sessions, router: router}
}

func (e testEnv) createUser(t *testing.T) (database.User, *http.Cookie) {
	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)

	user, err := database.CreateUser(context.Background(), e.db, "Ada", "Lovelace", "ada@example.com", hash)
	require.NoError(t, err)

	token, err := e.sessions.Token(user.Id)
	require.NoError(t, err)

	return user, &http.Cookie{Name: auth.SessionCookie, Value: token}
}

func (e testEnv) postForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e testEnv) postJson(path string, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e testEnv) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	var res api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.Error
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$1,234,567.89", backend.FormatPrice(1234567.891))
	assert.Equal(t, "$455,000.00", backend.FormatPrice(455000))
	assert.Equal(t, "$0.00", backend.FormatPrice(0))
}

func TestPredictAuthenticated(t *testing.T) {
	sink := &recordingSink{}
	env := setupService(t, &linearModel{}, sink)
	user, cookie := env.createUser(t)

	form := url.Values{
		"room_bed":       {"3"},
		"living_measure": {"1500"},
		"yr_built":       {"1990"},
		"total_area":     {"2000"},
		"zipcode":        {"98103"},
		"condition":      {"3"},
	}
	rec := env.postForm("/predict", form, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res api.PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 457000.0, res.PredictedPrice)
	assert.Equal(t, "$457,000.00", res.Result)

	records := sink.Records()
	require.Len(t, records, 1)
	assert.Equal(t, user.Id, records[0].UserId)
	assert.Equal(t, 457000.0, records[0].PredictedPrice)
	assert.Equal(t, "1990", records[0].Input["yr_built"])
	assert.Equal(t, int64(98103), records[0].Input["zipcode"])
	assert.Equal(t, 24.0, records[0].Input["ceil_measure"])
}

func TestPredictJsonBody(t *testing.T) {
	sink := &recordingSink{}
	env := setupService(t, &linearModel{}, sink)
	_, cookie := env.createUser(t)

	rec := env.postJson("/predict", `{"room_bed": 2, "living_measure": "1000", "yr_built": "1955", "furnished": true}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res api.PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 300000.0, res.PredictedPrice)
	assert.Len(t, sink.Records(), 1)
}

func TestPredictUnauthenticated(t *testing.T) {
	sink := &recordingSink{}
	env := setupService(t, &linearModel{}, sink)

	rec := env.postForm("/predict", url.Values{"room_bed": {"3"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authentication required", decodeError(t, rec))
	assert.Empty(t, sink.Records())

	forged := &http.Cookie{Name: auth.SessionCookie, Value: "not-a-token"}
	rec = env.postForm("/predict", url.Values{"room_bed": {"3"}}, forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, sink.Records())
}

func TestPredictOmittedAndInvalidFields(t *testing.T) {
	sink := &recordingSink{}
	env := setupService(t, &linearModel{}, sink)
	_, cookie := env.createUser(t)

	rec := env.postForm("/predict", url.Values{}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res api.PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 0.0, res.PredictedPrice)
	assert.Equal(t, "$0.00", res.Result)

	// Invalid numbers fall back to 0, unseen categories encode to zeros.
	rec = env.postForm("/predict", url.Values{"room_bed": {"three"}, "living_measure": {"1000"}, "yr_built": {"2024"}}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 100000.0, res.PredictedPrice)

	// Text the model expects as a number cannot be encoded.
	rec = env.postForm("/predict", url.Values{"total_area": {"large"}}, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Integers outside the int64 range are invalid, not wrapped.
	for _, zipcode := range []string{"1e30", "-1e30", "9.3e18"} {
		rec = env.postForm("/predict", url.Values{"zipcode": {zipcode}, "room_bed": {"1"}}, cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	// Finite input whose derived ceil_measure overflows is rejected.
	rec = env.postForm("/predict", url.Values{"room_bed": {"1e308"}}, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	records := sink.Records()
	require.Len(t, records, 5)
	for _, record := range records[2:] {
		assert.Equal(t, int64(0), record.Input["zipcode"])
	}
}

func TestPredictSinkFailure(t *testing.T) {
	sink := &recordingSink{err: errors.New("database unavailable")}
	env := setupService(t, &linearModel{}, sink)
	_, cookie := env.createUser(t)

	rec := env.postForm("/predict", url.Values{"room_bed": {"1"}}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res api.PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 100000.0, res.PredictedPrice)
}

func TestPredictModelFailure(t *testing.T) {
	sink := &recordingSink{}
	env := setupService(t, &linearModel{err: errors.New("model server down")}, sink)
	_, cookie := env.createUser(t)

	rec := env.postForm("/predict", url.Values{"room_bed": {"1"}}, cookie)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, sink.Records())
}

func TestRegisterLoginLogout(t *testing.T) {
	env := setupService(t, &linearModel{}, &recordingSink{})

	rec := env.postForm("/register", url.Values{"first_name": {"Ada"}, "last_name": {"Lovelace"}, "email": {"ada@example.com"}}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "all fields are required", decodeError(t, rec))

	rec = env.postJson("/register", `{"first_name": "Ada", "last_name": "Lovelace", "email": "Ada@Example.com", "password": "hunter2"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user api.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, uuid.Nil, user.Id)

	stored, err := database.GetUser(context.Background(), env.db, user.Id)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", stored.Password)

	rec = env.postForm("/register", url.Values{"first_name": {"Ada"}, "last_name": {"L"}, "email": {"ada@example.com"}, "password": {"x"}}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email already exists", decodeError(t, rec))

	rec = env.postForm("/login", url.Values{"email": {"ada@example.com"}}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.postForm("/login", url.Values{"email": {"ada@example.com"}, "password": {"wrong"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid email or password", decodeError(t, rec))

	rec = env.postForm("/login", url.Values{"email": {"nobody@example.com"}, "password": {"hunter2"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid email or password", decodeError(t, rec))

	rec = env.postForm("/login", url.Values{"email": {"ADA@example.com"}, "password": {"hunter2"}}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	session := cookies[0]
	assert.Equal(t, auth.SessionCookie, session.Name)

	rec = env.get("/me", session)
	require.Equal(t, http.StatusOK, rec.Code)
	var me api.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, user.Id, me.Id)

	rec = env.get("/logout", session)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)

	rec = env.get("/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPredictionHistory(t *testing.T) {
	env := setupService(t, &linearModel{}, nil)
	_, cookie := env.createUser(t)

	for _, bed := range []string{"1", "2", "3"} {
		rec := env.postForm("/predict", url.Values{"room_bed": {bed}}, cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		time.Sleep(5 * time.Millisecond)
	}

	rec := env.get("/predictions?limit=2", cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var history []api.Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, 300000.0, history[0].PredictedPrice)
	assert.Equal(t, "$300,000.00", history[0].Result)
	assert.Equal(t, 3.0, history[0].UserInput["room_bed"])
	assert.Equal(t, 200000.0, history[1].PredictedPrice)

	rec = env.get("/predictions/"+history[1].Id.String(), cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var single api.Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &single))
	assert.Equal(t, history[1].Id, single.Id)

	rec = env.get("/predictions/"+uuid.NewString(), cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.get("/predictions/not-a-uuid", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.get("/predictions?limit=-1", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Other users do not see these predictions.
	otherToken, err := env.sessions.Token(uuid.New())
	require.NoError(t, err)
	rec = env.get("/predictions", &http.Cookie{Name: auth.SessionCookie, Value: otherToken})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Empty(t, history)
}

func TestPredictFullForm(t *testing.T) {
	sink := &recordingSink{}
	env := setupService(t, &linearModel{}, sink)
	_, cookie := env.createUser(t)

	form := url.Values{
		"room_bed":       {"3"},
		"room_bath":      {"2"},
		"living_measure": {"1800"},
		"lot_measure":    {"5000"},
		"quality":        {"8"},
		"zipcode":        {"98001"},
		"yr_renovated":   {"0"},
		"basement":       {"0"},
		"furnished":      {"1"},
		"yr_built":       {"2005"},
		"condition":      {"3"},
		"total_area":     {"2000"},
	}
	rec := env.postForm("/predict", form, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res api.PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 482000.0, res.PredictedPrice)
	assert.Regexp(t, `^\$\d{1,3}(,\d{3})*\.\d{2}$`, res.Result)
	require.Len(t, sink.Records(), 1)

	// Omitted integer fields default to 0.
	form.Del("yr_renovated")
	form.Del("basement")
	rec = env.postForm("/predict", form, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	records := sink.Records()
	require.Len(t, records, 2)
	assert.Equal(t, int64(0), records[1].Input["yr_renovated"])
	assert.Equal(t, int64(0), records[1].Input["basement"])
	assert.Equal(t, int64(1), records[1].Input["furnished"])
	assert.Equal(t, 482000.0, records[1].PredictedPrice)
}
