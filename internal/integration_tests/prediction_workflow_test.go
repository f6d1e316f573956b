//go:build integration

package integrationtests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"house-price-backend/cmd"
	backend "house-price-backend/internal/api"
	"house-price-backend/internal/auth"
	"house-price-backend/internal/config"
	"house-price-backend/internal/core"
	"house-price-backend/internal/messaging"
	"house-price-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const workflowModel = `{
  "features_info": {
    "float_features": [
      {"feature_index": 0, "flat_feature_index": 0, "feature_id": "room_bed", "borders": [2.5]},
      {"feature_index": 1, "flat_feature_index": 1, "feature_id": "yr_built_1990", "borders": [0.5]}
    ]
  },
  "oblivious_trees": [
    {"leaf_values": [100, 200], "splits": [{"border": 2.5, "float_feature_index": 0, "split_index": 0, "split_type": "FloatFeature"}]},
    {"leaf_values": [0, 50], "splits": [{"border": 0.5, "float_feature_index": 1, "split_index": 1, "split_type": "FloatFeature"}]}
  ],
  "scale_and_bias": [1000, [5]]
}`

const workflowDataset = `dayhours,room_bed,yr_built,price
20140521T000000,3,1955,221900
20141209T000000,4,1990,538000
20150225T000000,2,$,180000
`

const workflowManifest = `model_type: catboost_json
model_file: model.json
dataset_file: innercity.csv
`

func writeWorkflowArtifacts(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.json"), []byte(workflowModel), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "innercity.csv"), []byte(workflowDataset), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, core.ManifestFile), []byte(workflowManifest), 0644))
	return dir
}

func doRequest(router http.Handler, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPredictionWorkflow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	objectStore, storageCfg := setupTestObjectStore(t, ctx)
	require.NoError(t, objectStore.UploadDir(ctx, bucketName, "house-price", writeWorkflowArtifacts(t)))

	artifacts := config.ArtifactConfig{
		Bucket: bucketName,
		Prefix: "house-price",
		Dir:    filepath.Join(t.TempDir(), "artifacts"),
	}
	require.NoError(t, cmd.FetchArtifacts(ctx, storageCfg, artifacts))

	pipeline, err := cmd.LoadPipeline(artifacts)
	require.NoError(t, err)
	defer pipeline.Release()

	db := createDB(t)
	publisher, receiver := setupRabbitMQContainer(t, ctx)

	recorder := messaging.NewPredictionRecorder(db, receiver)
	go recorder.Start()
	defer recorder.Stop()

	sessions, err := auth.NewSessionManager("integration-secret", time.Hour, false)
	require.NoError(t, err)

	service := backend.NewBackendService(db, pipeline, messaging.NewQueueSink(publisher), sessions)
	router := chi.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		service.AddRoutes(r)
	})

	rec := doRequest(router, http.MethodPost, "/api/v1/register", `{"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com", "password": "hunter2"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(router, http.MethodPost, "/api/v1/login", `{"email": "ada@example.com", "password": "hunter2"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	rec = doRequest(router, http.MethodPost, "/api/v1/predict", `{"room_bed": 3, "yr_built": "1990", "zipcode": 98103}`, cookies[0])
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res api.PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 250005.0, res.PredictedPrice)
	assert.Equal(t, "$250,005.00", res.Result)

	assert.Eventually(t, func() bool {
		rec := doRequest(router, http.MethodGet, "/api/v1/predictions", "", cookies[0])
		if rec.Code != http.StatusOK {
			return false
		}
		var history []api.Prediction
		if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
			return false
		}
		return len(history) == 1 && history[0].PredictedPrice == 250005.0
	}, 30*time.Second, 100*time.Millisecond)
}
