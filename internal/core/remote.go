package core

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/go-resty/resty/v2"
)

// RemoteModel forwards rows to an HTTP model server.
type RemoteModel struct {
	client       *resty.Client
	endpoint     string
	featureNames []string
}

type remotePredictRequest struct {
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

type remotePredictResponse struct {
	Predictions []float64 `json:"predictions"`
}

func NewRemoteModel(endpoint string, featureNames []string, timeout time.Duration) (*RemoteModel, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("remote model endpoint must be set")
	}

	return &RemoteModel{
		client:       resty.New().SetTimeout(timeout),
		endpoint:     endpoint,
		featureNames: slices.Clone(featureNames),
	}, nil
}

func (m *RemoteModel) FeatureNames() []string {
	return slices.Clone(m.featureNames)
}

func (m *RemoteModel) Predict(row []float64) (float64, error) {
	res, err := m.client.R().
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(remotePredictRequest{Columns: m.featureNames, Rows: [][]float64{row}}).
		Post(m.endpoint)
	if err != nil {
		return 0, fmt.Errorf("error calling model server: %w", err)
	}

	if !res.IsSuccess() {
		return 0, fmt.Errorf("model server returned status %d: %s", res.StatusCode(), res.String())
	}

	var out remotePredictResponse
	if err := json.Unmarshal(res.Body(), &out); err != nil {
		return 0, fmt.Errorf("error parsing model server response: %w", err)
	}

	if len(out.Predictions) != 1 {
		return 0, fmt.Errorf("model server returned %d predictions for 1 row", len(out.Predictions))
	}

	return out.Predictions[0], nil
}

func (m *RemoteModel) Release() {}
