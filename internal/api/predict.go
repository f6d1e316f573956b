package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"house-price-backend/internal/auth"
	"house-price-backend/internal/core"
	"house-price-backend/internal/database"
	"house-price-backend/internal/features"
	"house-price-backend/pkg/api"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var pricePrinter = message.NewPrinter(language.English)

// FormatPrice renders a price as US currency with thousands separators, for
// example $1,234,567.89.
func FormatPrice(price float64) string {
	return pricePrinter.Sprintf("$%.2f", price)
}

// parseFloat returns 0 for absent or invalid values.
func parseFloat(value string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func parseInt(value string) int64 {
	value = strings.TrimSpace(value)
	if v, err := strconv.ParseInt(value, 10, 64); err == nil {
		return v
	}
	// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
	v := parseFloat(value)
	if v < math.MinInt64 || v >= math.MaxInt64 {
		return 0
	}
	return int64(v)
}

func convertPredictRequest(req api.PredictRequest) features.RawInput {
	return features.RawInput{
		RoomBed:       parseFloat(req.RoomBed),
		RoomBath:      parseFloat(req.RoomBath),
		LivingMeasure: parseFloat(req.LivingMeasure),
		LotMeasure:    parseFloat(req.LotMeasure),
		Quality:       parseFloat(req.Quality),
		Zipcode:       parseInt(req.Zipcode),
		YrRenovated:   parseInt(req.YrRenovated),
		Basement:      parseInt(req.Basement),
		Furnished:     parseInt(req.Furnished),
		YrBuilt:       strings.TrimSpace(req.YrBuilt),
		Condition:     strings.TrimSpace(req.Condition),
		TotalArea:     strings.TrimSpace(req.TotalArea),
	}
}

func predictionError(err error) error {
	switch {
	case errors.Is(err, features.ErrEncoding):
		return CodedError(http.StatusUnprocessableEntity, err)
	case errors.Is(err, features.ErrSchemaMismatch):
		return CodedError(http.StatusInternalServerError, err)
	case errors.Is(err, core.ErrModelInvocation):
		return CodedError(http.StatusBadGateway, err)
	default:
		return CodedError(http.StatusInternalServerError, err)
	}
}

func (s *BackendService) Predict(r *http.Request) (any, error) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil, CodedErrorf(http.StatusUnauthorized, "authentication required")
	}

	req, err := ParseForm[api.PredictRequest](r)
	if err != nil {
		return nil, err
	}

	prediction, err := s.predictor.Predict(convertPredictRequest(req))
	if err != nil {
		slog.Error("prediction failed", "user_id", identity.UserId, "error", err)
		return nil, predictionError(err)
	}

	record := database.NewPredictionRecord(identity.UserId, prediction.Input.Snapshot(), prediction.Price)
	if err := s.sink.RecordPrediction(r.Context(), record); err != nil {
		slog.Warn("failed to record prediction", "prediction_id", record.Id, "user_id", identity.UserId, "error", err)
	}

	return api.PredictResponse{PredictedPrice: prediction.Price, Result: FormatPrice(prediction.Price)}, nil
}

func convertPrediction(p database.Prediction) (api.Prediction, error) {
	var input map[string]any
	if len(p.UserInput) > 0 {
		if err := json.Unmarshal(p.UserInput, &input); err != nil {
			return api.Prediction{}, err
		}
	}

	return api.Prediction{
		Id:             p.Id,
		UserInput:      input,
		PredictedPrice: p.PredictedPrice,
		Result:         FormatPrice(p.PredictedPrice),
		Timestamp:      p.Timestamp,
	}, nil
}

func (s *BackendService) ListPredictions(r *http.Request) (any, error) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil, CodedErrorf(http.StatusUnauthorized, "authentication required")
	}

	params, err := ParseRequestQueryParams[api.PredictionHistoryRequest](r)
	if err != nil {
		return nil, err
	}
	if params.Limit < 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "limit must not be negative")
	}

	predictions, err := database.ListPredictions(r.Context(), s.db, identity.UserId, params.Limit)
	if err != nil {
		return nil, CodedError(http.StatusInternalServerError, err)
	}

	results := make([]api.Prediction, 0, len(predictions))
	for _, p := range predictions {
		converted, err := convertPrediction(p)
		if err != nil {
			return nil, CodedErrorf(http.StatusInternalServerError, "error reading prediction %s: %w", p.Id, err)
		}
		results = append(results, converted)
	}

	return results, nil
}

func (s *BackendService) GetPrediction(r *http.Request) (any, error) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil, CodedErrorf(http.StatusUnauthorized, "authentication required")
	}

	predictionId, err := URLParamUUID(r, "prediction_id")
	if err != nil {
		return nil, err
	}

	prediction, err := database.GetPrediction(r.Context(), s.db, identity.UserId, predictionId)
	if err != nil {
		if errors.Is(err, database.ErrPredictionNotFound) {
			return nil, CodedError(http.StatusNotFound, err)
		}
		return nil, CodedError(http.StatusInternalServerError, err)
	}

	result, err := convertPrediction(prediction)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error reading prediction %s: %w", prediction.Id, err)
	}
	return result, nil
}
