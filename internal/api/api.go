package api

import (
	"context"
	"net/http"

	"house-price-backend/internal/auth"
	"house-price-backend/internal/core"
	"house-price-backend/internal/database"
	"house-price-backend/internal/features"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type Predictor interface {
	Predict(input features.RawInput) (core.Prediction, error)
}

// PredictionSink stores prediction records. Implemented by
// database.PredictionStore and messaging.QueueSink.
type PredictionSink interface {
	RecordPrediction(ctx context.Context, record database.PredictionRecord) error
}

type BackendService struct {
	db        *gorm.DB
	predictor Predictor
	sink      PredictionSink
	sessions  *auth.SessionManager
}

func NewBackendService(db *gorm.DB, predictor Predictor, sink PredictionSink, sessions *auth.SessionManager) *BackendService {
	return &BackendService{db: db, predictor: predictor, sink: sink, sessions: sessions}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))

	r.Post("/register", RestHandler(s.Register))
	r.Post("/login", SessionHandler(s.Login))
	r.Post("/logout", SessionHandler(s.Logout))
	r.Get("/logout", SessionHandler(s.Logout))

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.RequireSession)

		r.Get("/me", RestHandler(s.CurrentUser))
		r.Post("/predict", RestHandler(s.Predict))
		r.Route("/predictions", func(r chi.Router) {
			r.Get("/", RestHandler(s.ListPredictions))
			r.Get("/{prediction_id}", RestHandler(s.GetPrediction))
		})
	})
}
