package api

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	FirstName string `json:"first_name" schema:"first_name"`
	LastName  string `json:"last_name" schema:"last_name"`
	Email     string `json:"email" schema:"email"`
	Password  string `json:"password" schema:"password"`
}

type LoginRequest struct {
	Email    string `json:"email" schema:"email"`
	Password string `json:"password" schema:"password"`
}

// PredictRequest carries the raw form values. Numeric fields are parsed
// leniently by the handler, so they are kept as text here.
type PredictRequest struct {
	RoomBed       string `json:"room_bed" schema:"room_bed"`
	RoomBath      string `json:"room_bath" schema:"room_bath"`
	LivingMeasure string `json:"living_measure" schema:"living_measure"`
	LotMeasure    string `json:"lot_measure" schema:"lot_measure"`
	Quality       string `json:"quality" schema:"quality"`
	Zipcode       string `json:"zipcode" schema:"zipcode"`
	YrRenovated   string `json:"yr_renovated" schema:"yr_renovated"`
	Basement      string `json:"basement" schema:"basement"`
	Furnished     string `json:"furnished" schema:"furnished"`
	YrBuilt       string `json:"yr_built" schema:"yr_built"`
	Condition     string `json:"condition" schema:"condition"`
	TotalArea     string `json:"total_area" schema:"total_area"`
}

type PredictResponse struct {
	PredictedPrice float64 `json:"predicted_price"`
	Result         string  `json:"result"`
}

type PredictionHistoryRequest struct {
	Limit int `schema:"limit"`
}

type Prediction struct {
	Id             uuid.UUID      `json:"id"`
	UserInput      map[string]any `json:"user_input"`
	PredictedPrice float64        `json:"predicted_price"`
	Result         string         `json:"result"`
	Timestamp      time.Time      `json:"timestamp"`
}

type User struct {
	Id        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
