package dto

import "ratings-aggregator/domain/model"

// RatingsResponse is the JSON envelope of /api/ratings.
type RatingsResponse struct {
	Success bool                 `json:"success"`
	Data    []model.RatingRecord `json:"data,omitempty"`
	Message string               `json:"message,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Cache  string `json:"cache"`
}
