package handler

import (
	"talaty/internal/scoring/models"
	"talaty/internal/scoring/service"
)

// BatchResponse summarizes POST /admin/scores/recalculate.
type BatchResponse struct {
	Total     int                           `json:"total"`
	Succeeded int                           `json:"succeeded"`
	Failed    int                           `json:"failed"`
	Results   []service.RecalculationResult `json:"results"`
}

func FromResults(results []service.RecalculationResult) *BatchResponse {
	resp := &BatchResponse{Total: len(results), Results: results}
	for _, r := range results {
		if r.Success {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	return resp
}

// ScoreResponse wraps a single score so the admin single-user recalculation
// and the owner endpoints share a shape.
type ScoreResponse struct {
	Score *models.Score `json:"score"`
}
