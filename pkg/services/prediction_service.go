package services

import (
	"context"
	"log"
	"strings"

	"gate-catering-api/pkg/apiclient"
	"gate-catering-api/pkg/models"
)

// Predictor is the ML prediction backend as seen by planning sessions.
type Predictor interface {
	Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error)
}

// PredictionService calls POST /predict-simple on the model service.
type PredictionService struct {
	client  *apiclient.Client
	baseURL string
}

func NewPredictionService(client *apiclient.Client, baseURL string) *PredictionService {
	return &PredictionService{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Predict submits the payload. The response must be {"predictions":[...]}
// or a bare list; anything else is an error.
func (s *PredictionService) Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
	log.Printf("🤖 [predict] %s: %d products, buffer %d%%", req.Origin, len(req.Products), req.BufferPct)

	var result models.PredictionResult
	if _, err := s.client.Post(ctx, s.baseURL+"/predict-simple", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
