package services

import (
	"context"

	"gate-catering-api/pkg/apiclient"
	"gate-catering-api/pkg/models"
)

// LotService proxies the batch (lote) collection of the products backend.
type LotService struct {
	lots resource
}

func NewLotService(client *apiclient.Client, baseURL string) *LotService {
	return &LotService{lots: newResource(client, baseURL, "/lotes")}
}

func (s *LotService) Lots(ctx context.Context) (models.Record, error) {
	return s.lots.list(ctx)
}

func (s *LotService) Lot(ctx context.Context, id string) (models.Record, error) {
	return s.lots.get(ctx, id)
}

// LotDetailed returns the lot with its items embedded.
func (s *LotService) LotDetailed(ctx context.Context, id string) (models.Record, error) {
	return s.lots.get(ctx, id, "detailed")
}

func (s *LotService) LotItems(ctx context.Context, id string) (models.Record, error) {
	return s.lots.get(ctx, id, "items")
}

func (s *LotService) CreateLot(ctx context.Context, body map[string]interface{}) (models.Record, error) {
	return s.lots.create(ctx, body)
}

func (s *LotService) UpdateLot(ctx context.Context, id string, body map[string]interface{}) (models.Record, error) {
	return s.lots.update(ctx, id, body)
}

func (s *LotService) DeleteLot(ctx context.Context, id string) error {
	_, err := s.lots.remove(ctx, id)
	return err
}
