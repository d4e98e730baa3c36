package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"gate-catering-api/pkg/apiclient"
	"gate-catering-api/pkg/models"
)

// AviationEdgeQuery are the flightsFuture parameters.
type AviationEdgeQuery struct {
	Date     string
	IataCode string
	ArrDep   string // "departure" or "arrival"
}

// AviationEdgeService calls the public aviation-edge flightsFuture API.
type AviationEdgeService struct {
	client  *apiclient.Client
	baseURL string
	apiKey  string
}

// NewAviationEdgeService creates the provider client.
func NewAviationEdgeService(client *apiclient.Client, baseURL, apiKey string) *AviationEdgeService {
	return &AviationEdgeService{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// FutureFlights returns the raw provider records.
func (s *AviationEdgeService) FutureFlights(ctx context.Context, q AviationEdgeQuery) ([]models.UpstreamFlight, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AVIATION_EDGE_API_KEY is not set")
	}

	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("date", q.Date)
	params.Set("iataCode", q.IataCode)
	if q.ArrDep != "" {
		params.Set("arrDep", q.ArrDep)
	}

	var items []models.UpstreamFlight
	if _, err := s.client.Get(ctx, s.baseURL+"/flightsFuture?"+params.Encode(), &items); err != nil {
		return nil, err
	}
	return items, nil
}
