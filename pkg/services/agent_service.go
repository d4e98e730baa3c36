package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"gate-catering-api/pkg/apiclient"
	"gate-catering-api/pkg/models"
)

// ErrNoContextAnalysis is returned when the agent answers without a
// context_analysis object.
var ErrNoContextAnalysis = errors.New("agent response has no context_analysis")

// ContextAnalyzer is the LLM agent backend as seen by planning sessions.
type ContextAnalyzer interface {
	AnalyzeContext(ctx context.Context, req models.AgentRequest) (*models.ContextAnalysis, error)
}

// AgentService calls POST /api/agent/predict on the LLM agent.
type AgentService struct {
	client  *apiclient.Client
	baseURL string
}

func NewAgentService(client *apiclient.Client, baseURL string) *AgentService {
	return &AgentService{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// AnalyzeContext sends the product list and operator transcript and returns
// the recommended buffer.
func (s *AgentService) AnalyzeContext(ctx context.Context, req models.AgentRequest) (*models.ContextAnalysis, error) {
	log.Printf("🤖 [agent] flight %s: %d products, %d messages", req.FlightNumber, len(req.Products), len(req.ChatHistory))

	var resp models.AgentResponse
	if _, err := s.client.Post(ctx, s.baseURL+"/api/agent/predict", req, &resp); err != nil {
		return nil, err
	}
	if resp.ContextAnalysis == nil {
		return nil, ErrNoContextAnalysis
	}

	log.Printf("✅ [agent] final buffer %.1f%%, categories %v", resp.ContextAnalysis.FinalBuffer, resp.ContextAnalysis.DetectedCategories)
	return resp.ContextAnalysis, nil
}
