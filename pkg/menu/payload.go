package menu

import (
	"errors"
	"strings"

	"gate-catering-api/pkg/models"
)

// Defaults for the flight attributes the flights service does not provide.
const (
	DefaultFlightType     = "medium-haul"
	DefaultServiceType    = "Retail"
	DefaultPassengerCount = 200
)

// ErrNoFlight is returned when a payload is assembled without a flight.
var ErrNoFlight = errors.New("no flight selected")

// ApplyFlightDefaults fills the derived prediction fields of a flight row.
func ApplyFlightDefaults(f models.Flight) models.Flight {
	if f.FlightType == "" {
		f.FlightType = DefaultFlightType
	}
	if f.ServiceType == "" {
		f.ServiceType = DefaultServiceType
	}
	if f.PassengerCount <= 0 {
		f.PassengerCount = DefaultPassengerCount
	}
	return f
}

// BufferFor returns the adjustment to submit: the agent's final buffer when
// an analysis exists, otherwise DefaultBuffer.
func BufferFor(analysis *models.ContextAnalysis) int {
	if analysis == nil {
		return DefaultBuffer
	}
	return NormalizeBuffer(analysis.FinalBuffer)
}

// BuildPredictionRequest assembles the prediction payload.
func BuildPredictionRequest(flight *models.Flight, products []string, analysis *models.ContextAnalysis) (models.PredictionRequest, error) {
	if flight == nil {
		return models.PredictionRequest{}, ErrNoFlight
	}
	if len(products) == 0 {
		return models.PredictionRequest{}, ErrNoProducts
	}

	f := ApplyFlightDefaults(*flight)
	return models.PredictionRequest{
		Origin:         strings.ToUpper(f.Origin),
		FlightType:     f.FlightType,
		ServiceType:    f.ServiceType,
		PassengerCount: f.PassengerCount,
		Products:       append([]string(nil), products...),
		BufferPct:      BufferFor(analysis),
	}, nil
}

// BuildAgentRequest bundles the product list with the operator-authored turns
// of the transcript.
func BuildAgentRequest(flight *models.Flight, products []string, transcript []models.ChatMessage) (models.AgentRequest, error) {
	if flight == nil {
		return models.AgentRequest{}, ErrNoFlight
	}
	if len(products) == 0 {
		return models.AgentRequest{}, ErrNoProducts
	}

	history := make([]models.ChatMessage, 0, len(transcript))
	for _, m := range transcript {
		if m.Role != "user" {
			continue
		}
		history = append(history, m)
	}

	f := ApplyFlightDefaults(*flight)
	return models.AgentRequest{
		FlightNumber:   f.FlightNumber,
		PassengerCount: f.PassengerCount,
		Products:       append([]string(nil), products...),
		BaseBuffer:     DefaultBuffer,
		ChatHistory:    history,
	}, nil
}
