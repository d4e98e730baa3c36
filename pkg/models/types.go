package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// FlightEndpoint is one end (departure or arrival) of an upstream flight record.
type FlightEndpoint struct {
	IataCode      string `json:"iataCode"`
	Terminal      string `json:"terminal,omitempty"`
	Gate          string `json:"gate,omitempty"`
	ScheduledTime string `json:"scheduledTime"`
}

// UpstreamFlight is the aviation-edge style record returned by the flights
// service and the third-party flightsFuture provider.
type UpstreamFlight struct {
	Weekday   string         `json:"weekday,omitempty"`
	Departure FlightEndpoint `json:"departure"`
	Arrival   FlightEndpoint `json:"arrival"`
	Airline   struct {
		Name     string `json:"name"`
		IataCode string `json:"iataCode"`
	} `json:"airline"`
	Flight struct {
		Number     string `json:"number"`
		IataNumber string `json:"iataNumber"`
	} `json:"flight"`
}

// FlightPage is the paginated envelope of GET /api/flights/future.
type FlightPage struct {
	Items      []UpstreamFlight `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	TotalPages int              `json:"total_pages"`
}

// Flight is the flat row model used by the listing view and by prediction
// payloads. It is never mutated once built.
type Flight struct {
	ID             int    `json:"id"`
	FlightNumber   string `json:"flight_number"`
	Airline        string `json:"airline"`
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
	DepartureTime  string `json:"departure_time"`
	ArrivalTime    string `json:"arrival_time"`
	Status         string `json:"status"`
	FlightType     string `json:"flight_type"`     // e.g. "medium-haul"
	ServiceType    string `json:"service_type"`    // e.g. "Retail"
	PassengerCount int    `json:"passenger_count"` // estimated load
	Terminal       string `json:"terminal,omitempty"`
	Gate           string `json:"gate,omitempty"`
}

// PredictionRequest is the body of POST /predict-simple.
type PredictionRequest struct {
	Origin         string   `json:"origen"`
	FlightType     string   `json:"flight_type"`
	ServiceType    string   `json:"service_type"`
	PassengerCount int      `json:"passenger_count"`
	Products       []string `json:"lista_productos"`
	BufferPct      int      `json:"buffer_pct"` // always a non-negative integer
}

// WithBuffer returns a copy of the request with only the buffer replaced.
func (r PredictionRequest) WithBuffer(buffer int) PredictionRequest {
	out := r
	out.Products = append([]string(nil), r.Products...)
	out.BufferPct = buffer
	return out
}

// PredictionItem is one row of a prediction result.
type PredictionItem struct {
	Product       string   `json:"Product"`
	SuggestedLoad *float64 `json:"Suggested_Load,omitempty"`
	HistAvg       *float64 `json:"Hist_Avg,omitempty"`
	HistMax       *float64 `json:"Hist_Max,omitempty"`
}

// PredictionResult is the decoded response of the prediction service. The
// service answers either {"predictions":[...]} or a bare list of items.
type PredictionResult struct {
	Predictions []PredictionItem `json:"predictions"`
}

// ErrUnexpectedShape is returned when a prediction response is neither of
// the accepted shapes.
var ErrUnexpectedShape = errors.New("unexpected prediction shape")

// UnmarshalJSON accepts the envelope object or a bare array.
func (p *PredictionResult) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ErrUnexpectedShape
	}

	switch trimmed[0] {
	case '[':
		var items []PredictionItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		p.Predictions = items
		return nil
	case '{':
		var envelope struct {
			Predictions *[]PredictionItem `json:"predictions"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		if envelope.Predictions == nil {
			return fmt.Errorf("%w: object without predictions field", ErrUnexpectedShape)
		}
		p.Predictions = *envelope.Predictions
		return nil
	default:
		return ErrUnexpectedShape
	}
}

// ChatMessage is one turn of the operator transcript.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AgentRequest is the body of POST /api/agent/predict.
type AgentRequest struct {
	FlightNumber   string        `json:"flight_number"`
	PassengerCount int           `json:"passenger_count"`
	Products       []string      `json:"productos"`
	BaseBuffer     int           `json:"base_buffer"`
	ChatHistory    []ChatMessage `json:"chat_history"`
}

// ContextAnalysis is the agent's recommendation for the next prediction.
type ContextAnalysis struct {
	FinalBuffer        float64  `json:"final_buffer"`
	Explanation        string   `json:"explanation"`
	DetectedCategories []string `json:"detected_categories,omitempty"`
}

// AgentResponse is the response envelope of the agent service.
type AgentResponse struct {
	ContextAnalysis *ContextAnalysis `json:"context_analysis"`
}

// InventoryItem is one row of the flattened inventory.
type InventoryItem struct {
	ID             string  `json:"id"`
	ProductCode    string  `json:"product_code"`
	ProductName    string  `json:"product_name,omitempty"`
	Name           string  `json:"name,omitempty"`
	Description    string  `json:"description"`
	WeightOrVolume string  `json:"weight_or_volume"`
	LotNumber      string  `json:"lot_number"`
	ExpiryDate     string  `json:"expiry_date"`
	Quantity       float64 `json:"quantity"`
}

// DisplayName prefers product_name over name.
func (i InventoryItem) DisplayName() string {
	if i.ProductName != "" {
		return i.ProductName
	}
	return i.Name
}

// Record is an opaque upstream document (products, lots) proxied as-is.
type Record = json.RawMessage
