package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"gate-catering-api/pkg/apiclient"
	"gate-catering-api/pkg/menu"
	"gate-catering-api/pkg/models"
)

// Flight listing defaults. The flights backend only serves data from this
// reference date onward.
const (
	DefaultFlightDate = "2025-11-03"
	DefaultIataCode   = "MTY"
	StatusOnTime      = "On time"
	StatusDelayed     = "Delayed"
	notAvailable      = "N/A"
)

// Flight sources selectable by the listing view.
const (
	SourceBackend      = "backend"
	SourceAviationEdge = "aviation-edge"
	SourceFallback     = "fallback"
)

// FlightQuery selects a page of upcoming flights.
type FlightQuery struct {
	Date     string
	IataCode string
	Source   string
}

// FlightListing is what the listing view shows. Warning is set when the
// static fallback dataset replaced an upstream failure.
type FlightListing struct {
	Flights []models.Flight `json:"flights"`
	Source  string          `json:"source"`
	Warning string          `json:"warning,omitempty"`
}

// FlightService reads upcoming flights from the flights backend or the
// aviation-edge provider.
type FlightService struct {
	client       *apiclient.Client
	baseURL      string
	aviationEdge *AviationEdgeService
	listings     *ListingCache[FlightListing]
}

// NewFlightService creates a FlightService. aviationEdge may be nil.
func NewFlightService(client *apiclient.Client, baseURL string, aviationEdge *AviationEdgeService) *FlightService {
	return &FlightService{
		client:       client,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		aviationEdge: aviationEdge,
		listings:     NewListingCache[FlightListing](DefaultListingTTL),
	}
}

// FutureFlights fetches and normalizes upcoming flights from the selected
// source.
func (s *FlightService) FutureFlights(ctx context.Context, q FlightQuery) ([]models.Flight, error) {
	q = q.withDefaults()

	if q.Source == SourceAviationEdge {
		if s.aviationEdge == nil {
			return nil, fmt.Errorf("aviation-edge provider is not configured")
		}
		items, err := s.aviationEdge.FutureFlights(ctx, AviationEdgeQuery{Date: q.Date, IataCode: q.IataCode, ArrDep: "departure"})
		if err != nil {
			return nil, err
		}
		return NormalizeFlights(items), nil
	}

	params := url.Values{}
	params.Set("date", q.Date)
	params.Set("iataCode", q.IataCode)
	endpoint := fmt.Sprintf("%s/api/flights/future?%s", s.baseURL, params.Encode())

	log.Printf("📡 [flights] fetching %s", endpoint)
	var page models.FlightPage
	if _, err := s.client.Get(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	log.Printf("✅ [flights] %d flights received (total %d)", len(page.Items), page.Total)
	return NormalizeFlights(page.Items), nil
}

// ListFlights never fails: an upstream error is replaced by the static
// fallback dataset and reported as a warning.
func (s *FlightService) ListFlights(ctx context.Context, q FlightQuery) FlightListing {
	q = q.withDefaults()
	flights, err := s.FutureFlights(ctx, q)
	if err != nil {
		warning := "Flights backend returned an error, showing fallback data: "
		if apiclient.IsConnectionError(err) {
			warning = "Could not reach the flights backend, showing fallback data: "
		}
		return FlightListing{
			Flights: FallbackFlights(),
			Source:  SourceFallback,
			Warning: warning + err.Error(),
		}
	}
	return FlightListing{Flights: flights, Source: q.Source}
}

// Listing returns the listing loaded for q, fetching it only on first use or
// when refresh is set. Filter requests reuse the stored listing.
func (s *FlightService) Listing(ctx context.Context, q FlightQuery, refresh bool) (FlightListing, time.Time) {
	q = q.withDefaults()
	key := q.Date + "|" + q.IataCode + "|" + q.Source
	return s.listings.Get(key, refresh, func() FlightListing {
		return s.ListFlights(ctx, q)
	})
}

// FlightByID returns the raw upstream flight document.
func (s *FlightService) FlightByID(ctx context.Context, id string) (models.Record, error) {
	endpoint := fmt.Sprintf("%s/api/flights/%s", s.baseURL, url.PathEscape(id))
	var record models.Record
	if _, err := s.client.Get(ctx, endpoint, &record); err != nil {
		return nil, err
	}
	return record, nil
}

func (q FlightQuery) withDefaults() FlightQuery {
	if q.Date == "" {
		q.Date = DefaultFlightDate
	}
	if q.IataCode == "" {
		q.IataCode = DefaultIataCode
	}
	q.IataCode = strings.ToUpper(q.IataCode)
	if q.Source == "" {
		q.Source = SourceBackend
	}
	return q
}

// NormalizeFlights flattens upstream records into listing rows. IDs are
// 1-based positions in the page.
func NormalizeFlights(items []models.UpstreamFlight) []models.Flight {
	flights := make([]models.Flight, 0, len(items))
	for i, it := range items {
		flights = append(flights, menu.ApplyFlightDefaults(models.Flight{
			ID:            i + 1,
			FlightNumber:  orNA(strings.ToUpper(it.Flight.IataNumber)),
			Airline:       orNA(it.Airline.Name),
			Origin:        orNA(strings.ToUpper(it.Departure.IataCode)),
			Destination:   orNA(strings.ToUpper(it.Arrival.IataCode)),
			DepartureTime: orNA(it.Departure.ScheduledTime),
			ArrivalTime:   orNA(it.Arrival.ScheduledTime),
			// upstream carries no status
			Status:   StatusOnTime,
			Terminal: it.Departure.Terminal,
			Gate:     it.Departure.Gate,
		}))
	}
	return flights
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

// FallbackFlights is the static dataset shown when the flights backend is
// unreachable.
func FallbackFlights() []models.Flight {
	rows := []models.Flight{
		{ID: 1, FlightNumber: "AM 401", Airline: "Aeroméxico", Origin: "MTY", Destination: "MEX", DepartureTime: "08:30", ArrivalTime: "10:45", Status: StatusOnTime},
		{ID: 2, FlightNumber: "Y4 523", Airline: "Volaris", Origin: "MTY", Destination: "GDL", DepartureTime: "12:15", ArrivalTime: "14:20", Status: StatusDelayed},
		{ID: 3, FlightNumber: "VB 341", Airline: "VivaAerobus", Origin: "MTY", Destination: "CUN", DepartureTime: "15:00", ArrivalTime: "17:30", Status: StatusOnTime},
	}
	for i := range rows {
		rows[i] = menu.ApplyFlightDefaults(rows[i])
	}
	return rows
}

// FindFlight looks a flight up by listing ID or flight number.
func FindFlight(flights []models.Flight, key string) (models.Flight, bool) {
	key = strings.TrimSpace(key)
	for _, f := range flights {
		if fmt.Sprint(f.ID) == key || strings.EqualFold(f.FlightNumber, key) {
			return f, true
		}
	}
	return models.Flight{}, false
}

// FilterFlights keeps the rows whose flight number, airline, origin or
// destination contains term, ignoring case.
func FilterFlights(flights []models.Flight, term string) []models.Flight {
	return filterRows(flights, term, func(f models.Flight) []string {
		return []string{f.FlightNumber, f.Airline, f.Origin, f.Destination}
	})
}

// filterRows is the shared case-insensitive substring filter of the listing
// views.
func filterRows[T any](rows []T, term string, fields func(T) []string) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return rows
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		haystack := strings.ToLower(strings.Join(fields(r), " "))
		if strings.Contains(haystack, term) {
			out = append(out, r)
		}
	}
	return out
}
