package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gate-catering-api/pkg/menu"
	"gate-catering-api/pkg/models"
)

// Stage is where a planning session stands in the dashboard flow.
type Stage string

const (
	StageSelectFlight Stage = "select_flight"
	StageUploadMenu   Stage = "upload_menu"
	StageResults      Stage = "results"
)

var (
	ErrSessionNotFound = errors.New("planning session not found")
	ErrNoMenu          = errors.New("no menu file uploaded")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrNoResults       = errors.New("no prediction results yet")
	ErrItemNotFound    = errors.New("prediction item not found")
	// ErrStaleResult is returned to a caller whose submission was overtaken
	// by a newer one; its response was dropped.
	ErrStaleResult = errors.New("a newer submission replaced this one")
)

// Session is the per-operator state of one planning flow. Values handed out
// by PlanningService are snapshots.
type Session struct {
	ID          string                    `json:"id"`
	Stage       Stage                     `json:"stage"`
	Flight      *models.Flight            `json:"flight,omitempty"`
	FileName    string                    `json:"file_name,omitempty"`
	Products    []string                  `json:"products,omitempty"`
	Transcript  []models.ChatMessage      `json:"transcript"`
	Analysis    *models.ContextAnalysis   `json:"analysis,omitempty"`
	BufferInput int                       `json:"buffer_input"`
	LastRequest *models.PredictionRequest `json:"last_request,omitempty"`
	Results     *models.PredictionResult  `json:"results,omitempty"`
	Error       string                    `json:"error,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`

	fileData   []byte
	generation uint64
}

func (s *Session) snapshot() Session {
	out := *s
	out.fileData = nil
	out.Products = append([]string(nil), s.Products...)
	out.Transcript = append([]models.ChatMessage{}, s.Transcript...)
	if s.Flight != nil {
		f := *s.Flight
		out.Flight = &f
	}
	if s.Analysis != nil {
		a := *s.Analysis
		out.Analysis = &a
	}
	if s.LastRequest != nil {
		r := s.LastRequest.WithBuffer(s.LastRequest.BufferPct)
		out.LastRequest = &r
	}
	if s.Results != nil {
		res := models.PredictionResult{Predictions: append([]models.PredictionItem(nil), s.Results.Predictions...)}
		out.Results = &res
	}
	return out
}

// PlanningService keeps planning sessions in memory and drives the
// submit / analyze / re-run flow against the upstream services.
type PlanningService struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	predictor Predictor
	analyzer  ContextAnalyzer
	now       func() time.Time
	idleTTL   time.Duration
}

func NewPlanningService(predictor Predictor, analyzer ContextAnalyzer) *PlanningService {
	return &PlanningService{
		sessions:  make(map[string]*Session),
		predictor: predictor,
		analyzer:  analyzer,
		now:       time.Now,
	}
}

// Create opens a session, optionally with a flight already selected.
func (p *PlanningService) Create(flight *models.Flight) Session {
	now := p.now()
	s := &Session{
		ID:          uuid.New().String(),
		Stage:       StageSelectFlight,
		Transcript:  []models.ChatMessage{},
		BufferInput: menu.DefaultBuffer,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if flight != nil {
		f := menu.ApplyFlightDefaults(*flight)
		s.Flight = &f
		s.Stage = StageUploadMenu
	}

	p.mu.Lock()
	pruned := 0
	if p.idleTTL > 0 {
		pruned = p.pruneLocked(now.Add(-p.idleTTL))
	}
	p.sessions[s.ID] = s
	p.mu.Unlock()

	if pruned > 0 {
		log.Printf("🧹 [planning] %d idle sessions dropped", pruned)
	}
	log.Printf("🆕 [planning] session %s created", s.ID)
	return s.snapshot()
}

func (p *PlanningService) Get(id string) (Session, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s.snapshot(), nil
}

func (p *PlanningService) Delete(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(p.sessions, id)
	return nil
}

// Count returns the number of live sessions.
func (p *PlanningService) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sessions)
}

// SetIdleTTL makes Create drop sessions idle for longer than ttl. Hosts
// without a background pruner (the serverless entry) rely on this.
func (p *PlanningService) SetIdleTTL(ttl time.Duration) {
	p.mu.Lock()
	p.idleTTL = ttl
	p.mu.Unlock()
}

// PruneIdle drops sessions untouched for longer than maxAge.
func (p *PlanningService) PruneIdle(maxAge time.Duration) int {
	cutoff := p.now().Add(-maxAge)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pruneLocked(cutoff)
}

func (p *PlanningService) pruneLocked(cutoff time.Time) int {
	removed := 0
	for id, s := range p.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(p.sessions, id)
			removed++
		}
	}
	return removed
}

// update runs fn on the live session under the write lock.
func (p *PlanningService) update(id string, fn func(s *Session) error) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if err := fn(s); err != nil {
		return s.snapshot(), err
	}
	s.UpdatedAt = p.now()
	return s.snapshot(), nil
}

// SelectFlight switches the session to another flight. Results and the
// stored payload belong to the previous flight and are dropped.
func (p *PlanningService) SelectFlight(id string, flight models.Flight) (Session, error) {
	return p.update(id, func(s *Session) error {
		f := menu.ApplyFlightDefaults(flight)
		s.Flight = &f
		s.LastRequest = nil
		s.Results = nil
		s.Error = ""
		s.generation++
		s.Stage = StageUploadMenu
		return nil
	})
}

// UploadMenu stores the raw file. Unreadable files are rejected; a file
// without product names is kept so the operator sees the empty list, but
// Submit and Analyze refuse it.
func (p *PlanningService) UploadMenu(id, fileName string, data []byte) (Session, error) {
	products, err := menu.ExtractProducts(fileName, data)
	if err != nil && !errors.Is(err, menu.ErrNoProducts) {
		return Session{}, err
	}
	return p.update(id, func(s *Session) error {
		s.FileName = fileName
		s.fileData = append([]byte(nil), data...)
		s.Products = products
		s.Error = ""
		if s.Flight != nil && s.Stage == StageSelectFlight {
			s.Stage = StageUploadMenu
		}
		return nil
	})
}

// AddMessage appends an operator turn to the transcript.
func (p *PlanningService) AddMessage(id, content string) (Session, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Session{}, ErrEmptyMessage
	}
	return p.update(id, func(s *Session) error {
		s.Transcript = append(s.Transcript, models.ChatMessage{Role: "user", Content: content})
		return nil
	})
}

// ClearChat drops the transcript and the analysis derived from it.
func (p *PlanningService) ClearChat(id string) (Session, error) {
	return p.update(id, func(s *Session) error {
		s.Transcript = []models.ChatMessage{}
		s.Analysis = nil
		return nil
	})
}

// SetBuffer records the operator's buffer input. Non-numeric text keeps the
// previous value.
func (p *PlanningService) SetBuffer(id, text string) (Session, error) {
	return p.update(id, func(s *Session) error {
		if v, ok := menu.ParseBuffer(text); ok {
			s.BufferInput = v
		}
		return nil
	})
}

// currentProducts re-reads the stored file.
func currentProducts(s *Session) ([]string, error) {
	if s.fileData == nil {
		return nil, ErrNoMenu
	}
	return menu.ExtractProducts(s.FileName, s.fileData)
}

// Analyze sends the re-parsed menu and the transcript to the agent and
// stores the returned analysis. The transcript is left untouched.
func (p *PlanningService) Analyze(ctx context.Context, id string) (*models.ContextAnalysis, error) {
	p.mu.RLock()
	s, ok := p.sessions[id]
	if !ok {
		p.mu.RUnlock()
		return nil, ErrSessionNotFound
	}
	products, err := currentProducts(s)
	var req models.AgentRequest
	if err == nil {
		req, err = menu.BuildAgentRequest(s.Flight, products, s.Transcript)
	}
	p.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	analysis, err := p.analyzer.AnalyzeContext(ctx, req)
	if err != nil {
		p.recordError(id, 0, err)
		return nil, err
	}

	_, err = p.update(id, func(s *Session) error {
		a := *analysis
		s.Analysis = &a
		s.BufferInput = menu.BufferFor(&a)
		s.Error = ""
		return nil
	})
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

// Submit builds the payload from flight, re-parsed menu and analysis and
// runs the prediction. A menu without products never reaches the service.
func (p *PlanningService) Submit(ctx context.Context, id string) (Session, error) {
	return p.predict(ctx, id, func(s *Session) (models.PredictionRequest, error) {
		products, err := currentProducts(s)
		if err != nil {
			return models.PredictionRequest{}, err
		}
		return menu.BuildPredictionRequest(s.Flight, products, s.Analysis)
	})
}

// ReRun resubmits the stored payload with only buffer_pct replaced.
func (p *PlanningService) ReRun(ctx context.Context, id string, buffer int) (Session, error) {
	buffer = menu.NormalizeBuffer(float64(buffer))
	return p.predict(ctx, id, func(s *Session) (models.PredictionRequest, error) {
		if s.LastRequest == nil {
			return models.PredictionRequest{}, ErrNoResults
		}
		s.BufferInput = buffer
		return s.LastRequest.WithBuffer(buffer), nil
	})
}

// predict is shared by Submit and ReRun. Each call takes a new generation;
// only the newest generation may write results, so an older response that
// arrives late is dropped. On failure the previous results stay.
func (p *PlanningService) predict(ctx context.Context, id string, build func(s *Session) (models.PredictionRequest, error)) (Session, error) {
	var (
		req models.PredictionRequest
		gen uint64
	)
	if _, err := p.update(id, func(s *Session) error {
		r, err := build(s)
		if err != nil {
			return err
		}
		req = r
		s.generation++
		gen = s.generation
		return nil
	}); err != nil {
		return Session{}, err
	}

	result, err := p.predictor.Predict(ctx, req)
	if err != nil {
		p.recordError(id, gen, err)
		snap, getErr := p.Get(id)
		if getErr != nil {
			return Session{}, getErr
		}
		return snap, err
	}

	return p.update(id, func(s *Session) error {
		if s.generation != gen {
			log.Printf("⏭️ [planning] session %s: dropping stale result (generation %d, current %d)", id, gen, s.generation)
			return ErrStaleResult
		}
		r := req
		s.LastRequest = &r
		s.Results = result
		s.BufferInput = req.BufferPct
		s.Error = ""
		s.Stage = StageResults
		log.Printf("✅ [planning] session %s: %d predictions at buffer %d%%", id, len(result.Predictions), req.BufferPct)
		return nil
	})
}

// recordError stores a failure on the session unless a newer submission
// superseded gen. gen 0 always records.
func (p *PlanningService) recordError(id string, gen uint64, err error) {
	p.update(id, func(s *Session) error {
		if gen != 0 && s.generation != gen {
			return nil
		}
		s.Error = err.Error()
		return nil
	})
}

// results runs fn on the current results under the read lock.
func (p *PlanningService) results(id string, fn func(s *Session) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if s.Results == nil {
		return ErrNoResults
	}
	return fn(s)
}

// Rows is the result list.
func (p *PlanningService) Rows(id string) ([]menu.ResultRow, error) {
	var rows []menu.ResultRow
	err := p.results(id, func(s *Session) error {
		rows = menu.Rows(s.Results)
		return nil
	})
	return rows, err
}

// Chart builds the bar chart of one result row, addressed by 0-based index.
func (p *PlanningService) Chart(id string, index int) (menu.Chart, error) {
	var chart menu.Chart
	err := p.results(id, func(s *Session) error {
		if index < 0 || index >= len(s.Results.Predictions) {
			return fmt.Errorf("%w: index %d", ErrItemNotFound, index)
		}
		chart = menu.BuildChart(s.Results.Predictions[index])
		return nil
	})
	return chart, err
}

// Comparison lines the uploaded menu up against the predictions.
func (p *PlanningService) Comparison(id string) ([]menu.ComparisonRow, error) {
	var rows []menu.ComparisonRow
	err := p.results(id, func(s *Session) error {
		rows = menu.Compare(s.Products, s.Results)
		return nil
	})
	return rows, err
}

// Totals summarizes the current results for the KPI view.
func (p *PlanningService) Totals(id string) (menu.Totals, error) {
	var totals menu.Totals
	err := p.results(id, func(s *Session) error {
		passengers := 0
		if s.LastRequest != nil {
			passengers = s.LastRequest.PassengerCount
		}
		totals = menu.Summarize(s.Results, passengers)
		return nil
	})
	return totals, err
}

// Export writes the suggested menu workbook.
func (p *PlanningService) Export(id string) (*bytes.Buffer, string, error) {
	var (
		buf  *bytes.Buffer
		name string
	)
	err := p.results(id, func(s *Session) error {
		var req models.PredictionRequest
		if s.LastRequest != nil {
			req = *s.LastRequest
		}
		var err error
		buf, err = menu.ExportXLSX(s.Flight, req, s.Results)
		if err != nil {
			return err
		}
		name = exportFileName(s.Flight)
		return nil
	})
	return buf, name, err
}

func exportFileName(f *models.Flight) string {
	if f == nil {
		return "suggested_menu.xlsx"
	}
	number := strings.ReplaceAll(strings.TrimSpace(f.FlightNumber), " ", "")
	if number == "" || number == notAvailable {
		return "suggested_menu.xlsx"
	}
	return fmt.Sprintf("suggested_menu_%s.xlsx", number)
}
