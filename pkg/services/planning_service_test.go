package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gate-catering-api/pkg/apiclient"
	"gate-catering-api/pkg/menu"
	"gate-catering-api/pkg/models"
)

type predictFunc func(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error)

func (f predictFunc) Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
	return f(ctx, req)
}

type analyzeFunc func(ctx context.Context, req models.AgentRequest) (*models.ContextAnalysis, error)

func (f analyzeFunc) AnalyzeContext(ctx context.Context, req models.AgentRequest) (*models.ContextAnalysis, error) {
	return f(ctx, req)
}

func load(v float64) *float64 { return &v }

// recordingPredictor answers every product with buffer_pct as suggested load.
type recordingPredictor struct {
	mu       sync.Mutex
	requests []models.PredictionRequest
	err      error
}

func (r *recordingPredictor) Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	out := &models.PredictionResult{}
	for _, p := range req.Products {
		out.Predictions = append(out.Predictions, models.PredictionItem{
			Product:       p,
			SuggestedLoad: load(float64(100 + req.BufferPct)),
			HistAvg:       load(100),
			HistMax:       load(140),
		})
	}
	return out, nil
}

func (r *recordingPredictor) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

var (
	sampleFlight = models.Flight{ID: 1, FlightNumber: "AM 401", Airline: "Aeroméxico", Origin: "mty", Destination: "MEX"}
	sampleMenu   = []byte("Sandwich\nJugo de Naranja\n")
)

func newPlanning(p Predictor, a ContextAnalyzer) *PlanningService {
	if a == nil {
		a = analyzeFunc(func(ctx context.Context, req models.AgentRequest) (*models.ContextAnalysis, error) {
			return nil, errors.New("agent not expected")
		})
	}
	return NewPlanningService(p, a)
}

func readySession(t *testing.T, svc *PlanningService) Session {
	t.Helper()
	f := sampleFlight
	s := svc.Create(&f)
	s, err := svc.UploadMenu(s.ID, "menu.csv", sampleMenu)
	require.NoError(t, err)
	return s
}

func TestCreateAndGet(t *testing.T) {
	svc := newPlanning(&recordingPredictor{}, nil)

	s := svc.Create(nil)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StageSelectFlight, s.Stage)
	assert.Equal(t, menu.DefaultBuffer, s.BufferInput)

	s, err := svc.SelectFlight(s.ID, sampleFlight)
	require.NoError(t, err)
	assert.Equal(t, StageUploadMenu, s.Stage)
	assert.Equal(t, 200, s.Flight.PassengerCount)

	got, err := svc.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "AM 401", got.Flight.FlightNumber)

	_, err = svc.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, svc.Delete(s.ID))
	assert.Equal(t, 0, svc.Count())
}

func TestUploadMenuRejectsUnsupportedFile(t *testing.T) {
	svc := newPlanning(&recordingPredictor{}, nil)
	s := svc.Create(&sampleFlight)

	_, err := svc.UploadMenu(s.ID, "menu.pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, menu.ErrUnsupportedFormat)

	got, _ := svc.Get(s.ID)
	assert.Empty(t, got.FileName)
}

func TestSubmitWithoutProductsNeverCallsPredictor(t *testing.T) {
	pred := &recordingPredictor{}
	svc := newPlanning(pred, nil)
	s := svc.Create(&sampleFlight)

	_, err := svc.Submit(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrNoMenu)

	s, err = svc.UploadMenu(s.ID, "menu.csv", []byte("1\n2.5\n  \n"))
	require.NoError(t, err)
	assert.Empty(t, s.Products)

	_, err = svc.Submit(context.Background(), s.ID)
	assert.ErrorIs(t, err, menu.ErrNoProducts)
	assert.Equal(t, 0, pred.calls())
}

func TestSubmitDefaultBuffer(t *testing.T) {
	pred := &recordingPredictor{}
	svc := newPlanning(pred, nil)
	s := readySession(t, svc)

	s, err := svc.Submit(context.Background(), s.ID)
	require.NoError(t, err)

	assert.Equal(t, StageResults, s.Stage)
	require.NotNil(t, s.LastRequest)
	assert.Equal(t, models.PredictionRequest{
		Origin:         "MTY",
		FlightType:     "medium-haul",
		ServiceType:    "Retail",
		PassengerCount: 200,
		Products:       []string{"Sandwich", "Jugo de Naranja"},
		BufferPct:      1,
	}, *s.LastRequest)
	require.Len(t, s.Results.Predictions, 2)
	assert.Equal(t, 101.0, *s.Results.Predictions[0].SuggestedLoad)
}

func TestAnalyzeFeedsNextSubmission(t *testing.T) {
	var agentReq models.AgentRequest
	agent := analyzeFunc(func(ctx context.Context, req models.AgentRequest) (*models.ContextAnalysis, error) {
		agentReq = req
		return &models.ContextAnalysis{FinalBuffer: 12, Explanation: "Concierto en la ciudad", DetectedCategories: []string{"Concierto"}}, nil
	})
	pred := &recordingPredictor{}
	svc := newPlanning(pred, agent)
	s := readySession(t, svc)

	_, err := svc.AddMessage(s.ID, "  hay un concierto de Bad Bunny  ")
	require.NoError(t, err)
	_, err = svc.AddMessage(s.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	analysis, err := svc.Analyze(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, 12.0, analysis.FinalBuffer)

	assert.Equal(t, "AM 401", agentReq.FlightNumber)
	assert.Equal(t, 200, agentReq.PassengerCount)
	assert.Equal(t, 1, agentReq.BaseBuffer)
	assert.Equal(t, []string{"Sandwich", "Jugo de Naranja"}, agentReq.Products)
	assert.Equal(t, []models.ChatMessage{{Role: "user", Content: "hay un concierto de Bad Bunny"}}, agentReq.ChatHistory)

	got, _ := svc.Get(s.ID)
	assert.Len(t, got.Transcript, 1, "no assistant turn is added")
	assert.Equal(t, 12, got.BufferInput)

	got, err = svc.Submit(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.LastRequest.BufferPct)
	assert.Equal(t, 112.0, *got.Results.Predictions[0].SuggestedLoad)
}

func TestAnalyzeReparsesCurrentFile(t *testing.T) {
	var products [][]string
	agent := analyzeFunc(func(ctx context.Context, req models.AgentRequest) (*models.ContextAnalysis, error) {
		products = append(products, req.Products)
		return &models.ContextAnalysis{FinalBuffer: 4.7}, nil
	})
	svc := newPlanning(&recordingPredictor{}, agent)
	s := readySession(t, svc)

	_, err := svc.Analyze(context.Background(), s.ID)
	require.NoError(t, err)

	_, err = svc.UploadMenu(s.ID, "menu2.csv", []byte("Agua\n"))
	require.NoError(t, err)
	_, err = svc.Analyze(context.Background(), s.ID)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"Sandwich", "Jugo de Naranja"}, {"Agua"}}, products)
	got, _ := svc.Get(s.ID)
	assert.Equal(t, 5, got.BufferInput)
}

func TestAnalyzeFailureKeepsPreviousAnalysis(t *testing.T) {
	fail := false
	agent := analyzeFunc(func(ctx context.Context, req models.AgentRequest) (*models.ContextAnalysis, error) {
		if fail {
			return nil, errors.New("agent unavailable")
		}
		return &models.ContextAnalysis{FinalBuffer: 8}, nil
	})
	svc := newPlanning(&recordingPredictor{}, agent)
	s := readySession(t, svc)

	_, err := svc.Analyze(context.Background(), s.ID)
	require.NoError(t, err)

	fail = true
	_, err = svc.Analyze(context.Background(), s.ID)
	require.Error(t, err)

	got, _ := svc.Get(s.ID)
	require.NotNil(t, got.Analysis)
	assert.Equal(t, 8.0, got.Analysis.FinalBuffer)
	assert.Equal(t, "agent unavailable", got.Error)
}

func TestClearChatDropsAnalysis(t *testing.T) {
	agent := analyzeFunc(func(ctx context.Context, req models.AgentRequest) (*models.ContextAnalysis, error) {
		return &models.ContextAnalysis{FinalBuffer: 15}, nil
	})
	pred := &recordingPredictor{}
	svc := newPlanning(pred, agent)
	s := readySession(t, svc)

	svc.AddMessage(s.ID, "boda en el vuelo")
	_, err := svc.Analyze(context.Background(), s.ID)
	require.NoError(t, err)

	got, err := svc.ClearChat(s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Transcript)
	assert.Nil(t, got.Analysis)

	got, err = svc.Submit(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LastRequest.BufferPct)
}

func TestSetBuffer(t *testing.T) {
	svc := newPlanning(&recordingPredictor{}, nil)
	s := svc.Create(nil)

	s, _ = svc.SetBuffer(s.ID, "4.7")
	assert.Equal(t, 5, s.BufferInput)
	s, _ = svc.SetBuffer(s.ID, "-3")
	assert.Equal(t, 0, s.BufferInput)
	s, _ = svc.SetBuffer(s.ID, "15")
	s, _ = svc.SetBuffer(s.ID, "abc")
	assert.Equal(t, 15, s.BufferInput)
}

func TestReRunReplacesOnlyBuffer(t *testing.T) {
	pred := &recordingPredictor{}
	svc := newPlanning(pred, nil)
	s := readySession(t, svc)

	_, err := svc.ReRun(context.Background(), s.ID, 10)
	assert.ErrorIs(t, err, ErrNoResults)
	assert.Equal(t, 0, pred.calls())

	first, err := svc.Submit(context.Background(), s.ID)
	require.NoError(t, err)

	second, err := svc.ReRun(context.Background(), s.ID, 20)
	require.NoError(t, err)

	require.Equal(t, 2, pred.calls())
	want := first.LastRequest.WithBuffer(20)
	assert.Equal(t, want, pred.requests[1])
	assert.Equal(t, want, *second.LastRequest)
	assert.Equal(t, 20, second.BufferInput)
	assert.Equal(t, 120.0, *second.Results.Predictions[0].SuggestedLoad)
	assert.Len(t, second.Results.Predictions, 2)
}

func TestReRunFailureKeepsResults(t *testing.T) {
	pred := &recordingPredictor{}
	svc := newPlanning(pred, nil)
	s := readySession(t, svc)

	first, err := svc.Submit(context.Background(), s.ID)
	require.NoError(t, err)

	pred.err = &apiclient.Error{StatusCode: 500, Message: "internal server error (HTTP 500): Internal error"}
	got, err := svc.ReRun(context.Background(), s.ID, 30)
	require.Error(t, err)

	assert.Contains(t, got.Error, "Internal error")
	assert.Equal(t, first.Results, got.Results)
	assert.Equal(t, first.LastRequest, got.LastRequest)
	assert.Equal(t, StageResults, got.Stage)
}

func TestLatestSubmissionWins(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	pred := predictFunc(func(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 2 {
			// the first re-run is held until the second one has finished
			<-release
		}
		return &models.PredictionResult{Predictions: []models.PredictionItem{
			{Product: "Sandwich", SuggestedLoad: load(float64(req.BufferPct))},
		}}, nil
	})
	svc := newPlanning(pred, nil)
	s := readySession(t, svc)
	_, err := svc.Submit(context.Background(), s.ID)
	require.NoError(t, err)

	slowErr := make(chan error, 1)
	go func() {
		_, err := svc.ReRun(context.Background(), s.ID, 5)
		slowErr <- err
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, time.Second, 5*time.Millisecond)

	fast, err := svc.ReRun(context.Background(), s.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, 9.0, *fast.Results.Predictions[0].SuggestedLoad)

	close(release)
	assert.ErrorIs(t, <-slowErr, ErrStaleResult)

	got, _ := svc.Get(s.ID)
	assert.Equal(t, 9, got.LastRequest.BufferPct)
	assert.Equal(t, 9.0, *got.Results.Predictions[0].SuggestedLoad)
}

func TestSelectFlightDropsResults(t *testing.T) {
	svc := newPlanning(&recordingPredictor{}, nil)
	s := readySession(t, svc)
	_, err := svc.Submit(context.Background(), s.ID)
	require.NoError(t, err)

	got, err := svc.SelectFlight(s.ID, models.Flight{FlightNumber: "VB 341", Origin: "MTY"})
	require.NoError(t, err)
	assert.Nil(t, got.Results)
	assert.Nil(t, got.LastRequest)
	assert.Equal(t, "menu.csv", got.FileName)
	assert.Equal(t, StageUploadMenu, got.Stage)
}

func TestResultViews(t *testing.T) {
	svc := newPlanning(&recordingPredictor{}, nil)
	s := readySession(t, svc)

	_, err := svc.Rows(s.ID)
	assert.ErrorIs(t, err, ErrNoResults)

	_, err = svc.Submit(context.Background(), s.ID)
	require.NoError(t, err)

	rows, err := svc.Rows(s.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Sandwich", rows[0].Product)

	chart, err := svc.Chart(s.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Jugo de Naranja", chart.Product)
	require.Len(t, chart.Bars, 3)
	assert.Equal(t, float64(menu.ChartHeightPx), chart.Bars[0].HeightPx)

	_, err = svc.Chart(s.ID, 2)
	assert.ErrorIs(t, err, ErrItemNotFound)

	cmp, err := svc.Comparison(s.ID)
	require.NoError(t, err)
	require.Len(t, cmp, 2)
	assert.True(t, cmp[0].Uploaded)
	assert.True(t, cmp[0].Predicted)
	assert.Equal(t, 1.0, *cmp[0].DeltaVsAvg)

	totals, err := svc.Totals(s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Products)
	assert.Equal(t, 202.0, totals.SuggestedTotal)
	assert.Equal(t, 1.01, totals.PerPassenger)

	buf, name, err := svc.Export(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "suggested_menu_AM401.xlsx", name)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()
	rowsX, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rowsX), 3)
	assert.Equal(t, "Sandwich", rowsX[1][0])
}

func TestPruneIdle(t *testing.T) {
	svc := newPlanning(&recordingPredictor{}, nil)
	base := time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	old := svc.Create(nil)
	svc.now = func() time.Time { return base.Add(3 * time.Hour) }
	fresh := svc.Create(nil)

	assert.Equal(t, 1, svc.PruneIdle(2*time.Hour))
	_, err := svc.Get(old.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestCreateDropsIdleSessions(t *testing.T) {
	svc := newPlanning(&recordingPredictor{}, nil)
	svc.SetIdleTTL(2 * time.Hour)
	base := time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	old := svc.Create(nil)
	svc.now = func() time.Time { return base.Add(time.Hour) }
	recent := svc.Create(nil)
	assert.Equal(t, 2, svc.Count())

	svc.now = func() time.Time { return base.Add(150 * time.Minute) }
	svc.Create(nil)

	assert.Equal(t, 2, svc.Count())
	_, err := svc.Get(old.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Get(recent.ID)
	assert.NoError(t, err)
}
