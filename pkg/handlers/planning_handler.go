package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"gate-catering-api/pkg/menu"
	"gate-catering-api/pkg/models"
	"gate-catering-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// maxMenuUploadSize caps the uploaded menu file.
const maxMenuUploadSize = 10 << 20

// PlanningHandler drives the menu planning flow: flight selection, menu
// upload, context chat, prediction and the result views.
type PlanningHandler struct {
	planning *services.PlanningService
	flights  *services.FlightService
}

func NewPlanningHandler(planning *services.PlanningService, flights *services.FlightService) *PlanningHandler {
	return &PlanningHandler{planning: planning, flights: flights}
}

// SelectFlightRequest picks a flight either inline or by listing key
// (listing ID or flight number) from the flight listing the view loaded.
type SelectFlightRequest struct {
	Flight    *models.Flight `json:"flight"`
	FlightKey string         `json:"flight_key"`
	Date      string         `json:"date"`
	IataCode  string         `json:"iataCode"`
	Source    string         `json:"source"`
}

func (h *PlanningHandler) resolveFlight(c *gin.Context, req SelectFlightRequest) (*models.Flight, error) {
	if req.Flight != nil {
		return req.Flight, nil
	}
	if req.FlightKey == "" {
		return nil, nil
	}
	listing, _ := h.flights.Listing(c.Request.Context(), services.FlightQuery{
		Date: req.Date, IataCode: req.IataCode, Source: req.Source,
	}, false)
	f, ok := services.FindFlight(listing.Flights, req.FlightKey)
	if !ok {
		return nil, fmt.Errorf("%w: flight %q", services.ErrItemNotFound, req.FlightKey)
	}
	return &f, nil
}

// CreateSession opens a planning session. The body is optional.
func (h *PlanningHandler) CreateSession(c *gin.Context) {
	var req SelectFlightRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
			return
		}
	}
	flight, err := h.resolveFlight(c, req)
	if err != nil {
		respondError(c, err)
		return
	}
	session := h.planning.Create(flight)
	c.JSON(http.StatusCreated, gin.H{"success": true, "session": session})
}

func (h *PlanningHandler) GetSession(c *gin.Context) {
	session, err := h.planning.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

func (h *PlanningHandler) DeleteSession(c *gin.Context) {
	if err := h.planning.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PlanningHandler) SelectFlight(c *gin.Context) {
	var req SelectFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
		return
	}
	flight, err := h.resolveFlight(c, req)
	if err != nil {
		respondError(c, err)
		return
	}
	if flight == nil {
		respondError(c, menu.ErrNoFlight)
		return
	}
	session, err := h.planning.SelectFlight(c.Param("id"), *flight)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

// UploadMenu accepts the menu spreadsheet as multipart field "file".
func (h *PlanningHandler) UploadMenu(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxMenuUploadSize+1<<20)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "file is required: " + err.Error()})
		return
	}
	defer file.Close()

	if header.Size > maxMenuUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "file exceeds 10MB"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "failed to read file: " + err.Error()})
		return
	}

	log.Printf("📤 [planning] session %s: menu %s (%d bytes)", c.Param("id"), header.Filename, len(data))
	session, err := h.planning.UploadMenu(c.Param("id"), header.Filename, data)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"success": true, "session": session, "products": session.Products}
	if len(session.Products) == 0 {
		resp["warning"] = menu.ErrNoProducts.Error()
	}
	c.JSON(http.StatusOK, resp)
}

type messageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *PlanningHandler) AddMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "content is required"})
		return
	}
	session, err := h.planning.AddMessage(c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "transcript": session.Transcript})
}

func (h *PlanningHandler) ClearChat(c *gin.Context) {
	session, err := h.planning.ClearChat(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session": session})
}

// Analyze asks the agent for a buffer. The result is applied to the next
// prediction and is not added to the transcript.
func (h *PlanningHandler) Analyze(c *gin.Context) {
	analysis, err := h.planning.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"analysis": analysis,
		"buffer":   menu.BufferFor(analysis),
	})
}

type bufferRequest struct {
	Buffer interface{} `json:"buffer"`
}

// SetBuffer records operator input; non-numeric input keeps the old value.
func (h *PlanningHandler) SetBuffer(c *gin.Context) {
	var req bufferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
		return
	}
	session, err := h.planning.SetBuffer(c.Param("id"), fmt.Sprint(req.Buffer))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "buffer": session.BufferInput})
}

// Predict submits the prediction for the session's flight and menu.
func (h *PlanningHandler) Predict(c *gin.Context) {
	session, err := h.planning.Submit(c.Request.Context(), c.Param("id"))
	h.respondPrediction(c, session, err)
}

type rerunRequest struct {
	BufferPct *float64 `json:"buffer_pct"`
}

// ReRun resubmits the last payload with a new buffer. Without buffer_pct
// the session's current buffer input is used.
func (h *PlanningHandler) ReRun(c *gin.Context) {
	var req rerunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request: " + err.Error()})
			return
		}
	}

	id := c.Param("id")
	var buffer int
	if req.BufferPct != nil {
		buffer = menu.NormalizeBuffer(*req.BufferPct)
	} else {
		session, err := h.planning.Get(id)
		if err != nil {
			respondError(c, err)
			return
		}
		buffer = session.BufferInput
	}

	session, err := h.planning.ReRun(c.Request.Context(), id, buffer)
	h.respondPrediction(c, session, err)
}

func (h *PlanningHandler) respondPrediction(c *gin.Context, session services.Session, err error) {
	if err != nil {
		resp := gin.H{"success": false, "error": err.Error()}
		// previous results are still valid and shown next to the error
		if session.Results != nil {
			resp["rows"] = menu.Rows(session.Results)
			resp["request"] = session.LastRequest
		}
		c.JSON(statusFor(err), resp)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"request": session.LastRequest,
		"rows":    menu.Rows(session.Results),
		"results": session.Results,
	})
}

func (h *PlanningHandler) Results(c *gin.Context) {
	rows, err := h.planning.Rows(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rows": rows})
}

// Chart returns the bars for one result row.
func (h *PlanningHandler) Chart(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "index must be an integer"})
		return
	}
	chart, err := h.planning.Chart(c.Param("id"), index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "chart": chart})
}

func (h *PlanningHandler) Comparison(c *gin.Context) {
	rows, err := h.planning.Comparison(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rows": rows})
}

// KPIs always returns the static block; totals are added once results exist.
func (h *PlanningHandler) KPIs(c *gin.Context) {
	resp := gin.H{"success": true, "kpis": menu.StaticKPIs()}
	totals, err := h.planning.Totals(c.Param("id"))
	switch {
	case err == nil:
		resp["totals"] = totals
	case errors.Is(err, services.ErrNoResults):
	default:
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Export downloads the suggested menu as .xlsx.
func (h *PlanningHandler) Export(c *gin.Context) {
	buf, name, err := h.planning.Export(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
