package services

import (
	"sort"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
)

// maxLogEntries bounds the in-memory request log; the oldest entries go first.
const maxLogEntries = 10000

// Paths that are not recorded: the dashboard would otherwise count itself.
var unloggedPrefixes = []string{
	"/api/v1/admin",
	"/api/v1/monitoring",
	"/metrics",
	"/health",
}

// LogEntry is one recorded request.
type LogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time"`
}

// MonitoringService keeps a request log for the operations dashboard.
type MonitoringService struct {
	logs     []LogEntry
	mu       sync.RWMutex
	location *time.Location
	now      func() time.Time
}

// NewMonitoringService creates a MonitoringService that buckets by hour in
// the given IANA zone (UTC when it cannot be loaded).
func NewMonitoringService(timezone string) *MonitoringService {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return &MonitoringService{
		logs:     make([]LogEntry, 0),
		location: loc,
		now:      time.Now,
	}
}

// LogRequest records one request.
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	if over := len(s.logs) - maxLogEntries; over > 0 {
		s.logs = append(s.logs[:0:0], s.logs[over:]...)
	}
}

// LoggingMiddleware records every request except the dashboard's own.
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.now()
		c.Next()

		path := c.Request.URL.Path
		for _, prefix := range unloggedPrefixes {
			if strings.HasPrefix(path, prefix) {
				return
			}
		}

		// Use the route pattern so /products/1 and /products/2 count once.
		if route := c.FullPath(); route != "" {
			path = route
		}
		s.LogRequest(LogEntry{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: s.now().Sub(start),
		})
	}
}

type HourBucket struct {
	Time     string `json:"time"`
	Requests int    `json:"requests"`
}

type StatusBucket struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type EndpointLatency struct {
	Endpoint     string `json:"endpoint"`
	ResponseTime int64  `json:"responseTime"` // ms
}

// DashboardData is the aggregated view of the request log.
type DashboardData struct {
	RequestsOverTime []HourBucket      `json:"requestsOverTime"`
	Endpoints        map[string]int    `json:"endpoints"`
	StatusCodes      []StatusBucket    `json:"statusCodes"`
	AvgResponseTimes []EndpointLatency `json:"avgResponseTimes"`
	RecentErrors     []LogEntry        `json:"recentErrors"`
}

// GetDashboardData aggregates the last periodHours of requests.
func (s *MonitoringService) GetDashboardData(periodHours int) DashboardData {
	if periodHours <= 0 {
		periodHours = 24
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now().In(s.location)
	since := now.Add(-time.Duration(periodHours) * time.Hour)

	filtered := make([]LogEntry, 0)
	for _, entry := range s.logs {
		if entry.Timestamp.After(since) {
			filtered = append(filtered, entry)
		}
	}

	// oldest hour first
	hours := make([]HourBucket, periodHours)
	index := make(map[int64]int, periodHours)
	for i := 0; i < periodHours; i++ {
		t := now.Add(-time.Duration(periodHours-1-i) * time.Hour).Truncate(time.Hour)
		hours[i] = HourBucket{Time: t.Format("15:00")}
		index[t.Unix()] = i
	}

	endpoints := make(map[string]int)
	var ok2xx, err4xx, err5xx int
	latencySum := make(map[string]time.Duration)
	latencyCount := make(map[string]int)

	for _, entry := range filtered {
		if i, ok := index[entry.Timestamp.In(s.location).Truncate(time.Hour).Unix()]; ok {
			hours[i].Requests++
		}
		endpoints[entry.Path]++
		switch {
		case entry.StatusCode >= 200 && entry.StatusCode < 300:
			ok2xx++
		case entry.StatusCode >= 400 && entry.StatusCode < 500:
			err4xx++
		case entry.StatusCode >= 500:
			err5xx++
		}
		latencySum[entry.Path] += entry.ResponseTime
		latencyCount[entry.Path]++
	}

	latencies := make([]EndpointLatency, 0, len(latencySum))
	for path, total := range latencySum {
		latencies = append(latencies, EndpointLatency{
			Endpoint:     path,
			ResponseTime: total.Milliseconds() / int64(latencyCount[path]),
		})
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i].Endpoint < latencies[j].Endpoint })

	recentErrors := make([]LogEntry, 0)
	for i := len(filtered) - 1; i >= 0 && len(recentErrors) < 10; i-- {
		if filtered[i].StatusCode >= 500 {
			recentErrors = append(recentErrors, filtered[i])
		}
	}

	return DashboardData{
		RequestsOverTime: hours,
		Endpoints:        endpoints,
		StatusCodes: []StatusBucket{
			{Name: "2xx Success", Value: ok2xx},
			{Name: "4xx Client Error", Value: err4xx},
			{Name: "5xx Server Error", Value: err5xx},
		},
		AvgResponseTimes: latencies,
		RecentErrors:     recentErrors,
	}
}
