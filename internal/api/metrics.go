package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/catt-bridge/internal/bridge"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	Bus           BusMetrics      `json:"bus"`
	Bridge        *bridge.Metrics `json:"bridge,omitempty"`
	Items         int             `json:"items"`
	StreamClients int             `json:"stream_clients"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// BusMetrics contains MQTT bus statistics.
type BusMetrics struct {
	Connected     bool `json:"connected"`
	Subscriptions int  `json:"subscriptions"`
}

// handleMetrics returns runtime, bus and bridge metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Items:         len(s.binding.Items()),
		StreamClients: s.hub.ClientCount(),
	}

	if s.bus != nil {
		metrics.Bus.Connected = s.bus.IsConnected()
		metrics.Bus.Subscriptions = s.bus.SubscriptionCount()
	}

	if s.bridge != nil {
		m := s.bridge.Metrics()
		metrics.Bridge = &m
	}

	writeJSON(w, http.StatusOK, metrics)
}
