package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"
)

// HandleMetrics returns JSON statistics about memory usage
func (h *BlogHandler) HandleMetrics() http.Handler {
	started := time.Now()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		stats := struct {
			Alloc       string    `json:"allocated_heap_mb"`  // active objects in heap
			TotalAlloc  string    `json:"total_alloc_mb"`     // cumulative allocs (shows churn)
			Sys         string    `json:"system_obtained_mb"` // total RAM asked from OS
			NumGC       uint32    `json:"gc_cycles"`
			CurrentTime time.Time `json:"server_time"`
			Uptime      string    `json:"uptime"`
			Goroutines  int       `json:"goroutines"`
			Cores       int       `json:"cpu_cores"`
		}{
			Alloc:       bToMb(m.Alloc),
			TotalAlloc:  bToMb(m.TotalAlloc),
			Sys:         bToMb(m.Sys),
			NumGC:       m.NumGC,
			CurrentTime: time.Now().Local().Truncate(time.Millisecond),
			Uptime:      time.Since(started).Truncate(time.Second).String(),
			Goroutines:  runtime.NumGoroutine(),
			Cores:       runtime.NumCPU(),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	})
}

// HandleHealth answers the liveness check
func (h *BlogHandler) HandleHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
}

// Helper to format bytes to MB string
func bToMb(b uint64) string {
	mb := float64(b) / 1024 / 1024
	return fmt.Sprintf("%.2f MB", mb)
}
