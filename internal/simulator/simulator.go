package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/openfleet/autoscaler/internal/logger"
)

type Config struct {
	Port int
}

// Simulator is a standalone metrics backend for exercising the control
// plane. It serves the endpoints the HTTP provider consumes.
type Simulator struct {
	config     Config
	workloads  map[string]*Workload
	mu         sync.RWMutex
	httpServer *http.Server
}

func New(cfg Config) *Simulator {
	if cfg.Port == 0 {
		cfg.Port = 9000
	}

	return &Simulator{
		config:    cfg,
		workloads: make(map[string]*Workload),
	}
}

func (s *Simulator) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/targets/", s.targetMetricsHandler)
	mux.HandleFunc("/spike", s.spikeHandler)
	mux.HandleFunc("/pattern", s.patternHandler)

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Infof("Simulator listening on %s", addr)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Simulator server error: %v", err)
		}
	}()

	return nil
}

func (s *Simulator) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Simulator) getOrCreate(targetID string) *Workload {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w, exists := s.workloads[targetID]; exists {
		return w
	}

	w := NewWorkload(targetID, WorkloadConfig{})
	s.workloads[targetID] = w

	logger.Infof("Created simulated workload: %s", targetID)
	return w
}

func (s *Simulator) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "workload-simulator",
	})
}

// targetMetricsHandler serves GET /targets/{id}/metrics.
func (s *Simulator) targetMetricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/targets/")
	targetID := strings.TrimSuffix(path, "/metrics")
	if targetID == "" || targetID == path {
		http.Error(w, "target ID required", http.StatusBadRequest)
		return
	}

	workload := s.getOrCreate(targetID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"target_id": targetID,
		"metrics":   workload.Metrics(),
	})
}

type SpikeRequest struct {
	TargetID  string  `json:"target_id"`
	CPUTarget float64 `json:"cpu_target"`
	Duration  string  `json:"duration"`
	RampUp    string  `json:"ramp_up"`
}

func (s *Simulator) spikeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SpikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	workload := s.getOrCreate(req.TargetID)

	duration, err := time.ParseDuration(req.Duration)
	if err != nil {
		duration = 5 * time.Minute
	}

	rampUp, err := time.ParseDuration(req.RampUp)
	if err != nil {
		rampUp = 30 * time.Second
	}

	workload.InjectSpike(req.CPUTarget, duration, rampUp)

	logger.Infof("Injected spike on target %s: target=%.1f%%, duration=%s",
		req.TargetID, req.CPUTarget, duration)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":    "spike injected",
		"target_id":  req.TargetID,
		"cpu_target": req.CPUTarget,
		"duration":   duration.String(),
		"ramp_up":    rampUp.String(),
	})
}

type PatternRequest struct {
	TargetID string `json:"target_id"`
	Pattern  string `json:"pattern"` // "steady", "daily", "random", "gradual_rise"
}

func (s *Simulator) patternHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PatternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	workload := s.getOrCreate(req.TargetID)
	workload.SetPattern(ParsePattern(req.Pattern))

	logger.Infof("Set pattern %s on target %s", req.Pattern, req.TargetID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":   "pattern set",
		"target_id": req.TargetID,
		"pattern":   req.Pattern,
	})
}
