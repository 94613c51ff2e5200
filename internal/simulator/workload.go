package simulator

import (
	"math/rand"
	"sync"
	"time"
)

type WorkloadConfig struct {
	BaseCPU      float64
	BaseMemory   float64
	BaseRequests float64
	Variance     float64
}

// Workload simulates one target's metric signals. Memory tracks a
// fraction of CPU movement so the two stay plausibly correlated.
type Workload struct {
	id                string
	baseCPU           float64
	baseMemory        float64
	baseRequests      float64
	variance          float64
	pattern           Pattern
	spike             *spike
	memoryCorrelation float64
	mu                sync.RWMutex
}

type spike struct {
	targetCPU   float64
	startTime   time.Time
	duration    time.Duration
	rampUp      time.Duration
	originalCPU float64
}

func NewWorkload(id string, cfg WorkloadConfig) *Workload {
	if cfg.BaseCPU == 0 {
		cfg.BaseCPU = 50.0
	}
	if cfg.BaseMemory == 0 {
		cfg.BaseMemory = 60.0
	}
	if cfg.BaseRequests == 0 {
		cfg.BaseRequests = 120.0
	}
	if cfg.Variance == 0 {
		cfg.Variance = 10.0
	}

	return &Workload{
		id:                id,
		baseCPU:           cfg.BaseCPU,
		baseMemory:        cfg.BaseMemory,
		baseRequests:      cfg.BaseRequests,
		variance:          cfg.Variance,
		pattern:           PatternSteady,
		memoryCorrelation: 0.6,
	}
}

// Metrics samples the current values for every simulated signal.
func (w *Workload) Metrics() map[string]float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()

	cpu := w.currentCPU()
	cpuDelta := cpu - w.baseCPU
	memory := clampCPU(w.baseMemory + cpuDelta*w.memoryCorrelation + w.jitter())
	requests := w.baseRequests * (cpu / w.baseCPU)
	if requests < 0 {
		requests = 0
	}

	return map[string]float64{
		"cpu":          cpu,
		"memory":       memory,
		"request_rate": requests,
	}
}

func (w *Workload) currentCPU() float64 {
	cpu := w.pattern.Apply(w.baseCPU)

	if w.spike != nil {
		cpu = w.applySpike(cpu)
	}

	return clampCPU(cpu + w.jitter())
}

func (w *Workload) applySpike(cpu float64) float64 {
	s := w.spike
	elapsed := time.Since(s.startTime)

	if elapsed > s.duration {
		return cpu
	}

	if elapsed < s.rampUp {
		// Linear ramp toward the spike target.
		progress := float64(elapsed) / float64(s.rampUp)
		return s.originalCPU + (s.targetCPU-s.originalCPU)*progress
	}

	return s.targetCPU
}

func (w *Workload) jitter() float64 {
	return (rand.Float64()*2 - 1) * w.variance
}

func (w *Workload) InjectSpike(targetCPU float64, duration, rampUp time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.spike = &spike{
		targetCPU:   clampCPU(targetCPU),
		startTime:   time.Now(),
		duration:    duration,
		rampUp:      rampUp,
		originalCPU: w.baseCPU,
	}
}

func (w *Workload) SetPattern(p Pattern) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pattern = p
}

func (w *Workload) Pattern() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pattern.Name()
}

func (w *Workload) SetBaseCPU(v float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.baseCPU = clampCPU(v)
}
