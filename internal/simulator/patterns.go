package simulator

import (
	"math"
	"math/rand"
	"time"
)

// Pattern shapes the simulated CPU utilization over time.
type Pattern interface {
	Apply(baseCPU float64) float64
	Name() string
}

var (
	PatternSteady Pattern = &SteadyPattern{}
	PatternDaily  Pattern = &DailyPattern{}
	PatternRandom Pattern = &RandomPattern{}
)

func ParsePattern(name string) Pattern {
	switch name {
	case "daily":
		return PatternDaily
	case "random":
		return PatternRandom
	case "gradual_rise":
		return &GradualRisePattern{startTime: time.Now()}
	default:
		return PatternSteady
	}
}

// SteadyPattern holds the load constant.
type SteadyPattern struct{}

func (p *SteadyPattern) Apply(baseCPU float64) float64 {
	return baseCPU
}

func (p *SteadyPattern) Name() string {
	return "steady"
}

// DailyPattern follows a business-hours traffic cycle.
type DailyPattern struct{}

func (p *DailyPattern) Apply(baseCPU float64) float64 {
	hour := time.Now().Hour()

	var modifier float64
	switch {
	case hour >= 9 && hour <= 11:
		modifier = 1.4
	case hour >= 14 && hour <= 16:
		modifier = 1.3
	case hour >= 17 && hour <= 20:
		modifier = 1.1
	case hour >= 0 && hour <= 6:
		modifier = 0.6
	default:
		modifier = 1.0
	}

	return clampCPU(baseCPU * modifier)
}

func (p *DailyPattern) Name() string {
	return "daily"
}

// RandomPattern produces unpredictable swings.
type RandomPattern struct{}

func (p *RandomPattern) Apply(baseCPU float64) float64 {
	modifier := 0.5 + rand.Float64()
	return clampCPU(baseCPU * modifier)
}

func (p *RandomPattern) Name() string {
	return "random"
}

// GradualRisePattern increases load by 2% per minute, capped at +50%.
type GradualRisePattern struct {
	startTime time.Time
}

func (p *GradualRisePattern) Apply(baseCPU float64) float64 {
	minutes := time.Since(p.startTime).Minutes()
	increasePercent := math.Min(minutes*2, 50)
	return clampCPU(baseCPU * (1.0 + increasePercent/100))
}

func (p *GradualRisePattern) Name() string {
	return "gradual_rise"
}

func clampCPU(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
