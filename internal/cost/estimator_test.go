package cost_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openfleet/autoscaler/internal/cost"
)

func newTestEstimator() *cost.Estimator {
	return cost.NewEstimator(map[string]float64{
		"vm":        0.09,
		"container": 0.02,
	}, 0.05)
}

func TestEstimator_UnitPrice(t *testing.T) {
	e := newTestEstimator()

	assert.Equal(t, 0.09, e.UnitPrice("vm"))
	assert.Equal(t, 0.02, e.UnitPrice("container"))
	assert.Equal(t, 0.05, e.UnitPrice("unknown-type"))
}

func TestEstimator_HourlyCost(t *testing.T) {
	e := newTestEstimator()

	assert.InDelta(t, 0.27, e.HourlyCost("vm", 3), 1e-9)
	assert.Equal(t, 0.0, e.HourlyCost("vm", 0))
	assert.Equal(t, 0.0, e.HourlyCost("vm", -2))
}

func TestEstimator_MonthlyCost(t *testing.T) {
	e := newTestEstimator()

	// 3 VMs at $0.09/h over a flat 720-hour month.
	assert.InDelta(t, 194.4, e.MonthlyCost("vm", 3), 1e-9)
}

func TestEstimator_MonthlySavings(t *testing.T) {
	e := newTestEstimator()

	savings := e.MonthlySavings("vm", 3, 2)
	assert.InDelta(t, 64.8, savings, 1e-9)

	// Scaling up is negative savings.
	assert.Less(t, e.MonthlySavings("vm", 2, 3), 0.0)
	assert.Equal(t, 0.0, e.MonthlySavings("vm", 3, 3))
}
