package cost

// HoursPerMonth is the flat 30-day month used for spend projections.
const HoursPerMonth = 24 * 30

// Estimator projects spend from a per-resource-type unit price table.
// Prices are fixed at construction; all methods are pure.
type Estimator struct {
	prices       map[string]float64
	defaultPrice float64
}

func NewEstimator(prices map[string]float64, defaultPrice float64) *Estimator {
	table := make(map[string]float64, len(prices))
	for k, v := range prices {
		table[k] = v
	}
	return &Estimator{prices: table, defaultPrice: defaultPrice}
}

// UnitPrice returns the hourly price for one unit of the resource type.
func (e *Estimator) UnitPrice(resourceType string) float64 {
	if price, ok := e.prices[resourceType]; ok {
		return price
	}
	return e.defaultPrice
}

func (e *Estimator) HourlyCost(resourceType string, count int) float64 {
	if count < 0 {
		count = 0
	}
	return e.UnitPrice(resourceType) * float64(count)
}

func (e *Estimator) MonthlyCost(resourceType string, count int) float64 {
	return e.HourlyCost(resourceType, count) * HoursPerMonth
}

// MonthlySavings projects the monthly spend reduction of moving from one
// count to a lower one. Negative results mean the move costs more.
func (e *Estimator) MonthlySavings(resourceType string, fromCount, toCount int) float64 {
	return (e.HourlyCost(resourceType, fromCount) - e.HourlyCost(resourceType, toCount)) * HoursPerMonth
}
