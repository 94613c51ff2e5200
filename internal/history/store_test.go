package history_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfleet/autoscaler/internal/history"
	"github.com/openfleet/autoscaler/pkg/models"
)

func sampleAt(offset time.Duration, value float64) models.MetricSample {
	return models.MetricSample{
		Timestamp: time.Now().Add(offset),
		Value:     value,
	}
}

func TestStore_AppendAndLatest(t *testing.T) {
	store := history.NewStore(10)

	for i := 0; i < 5; i++ {
		store.Append("web", models.MetricCPU, sampleAt(time.Duration(i-5)*time.Minute, float64(i)))
	}

	latest := store.Latest("web", models.MetricCPU, 3)
	require.Len(t, latest, 3)
	assert.Equal(t, 2.0, latest[0].Value)
	assert.Equal(t, 3.0, latest[1].Value)
	assert.Equal(t, 4.0, latest[2].Value)
}

func TestStore_LatestFewerThanRequested(t *testing.T) {
	store := history.NewStore(10)
	store.Append("web", models.MetricCPU, sampleAt(0, 42.0))

	latest := store.Latest("web", models.MetricCPU, 5)
	require.Len(t, latest, 1)
	assert.Equal(t, 42.0, latest[0].Value)
}

func TestStore_EvictsOldestAtCapacity(t *testing.T) {
	store := history.NewStore(3)

	for i := 0; i < 5; i++ {
		store.Append("web", models.MetricCPU, sampleAt(time.Duration(i)*time.Second, float64(i)))
	}

	assert.Equal(t, 3, store.Len("web", models.MetricCPU))

	latest := store.Latest("web", models.MetricCPU, 3)
	require.Len(t, latest, 3)
	// Oldest two values were evicted.
	assert.Equal(t, 2.0, latest[0].Value)
	assert.Equal(t, 4.0, latest[2].Value)
}

func TestStore_SinceFiltersByTime(t *testing.T) {
	store := history.NewStore(100)

	store.Append("web", models.MetricCPU, sampleAt(-2*time.Hour, 10.0))
	store.Append("web", models.MetricCPU, sampleAt(-30*time.Minute, 20.0))
	store.Append("web", models.MetricCPU, sampleAt(-5*time.Minute, 30.0))

	recent := store.Since("web", models.MetricCPU, time.Hour)
	require.Len(t, recent, 2)
	assert.Equal(t, 20.0, recent[0].Value)
	assert.Equal(t, 30.0, recent[1].Value)
}

func TestStore_SeriesAreIndependent(t *testing.T) {
	store := history.NewStore(10)

	store.Append("web", models.MetricCPU, sampleAt(0, 90.0))
	store.Append("web", models.MetricMemory, sampleAt(0, 50.0))
	store.Append("api", models.MetricCPU, sampleAt(0, 10.0))

	assert.Equal(t, 1, store.Len("web", models.MetricCPU))
	assert.Equal(t, 1, store.Len("web", models.MetricMemory))
	assert.Equal(t, 1, store.Len("api", models.MetricCPU))
	assert.Equal(t, 0, store.Len("api", models.MetricMemory))
}

func TestStore_UnknownSeries(t *testing.T) {
	store := history.NewStore(10)

	assert.Nil(t, store.Latest("nope", models.MetricCPU, 3))
	assert.Nil(t, store.Since("nope", models.MetricCPU, time.Hour))
	assert.Equal(t, 0, store.Len("nope", models.MetricCPU))
}

func TestStore_ConcurrentAppends(t *testing.T) {
	store := history.NewStore(1000)

	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			target := fmt.Sprintf("t%d", g)
			for i := 0; i < 100; i++ {
				store.Append(target, models.MetricCPU, sampleAt(0, float64(i)))
			}
		}(g)
	}
	for g := 0; g < 4; g++ {
		<-done
	}

	for g := 0; g < 4; g++ {
		assert.Equal(t, 100, store.Len(fmt.Sprintf("t%d", g), models.MetricCPU))
	}
}
