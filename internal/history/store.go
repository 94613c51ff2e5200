package history

import (
	"sync"
	"time"

	"github.com/openfleet/autoscaler/pkg/models"
)

// DefaultCapacity bounds each per-target-per-metric buffer. The cap keeps
// memory flat and evaluation windows independent of process uptime.
const DefaultCapacity = 1000

type bufferKey struct {
	targetID string
	metric   models.ResourceMetric
}

// Store holds bounded, time-ordered sample buffers per target and metric.
// The map is guarded by a read-write mutex; each buffer carries its own
// lock so appends for different series never contend.
type Store struct {
	mu       sync.RWMutex
	buffers  map[bufferKey]*ringBuffer
	capacity int
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		buffers:  make(map[bufferKey]*ringBuffer),
		capacity: capacity,
	}
}

// Append records a sample, evicting the oldest entry once the buffer is full.
func (s *Store) Append(targetID string, metric models.ResourceMetric, sample models.MetricSample) {
	buf := s.buffer(targetID, metric)
	buf.mu.Lock()
	buf.push(sample)
	buf.mu.Unlock()
}

// Recent returns samples within the trailing window, oldest to newest.
func (s *Store) Recent(targetID string, metric models.ResourceMetric, window time.Duration) []models.MetricSample {
	return s.Since(targetID, metric, window)
}

// Since returns samples newer than now minus the given duration,
// oldest to newest.
func (s *Store) Since(targetID string, metric models.ResourceMetric, d time.Duration) []models.MetricSample {
	buf := s.lookup(targetID, metric)
	if buf == nil {
		return nil
	}
	cutoff := time.Now().Add(-d)

	buf.mu.Lock()
	defer buf.mu.Unlock()

	var out []models.MetricSample
	for i := 0; i < buf.size; i++ {
		sample := buf.at(i)
		if sample.Timestamp.After(cutoff) {
			out = append(out, sample)
		}
	}
	return out
}

// Latest returns up to n most recent samples, oldest to newest.
func (s *Store) Latest(targetID string, metric models.ResourceMetric, n int) []models.MetricSample {
	buf := s.lookup(targetID, metric)
	if buf == nil || n <= 0 {
		return nil
	}

	buf.mu.Lock()
	defer buf.mu.Unlock()

	if n > buf.size {
		n = buf.size
	}
	out := make([]models.MetricSample, 0, n)
	for i := buf.size - n; i < buf.size; i++ {
		out = append(out, buf.at(i))
	}
	return out
}

// Len reports the number of stored samples for a series.
func (s *Store) Len(targetID string, metric models.ResourceMetric) int {
	buf := s.lookup(targetID, metric)
	if buf == nil {
		return 0
	}
	buf.mu.Lock()
	defer buf.mu.Unlock()
	return buf.size
}

func (s *Store) buffer(targetID string, metric models.ResourceMetric) *ringBuffer {
	key := bufferKey{targetID: targetID, metric: metric}

	s.mu.RLock()
	buf, ok := s.buffers[key]
	s.mu.RUnlock()
	if ok {
		return buf
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if buf, ok = s.buffers[key]; ok {
		return buf
	}
	buf = newRingBuffer(s.capacity)
	s.buffers[key] = buf
	return buf
}

func (s *Store) lookup(targetID string, metric models.ResourceMetric) *ringBuffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffers[bufferKey{targetID: targetID, metric: metric}]
}

type ringBuffer struct {
	mu    sync.Mutex
	data  []models.MetricSample
	start int
	size  int
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{data: make([]models.MetricSample, capacity)}
}

func (b *ringBuffer) push(sample models.MetricSample) {
	if b.size < len(b.data) {
		b.data[(b.start+b.size)%len(b.data)] = sample
		b.size++
		return
	}
	// Full: overwrite oldest.
	b.data[b.start] = sample
	b.start = (b.start + 1) % len(b.data)
}

// at returns the i-th oldest sample. Caller holds the lock.
func (b *ringBuffer) at(i int) models.MetricSample {
	return b.data[(b.start+i)%len(b.data)]
}
