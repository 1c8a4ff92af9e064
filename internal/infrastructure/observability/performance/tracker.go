package performance

import (
	"fmt"
	"sync"
	"time"
)

// Tracker manages performance markers and provides metrics aggregation
type Tracker struct {
	markers    map[string]*Marker
	maxMarkers int
	counter    uint64
	started    time.Time
	mu         sync.RWMutex
}

// NewTracker creates a new performance tracker
func NewTracker() *Tracker {
	return &Tracker{
		markers:    make(map[string]*Marker),
		maxMarkers: 10000,
		started:    time.Now(),
	}
}

// StartOperation begins tracking a new operation and returns its marker
func (t *Tracker) StartOperation(operation string) *Marker {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counter++
	marker := &Marker{
		Operation: operation,
		StartTime: time.Now(),
	}

	// Bounded retention: drop tracked history once the map fills up.
	if len(t.markers) >= t.maxMarkers {
		t.markers = make(map[string]*Marker)
	}
	t.markers[fmt.Sprintf("%s-%d", operation, t.counter)] = marker

	return marker
}

// Stats summarizes tracked operations for the ops surface
type Stats struct {
	Uptime          time.Duration `json:"uptime"`
	TrackedMarkers  int           `json:"trackedMarkers"`
	CompletedCount  int           `json:"completedCount"`
	FailedCount     int           `json:"failedCount"`
	AverageDuration time.Duration `json:"averageDuration"`
}

// GetStats returns aggregate statistics over retained markers
func (t *Tracker) GetStats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := Stats{
		Uptime:         time.Since(t.started),
		TrackedMarkers: len(t.markers),
	}

	var totalDuration time.Duration
	for _, m := range t.markers {
		if !m.Completed {
			continue
		}
		stats.CompletedCount++
		totalDuration += m.Duration
		if !m.Success {
			stats.FailedCount++
		}
	}
	if stats.CompletedCount > 0 {
		stats.AverageDuration = totalDuration / time.Duration(stats.CompletedCount)
	}

	return stats
}
