package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrGateClosed is returned when Acquire is called after Close
var ErrGateClosed = errors.New("admission gate is closed")

// Stats tracks admission activity for one engine
type Stats struct {
	Limit     int64
	Active    int64
	Waiting   int64
	Admitted  int64
	TotalWait time.Duration
	LastAdmit time.Time
}

// Gate admits synthesis work per engine through weighted semaphores.
type Gate struct {
	limits map[string]int64
	sems   map[string]*semaphore.Weighted

	mu     sync.Mutex
	stats  map[string]*Stats
	closed bool
}

// NewGate creates a gate. limits maps engine ids to the maximum number of
// concurrent processes; missing or non-positive entries mean unlimited.
func NewGate(limits map[string]int) *Gate {
	g := &Gate{
		limits: make(map[string]int64),
		sems:   make(map[string]*semaphore.Weighted),
		stats:  make(map[string]*Stats),
	}
	for engine, n := range limits {
		if n <= 0 {
			continue
		}
		g.limits[engine] = int64(n)
		g.sems[engine] = semaphore.NewWeighted(int64(n))
		g.stats[engine] = &Stats{Limit: int64(n)}
	}
	return g
}

// DefaultLimits serializes the engines that load large models into memory
func DefaultLimits() map[string]int {
	return map[string]int{"coqui": 1}
}

// Acquire blocks until engine has a free slot or ctx ends. The returned
// release func must be called exactly once.
func (g *Gate) Acquire(ctx context.Context, engine string) (func(), error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, ErrGateClosed
	}
	sem, ok := g.sems[engine]
	if !ok {
		g.mu.Unlock()
		return func() {}, nil
	}
	st := g.stats[engine]
	st.Waiting++
	g.mu.Unlock()

	start := time.Now()
	err := sem.Acquire(ctx, 1)

	g.mu.Lock()
	st.Waiting--
	if err != nil {
		g.mu.Unlock()
		return nil, err
	}
	st.Active++
	st.Admitted++
	st.TotalWait += time.Since(start)
	st.LastAdmit = time.Now()
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			st.Active--
			g.mu.Unlock()
			sem.Release(1)
		})
	}, nil
}

// Stats returns a snapshot for engine; ok is false for unlimited engines
func (g *Gate) Stats(engine string) (Stats, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.stats[engine]
	if !ok {
		return Stats{}, false
	}
	return *st, true
}

// Close rejects further Acquire calls. Holders of a slot are unaffected.
func (g *Gate) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}
