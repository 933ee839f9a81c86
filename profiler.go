package keyvisual

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Profiler keeps the last duration of named scopes and integer counters.
// It is safe for concurrent use, so loads and frames can share one.
type Profiler struct {
	mu     sync.Mutex
	last   map[string]time.Duration
	starts map[string]time.Time
	calls  map[string]int
	counts map[string]int
	order  []string
}

func NewProfiler() *Profiler {
	return &Profiler{
		last:   make(map[string]time.Duration),
		starts: make(map[string]time.Time),
		calls:  make(map[string]int),
		counts: make(map[string]int),
	}
}

// Begin starts scope name. Scopes are listed in first-use order.
func (p *Profiler) Begin(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, seen := p.calls[name]; !seen {
		p.order = append(p.order, name)
		p.calls[name] = 0
	}
	p.starts[name] = time.Now()
}

// End closes scope name. Without a matching Begin it does nothing.
func (p *Profiler) End(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	start, ok := p.starts[name]
	if !ok {
		return
	}
	delete(p.starts, name)
	p.last[name] = time.Since(start)
	p.calls[name]++
}

// Record stores a completed duration for scope name without Begin/End, for
// work that may overlap itself.
func (p *Profiler) Record(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, seen := p.calls[name]; !seen {
		p.order = append(p.order, name)
	}
	p.last[name] = d
	p.calls[name]++
}

func (p *Profiler) SetCount(name string, v int) {
	p.mu.Lock()
	p.counts[name] = v
	p.mu.Unlock()
}

// Last returns the most recent duration of scope name and how many times it
// completed.
func (p *Profiler) Last(name string) (time.Duration, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last[name], p.calls[name]
}

func (p *Profiler) Count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[name]
}

func (p *Profiler) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, name := range p.order {
		ms := float64(p.last[name].Microseconds()) / 1000.0
		fmt.Fprintf(&sb, "  %-10s %8.2f ms  (%d)\n", name, ms, p.calls[name])
	}

	keys := make([]string, 0, len(p.counts))
	for k := range p.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sb.WriteString("counts:\n")
	for _, k := range keys {
		fmt.Fprintf(&sb, "  %-10s %d\n", k, p.counts[k])
	}
	return sb.String()
}
