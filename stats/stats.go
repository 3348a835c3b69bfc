// Package stats implements the observability surface of spec.md §6's
// /_stats endpoint: render-duration tracking, the client registry, and
// process memory sampling. Nothing here is load-bearing state — on
// restart every counter and client record starts empty, same as
// contexts and signals.
package stats

import (
	"crypto/sha256"
	"encoding/base64"
	"runtime"
	"sync"
	"time"
)

// RenderStats accumulates render-duration samples (count, total, min,
// max), mirroring the tracking ssr.Broker keeps for broadcast counts
// in the teacher repo, adapted here to per-render timing instead of
// per-event counts.
type RenderStats struct {
	mu    sync.Mutex
	count int64
	total time.Duration
	min   time.Duration
	max   time.Duration
}

// NewRenderStats returns an empty RenderStats.
func NewRenderStats() *RenderStats {
	return &RenderStats{}
}

// Record feeds one render's duration into the running stats.
func (s *RenderStats) Record(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	s.total += d
	if s.count == 1 || d < s.min {
		s.min = d
	}
	if d > s.max {
		s.max = d
	}
}

// RenderSnapshot is the render_stats object of the /_stats payload.
type RenderSnapshot struct {
	RenderCount int64   `json:"render_count"`
	TotalTime   float64 `json:"total_time"`
	AvgTime     float64 `json:"avg_time"`
	MinTime     float64 `json:"min_time"`
	MaxTime     float64 `json:"max_time"`
}

// Snapshot renders the current counters, in seconds, as spec.md §6
// requires for the /_stats response.
func (s *RenderStats) Snapshot() RenderSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := RenderSnapshot{
		RenderCount: s.count,
		TotalTime:   s.total.Seconds(),
		MinTime:     s.min.Seconds(),
		MaxTime:     s.max.Seconds(),
	}
	if s.count > 0 {
		snap.AvgTime = s.total.Seconds() / float64(s.count)
	}
	return snap
}

// ClientRecord is the observability-only connection record of
// spec.md §3: "connection id, identicon data URI derived from id
// hash, connect timestamp, remote address".
type ClientRecord struct {
	ID         string    `json:"id"`
	Identicon  string    `json:"identicon"`
	ConnectedAt time.Time `json:"connected_at"`
	RemoteAddr string    `json:"remote_addr"`
}

// Registry is the append-mostly client registry: one record per
// connection id, added on first SSE connect and removed when the
// context is finally destroyed.
type Registry struct {
	mu      sync.Mutex
	clients map[string]ClientRecord
}

// NewRegistry returns an empty client registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]ClientRecord)}
}

// Add registers a client record for id, generating its identicon from
// id's hash. Safe to call more than once for the same id (e.g. on
// reconnect) — the record is simply replaced with a fresh timestamp.
func (r *Registry) Add(id, remoteAddr string) ClientRecord {
	rec := ClientRecord{
		ID:          id,
		Identicon:   Identicon(id),
		ConnectedAt: time.Now(),
		RemoteAddr:  remoteAddr,
	}
	r.mu.Lock()
	r.clients[id] = rec
	r.mu.Unlock()
	return rec
}

// Has reports whether id already has a client record.
func (r *Registry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.clients[id]
	return ok
}

// Remove drops id's client record, called when ContextLifecycle
// finally destroys the context (not on every disconnect — a context
// surviving its grace period keeps its record).
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.clients, id)
	r.mu.Unlock()
}

// Snapshot returns a copy of every current client record, keyed by id,
// for the /_stats payload's "clients" field.
func (r *Registry) Snapshot() map[string]ClientRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]ClientRecord, len(r.clients))
	for k, v := range r.clients {
		out[k] = v
	}
	return out
}

// Count returns the number of currently registered clients.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

var startTime = time.Now()

// Uptime reports process uptime in whole seconds.
func Uptime() int64 {
	return int64(time.Since(startTime).Seconds())
}

// MemorySnapshot is the memory object of the /_stats payload: current
// heap usage and the process-lifetime peak, both in bytes.
type MemorySnapshot struct {
	Current uint64 `json:"current"`
	Peak    uint64 `json:"peak"`
}

var peakHeap uint64
var peakMu sync.Mutex

// SampleMemory reads runtime.MemStats and updates the process-lifetime
// peak, implementing the "/_stats memory tracking" supplement of
// SPEC_FULL.md: the distilled spec promises memory:{current,peak} but
// never says how to compute peak, so it is tracked here rather than
// left to the caller.
func SampleMemory() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	peakMu.Lock()
	if m.HeapAlloc > peakHeap {
		peakHeap = m.HeapAlloc
	}
	peak := peakHeap
	peakMu.Unlock()

	return MemorySnapshot{Current: m.HeapAlloc, Peak: peak}
}

// Identicon derives a small deterministic data: URI from a SHA-256
// hash of id, implementing spec.md §3's "identicon data URI derived
// from id hash" for the client registry. No identicon library exists
// anywhere in the retrieved corpus (see DESIGN.md), so this builds a
// 5x5 horizontally-symmetric grid — the classic GitHub-style identicon
// pattern — directly from hash bits and renders it as a tiny PNG.
func Identicon(id string) string {
	sum := sha256.Sum256([]byte(id))

	const cell = 8
	const grid = 5
	img := newBitmap(grid*cell, grid*cell)

	fg := color{r: sum[0], g: sum[1], b: sum[2]}
	for y := 0; y < grid; y++ {
		// Only need bits for the left half (3 columns); the right two
		// columns mirror columns 1 and 0.
		for x := 0; x < 3; x++ {
			bitIndex := y*3 + x
			byteIndex := bitIndex / 8
			bitOffset := uint(bitIndex % 8)
			if byteIndex >= len(sum) {
				continue
			}
			on := (sum[byteIndex]>>bitOffset)&1 == 1
			if !on {
				continue
			}
			img.fillCell(x, y, cell, fg)
			img.fillCell(grid-1-x, y, cell, fg)
		}
	}

	png := img.encodePNG()
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
