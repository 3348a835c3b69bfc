package viactx

import (
	"log"
	"sync"
	"time"
)

// DefaultCleanupGrace is the minimum delayed-cleanup grace period of
// spec.md §4.8 ("a one-shot timer (default 5 s)").
const DefaultCleanupGrace = 5 * time.Second

// lifecycle implements the ContextLifecycle helper of spec.md §4.8:
// cleanup callback registration (each guarded so one failure doesn't
// stop the rest), timer ownership, and the delayed-cleanup grace
// period that survives SSE reconnects.
type lifecycle struct {
	mu          sync.Mutex
	callbacks   []func()
	timers      map[string]*time.Timer
	tickers     map[string]*time.Ticker
	cleanupTmr  *time.Timer
}

func newLifecycle() *lifecycle {
	return &lifecycle{
		timers:  make(map[string]*time.Timer),
		tickers: make(map[string]*time.Ticker),
	}
}

// onCleanup registers cb to run on teardown.
func (l *lifecycle) onCleanup(cb func()) {
	l.mu.Lock()
	l.callbacks = append(l.callbacks, cb)
	l.mu.Unlock()
}

// setInterval starts a ticker that invokes cb on every tick, owned by
// this context (spec.md §4.4, §9: "A global timer ticker ... is owned
// by the Application and cancelled at shutdown" — a per-context
// interval is instead cancelled when the context is cleaned up).
func (l *lifecycle) setInterval(id string, interval time.Duration, cb func()) {
	ticker := time.NewTicker(interval)
	l.mu.Lock()
	l.tickers[id] = ticker
	l.mu.Unlock()

	go func() {
		for range ticker.C {
			cb()
		}
	}()
}

// cancelTimers stops every timer and ticker owned by this context, per
// spec.md §4.8 ("All timers owned by the context are cancelled
// first").
func (l *lifecycle) cancelTimers() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.timers {
		t.Stop()
	}
	l.timers = make(map[string]*time.Timer)
	for _, t := range l.tickers {
		t.Stop()
	}
	l.tickers = make(map[string]*time.Ticker)
}

// runCleanup cancels every timer, then runs every registered callback
// under its own recover guard so one panicking/failing callback never
// prevents the rest from running (spec.md §7, "Cleanup callback
// errors: isolated per-callback").
func (l *lifecycle) runCleanup(contextID string) {
	l.cancelTimers()

	l.mu.Lock()
	callbacks := l.callbacks
	l.callbacks = nil
	l.mu.Unlock()

	for _, cb := range callbacks {
		runGuarded(contextID, cb)
	}
}

func runGuarded(contextID string, cb func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("viactx: cleanup callback for context %s panicked: %v", contextID, r)
		}
	}()
	cb()
}

// scheduleDelayedCleanup arms the one-shot grace timer described in
// spec.md §4.8. If it fires without being cancelled first (by a
// reconnect), fire is invoked.
func (l *lifecycle) scheduleDelayedCleanup(grace time.Duration, fire func()) {
	if grace < DefaultCleanupGrace {
		grace = DefaultCleanupGrace
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cleanupTmr != nil {
		l.cleanupTmr.Stop()
	}
	l.cleanupTmr = time.AfterFunc(grace, fire)
}

// cancelDelayedCleanup stops a pending grace timer, if any, because
// SSE reconnected before it fired.
func (l *lifecycle) cancelDelayedCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cleanupTmr != nil {
		l.cleanupTmr.Stop()
		l.cleanupTmr = nil
	}
}
