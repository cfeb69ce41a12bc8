package enrollment

import "sync"

// Guard is the single-slot resource backing the one-active-session rule.
// Holding the slot is what makes the orchestrator non-reentrant; modeling
// it as an owned value keeps the rule testable in isolation.
type Guard struct {
	mu   sync.Mutex
	held bool
}

func NewGuard() *Guard {
	return &Guard{}
}

// TryAcquire takes the slot if it is free. It never blocks.
func (g *Guard) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.held {
		return false
	}
	g.held = true
	return true
}

func (g *Guard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.held = false
}

func (g *Guard) Held() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held
}
