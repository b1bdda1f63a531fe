package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"rrtnav/planner"
	"rrtnav/scenario"
)

// storedPlan is one planning attempt kept for later tree display and streaming.
type storedPlan struct {
	ID       uuid.UUID
	Scenario *scenario.Scenario
	Result   *planner.Result
	Attempts int
	Created  time.Time
}

// planStore keeps plans in memory. Plans are never mutated after Put.
type planStore struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]*storedPlan
	order []uuid.UUID
	limit int
}

func newPlanStore(limit int) *planStore {
	return &planStore{plans: make(map[uuid.UUID]*storedPlan), limit: limit}
}

// Put stores p under a fresh id, evicting the oldest plan once the limit is reached.
func (ps *planStore) Put(p *storedPlan) uuid.UUID {
	p.ID = uuid.New()
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.limit > 0 && len(ps.order) >= ps.limit {
		oldest := ps.order[0]
		ps.order = ps.order[1:]
		delete(ps.plans, oldest)
	}
	ps.plans[p.ID] = p
	ps.order = append(ps.order, p.ID)
	return p.ID
}

func (ps *planStore) Get(id uuid.UUID) (*storedPlan, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	p, ok := ps.plans[id]
	return p, ok
}

func (ps *planStore) Len() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.plans)
}
