package service

import "sync"

// ReportLocks serializes per-report work across services. The batch
// reindexer, the message consumer and report deletion can all target the
// same report; whoever loses the lock re-reads the row and finds the work
// already done (or the report gone). One instance is shared through the
// container so every path contends on the same mutex.
type ReportLocks struct {
	mu    sync.Mutex
	locks map[string]*reportLockEntry
}

type reportLockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewReportLocks() *ReportLocks {
	return &ReportLocks{locks: make(map[string]*reportLockEntry)}
}

func (r *ReportLocks) Lock(key string) {
	r.mu.Lock()
	entry, ok := r.locks[key]
	if !ok {
		entry = &reportLockEntry{}
		r.locks[key] = entry
	}
	entry.refs++
	r.mu.Unlock()

	entry.mu.Lock()
}

func (r *ReportLocks) Unlock(key string) {
	r.mu.Lock()
	entry := r.locks[key]
	entry.refs--
	if entry.refs == 0 {
		delete(r.locks, key)
	}
	r.mu.Unlock()

	entry.mu.Unlock()
}
