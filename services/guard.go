package services

import "golang.org/x/sync/semaphore"

// OperationGuard lets one import or restore run at a time. Callers that find
// it taken fail fast with ErrBusy instead of queueing.
type OperationGuard struct {
	sem *semaphore.Weighted
}

func NewOperationGuard() *OperationGuard {
	return &OperationGuard{sem: semaphore.NewWeighted(1)}
}

// Acquire takes the guard. The returned func releases it.
func (g *OperationGuard) Acquire() (release func(), err error) {
	if !g.sem.TryAcquire(1) {
		return nil, ErrBusy
	}
	return func() { g.sem.Release(1) }, nil
}
