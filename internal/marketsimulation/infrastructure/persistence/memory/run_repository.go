// Package memory 进程内模拟结果存储，按写入顺序淘汰最旧的结果
package memory

import (
	"context"
	"sync"

	"github.com/wyfcoding/optionsengine/internal/marketsimulation/domain"
)

type RunRepository struct {
	mu       sync.RWMutex
	capacity int
	runs     map[string]*domain.SimulationRun
	order    []string
}

func NewRunRepository(capacity int) *RunRepository {
	return &RunRepository{
		capacity: capacity,
		runs:     make(map[string]*domain.SimulationRun, capacity),
	}
}

func (r *RunRepository) Save(_ context.Context, run *domain.SimulationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[run.ID]; !ok {
		r.order = append(r.order, run.ID)
	}
	r.runs[run.ID] = run
	for len(r.order) > r.capacity {
		delete(r.runs, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

func (r *RunRepository) Get(_ context.Context, id string) (*domain.SimulationRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound.WithDetail("id=%s", id)
	}
	return run, nil
}

func (r *RunRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runs)
}
