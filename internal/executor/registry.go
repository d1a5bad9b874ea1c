package executor

import (
	"fmt"
	"sort"
)

// Registry holds the executors of every configured language.
type Registry struct {
	executors map[string]*Executor
}

func NewRegistry(configs []Config, deps Deps) *Registry {
	rt := newRuntimes(deps.LookPath)
	reg := &Registry{executors: make(map[string]*Executor, len(configs))}
	for _, cfg := range configs {
		reg.executors[cfg.ID] = newExecutor(cfg, deps, rt)
	}
	return reg
}

func (r *Registry) Executor(id string) (*Executor, error) {
	e, ok := r.executors[id]
	if !ok {
		return nil, fmt.Errorf("unknown executor: %s", id)
	}
	return e, nil
}

// IDs are sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.executors))
	for id := range r.executors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
