package database

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// MemoryTree keeps the tree in process memory.
type MemoryTree struct {
	mu    sync.RWMutex
	nodes map[string]json.RawMessage
}

func NewMemoryTree() *MemoryTree {
	return &MemoryTree{nodes: make(map[string]json.RawMessage)}
}

func (t *MemoryTree) Get(ctx context.Context, path string, out any) (bool, error) {
	path, err := Clean(path)
	if err != nil {
		return false, err
	}
	t.mu.RLock()
	data, ok := t.nodes[path]
	t.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return true, err
	}
	return true, nil
}

func (t *MemoryTree) Set(ctx context.Context, path string, value any) error {
	return t.Update(ctx, map[string]any{path: value})
}

func (t *MemoryTree) Push(ctx context.Context, parent string, value any) (string, error) {
	key, err := newPushKey()
	if err != nil {
		return "", err
	}
	if err := t.Set(ctx, Join(parent, key), value); err != nil {
		return "", err
	}
	return key, nil
}

func (t *MemoryTree) Remove(ctx context.Context, path string) error {
	return t.Update(ctx, map[string]any{path: nil})
}

func (t *MemoryTree) List(ctx context.Context, prefix string) ([]Node, error) {
	prefix, err := Clean(prefix)
	if err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	var nodes []Node
	for p, v := range t.nodes {
		if p != prefix && within(p, prefix) {
			nodes = append(nodes, Node{Path: p, Value: append(json.RawMessage(nil), v...)})
		}
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })
	return nodes, nil
}

func (t *MemoryTree) Update(ctx context.Context, values map[string]any) error {
	writes, err := encodeWrites(values)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, w := range writes {
		for p := range t.nodes {
			if within(p, w.path) {
				delete(t.nodes, p)
			}
		}
		for a := Parent(w.path); a != ""; a = Parent(a) {
			delete(t.nodes, a)
		}
		if w.value != nil {
			t.nodes[w.path] = w.value
		}
	}
	return nil
}

type write struct {
	path  string
	value json.RawMessage
}

// encodeWrites validates and marshals an update batch, shortest paths first so
// that a parent overwrite never clobbers a child written in the same batch.
func encodeWrites(values map[string]any) ([]write, error) {
	writes := make([]write, 0, len(values))
	for p, v := range values {
		path, err := Clean(p)
		if err != nil {
			return nil, err
		}
		w := write{path: path}
		if v != nil {
			data, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			if string(data) != "null" {
				w.value = data
			}
		}
		writes = append(writes, w)
	}
	sort.Slice(writes, func(i, j int) bool {
		if len(writes[i].path) != len(writes[j].path) {
			return len(writes[i].path) < len(writes[j].path)
		}
		return writes[i].path < writes[j].path
	})
	return writes, nil
}
