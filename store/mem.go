package store

import (
	"context"
	"sort"
	"sync"

	"github.com/golang/geo/s2"

	"github.com/rotblauer/catTrips/model"
)

type pointKey struct {
	ts float64
	id string
}

// Mem keeps everything in maps. Good for tests and one-shot runs.
type Mem struct {
	mu      sync.RWMutex
	points  map[string]map[string]map[pointKey]model.Point
	entries map[string]map[string]map[string]Entry
	cells   map[string]map[string]map[string]s2.CellID
}

func NewMem() *Mem {
	return &Mem{
		points:  map[string]map[string]map[pointKey]model.Point{},
		entries: map[string]map[string]map[string]Entry{},
		cells:   map[string]map[string]map[string]s2.CellID{},
	}
}

func (m *Mem) Users(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	for u := range m.points {
		seen[u] = true
	}
	for u := range m.entries {
		seen[u] = true
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

func (m *Mem) AppendPoints(ctx context.Context, user, stream string, points []model.Point) (int, error) {
	if err := checkUser(user); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	streams, ok := m.points[user]
	if !ok {
		streams = map[string]map[pointKey]model.Point{}
		m.points[user] = streams
	}
	ps, ok := streams[stream]
	if !ok {
		ps = map[pointKey]model.Point{}
		streams[stream] = ps
	}
	added := 0
	for _, p := range points {
		k := pointKey{ts: p.Ts, id: p.ID}
		if _, ok := ps[k]; !ok {
			added++
		}
		ps[k] = p
	}
	return added, nil
}

func (m *Mem) Points(ctx context.Context, user, stream string, tq TimeQuery) ([]model.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out model.Points
	for _, p := range m.points[user][stream] {
		if tq.Contains(p.Ts) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ts == out[j].Ts {
			return out[i].ID < out[j].ID
		}
		return out[i].Ts < out[j].Ts
	})
	return out, nil
}

func (m *Mem) LastTs(ctx context.Context, user, stream string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ps := m.points[user][stream]
	if len(ps) == 0 {
		return 0, ErrNotFound
	}
	last := 0.0
	for k := range ps {
		if k.ts > last {
			last = k.ts
		}
	}
	return last, nil
}

func (m *Mem) PutEntry(ctx context.Context, user, key, entityID string, e Entry) error {
	if err := checkUser(user); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	keys, ok := m.entries[user]
	if !ok {
		keys = map[string]map[string]Entry{}
		m.entries[user] = keys
	}
	es, ok := keys[key]
	if !ok {
		es = map[string]Entry{}
		keys[key] = es
	}
	data := make([]byte, len(e.Data))
	copy(data, e.Data)
	e.Data = data
	es[entityID] = e
	return nil
}

func (m *Mem) Entry(ctx context.Context, user, key, entityID string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[user][key][entityID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *Mem) DeleteEntry(ctx context.Context, user, key, entityID string) error {
	if err := checkUser(user); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries[user][key], entityID)
	return nil
}

func (m *Mem) Entries(ctx context.Context, user, key string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	es := m.entries[user][key]
	ids := make([]string, 0, len(es))
	for id := range es {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, es[id])
	}
	return out, nil
}

func (m *Mem) ReplaceCells(ctx context.Context, user, key string, cells map[string]s2.CellID) error {
	if err := checkUser(user); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	keys, ok := m.cells[user]
	if !ok {
		keys = map[string]map[string]s2.CellID{}
		m.cells[user] = keys
	}
	cp := make(map[string]s2.CellID, len(cells))
	for id, c := range cells {
		cp[id] = c
	}
	keys[key] = cp
	return nil
}

func (m *Mem) InCell(ctx context.Context, user, key string, c s2.CellID) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, leaf := range m.cells[user][key] {
		if c.Contains(leaf) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
