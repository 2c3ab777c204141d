package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"

	"quizadmin/database"
	"quizadmin/models"
)

// Persister writes the collections and unit definitions to the realtime database.
type Persister struct {
	tree database.Tree
}

func NewPersister(tree database.Tree) *Persister {
	return &Persister{tree: tree}
}

// SaveCollections writes all four collections in one update.
func (p *Persister) SaveCollections(ctx context.Context, c models.Collections) error {
	return p.SaveCollectionsWith(ctx, c, nil)
}

// SaveCollectionsWith writes the collections together with extra paths in a
// single update, so either all of them land or none do. A nil extra value
// removes that path.
func (p *Persister) SaveCollectionsWith(ctx context.Context, c models.Collections, extra map[string]any) error {
	values := make(map[string]any, 4+len(extra))
	for path, v := range extra {
		values[path] = v
	}
	for _, k := range models.Kinds() {
		values[database.Join(database.QuestionsPath, k.Collection())] = k.Items(&c)
	}
	if err := p.tree.Update(ctx, values); err != nil {
		return fmt.Errorf("save collections: %w", err)
	}
	return nil
}

// LoadCollections reads the collections; missing ones load empty.
func (p *Persister) LoadCollections(ctx context.Context) (models.Collections, error) {
	var c models.Collections
	for _, k := range models.Kinds() {
		var raw []json.RawMessage
		path := database.Join(database.QuestionsPath, k.Collection())
		if _, err := p.tree.Get(ctx, path, &raw); err != nil {
			return models.Collections{}, fmt.Errorf("load %s: %w", path, err)
		}
		for i, item := range raw {
			q, err := k.Decode(item)
			if err != nil {
				log.Printf("warning: skipping unreadable %s entry %d: %v", k.Collection(), i, err)
				continue
			}
			if err := k.Append(&c, q); err != nil {
				return models.Collections{}, err
			}
		}
	}
	return c.Clone(), nil
}

// SaveUnits writes the unit definitions, replacing any stored set.
func (p *Persister) SaveUnits(ctx context.Context, units []models.Unit) error {
	values := map[string]any{database.UnitsPath: nil}
	for _, u := range units {
		values[database.Join(database.UnitsPath, u.ID)] = u
	}
	return p.tree.Update(ctx, values)
}

// LoadUnits reads the unit definitions. found is false when none are stored.
func (p *Persister) LoadUnits(ctx context.Context) (units []models.Unit, found bool, err error) {
	nodes, err := p.tree.List(ctx, database.UnitsPath)
	if err != nil {
		return nil, false, err
	}
	for _, n := range nodes {
		var u models.Unit
		if err := json.Unmarshal(n.Value, &u); err != nil {
			log.Printf("warning: skipping unreadable unit %s: %v", n.Path, err)
			continue
		}
		units = append(units, u)
	}
	sort.SliceStable(units, func(i, j int) bool { return unitLess(units[i].ID, units[j].ID) })
	return units, len(units) > 0, nil
}

// unitLess orders numeric ids numerically and everything else lexically.
func unitLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}

// Load builds a ContentStore from the database, seeding default units when
// none exist yet.
func (p *Persister) Load(ctx context.Context) (*ContentStore, error) {
	units, found, err := p.LoadUnits(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		units = models.DefaultUnits()
		if err := p.SaveUnits(ctx, units); err != nil {
			return nil, fmt.Errorf("seed units: %w", err)
		}
		log.Printf("Seeded %d default units", len(units))
	}
	c, err := p.LoadCollections(ctx)
	if err != nil {
		return nil, err
	}
	return NewContentStore(units, c), nil
}
