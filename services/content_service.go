package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"quizadmin/models"
	"quizadmin/store"
)

// ContentService edits single questions of a unit and mirrors every change
// into the activity log. Edits hold the same guard as imports and restores,
// so a rollback never discards another writer's commit.
type ContentService struct {
	content   *store.ContentStore
	persister *store.Persister
	activity  *ActivityService
	guard     *OperationGuard
	hub       *Hub
}

func NewContentService(content *store.ContentStore, persister *store.Persister, activity *ActivityService, guard *OperationGuard, hub *Hub) *ContentService {
	return &ContentService{
		content:   content,
		persister: persister,
		activity:  activity,
		guard:     guard,
		hub:       hub,
	}
}

func (s *ContentService) unitKind(unitID string) (models.Unit, models.Kind, error) {
	unit, ok := s.content.Unit(unitID)
	if !ok {
		return models.Unit{}, nil, ErrUnitNotFound
	}
	k, ok := models.LookupKind(unit.Type)
	if !ok {
		return models.Unit{}, nil, fmt.Errorf("unit %s: %w", unitID, store.ErrUnknownUnitType)
	}
	return unit, k, nil
}

// persist saves the collections along with any extra paths, restoring
// previous in memory when the write fails.
func (s *ContentService) persist(ctx context.Context, previous models.Collections, reason string, extra map[string]any) error {
	if err := s.persister.SaveCollectionsWith(ctx, s.content.Snapshot(), extra); err != nil {
		s.content.Replace(previous)
		log.Printf("Error saving collections after %s: %v", reason, err)
		return err
	}
	if s.hub != nil {
		s.hub.ContentChanged(reason, s.content.Total())
	}
	return nil
}

// AddQuestion appends a question to a unit and returns its position.
func (s *ContentService) AddQuestion(ctx context.Context, unitID string, raw json.RawMessage) (int, models.Question, error) {
	if _, err := requirePermission(ctx, models.PermCreate); err != nil {
		return 0, nil, err
	}
	unit, k, err := s.unitKind(unitID)
	if err != nil {
		return 0, nil, err
	}
	q, err := k.Decode(raw)
	if err != nil {
		return 0, nil, err
	}
	release, err := s.guard.Acquire()
	if err != nil {
		return 0, nil, err
	}
	defer release()

	var index int
	previous, err := s.content.Mutate(func(c *models.Collections) error {
		index = k.Len(c)
		return k.Append(c, q)
	})
	if err != nil {
		return 0, nil, err
	}
	if err := s.persist(ctx, previous, "add", nil); err != nil {
		return 0, nil, err
	}

	s.activity.LogActivity(ctx, models.ActivityAdd, models.ActivityPayload{
		UnitID:        unit.ID,
		UnitTitle:     unit.Title,
		QuestionIndex: index,
		QuestionText:  q.Title(),
		NewData:       q,
	})
	return index, q, nil
}

// EditQuestion replaces the question at index.
func (s *ContentService) EditQuestion(ctx context.Context, unitID string, index int, raw json.RawMessage) (models.Question, error) {
	if _, err := requirePermission(ctx, models.PermEdit); err != nil {
		return nil, err
	}
	unit, k, err := s.unitKind(unitID)
	if err != nil {
		return nil, err
	}
	q, err := k.Decode(raw)
	if err != nil {
		return nil, err
	}
	release, err := s.guard.Acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	old, previous, err := s.content.SetAt(unit.Type, index, q)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, previous, "edit", nil); err != nil {
		return nil, err
	}

	s.activity.LogActivity(ctx, models.ActivityEdit, models.ActivityPayload{
		UnitID:        unit.ID,
		UnitTitle:     unit.Title,
		QuestionIndex: index,
		QuestionText:  q.Title(),
		OldData:       old,
		NewData:       q,
	})
	return q, nil
}

// DeleteQuestion removes the question at index. The recoverable record for
// (unit, index) is written in the same update as the shrunken collection.
func (s *ContentService) DeleteQuestion(ctx context.Context, unitID string, index int) error {
	if _, err := requirePermission(ctx, models.PermDelete); err != nil {
		return err
	}
	unit, _, err := s.unitKind(unitID)
	if err != nil {
		return err
	}
	release, err := s.guard.Acquire()
	if err != nil {
		return err
	}
	defer release()

	q, err := s.content.At(unit.Type, index)
	if err != nil {
		return err
	}
	path, record, err := s.activity.deletedRecord(ctx, unit, q, index)
	if err != nil {
		return err
	}

	removed, previous, err := s.content.RemoveAt(unit.Type, index)
	if err != nil {
		return err
	}
	if err := s.persist(ctx, previous, "delete", map[string]any{path: record}); err != nil {
		return err
	}

	s.activity.LogActivity(ctx, models.ActivityDelete, models.ActivityPayload{
		UnitID:        unit.ID,
		UnitTitle:     unit.Title,
		QuestionIndex: index,
		QuestionText:  removed.Title(),
		OldData:       removed,
	})
	return nil
}
