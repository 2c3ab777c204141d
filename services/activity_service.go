package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"
	"time"

	"quizadmin/database"
	"quizadmin/models"
	"quizadmin/store"
)

const (
	questionTextLimit = 150
	restoreTextLimit  = 100
	sanitizeAnswer    = 300
	sanitizeQuestion  = 200
	sanitizeOption    = 80

	dayMillis = int64(24 * time.Hour / time.Millisecond)
)

// ActivityService records the audit log and keeps deleted questions
// recoverable at their original position.
type ActivityService struct {
	tree      database.Tree
	content   *store.ContentStore
	persister *store.Persister
	guard     *OperationGuard
	notifier  Notifier
	clock     Clock

	pending sync.WaitGroup
}

func NewActivityService(tree database.Tree, content *store.ContentStore, persister *store.Persister, guard *OperationGuard, notifier Notifier, clock Clock) *ActivityService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &ActivityService{
		tree:      tree,
		content:   content,
		persister: persister,
		guard:     guard,
		notifier:  notifier,
		clock:     clock,
	}
}

// LogActivity appends an activity record for the actor in ctx. It never
// fails the caller: the write runs detached and errors are only logged.
func (s *ActivityService) LogActivity(ctx context.Context, typ models.ActivityType, payload models.ActivityPayload) {
	actor := models.ActorFrom(ctx)
	if actor == nil {
		log.Printf("warning: cannot log %s activity without an authenticated user", typ)
		return
	}

	now := s.clock.now()
	record := models.ActivityRecord{
		Type:          typ,
		UserID:        actor.ID,
		UserName:      actor.Name,
		UserEmail:     actor.Email,
		UserRole:      actor.Role,
		UnitID:        payload.UnitID,
		UnitTitle:     payload.UnitTitle,
		QuestionIndex: payload.QuestionIndex,
		QuestionText:  truncate(payload.QuestionText, questionTextLimit),
		OldData:       sanitize(payload.OldData),
		NewData:       sanitize(payload.NewData),
		Timestamp:     now.UnixMilli(),
		LocalTime:     s.clock.local(now),
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if _, err := s.tree.Push(context.WithoutCancel(ctx), database.ActivityLogPath, record); err != nil {
			log.Printf("Error logging %s activity for unit %s: %v", typ, record.UnitID, err)
		}
	}()
}

// Wait blocks until every detached activity write has finished.
func (s *ActivityService) Wait() {
	s.pending.Wait()
}

// sanitize normalises data to its JSON form and shortens the long free-text
// fields of an object. Anything else passes through unchanged.
func sanitize(data any) any {
	if data == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("warning: dropping unserialisable activity data: %v", err)
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	if answer, ok := m["answer"].(string); ok {
		m["answer"] = ellipsize(answer, sanitizeAnswer)
	}
	if question, ok := m["question"].(string); ok {
		m["question"] = ellipsize(question, sanitizeQuestion)
	}
	if options, ok := m["options"].([]any); ok {
		for i, o := range options {
			if text, ok := o.(string); ok {
				options[i] = ellipsize(text, sanitizeOption)
			}
		}
	}
	return m
}

// GetActivityLog returns the log newest first. Empty or "all" filter values
// match everything.
func (s *ActivityService) GetActivityLog(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityRecord, error) {
	if _, err := requirePermission(ctx, models.PermViewActivityLog); err != nil {
		return nil, err
	}

	records, err := s.readActivity(ctx)
	if err != nil {
		return nil, err
	}

	logs := make([]models.ActivityRecord, 0, len(records))
	for _, r := range records {
		if !matches(filter.Type, string(r.Type)) || !matches(filter.UserID, r.UserID) || !matches(filter.UnitID, r.UnitID) {
			continue
		}
		logs = append(logs, r)
	}

	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Timestamp < logs[j].Timestamp })
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
	return logs, nil
}

func matches(want, got string) bool {
	return want == "" || want == "all" || want == got
}

func (s *ActivityService) readActivity(ctx context.Context) ([]models.ActivityRecord, error) {
	nodes, err := s.tree.List(ctx, database.ActivityLogPath)
	if err != nil {
		return nil, fmt.Errorf("read activity log: %w", err)
	}
	records := make([]models.ActivityRecord, 0, len(nodes))
	for _, n := range nodes {
		var r models.ActivityRecord
		if err := json.Unmarshal(n.Value, &r); err != nil {
			log.Printf("warning: skipping unreadable activity record %s: %v", n.Path, err)
			continue
		}
		r.ID = n.Key()
		records = append(records, r)
	}
	return records, nil
}

// DeleteActivity removes a single activity record.
func (s *ActivityService) DeleteActivity(ctx context.Context, id string) error {
	if _, err := requirePermission(ctx, models.PermDeleteActivityLog); err != nil {
		return err
	}
	path, err := database.Clean(database.Join(database.ActivityLogPath, id))
	if err != nil || database.Parent(path) != database.ActivityLogPath {
		return ErrRecordNotFound
	}
	return s.tree.Remove(ctx, path)
}

// ClearActivityLog removes the whole activity log together with every
// deleted-content record.
func (s *ActivityService) ClearActivityLog(ctx context.Context) error {
	if _, err := requirePermission(ctx, models.PermDeleteActivityLog); err != nil {
		return err
	}
	if err := s.tree.Update(ctx, map[string]any{
		database.ActivityLogPath:    nil,
		database.DeletedContentPath: nil,
	}); err != nil {
		return fmt.Errorf("clear activity log: %w", err)
	}
	log.Printf("Activity log and deleted content cleared")
	return nil
}

// ClearOldLogs deletes records older than daysToKeep days and returns how
// many were removed. The count is -1 whenever err is non-nil.
func (s *ActivityService) ClearOldLogs(ctx context.Context, daysToKeep int) (int, error) {
	if _, err := requirePermission(ctx, models.PermDeleteActivityLog); err != nil {
		return -1, err
	}

	cutoff := s.clock.now().UnixMilli() - int64(daysToKeep)*dayMillis
	records, err := s.readActivity(ctx)
	if err != nil {
		log.Printf("Error clearing old logs: %v", err)
		return -1, err
	}

	updates := make(map[string]any)
	for _, r := range records {
		if r.Timestamp <= cutoff {
			updates[database.Join(database.ActivityLogPath, r.ID)] = nil
		}
	}
	if len(updates) == 0 {
		return 0, nil
	}
	if err := s.tree.Update(ctx, updates); err != nil {
		log.Printf("Error clearing old logs: %v", err)
		return -1, err
	}
	return len(updates), nil
}

func deletedPath(unitID string, index int) string {
	return database.Join(database.DeletedContentPath, unitID, strconv.Itoa(index))
}

// SaveDeletedContent keeps q recoverable under (unit, index). A later delete
// at the same position overwrites it.
func (s *ActivityService) SaveDeletedContent(ctx context.Context, unit models.Unit, q models.Question, index int) error {
	path, record, err := s.deletedRecord(ctx, unit, q, index)
	if err != nil {
		return err
	}
	if err := s.tree.Set(ctx, path, record); err != nil {
		return fmt.Errorf("save deleted content: %w", err)
	}
	return nil
}

// deletedRecord builds the record for q and the path it is stored at.
func (s *ActivityService) deletedRecord(ctx context.Context, unit models.Unit, q models.Question, index int) (string, models.DeletedContent, error) {
	actor := models.ActorFrom(ctx)
	if actor == nil {
		return "", models.DeletedContent{}, ErrNotAuthenticated
	}
	data, err := json.Marshal(q)
	if err != nil {
		return "", models.DeletedContent{}, fmt.Errorf("encode deleted question: %w", err)
	}

	now := s.clock.now()
	record := models.DeletedContent{
		UnitID:         unit.ID,
		UnitTitle:      unit.Title,
		UnitType:       unit.Type,
		QuestionIndex:  index,
		QuestionData:   data,
		DeletedBy:      actor.Snapshot(),
		DeletedAt:      now.UnixMilli(),
		DeletedAtLocal: s.clock.local(now),
		CanRestore:     true,
	}
	return deletedPath(unit.ID, index), record, nil
}

// GetDeletedContent lists every recoverable question.
func (s *ActivityService) GetDeletedContent(ctx context.Context) ([]models.DeletedContent, error) {
	if _, err := requirePermission(ctx, models.PermViewActivityLog); err != nil {
		return nil, err
	}
	nodes, err := s.tree.List(ctx, database.DeletedContentPath)
	if err != nil {
		return nil, fmt.Errorf("read deleted content: %w", err)
	}
	items := make([]models.DeletedContent, 0, len(nodes))
	for _, n := range nodes {
		var d models.DeletedContent
		if err := json.Unmarshal(n.Value, &d); err != nil {
			log.Printf("warning: skipping unreadable deleted content %s: %v", n.Path, err)
			continue
		}
		items = append(items, d)
	}
	return items, nil
}

// DeleteDeletedContent permanently discards one recoverable question.
func (s *ActivityService) DeleteDeletedContent(ctx context.Context, unitID string, index int) error {
	if _, err := requirePermission(ctx, models.PermDeleteActivityLog); err != nil {
		return err
	}
	return s.tree.Remove(ctx, deletedPath(unitID, index))
}

// RestoreDeletedContent puts a deleted question back at its original index.
// A missing record means it was already restored or purged: the result is
// false with a nil error. A record whose unit is gone is an integrity fault.
func (s *ActivityService) RestoreDeletedContent(ctx context.Context, unitID string, index int) (bool, error) {
	if _, err := requirePermission(ctx, models.PermDeleteActivityLog); err != nil {
		return false, err
	}
	release, err := s.guard.Acquire()
	if err != nil {
		return false, err
	}
	defer release()

	path := deletedPath(unitID, index)
	var record models.DeletedContent
	found, err := s.tree.Get(ctx, path, &record)
	if err != nil {
		return false, fmt.Errorf("read deleted content: %w", err)
	}
	if !found {
		s.notifier.Notify(ctx, LevelInfo, "This content was already restored or is no longer in the deleted items")
		return false, nil
	}

	unit, ok := s.content.Unit(unitID)
	if !ok {
		return false, fmt.Errorf("restore into unit %s: %w", unitID, ErrUnitNotFound)
	}
	k, ok := models.LookupKind(unit.Type)
	if !ok {
		return false, fmt.Errorf("restore into unit %s: %w", unitID, store.ErrUnknownUnitType)
	}
	q, err := k.Decode(record.QuestionData)
	if err != nil {
		return false, err
	}

	prev, err := s.content.InsertAt(unit.Type, index, q)
	if err != nil {
		return false, err
	}
	// The record is consumed in the same write that persists the reinsertion.
	if err := s.persister.SaveCollectionsWith(ctx, s.content.Snapshot(), map[string]any{path: nil}); err != nil {
		s.content.Replace(prev)
		log.Printf("Error restoring %s: %v", path, err)
		return false, err
	}

	text := truncate(q.Title(), restoreTextLimit)
	if text == "" {
		text = "Deleted question"
	}
	s.LogActivity(ctx, models.ActivityRestore, models.ActivityPayload{
		UnitID:        unitID,
		UnitTitle:     unit.Title,
		QuestionIndex: index,
		QuestionText:  text,
	})
	return true, nil
}
