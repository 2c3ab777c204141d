package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"quizadmin/localstore"
	"quizadmin/models"
	"quizadmin/store"
)

const (
	BackupKeyPrefix    = "backup_"
	DefaultBackupLimit = 5

	defaultBackupDescription = "Backup"
)

// BackupService keeps a rotating set of full snapshots of the collections in
// the local store so a destructive import can be undone.
type BackupService struct {
	local     localstore.Store
	content   *store.ContentStore
	persister *store.Persister
	guard     *OperationGuard
	notifier  Notifier
	clock     Clock
	appName   string
	limit     int

	mu         sync.Mutex
	lastMillis int64
}

type BackupConfig struct {
	AppName string
	Limit   int
}

func NewBackupService(local localstore.Store, content *store.ContentStore, persister *store.Persister, guard *OperationGuard, notifier Notifier, clock Clock, cfg BackupConfig) *BackupService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultBackupLimit
	}
	return &BackupService{
		local:     local,
		content:   content,
		persister: persister,
		guard:     guard,
		notifier:  notifier,
		clock:     clock,
		appName:   cfg.AppName,
		limit:     cfg.Limit,
	}
}

// nextKey derives a key from the current time, bumping it when two backups
// land on the same millisecond.
func (s *BackupService) nextKey(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	millis := now.UnixMilli()
	if millis <= s.lastMillis {
		millis = s.lastMillis + 1
	}
	s.lastMillis = millis
	return BackupKeyPrefix + strconv.FormatInt(millis, 10)
}

// CreateBackup snapshots the current collections and prunes the oldest
// snapshots beyond the retention limit.
func (s *BackupService) CreateBackup(ctx context.Context, description string) (string, error) {
	if description == "" {
		description = defaultBackupDescription
	}

	now := s.clock.now()
	data := s.content.Snapshot()
	snapshot := models.BackupSnapshot{
		Timestamp:   now.UTC().Format(time.RFC3339Nano),
		AppName:     s.appName,
		Description: description,
		Data:        data,
		Metadata: models.BackupMetadata{
			TotalQuestions: data.Total(),
			ExportDate:     s.clock.local(now),
		},
	}
	body, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}

	key := s.nextKey(now)
	if err := s.local.Set(ctx, key, body); err != nil {
		log.Printf("Error creating backup: %v", err)
		return "", fmt.Errorf("create backup: %w", err)
	}
	log.Printf("Backup %s created (%s, %d questions)", key, description, data.Total())

	if err := s.prune(ctx); err != nil {
		log.Printf("warning: pruning old backups: %v", err)
	}
	s.notifier.Notify(ctx, LevelSuccess, "Local backup created")
	return key, nil
}

func (s *BackupService) prune(ctx context.Context) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) <= s.limit {
		return nil
	}
	for _, key := range keys[:len(keys)-s.limit] {
		if err := s.local.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// backupMillis reads the creation time out of a key. ok is false for keys
// that do not carry one.
func backupMillis(key string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimPrefix(key, BackupKeyPrefix), 10, 64)
	return n, err == nil && strings.HasPrefix(key, BackupKeyPrefix)
}

// Keys returns the backup keys oldest first: by creation time, then by key.
func (s *BackupService) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.local.Keys(ctx, BackupKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		a, okA := backupMillis(keys[i])
		b, okB := backupMillis(keys[j])
		if okA && okB && a != b {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys, nil
}

// Get loads and parses one snapshot.
func (s *BackupService) Get(ctx context.Context, key string) (*models.BackupSnapshot, error) {
	if !strings.HasPrefix(key, BackupKeyPrefix) {
		return nil, ErrInvalidBackupKey
	}
	body, found, err := s.local.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", key, err)
	}
	if !found {
		return nil, ErrBackupNotFound
	}
	var snapshot models.BackupSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, fmt.Errorf("parse backup %s: %w", key, err)
	}
	return &snapshot, nil
}

// List summarises the stored snapshots, newest first. Unreadable snapshots
// are skipped.
func (s *BackupService) List(ctx context.Context) ([]models.BackupInfo, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]models.BackupInfo, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		snapshot, err := s.Get(ctx, keys[i])
		if err != nil {
			log.Printf("warning: skipping backup %s: %v", keys[i], err)
			continue
		}
		millis, _ := backupMillis(keys[i])
		description := snapshot.Description
		if description == "" {
			description = defaultBackupDescription
		}
		infos = append(infos, models.BackupInfo{
			Key:            keys[i],
			CreatedAt:      millis,
			Timestamp:      snapshot.Timestamp,
			Description:    description,
			TotalQuestions: snapshot.Data.Total(),
		})
	}
	return infos, nil
}

// RestoreBackup overwrites the live collections with a snapshot after the
// confirmer approves. The restored state is persisted only when the actor
// may write backups.
func (s *BackupService) RestoreBackup(ctx context.Context, key string, confirm Confirmer) error {
	if !confirm.Confirm(ctx, "Restoring this backup replaces all current questions. Continue?") {
		return ErrCancelled
	}

	release, err := s.guard.Acquire()
	if err != nil {
		return err
	}
	defer release()

	snapshot, err := s.Get(ctx, key)
	if err != nil {
		log.Printf("Error restoring backup %s: %v", key, err)
		s.notifier.Notify(ctx, LevelError, "Backup restore failed")
		return err
	}

	previous := s.content.Snapshot()
	s.content.Replace(snapshot.Data)

	if models.ActorFrom(ctx).Can(models.PermBackup) {
		if err := s.persister.SaveCollections(ctx, s.content.Snapshot()); err != nil {
			s.content.Replace(previous)
			log.Printf("Error saving restored backup %s: %v", key, err)
			s.notifier.Notify(ctx, LevelError, "Backup restore failed")
			return err
		}
		s.notifier.Notify(ctx, LevelSuccess, "Restored data saved to the database")
	}

	log.Printf("Backup %s restored (%d questions)", key, s.content.Total())
	s.notifier.Notify(ctx, LevelSuccess, "Backup restored")
	return nil
}

// RestoreLatest restores the most recent snapshot.
func (s *BackupService) RestoreLatest(ctx context.Context, confirm Confirmer) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		s.notifier.Notify(ctx, LevelInfo, "There are no backups to restore")
		return ErrBackupNotFound
	}
	return s.RestoreBackup(ctx, keys[len(keys)-1], confirm)
}

// DeleteBackup removes one snapshot. Live collections are untouched.
func (s *BackupService) DeleteBackup(ctx context.Context, key string, confirm Confirmer) error {
	if !strings.HasPrefix(key, BackupKeyPrefix) {
		return ErrInvalidBackupKey
	}
	if !confirm.Confirm(ctx, "Delete this backup?") {
		return ErrCancelled
	}
	if err := s.local.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete backup %s: %w", key, err)
	}
	s.notifier.Notify(ctx, LevelSuccess, "Backup deleted")
	return nil
}
