package services

import (
	"context"
	"testing"

	"quizadmin/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupRetentionKeepsNewest(t *testing.T) {
	e := newTestEnv(t, sampleCollections())
	ctx := context.Background()

	var created []string
	for i := 0; i < 7; i++ {
		key, err := e.backups.CreateBackup(ctx, "")
		require.NoError(t, err)
		created = append(created, key)
	}

	keys, err := e.backups.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, created[2:], keys)
}

func TestBackupKeysAreUniqueOnSameMillisecond(t *testing.T) {
	e := newTestEnv(t, models.Collections{})
	ctx := context.Background()

	a, err := e.backups.CreateBackup(ctx, "a")
	require.NoError(t, err)
	b, err := e.backups.CreateBackup(ctx, "b")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, "backup_1714564800000", a)
	assert.Equal(t, "backup_1714564800001", b)
}

func TestBackupListNewestFirst(t *testing.T) {
	e := newTestEnv(t, sampleCollections())
	ctx := context.Background()

	_, err := e.backups.CreateBackup(ctx, "first")
	require.NoError(t, err)
	_, err = e.backups.CreateBackup(ctx, "")
	require.NoError(t, err)

	infos, err := e.backups.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "Backup", infos[0].Description)
	assert.Equal(t, "first", infos[1].Description)
	assert.Equal(t, 7, infos[0].TotalQuestions)
	assert.Equal(t, "2024-05-01T12:00:00Z", infos[1].Timestamp)
}

func TestBackupSnapshotContents(t *testing.T) {
	e := newTestEnv(t, sampleCollections())
	ctx := context.Background()

	key, err := e.backups.CreateBackup(ctx, "manual")
	require.NoError(t, err)

	snapshot, err := e.backups.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "quiz", snapshot.AppName)
	assert.Equal(t, 7, snapshot.Metadata.TotalQuestions)
	assert.Equal(t, "2024/05/01 12:00:00 PM", snapshot.Metadata.ExportDate)
	assert.Equal(t, e.content.Snapshot(), snapshot.Data.Clone())
	assert.True(t, e.notifier.has(LevelSuccess, "Local backup created"))
}

func TestRestoreBackup(t *testing.T) {
	e := newTestEnv(t, sampleCollections())
	ctx := superAdmin()
	original := e.content.Snapshot()

	key, err := e.backups.CreateBackup(ctx, "")
	require.NoError(t, err)
	e.content.Replace(models.Collections{})

	require.NoError(t, e.backups.RestoreBackup(ctx, key, Approved(true)))
	assert.Equal(t, original, e.content.Snapshot())

	persisted, err := e.persister.LoadCollections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, original, persisted)
	assert.True(t, e.notifier.has(LevelSuccess, "Backup restored"))
}

func TestRestoreBackupWithoutBackupPermissionIsNotPersisted(t *testing.T) {
	e := newTestEnv(t, models.Collections{})
	ctx := actorCtx(models.RoleAdmin)

	e.content.Replace(sampleCollections())
	key, err := e.backups.CreateBackup(ctx, "")
	require.NoError(t, err)
	e.content.Replace(models.Collections{})

	require.NoError(t, e.backups.RestoreBackup(ctx, key, Approved(true)))
	assert.Equal(t, 7, e.content.Total())

	persisted, err := e.persister.LoadCollections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, persisted.Total())
}

func TestRestoreBackupRollsBackWhenPersistFails(t *testing.T) {
	e := newTestEnv(t, sampleCollections())
	ctx := superAdmin()

	key, err := e.backups.CreateBackup(ctx, "")
	require.NoError(t, err)
	e.content.Replace(models.Collections{})
	e.tree.setFail(true)

	err = e.backups.RestoreBackup(ctx, key, Approved(true))
	assert.ErrorIs(t, err, errWriteFailed)
	assert.Equal(t, 0, e.content.Total())
}

func TestRestoreBackupCancelled(t *testing.T) {
	e := newTestEnv(t, sampleCollections())
	ctx := superAdmin()
	key, err := e.backups.CreateBackup(ctx, "")
	require.NoError(t, err)
	e.content.Replace(models.Collections{})

	assert.ErrorIs(t, e.backups.RestoreBackup(ctx, key, Approved(false)), ErrCancelled)
	assert.Equal(t, 0, e.content.Total())
}

func TestRestoreLatest(t *testing.T) {
	e := newTestEnv(t, models.Collections{})
	ctx := superAdmin()

	assert.ErrorIs(t, e.backups.RestoreLatest(ctx, Approved(true)), ErrBackupNotFound)
	assert.True(t, e.notifier.has(LevelInfo, "no backups"))

	_, err := e.backups.CreateBackup(ctx, "empty")
	require.NoError(t, err)
	e.content.Replace(sampleCollections())
	_, err = e.backups.CreateBackup(ctx, "full")
	require.NoError(t, err)
	e.content.Replace(models.Collections{})

	require.NoError(t, e.backups.RestoreLatest(ctx, Approved(true)))
	assert.Equal(t, 7, e.content.Total())
}

func TestRestoreBackupErrors(t *testing.T) {
	e := newTestEnv(t, models.Collections{})
	ctx := superAdmin()

	assert.ErrorIs(t, e.backups.RestoreBackup(ctx, "settings", Approved(true)), ErrInvalidBackupKey)
	assert.ErrorIs(t, e.backups.RestoreBackup(ctx, "backup_42", Approved(true)), ErrBackupNotFound)
	assert.True(t, e.notifier.has(LevelError, "Backup restore failed"))

	require.NoError(t, e.local.Set(context.Background(), "backup_43", []byte("{broken")))
	assert.Error(t, e.backups.RestoreBackup(ctx, "backup_43", Approved(true)))
}

func TestRestoreBackupWhileBusy(t *testing.T) {
	e := newTestEnv(t, models.Collections{})
	ctx := superAdmin()
	key, err := e.backups.CreateBackup(ctx, "")
	require.NoError(t, err)

	release, err := e.guard.Acquire()
	require.NoError(t, err)
	defer release()

	assert.ErrorIs(t, e.backups.RestoreBackup(ctx, key, Approved(true)), ErrBusy)
}

func TestDeleteBackup(t *testing.T) {
	e := newTestEnv(t, sampleCollections())
	ctx := superAdmin()
	key, err := e.backups.CreateBackup(ctx, "")
	require.NoError(t, err)

	assert.ErrorIs(t, e.backups.DeleteBackup(ctx, key, Approved(false)), ErrCancelled)
	require.NoError(t, e.backups.DeleteBackup(ctx, key, Approved(true)))

	_, err = e.backups.Get(ctx, key)
	assert.ErrorIs(t, err, ErrBackupNotFound)
	assert.Equal(t, 7, e.content.Total())
}

func TestListSkipsUnreadableBackups(t *testing.T) {
	e := newTestEnv(t, models.Collections{})
	ctx := context.Background()
	require.NoError(t, e.local.Set(ctx, "backup_1", []byte("not json")))
	_, err := e.backups.CreateBackup(ctx, "ok")
	require.NoError(t, err)

	infos, err := e.backups.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "ok", infos[0].Description)
}
