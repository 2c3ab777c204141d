package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"quizadmin/database"
	"quizadmin/localstore"
	"quizadmin/models"
	"quizadmin/store"

	"github.com/stretchr/testify/require"
)

var errWriteFailed = errors.New("write failed")

// flakyTree fails writes on demand so persistence rollback can be observed.
// fail breaks batch writes; failRemove breaks single-path removals.
type flakyTree struct {
	*database.MemoryTree
	mu         sync.Mutex
	fail       bool
	failRemove bool
}

func (t *flakyTree) setFail(fail bool) {
	t.mu.Lock()
	t.fail = fail
	t.mu.Unlock()
}

func (t *flakyTree) setFailRemove(fail bool) {
	t.mu.Lock()
	t.failRemove = fail
	t.mu.Unlock()
}

func (t *flakyTree) Remove(ctx context.Context, path string) error {
	t.mu.Lock()
	fail := t.failRemove
	t.mu.Unlock()
	if fail {
		return errWriteFailed
	}
	return t.MemoryTree.Remove(ctx, path)
}

func (t *flakyTree) Update(ctx context.Context, values map[string]any) error {
	t.mu.Lock()
	fail := t.fail
	t.mu.Unlock()
	if fail {
		return errWriteFailed
	}
	return t.MemoryTree.Update(ctx, values)
}

type notice struct {
	level   Level
	message string
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) Notify(ctx context.Context, level Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{level, message})
}

func (n *recordingNotifier) has(level Level, fragment string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, x := range n.notices {
		if x.level == level && strings.Contains(x.message, fragment) {
			return true
		}
	}
	return false
}

// testClock is a settable clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	tree      *flakyTree
	local     *localstore.BadgerStore
	content   *store.ContentStore
	persister *store.Persister
	guard     *OperationGuard
	notifier  *recordingNotifier
	clock     *testClock

	activity *ActivityService
	backups  *BackupService
	exchange *ExchangeService
	editor   *ContentService
	auth     *AuthService
	users    *UserService
	search   *SearchService
}

func newTestEnv(t *testing.T, initial models.Collections) *testEnv {
	t.Helper()
	local, err := localstore.OpenBadgerInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	e := &testEnv{
		tree:     &flakyTree{MemoryTree: database.NewMemoryTree()},
		local:    local,
		guard:    NewOperationGuard(),
		notifier: &recordingNotifier{},
		clock:    &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	e.persister = store.NewPersister(e.tree)
	e.content = store.NewContentStore(models.DefaultUnits(), initial)
	require.NoError(t, e.persister.SaveCollections(context.Background(), initial))

	clock := Clock{Now: e.clock.Now, Location: time.UTC}
	e.activity = NewActivityService(e.tree, e.content, e.persister, e.guard, e.notifier, clock)
	e.backups = NewBackupService(local, e.content, e.persister, e.guard, e.notifier, clock, BackupConfig{AppName: "quiz"})
	e.exchange = NewExchangeService(e.content, e.persister, e.backups, e.guard, e.notifier, nil, clock, ExchangeConfig{AppName: "quiz"})
	e.editor = NewContentService(e.content, e.persister, e.activity, e.guard, nil)
	e.auth = NewAuthService(e.tree, "test-secret", clock)
	e.users = NewUserService(e.tree, e.activity, clock)
	e.search = NewSearchService(e.content)
	t.Cleanup(e.activity.Wait)
	return e
}

func actorCtx(role models.Role) context.Context {
	return models.WithActor(context.Background(), &models.Actor{
		ID:    "u-" + string(role),
		Name:  "Test " + string(role),
		Email: string(role) + "@example.com",
		Role:  role,
	})
}

func superAdmin() context.Context { return actorCtx(models.RoleSuperAdmin) }

func jsonFile(name, body string) ImportFile {
	return ImportFile{Name: name, Size: int64(len(body)), Body: bytes.NewBufferString(body)}
}

func sampleCollections() models.Collections {
	return models.Collections{
		TrueFalse: []models.TrueFalseQuestion{
			{Question: "Go has generics", Options: []string{"True", "False"}, AnswerIndex: 0, Explanation: "Since 1.18", Page: "4"},
		},
		SingleChoice: []models.ChoiceQuestion{
			{Question: "Capital of France?", Options: []string{"Paris", "Rome", "Madrid"}, AnswerIndex: 0, Page: "1"},
			{Question: "2 + 2?", Options: []string{"3", "4"}, AnswerIndex: 1},
		},
		MultiChoice: []models.MultiChoiceQuestion{
			{Question: "Prime numbers", Options: []string{"2", "3", "4", "5"}, Answers: []int{0, 1, 3}},
		},
		QA: []models.QAItem{
			{Type: models.QAItemHeader, Text: "Chapter 1"},
			{Type: models.QAItemQuestion, Question: "What is a goroutine?", Answer: "A lightweight thread", Section: "1.1"},
			{Type: models.QAItemNote, Text: "Read chapter 2 next"},
		},
	}
}
