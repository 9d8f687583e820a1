package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dance-board-api/internal/models"
	"github.com/noah-isme/dance-board-api/pkg/config"
)

type documentStoreStub struct {
	mu       sync.Mutex
	docs     map[string]models.Document
	sets     map[string]int
	getErr   error
	setErr   error
	stamp    string
	onChange func(models.Document)
	closed   bool
}

func newDocumentStoreStub() *documentStoreStub {
	return &documentStoreStub{
		docs:  make(map[string]models.Document),
		sets:  make(map[string]int),
		stamp: "2024-05-01T00:00:00.000Z",
	}
}

func (d *documentStoreStub) Get(ctx context.Context, key string) (*models.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.getErr != nil {
		return nil, d.getErr
	}
	doc, ok := d.docs[key]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func (d *documentStoreStub) Set(ctx context.Context, key string, data interface{}) (*models.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.setErr != nil {
		return nil, d.setErr
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	doc := models.Document{Key: key, Data: raw, LastUpdated: d.stamp}
	d.docs[key] = doc
	d.sets[key]++
	return &doc, nil
}

func (d *documentStoreStub) Subscribe(ctx context.Context, key string, onChange func(models.Document)) (func() error, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChange = onChange
	return func() error {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		return nil
	}, nil
}

func (d *documentStoreStub) put(t *testing.T, key, stamp string, payload interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	d.mu.Lock()
	d.docs[key] = models.Document{Key: key, Data: raw, LastUpdated: stamp}
	d.mu.Unlock()
}

func (d *documentStoreStub) setCount(key string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sets[key]
}

func (d *documentStoreStub) schedule(t *testing.T) []models.ClassRecord {
	t.Helper()
	d.mu.Lock()
	doc, ok := d.docs[models.DocumentKeySchedule]
	d.mu.Unlock()
	require.True(t, ok)
	var payload models.ScheduleDocument
	require.NoError(t, json.Unmarshal(doc.Data, &payload))
	return payload.Classes
}

type eventRecorder struct {
	mu     sync.Mutex
	events []models.BoardEvent
}

func (e *eventRecorder) Publish(event models.BoardEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *eventRecorder) count(kind models.BoardEventType) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.events {
		if ev.Type == kind {
			n++
		}
	}
	return n
}

type syncFixture struct {
	state   *BoardState
	backend *memoryBackend
	records *RecordStore
	remote  *documentStoreStub
	events  *eventRecorder
	clock   *fakeClock
	svc     *SyncService
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newSyncFixture(t *testing.T, opts ...SyncServiceOption) *syncFixture {
	t.Helper()
	f := &syncFixture{
		state:   NewBoardState(),
		backend: newMemoryBackend(),
		remote:  newDocumentStoreStub(),
		events:  &eventRecorder{},
		clock:   &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.records = NewRecordStore(f.backend, nil)
	f.records.now = f.clock.Now
	opts = append([]SyncServiceOption{WithSyncEvents(f.events)}, opts...)
	f.svc = NewSyncService(f.state, f.records, f.remote, nil, opts...)
	f.svc.now = f.clock.Now
	return f
}

func (f *syncFixture) seedLocal(t *testing.T, stamp string, classes ...models.ClassRecord) {
	t.Helper()
	_, err := f.records.SaveClasses(context.Background(), classes)
	require.NoError(t, err)
	require.NoError(t, f.records.SetLastModified(context.Background(), stamp))
	f.state.update(func(c *boardCollections) {
		c.Classes = models.CloneClasses(classes)
		c.LastModified = stamp
	})
}

func scheduleDocument(t *testing.T, stamp string, classes ...models.ClassRecord) models.Document {
	t.Helper()
	raw, err := json.Marshal(models.ScheduleDocument{UserID: "shared_schedule", Classes: classes})
	require.NoError(t, err)
	return models.Document{Key: models.DocumentKeySchedule, Data: raw, LastUpdated: stamp}
}

func class(id, name, date, clock string) models.ClassRecord {
	return models.ClassRecord{ID: id, Name: name, Teacher: "Rupal Nahar", Date: date, Time: clock}
}

func TestMergeIsIdempotent(t *testing.T) {
	classes := []models.ClassRecord{
		class("1", "Bollywood", "2024-05-02", "18:00"),
		class("2", "Bhangra", "2024-05-01", "19:00"),
	}
	merged := Merge(classes, classes)
	require.Len(t, merged, 2)
	require.False(t, HasChanges(classes, merged))
}

func TestMergeDisjointIsCommutative(t *testing.T) {
	a := class("a", "A", "2024-05-01", "10:00")
	b := class("b", "B", "2024-05-02", "10:00")
	c := class("c", "C", "2024-05-03", "10:00")

	left := Merge([]models.ClassRecord{a, b}, []models.ClassRecord{c})
	right := Merge([]models.ClassRecord{c}, []models.ClassRecord{a, b})
	require.Len(t, left, 3)
	require.False(t, HasChanges(left, right))
	require.Equal(t, []string{"a", "b", "c"}, []string{left[0].ID, left[1].ID, left[2].ID})
}

func TestMergeRemoteWinsOnSharedID(t *testing.T) {
	local := []models.ClassRecord{class("1", "X", "2024-05-01", "10:00")}
	remote := []models.ClassRecord{class("1", "Y", "2024-05-01", "10:00")}

	merged := Merge(local, remote)
	require.Len(t, merged, 1)
	require.Equal(t, "Y", merged[0].Name)
}

func TestMergeSortsByDateThenTime(t *testing.T) {
	merged := Merge(
		[]models.ClassRecord{class("late", "L", "2024-05-02", "09:00"), class("evening", "E", "2024-05-01", "19:30")},
		[]models.ClassRecord{class("morning", "M", "2024-05-01", "08:15")},
	)
	require.Equal(t, []string{"morning", "evening", "late"}, []string{merged[0].ID, merged[1].ID, merged[2].ID})
}

func TestHasChangesOrderIndependent(t *testing.T) {
	a := class("a", "A", "2024-05-01", "10:00")
	b := class("b", "B", "2024-05-02", "10:00")
	require.False(t, HasChanges([]models.ClassRecord{a, b}, []models.ClassRecord{b, a}))

	changed := b
	changed.SoldOut = true
	require.True(t, HasChanges([]models.ClassRecord{a, b}, []models.ClassRecord{a, changed}))
	require.True(t, HasChanges([]models.ClassRecord{a}, []models.ClassRecord{a, b}))

	duration := 60
	withDuration := a
	withDuration.Duration = &duration
	require.True(t, HasChanges([]models.ClassRecord{a}, []models.ClassRecord{withDuration}))
}

func TestHandleRemoteChangeAppliesNewerDocument(t *testing.T) {
	f := newSyncFixture(t)
	f.seedLocal(t, "2024-05-01T10:00:00.000Z", models.ClassRecord{ID: "1", Name: "X"})

	outcome := f.svc.HandleRemoteChange(context.Background(),
		scheduleDocument(t, "2024-05-01T11:00:00.000Z", models.ClassRecord{ID: "1", Name: "Y"}))

	require.Equal(t, SyncOutcomeApplied, outcome)
	classes := f.state.Classes()
	require.Len(t, classes, 1)
	require.Equal(t, "Y", classes[0].Name)
	require.Equal(t, "2024-05-01T11:00:00.000Z", f.state.LastModified())
	require.Equal(t, "2024-05-01T11:00:00.000Z", f.records.LoadLastModified(context.Background()))
	require.Equal(t, "Y", f.records.LoadClasses(context.Background())[0].Name)
	require.Equal(t, 1, f.events.count(models.BoardEventClassesChanged))
}

func TestHandleRemoteChangeIgnoresKnownStamp(t *testing.T) {
	f := newSyncFixture(t)
	f.seedLocal(t, "2024-05-01T10:00:00.000Z", models.ClassRecord{ID: "1", Name: "X"})

	outcome := f.svc.HandleRemoteChange(context.Background(),
		scheduleDocument(t, "2024-05-01T10:00:00.000Z", models.ClassRecord{ID: "1", Name: "Y"}))

	require.Equal(t, SyncOutcomeIgnored, outcome)
	require.Equal(t, "X", f.state.Classes()[0].Name)
	require.Zero(t, f.events.count(models.BoardEventClassesChanged))
}

func TestHandleRemoteChangeSkipsIdenticalCollections(t *testing.T) {
	f := newSyncFixture(t)
	record := models.ClassRecord{ID: "1", Name: "X"}
	f.seedLocal(t, "2024-05-01T10:00:00.000Z", record)
	writes := f.backend.writes[models.RecordKeyClasses]

	outcome := f.svc.HandleRemoteChange(context.Background(), scheduleDocument(t, "2024-05-01T11:00:00.000Z", record))

	require.Equal(t, SyncOutcomeUnchanged, outcome)
	require.Equal(t, "2024-05-01T10:00:00.000Z", f.state.LastModified())
	require.Equal(t, writes, f.backend.writes[models.RecordKeyClasses])
	require.Zero(t, f.events.count(models.BoardEventClassesChanged))
}

func TestHandleRemoteChangeKeepsLocalOnlyRecords(t *testing.T) {
	f := newSyncFixture(t)
	f.seedLocal(t, "2024-05-01T10:00:00.000Z", class("local", "Local", "2024-05-03", "10:00"))

	outcome := f.svc.HandleRemoteChange(context.Background(),
		scheduleDocument(t, "2024-05-01T11:00:00.000Z", class("remote", "Remote", "2024-05-02", "10:00")))

	require.Equal(t, SyncOutcomeApplied, outcome)
	classes := f.state.Classes()
	require.Len(t, classes, 2)
	require.Equal(t, "remote", classes[0].ID)
	require.Equal(t, "local", classes[1].ID)
}

func TestGraceWindowSuppressesNotifications(t *testing.T) {
	f := newSyncFixture(t, WithSyncGraceWindow(2*time.Second))
	f.seedLocal(t, "2024-05-01T10:00:00.000Z", models.ClassRecord{ID: "1", Name: "X"})

	until := f.svc.Suppress(0)
	require.Equal(t, f.clock.Now().Add(2*time.Second), until)
	require.True(t, f.svc.Suppressed())

	stale := scheduleDocument(t, "2024-05-01T11:00:00.000Z", models.ClassRecord{ID: "1", Name: "stale"})
	require.Equal(t, SyncOutcomeSuppressed, f.svc.HandleRemoteChange(context.Background(), stale))
	require.Equal(t, "X", f.state.Classes()[0].Name)

	f.clock.Advance(2 * time.Second)
	require.False(t, f.svc.Suppressed())
	require.Equal(t, SyncOutcomeApplied, f.svc.HandleRemoteChange(context.Background(), stale))
	require.Equal(t, "stale", f.state.Classes()[0].Name)
}

func TestSuppressExtendsOpenWindow(t *testing.T) {
	f := newSyncFixture(t, WithSyncGraceWindow(2*time.Second))
	start := f.clock.Now()

	f.svc.Suppress(0)
	f.clock.Advance(time.Second)
	until := f.svc.Suppress(0)

	opened, closes := f.svc.GraceWindow()
	require.Equal(t, start, opened)
	require.Equal(t, start.Add(3*time.Second), closes)
	require.Equal(t, closes, until)
}

func TestInitialLoadRemoteWins(t *testing.T) {
	f := newSyncFixture(t)
	f.seedLocal(t, "2024-05-01T10:00:00.000Z", models.ClassRecord{ID: "local", Name: "Local"})
	f.remote.put(t, models.DocumentKeySchedule, "2024-04-01T00:00:00.000Z",
		models.ScheduleDocument{Classes: []models.ClassRecord{{ID: "remote", Name: "Remote"}}})

	require.False(t, f.svc.Ready())
	f.svc.InitialLoad(context.Background())

	require.True(t, f.svc.Ready())
	classes := f.state.Classes()
	require.Len(t, classes, 1)
	require.Equal(t, "remote", classes[0].ID)
	require.Equal(t, "2024-04-01T00:00:00.000Z", f.state.LastModified())
	require.Equal(t, "remote", f.records.LoadClasses(context.Background())[0].ID)
}

func TestInitialLoadNewerWinsKeepsNewerLocal(t *testing.T) {
	f := newSyncFixture(t, WithSyncPolicy(config.SyncPolicyNewerWins))
	f.seedLocal(t, "2024-05-01T10:00:00.000Z", models.ClassRecord{ID: "local", Name: "Local"})
	f.remote.put(t, models.DocumentKeySchedule, "2024-04-01T00:00:00.000Z",
		models.ScheduleDocument{Classes: []models.ClassRecord{{ID: "remote", Name: "Remote"}}})

	f.svc.InitialLoad(context.Background())

	require.Equal(t, "local", f.state.Classes()[0].ID)
	require.Equal(t, "2024-05-01T10:00:00.000Z", f.state.LastModified())
}

func TestInitialLoadNewerWinsTakesNewerRemote(t *testing.T) {
	f := newSyncFixture(t, WithSyncPolicy(config.SyncPolicyNewerWins))
	f.seedLocal(t, "2024-05-01T10:00:00.000Z", models.ClassRecord{ID: "local", Name: "Local"})
	f.remote.put(t, models.DocumentKeySchedule, "2024-05-02T00:00:00.000Z",
		models.ScheduleDocument{Classes: []models.ClassRecord{{ID: "remote", Name: "Remote"}}})

	f.svc.InitialLoad(context.Background())

	require.Equal(t, "remote", f.state.Classes()[0].ID)
}

func TestInitialLoadRemoteFailureKeepsLocal(t *testing.T) {
	f := newSyncFixture(t)
	f.seedLocal(t, "2024-05-01T10:00:00.000Z", models.ClassRecord{ID: "local", Name: "Local"})
	f.remote.getErr = errors.New("connection refused")

	f.svc.InitialLoad(context.Background())

	require.True(t, f.svc.Ready())
	require.Equal(t, "local", f.state.Classes()[0].ID)
	require.NoError(t, f.svc.WaitReady(context.Background()))
}

func TestInitialLoadSeedsAbsentRemoteFromLocal(t *testing.T) {
	f := newSyncFixture(t)
	f.seedLocal(t, "2024-05-01T10:00:00.000Z", models.ClassRecord{ID: "local", Name: "Local"})

	f.svc.InitialLoad(context.Background())

	require.Equal(t, 1, f.remote.setCount(models.DocumentKeySchedule))
	require.Equal(t, "local", f.remote.schedule(t)[0].ID)
}

func TestInitialLoadAdoptsRemotePending(t *testing.T) {
	f := newSyncFixture(t)
	require.NoError(t, f.records.SavePendingAdditions(context.Background(), []models.PendingAddition{{ApprovalToken: "old"}}))
	f.remote.put(t, models.DocumentKeyPendingAdditions, "2024-05-01T00:00:00.000Z",
		models.PendingAdditionsDocument{PendingClasses: []models.PendingAddition{{ApprovalToken: "fresh"}}})
	f.remote.put(t, models.DocumentKeyPendingDeletions, "2024-05-01T00:00:00.000Z",
		models.PendingDeletionsDocument{PendingDeletions: []models.PendingDeletion{{OriginalID: "42", ApprovalToken: "abc"}}})

	f.svc.InitialLoad(context.Background())

	pending := f.state.Pending()
	require.Len(t, pending.Additions, 1)
	require.Equal(t, "fresh", pending.Additions[0].ApprovalToken)
	require.Len(t, pending.Deletions, 1)
	require.Empty(t, pending.Edits)
	require.Equal(t, "fresh", f.records.LoadPendingAdditions(context.Background())[0].ApprovalToken)
	require.Equal(t, 1, f.events.count(models.BoardEventPendingChanged))
}

func TestInitialLoadLocalOnly(t *testing.T) {
	state := NewBoardState()
	backend := newMemoryBackend()
	records := NewRecordStore(backend, nil)
	_, err := records.SaveClasses(context.Background(), []models.ClassRecord{{ID: "1"}})
	require.NoError(t, err)

	svc := NewSyncService(state, records, nil, nil)
	svc.InitialLoad(context.Background())

	require.True(t, svc.Ready())
	require.False(t, svc.RemoteEnabled())
	require.Len(t, state.Classes(), 1)
	require.NoError(t, svc.Start(context.Background()))
	require.Error(t, svc.PushSchedule(context.Background()))
}

func TestStartRoutesNotifications(t *testing.T) {
	f := newSyncFixture(t)
	f.seedLocal(t, "2024-05-01T10:00:00.000Z")

	require.NoError(t, f.svc.Start(context.Background()))
	require.NotNil(t, f.remote.onChange)

	f.remote.onChange(scheduleDocument(t, "2024-05-01T11:00:00.000Z", models.ClassRecord{ID: "n", Name: "New"}))
	require.Len(t, f.state.Classes(), 1)

	f.svc.Stop()
	require.True(t, f.remote.closed)
}

func TestWaitReadyHonoursContext(t *testing.T) {
	f := newSyncFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, f.svc.WaitReady(ctx), context.Canceled)
}
