package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dance-board-api/internal/models"
	"github.com/noah-isme/dance-board-api/pkg/config"
	appErrors "github.com/noah-isme/dance-board-api/pkg/errors"
)

// DocumentStore is the shared remote document service.
type DocumentStore interface {
	Get(ctx context.Context, key string) (*models.Document, error)
	Set(ctx context.Context, key string, data interface{}) (*models.Document, error)
	Subscribe(ctx context.Context, key string, onChange func(models.Document)) (func() error, error)
}

type boardEvents interface {
	Publish(event models.BoardEvent)
}

// SyncService reconciles the local board with the shared remote documents.
type SyncService struct {
	state   *BoardState
	records *RecordStore
	remote  DocumentStore
	events  boardEvents
	metrics *MetricsService
	logger  *zap.Logger

	policy  string
	userID  string
	timeout time.Duration
	grace   time.Duration
	now     func() time.Time

	ready     chan struct{}
	readyOnce sync.Once

	pushMu sync.Mutex

	windowMu    sync.Mutex
	graceOpened time.Time
	graceUntil  time.Time

	closeMu sync.Mutex
	closer  func() error
}

// SyncServiceOption configures the sync engine.
type SyncServiceOption func(*SyncService)

// WithSyncPolicy selects the initial load policy.
func WithSyncPolicy(policy string) SyncServiceOption {
	return func(s *SyncService) {
		if policy == config.SyncPolicyNewerWins || policy == config.SyncPolicyRemoteWins {
			s.policy = policy
		}
	}
}

// WithSyncUserID sets the owner id written into the schedule document.
func WithSyncUserID(userID string) SyncServiceOption {
	return func(s *SyncService) {
		if userID != "" {
			s.userID = userID
		}
	}
}

// WithSyncRemoteTimeout bounds each remote call.
func WithSyncRemoteTimeout(d time.Duration) SyncServiceOption {
	return func(s *SyncService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithSyncGraceWindow sets the default suppression window length.
func WithSyncGraceWindow(d time.Duration) SyncServiceOption {
	return func(s *SyncService) {
		if d > 0 {
			s.grace = d
		}
	}
}

// WithSyncEvents publishes refresh events to the given broker.
func WithSyncEvents(events boardEvents) SyncServiceOption {
	return func(s *SyncService) {
		s.events = events
	}
}

// WithSyncMetrics attaches metrics.
func WithSyncMetrics(metrics *MetricsService) SyncServiceOption {
	return func(s *SyncService) {
		s.metrics = metrics
	}
}

// NewSyncService constructs the engine. A nil remote runs the board local-only.
func NewSyncService(state *BoardState, records *RecordStore, remote DocumentStore, logger *zap.Logger, opts ...SyncServiceOption) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &SyncService{
		state:   state,
		records: records,
		remote:  remote,
		logger:  logger,
		policy:  config.SyncPolicyRemoteWins,
		userID:  "shared_schedule",
		timeout: 5 * time.Second,
		grace:   2 * time.Second,
		now:     time.Now,
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// RemoteEnabled reports whether a remote document service is configured.
func (s *SyncService) RemoteEnabled() bool {
	return s.remote != nil
}

// InitialLoad restores the local collections, reconciles them with the remote
// documents and marks the engine ready. Remote failures leave local state as is.
func (s *SyncService) InitialLoad(ctx context.Context) {
	defer s.markReady()

	classes := s.records.LoadClasses(ctx)
	additions := s.records.LoadPendingAdditions(ctx)
	edits := s.records.LoadPendingEdits(ctx)
	deletions := s.records.LoadPendingDeletions(ctx)
	stamp := s.records.LoadLastModified(ctx)

	s.state.update(func(c *boardCollections) {
		c.Classes = classes
		c.Additions = additions
		c.Edits = edits
		c.Deletions = deletions
		c.LastModified = stamp
	})
	s.logger.Info("local board restored",
		zap.Int("classes", len(classes)),
		zap.Int("pending_additions", len(additions)),
		zap.Int("pending_edits", len(edits)),
		zap.Int("pending_deletions", len(deletions)),
	)

	if s.remote != nil {
		s.loadRemoteSchedule(ctx)
		s.loadRemotePending(ctx)
	}
	s.observeSizes()
}

func (s *SyncService) loadRemoteSchedule(ctx context.Context) {
	doc, err := s.fetch(ctx, models.DocumentKeySchedule)
	if err != nil {
		return
	}

	var payload models.ScheduleDocument
	if doc != nil {
		if err := json.Unmarshal(doc.Data, &payload); err != nil {
			s.logger.Warn("remote schedule unreadable", zap.Error(err))
			return
		}
	}

	if doc == nil || payload.Classes == nil {
		if len(s.state.Classes()) > 0 {
			if err := s.PushSchedule(ctx); err == nil {
				s.logger.Info("seeded remote schedule from local board")
			}
		}
		return
	}

	applied := false
	s.state.update(func(c *boardCollections) {
		if !s.initialRemoteWins(doc.LastUpdated, c.LastModified) {
			return
		}
		c.Classes = models.CloneClasses(payload.Classes)
		stamp, _ := s.records.SaveClasses(ctx, c.Classes)
		c.LastModified = stamp
		if doc.LastUpdated != "" {
			_ = s.records.SetLastModified(ctx, doc.LastUpdated)
			c.LastModified = doc.LastUpdated
		}
		applied = true
	})
	if !applied {
		s.logger.Info("local schedule newer than remote, keeping local", zap.String("remote_last_updated", doc.LastUpdated))
		return
	}
	s.publish(models.BoardEventClassesChanged, "initial_load", len(payload.Classes))
}

func (s *SyncService) initialRemoteWins(remoteStamp, localStamp string) bool {
	if s.policy != config.SyncPolicyNewerWins {
		return true
	}
	local, ok := models.ParseTimestamp(localStamp)
	if !ok {
		return true
	}
	remote, ok := models.ParseTimestamp(remoteStamp)
	if !ok {
		return false
	}
	return remote.After(local)
}

func (s *SyncService) loadRemotePending(ctx context.Context) {
	changed := false

	if doc, err := s.fetch(ctx, models.DocumentKeyPendingAdditions); err == nil && doc != nil {
		var payload models.PendingAdditionsDocument
		if s.decode(doc, &payload) && payload.PendingClasses != nil {
			s.state.update(func(c *boardCollections) {
				c.Additions = payload.PendingClasses
				_ = s.records.SavePendingAdditions(ctx, c.Additions)
			})
			changed = true
		}
	}

	if doc, err := s.fetch(ctx, models.DocumentKeyPendingDeletions); err == nil && doc != nil {
		var payload models.PendingDeletionsDocument
		if s.decode(doc, &payload) && payload.PendingDeletions != nil {
			s.state.update(func(c *boardCollections) {
				c.Deletions = payload.PendingDeletions
				_ = s.records.SavePendingDeletions(ctx, c.Deletions)
			})
			changed = true
		}
	}

	if doc, err := s.fetch(ctx, models.DocumentKeyPendingEdits); err == nil && doc != nil {
		var payload models.PendingEditsDocument
		if s.decode(doc, &payload) && payload.PendingEdits != nil {
			s.state.update(func(c *boardCollections) {
				c.Edits = payload.PendingEdits
				_ = s.records.SavePendingEdits(ctx, c.Edits)
			})
			changed = true
		}
	}

	if changed {
		s.publish(models.BoardEventPendingChanged, "initial_load", 0)
	}
}

// Start subscribes to the remote schedule document until ctx is cancelled.
func (s *SyncService) Start(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}
	closer, err := s.remote.Subscribe(ctx, models.DocumentKeySchedule, func(doc models.Document) {
		s.HandleRemoteChange(ctx, doc)
	})
	if err != nil {
		s.metrics.RecordRemoteFailure("subscribe")
		return appErrors.Wrap(err, appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, "subscribe to remote schedule")
	}
	s.closeMu.Lock()
	s.closer = closer
	s.closeMu.Unlock()
	s.logger.Info("listening for remote schedule changes")
	return nil
}

// Stop releases the remote subscription.
func (s *SyncService) Stop() {
	s.closeMu.Lock()
	closer := s.closer
	s.closer = nil
	s.closeMu.Unlock()
	if closer != nil {
		_ = closer()
	}
}

// HandleRemoteChange reconciles one remote schedule notification and returns
// the outcome. At most one refresh event is published per call.
func (s *SyncService) HandleRemoteChange(ctx context.Context, doc models.Document) string {
	var payload models.ScheduleDocument
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, &payload); err != nil {
			s.logger.Warn("remote schedule change unreadable", zap.Error(err))
			s.metrics.RecordSyncNotification(SyncOutcomeIgnored)
			return SyncOutcomeIgnored
		}
	}

	outcome := SyncOutcomeIgnored
	var count int
	s.state.update(func(c *boardCollections) {
		if s.Suppressed() {
			outcome = SyncOutcomeSuppressed
			return
		}
		if doc.LastUpdated == "" || doc.LastUpdated == c.LastModified {
			return
		}
		merged := Merge(c.Classes, payload.Classes)
		if !HasChanges(c.Classes, merged) {
			outcome = SyncOutcomeUnchanged
			return
		}
		c.Classes = merged
		_, _ = s.records.SaveClasses(ctx, merged)
		_ = s.records.SetLastModified(ctx, doc.LastUpdated)
		c.LastModified = doc.LastUpdated
		count = len(merged)
		outcome = SyncOutcomeApplied
	})

	s.metrics.RecordSyncNotification(outcome)
	switch outcome {
	case SyncOutcomeApplied:
		s.logger.Info("applied remote schedule change", zap.String("last_updated", doc.LastUpdated), zap.Int("classes", count))
		s.publish(models.BoardEventClassesChanged, "remote_change", count)
		s.observeSizes()
	case SyncOutcomeSuppressed:
		s.logger.Debug("remote change suppressed during grace window", zap.String("last_updated", doc.LastUpdated))
	}
	return outcome
}

// Suppress opens (or extends) the grace window so inbound notifications
// arriving before now+d are dropped. A non-positive d uses the configured window.
func (s *SyncService) Suppress(d time.Duration) time.Time {
	if d <= 0 {
		d = s.grace
	}
	now := s.now()
	until := now.Add(d)

	s.windowMu.Lock()
	defer s.windowMu.Unlock()
	if !now.Before(s.graceUntil) {
		s.graceOpened = now
	}
	if until.After(s.graceUntil) {
		s.graceUntil = until
	}
	return s.graceUntil
}

// Suppressed reports whether the grace window is open.
func (s *SyncService) Suppressed() bool {
	s.windowMu.Lock()
	defer s.windowMu.Unlock()
	now := s.now()
	return !now.Before(s.graceOpened) && now.Before(s.graceUntil)
}

// GraceWindow returns the bounds of the current or last grace window.
func (s *SyncService) GraceWindow() (time.Time, time.Time) {
	s.windowMu.Lock()
	defer s.windowMu.Unlock()
	return s.graceOpened, s.graceUntil
}

// WaitReady blocks until InitialLoad has completed.
func (s *SyncService) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether InitialLoad has completed.
func (s *SyncService) Ready() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

func (s *SyncService) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// PushSchedule writes the current committed collection to the remote document.
func (s *SyncService) PushSchedule(ctx context.Context) error {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	return s.push(ctx, models.DocumentKeySchedule, models.ScheduleDocument{
		UserID:  s.userID,
		Classes: s.state.Classes(),
	})
}

// PushPending writes one pending collection to its remote document.
func (s *SyncService) PushPending(ctx context.Context, kind models.CollectionKind) error {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	pending := s.state.Pending()
	switch kind {
	case models.CollectionEdits:
		return s.push(ctx, models.DocumentKeyPendingEdits, models.PendingEditsDocument{PendingEdits: pending.Edits})
	case models.CollectionDeletions:
		return s.push(ctx, models.DocumentKeyPendingDeletions, models.PendingDeletionsDocument{PendingDeletions: pending.Deletions})
	default:
		return s.push(ctx, models.DocumentKeyPendingAdditions, models.PendingAdditionsDocument{PendingClasses: pending.Additions})
	}
}

func (s *SyncService) push(ctx context.Context, key string, payload interface{}) error {
	if s.remote == nil {
		return appErrors.ErrRemoteUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.remote.Set(ctx, key, payload); err != nil {
		s.metrics.RecordRemoteFailure("set")
		s.logger.Warn("remote save failed", zap.String("key", key), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrRemoteUnavailable.Code, appErrors.ErrRemoteUnavailable.Status, "remote save failed")
	}
	return nil
}

func (s *SyncService) fetch(ctx context.Context, key string) (*models.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	doc, err := s.remote.Get(ctx, key)
	if err != nil {
		s.metrics.RecordRemoteFailure("get")
		s.logger.Warn("remote load failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return doc, nil
}

func (s *SyncService) decode(doc *models.Document, dest interface{}) bool {
	if err := json.Unmarshal(doc.Data, dest); err != nil {
		s.logger.Warn("remote document unreadable", zap.String("key", doc.Key), zap.Error(err))
		return false
	}
	return true
}

func (s *SyncService) publish(kind models.BoardEventType, reason string, count int) {
	if s.events == nil {
		return
	}
	s.events.Publish(models.BoardEvent{Type: kind, Reason: reason, Count: count, At: s.now().UTC()})
}

func (s *SyncService) observeSizes() {
	if s.metrics == nil {
		return
	}
	classes := s.state.Classes()
	pending := s.state.Pending()
	s.metrics.SetCollectionSizes(len(classes), len(pending.Additions), len(pending.Edits), len(pending.Deletions))
}

// Merge unions local and remote by id. Remote entries replace local entries
// sharing an id; the result is ordered by date then time.
func Merge(local, remote []models.ClassRecord) []models.ClassRecord {
	merged := make([]models.ClassRecord, 0, len(local)+len(remote))
	index := make(map[string]int, len(local)+len(remote))
	for _, set := range [][]models.ClassRecord{local, remote} {
		for _, record := range set {
			if i, ok := index[record.ID]; ok {
				merged[i] = record.Clone()
				continue
			}
			index[record.ID] = len(merged)
			merged = append(merged, record.Clone())
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Date != merged[j].Date {
			return merged[i].Date < merged[j].Date
		}
		return merged[i].Time < merged[j].Time
	})
	return merged
}

// HasChanges reports whether two collections differ as multisets of records.
func HasChanges(current, next []models.ClassRecord) bool {
	if len(current) != len(next) {
		return true
	}
	a, b := canonicalOrder(current), canonicalOrder(next)
	for i := range a {
		if !a[i].Equal(b[i]) {
			return true
		}
	}
	return false
}

func canonicalOrder(records []models.ClassRecord) []models.ClassRecord {
	type keyed struct {
		key    string
		record models.ClassRecord
	}
	items := make([]keyed, len(records))
	for i, record := range records {
		raw, _ := json.Marshal(record)
		items[i] = keyed{key: record.ID + "\x00" + string(raw), record: record}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].key < items[j].key })
	out := make([]models.ClassRecord, len(items))
	for i, item := range items {
		out[i] = item.record
	}
	return out
}
