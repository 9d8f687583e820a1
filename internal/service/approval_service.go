package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dance-board-api/internal/dto"
	"github.com/noah-isme/dance-board-api/internal/models"
	appErrors "github.com/noah-isme/dance-board-api/pkg/errors"
)

const (
	maxTokenAttempts = 5
	savedLocallyNote = " Saved locally; the shared schedule will catch up."
)

type approvalNotifier interface {
	SendApproval(ctx context.Context, kind models.CollectionKind, classID string, classData interface{}, token string, original *models.ClassRecord)
}

// ApprovalService runs the submit / approve / reject lifecycle of proposed changes.
type ApprovalService struct {
	state     *BoardState
	records   *RecordStore
	sync      *SyncService
	tokens    *TokenService
	notifier  approvalNotifier
	events    boardEvents
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger

	defaultRegion string
	now           func() time.Time
	newID         func() string
}

// ApprovalServiceOption configures the service.
type ApprovalServiceOption func(*ApprovalService)

// WithApprovalNotifier sets the approval e-mail sender.
func WithApprovalNotifier(notifier approvalNotifier) ApprovalServiceOption {
	return func(s *ApprovalService) {
		s.notifier = notifier
	}
}

// WithApprovalEvents publishes refresh events to the given broker.
func WithApprovalEvents(events boardEvents) ApprovalServiceOption {
	return func(s *ApprovalService) {
		s.events = events
	}
}

// WithApprovalMetrics attaches metrics.
func WithApprovalMetrics(metrics *MetricsService) ApprovalServiceOption {
	return func(s *ApprovalService) {
		s.metrics = metrics
	}
}

// WithDefaultRegion sets the region used when a submission names none.
func WithDefaultRegion(region string) ApprovalServiceOption {
	return func(s *ApprovalService) {
		if region != "" {
			s.defaultRegion = models.NormalizeRegion(region)
		}
	}
}

// NewApprovalService constructs the approval workflow.
func NewApprovalService(state *BoardState, records *RecordStore, syncSvc *SyncService, tokens *TokenService, validate *validator.Validate, logger *zap.Logger, opts ...ApprovalServiceOption) *ApprovalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokens == nil {
		tokens = NewTokenService()
	}
	svc := &ApprovalService{
		state:         state,
		records:       records,
		sync:          syncSvc,
		tokens:        tokens,
		validator:     validate,
		logger:        logger,
		defaultRegion: models.RegionNYC,
		now:           time.Now,
		newID:         func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// SubmitAddition stages a new class for approval.
func (s *ApprovalService) SubmitAddition(ctx context.Context, req dto.ClassSubmissionRequest) (*models.SubmissionReceipt, error) {
	req = normalizeSubmission(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}
	region := s.defaultRegion
	if req.Region != "" {
		region = models.NormalizeRegion(req.Region)
	}

	var pending models.PendingAddition
	s.state.update(func(c *boardCollections) {
		pending = models.PendingAddition{
			ClassRecord:   buildClassRecord(req, s.newID(), region),
			Status:        models.PendingStatusAddition,
			SubmittedAt:   models.FormatTimestamp(s.now()),
			ApprovalToken: s.issueToken(c),
		}
		c.Additions = append(c.Additions, pending)
		_ = s.records.SavePendingAdditions(ctx, c.Additions)
	})

	return s.finishSubmission(ctx, models.CollectionAdditions, pending.ID, pending.ApprovalToken, pending, nil,
		"Class submitted for approval!"), nil
}

// SubmitEdit stages a full replacement of a committed class.
func (s *ApprovalService) SubmitEdit(ctx context.Context, classID string, req dto.ClassSubmissionRequest) (*models.SubmissionReceipt, error) {
	req = normalizeSubmission(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	var (
		pending models.PendingEdit
		found   bool
	)
	s.state.update(func(c *boardCollections) {
		idx := models.IndexOfClass(c.Classes, classID)
		if idx < 0 {
			return
		}
		found = true
		original := c.Classes[idx].Clone()
		pending = models.PendingEdit{
			ClassRecord:     buildClassRecord(req, classID, original.EffectiveRegion()),
			OriginalID:      classID,
			OriginalData:    original,
			Status:          models.PendingStatusEdit,
			EditRequestedAt: models.FormatTimestamp(s.now()),
			ApprovalToken:   s.issueToken(c),
		}
		c.Edits = append(c.Edits, pending)
		_ = s.records.SavePendingEdits(ctx, c.Edits)
	})
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	original := pending.OriginalData
	return s.finishSubmission(ctx, models.CollectionEdits, classID, pending.ApprovalToken, pending, &original,
		"Class edit submitted for approval!"), nil
}

// SubmitDeletion stages removal of a committed class.
func (s *ApprovalService) SubmitDeletion(ctx context.Context, classID string) (*models.SubmissionReceipt, error) {
	var (
		pending models.PendingDeletion
		found   bool
	)
	s.state.update(func(c *boardCollections) {
		idx := models.IndexOfClass(c.Classes, classID)
		if idx < 0 {
			return
		}
		found = true
		pending = models.PendingDeletion{
			ClassRecord:       c.Classes[idx].Clone(),
			OriginalID:        classID,
			Status:            models.PendingStatusDeletion,
			DeleteRequestedAt: models.FormatTimestamp(s.now()),
			ApprovalToken:     s.issueToken(c),
		}
		c.Deletions = append(c.Deletions, pending)
		_ = s.records.SavePendingDeletions(ctx, c.Deletions)
	})
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	return s.finishSubmission(ctx, models.CollectionDeletions, classID, pending.ApprovalToken, pending, nil,
		"Class deletion request submitted for approval!"), nil
}

func (s *ApprovalService) finishSubmission(ctx context.Context, kind models.CollectionKind, classID, token string, classData interface{}, original *models.ClassRecord, notice string) *models.SubmissionReceipt {
	synced := s.sync.PushPending(ctx, kind) == nil
	if !synced && s.sync.RemoteEnabled() {
		notice += savedLocallyNote
	}
	if s.notifier != nil {
		s.notifier.SendApproval(ctx, kind, classID, classData, token, original)
	}
	s.metrics.RecordSubmission(string(kind))
	s.publish(models.BoardEventPendingChanged, "submitted_"+string(kind), 0)
	s.logger.Info("change submitted for approval", zap.String("kind", string(kind)), zap.String("class_id", classID))

	return &models.SubmissionReceipt{
		Kind:          kind,
		ClassID:       classID,
		ApprovalToken: token,
		RemoteSynced:  synced,
		Notification:  notice,
	}
}

// Resolve applies an approval link once the initial synchronization has
// completed. The pending record is consumed whether approved or rejected.
func (s *ApprovalService) Resolve(ctx context.Context, rawAction, token string) (*models.ApprovalOutcome, error) {
	action, ok := models.ParseApprovalAction(rawAction)
	if !ok {
		return nil, appErrors.ErrInvalidApprovalAction
	}
	if err := s.sync.WaitReady(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "board is still loading")
	}

	var (
		outcome models.ApprovalOutcome
		found   bool
	)
	s.state.update(func(c *boardCollections) {
		match, ok := ResolveToken(token, c.Additions, c.Edits, c.Deletions)
		if !ok {
			return
		}
		found = true
		outcome = s.apply(ctx, c, match, action)
	})
	if !found {
		s.metrics.RecordApproval("unknown", string(action), "not_found")
		s.logger.Info("approval token not found", zap.String("action", string(action)))
		return nil, appErrors.Clone(appErrors.ErrApprovalTokenNotFound, "Approval token not found.")
	}

	touchesSchedule := action == models.ApprovalActionApprove
	graceful := touchesSchedule && outcome.Kind != models.CollectionAdditions

	synced := true
	if touchesSchedule && s.sync.PushSchedule(ctx) != nil {
		synced = false
	}
	if s.sync.PushPending(ctx, outcome.Kind) != nil {
		synced = false
	}
	if graceful {
		// restart the window from the moment our own writes landed
		s.sync.Suppress(0)
	}

	outcome.RemoteSynced = synced
	if !synced && s.sync.RemoteEnabled() {
		outcome.Notification += savedLocallyNote
	}
	if outcome.Committed {
		s.publish(models.BoardEventClassesChanged, "approved_"+string(outcome.Kind), 1)
	}
	s.publish(models.BoardEventPendingChanged, string(action)+"_"+string(outcome.Kind), 0)
	s.metrics.RecordApproval(string(outcome.Kind), string(action), "resolved")
	s.logger.Info("approval resolved",
		zap.String("kind", string(outcome.Kind)),
		zap.String("action", string(action)),
		zap.String("class_id", outcome.ClassID),
		zap.Bool("committed", outcome.Committed),
		zap.Bool("remote_synced", synced),
	)
	return &outcome, nil
}

// apply performs one transition. Callers hold the board lock.
func (s *ApprovalService) apply(ctx context.Context, c *boardCollections, match models.TokenMatch, action models.ApprovalAction) models.ApprovalOutcome {
	outcome := models.ApprovalOutcome{Kind: match.Kind, Action: action}
	approve := action == models.ApprovalActionApprove

	switch match.Kind {
	case models.CollectionAdditions:
		pending := c.Additions[match.Index]
		outcome.ClassName, outcome.ClassID = pending.Name, pending.ID
		c.Additions = removeAt(c.Additions, match.Index)
		if approve {
			c.Classes = append(c.Classes, pending.ToClassRecord())
			outcome.Committed = true
			s.saveClasses(ctx, c)
			outcome.Notification = fmt.Sprintf("Class %q approved!", pending.Name)
		} else {
			outcome.Notification = fmt.Sprintf("Class %q rejected.", pending.Name)
		}
		_ = s.records.SavePendingAdditions(ctx, c.Additions)

	case models.CollectionEdits:
		pending := c.Edits[match.Index]
		outcome.ClassName, outcome.ClassID = pending.Name, pending.OriginalID
		if approve {
			s.sync.Suppress(0)
			if idx := models.IndexOfClass(c.Classes, pending.OriginalID); idx >= 0 {
				c.Classes[idx] = pending.ToClassRecord()
				outcome.Committed = true
			}
			c.Edits = removeAt(c.Edits, match.Index)
			s.saveClasses(ctx, c)
			outcome.Notification = fmt.Sprintf("Edit for %q approved!", pending.Name)
		} else {
			c.Edits = removeAt(c.Edits, match.Index)
			outcome.Notification = fmt.Sprintf("Edit for %q rejected.", pending.Name)
		}
		_ = s.records.SavePendingEdits(ctx, c.Edits)

	case models.CollectionDeletions:
		pending := c.Deletions[match.Index]
		outcome.ClassName, outcome.ClassID = pending.Name, pending.OriginalID
		if approve {
			s.sync.Suppress(0)
			if idx := models.IndexOfClass(c.Classes, pending.OriginalID); idx >= 0 {
				c.Classes = removeAt(c.Classes, idx)
				outcome.Committed = true
			}
			c.Deletions = removeAt(c.Deletions, match.Index)
			s.saveClasses(ctx, c)
			outcome.Notification = fmt.Sprintf("Class %q deleted!", pending.Name)
		} else {
			c.Deletions = removeAt(c.Deletions, match.Index)
			outcome.Notification = fmt.Sprintf("Deletion for %q rejected.", pending.Name)
		}
		_ = s.records.SavePendingDeletions(ctx, c.Deletions)
	}
	return outcome
}

func (s *ApprovalService) saveClasses(ctx context.Context, c *boardCollections) {
	stamp, _ := s.records.SaveClasses(ctx, c.Classes)
	c.LastModified = stamp
}

// issueToken returns a token not carried by any pending record. Callers hold the board lock.
func (s *ApprovalService) issueToken(c *boardCollections) string {
	token := s.tokens.Issue()
	for attempt := 1; attempt < maxTokenAttempts; attempt++ {
		if _, taken := ResolveToken(token, c.Additions, c.Edits, c.Deletions); !taken {
			break
		}
		token = s.tokens.Issue()
	}
	return token
}

func (s *ApprovalService) validate(req dto.ClassSubmissionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Please fill in all required fields.")
	}
	return nil
}

func (s *ApprovalService) publish(kind models.BoardEventType, reason string, count int) {
	if s.events == nil {
		return
	}
	s.events.Publish(models.BoardEvent{Type: kind, Reason: reason, Count: count, At: s.now().UTC()})
}

func normalizeSubmission(req dto.ClassSubmissionRequest) dto.ClassSubmissionRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.Teacher = strings.TrimSpace(req.Teacher)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.TicketLink = strings.TrimSpace(req.TicketLink)
	req.Region = strings.ToLower(strings.TrimSpace(req.Region))
	return req
}

func buildClassRecord(req dto.ClassSubmissionRequest, id, region string) models.ClassRecord {
	style := req.Style
	if style == models.StyleOther {
		style = strings.TrimSpace(req.CustomStyle)
		if style == "" {
			style = models.StyleOther
		}
	}
	record := models.ClassRecord{
		ID:               id,
		Name:             req.Name,
		Teacher:          req.Teacher,
		Date:             req.Date,
		Time:             req.Time,
		Style:            style,
		Level:            req.Level,
		Location:         req.Location,
		TicketLink:       req.TicketLink,
		TeacherBioURL:    req.TeacherBioURL,
		TeacherInstagram: req.TeacherInstagram,
		Region:           region,
		SoldOut:          req.SoldOut,
		OnSale:           req.OnSale,
	}
	if req.Duration != nil {
		d := *req.Duration
		record.Duration = &d
	}
	return record
}

func removeAt[T any](items []T, idx int) []T {
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...)
}
