package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dance-board-api/internal/models"
	"github.com/noah-isme/dance-board-api/pkg/config"
	"github.com/noah-isme/dance-board-api/pkg/jobs"
)

// Outbound e-mail types understood by the mail endpoint.
const (
	EmailTypeApproval   = "class_approval"
	EmailTypeSuggestion = "suggestion"
)

// JobTypeApprovalEmail identifies approval mails on the jobs queue.
const JobTypeApprovalEmail = "approval_email"

type emailPayload struct {
	Type          string              `json:"type"`
	Action        string              `json:"action,omitempty"`
	ClassData     interface{}         `json:"classData,omitempty"`
	ApprovalToken string              `json:"approvalToken,omitempty"`
	OriginalData  *models.ClassRecord `json:"originalData,omitempty"`
	Message       string              `json:"message,omitempty"`
	Timestamp     string              `json:"timestamp"`
	Source        string              `json:"source"`
}

type emailQueue interface {
	Enqueue(job jobs.Job) error
}

// NotificationService posts approval requests and suggestions to the mail
// endpoint. Failures are logged and never undo the action they describe.
type NotificationService struct {
	client   *http.Client
	endpoint string
	source   string
	enabled  bool
	queue    emailQueue
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
	newJobID func() string
}

// NotificationServiceOption configures the notifier.
type NotificationServiceOption func(*NotificationService)

// WithNotificationHTTPClient overrides the HTTP client.
func WithNotificationHTTPClient(client *http.Client) NotificationServiceOption {
	return func(s *NotificationService) {
		if client != nil {
			s.client = client
		}
	}
}

// WithNotificationMetrics attaches metrics.
func WithNotificationMetrics(metrics *MetricsService) NotificationServiceOption {
	return func(s *NotificationService) {
		s.metrics = metrics
	}
}

// NewNotificationService constructs the notifier from e-mail config.
func NewNotificationService(cfg config.EmailConfig, logger *zap.Logger, opts ...NotificationServiceOption) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	source := cfg.Source
	if source == "" {
		source = "Dance Schedule Website"
	}
	svc := &NotificationService{
		client:   &http.Client{Timeout: timeout},
		endpoint: cfg.Endpoint,
		source:   source,
		enabled:  cfg.Enabled && cfg.Endpoint != "",
		logger:   logger,
		now:      time.Now,
		newJobID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// UseQueue routes approval mails through a background queue.
func (s *NotificationService) UseQueue(queue emailQueue) {
	s.queue = queue
}

// Enabled reports whether mails are actually sent.
func (s *NotificationService) Enabled() bool {
	return s.enabled
}

// SendApproval requests an approval mail for a pending record. It returns
// immediately; delivery happens in the background. The token only travels in
// the payload and never reaches the logs.
func (s *NotificationService) SendApproval(ctx context.Context, kind models.CollectionKind, classID string, classData interface{}, token string, original *models.ClassRecord) {
	fields := []zap.Field{zap.String("kind", string(kind)), zap.String("class_id", classID)}
	if !s.enabled {
		s.logger.Debug("approval e-mail disabled", fields...)
		return
	}
	payload := emailPayload{
		Type:          EmailTypeApproval,
		Action:        kind.EmailAction(),
		ClassData:     classData,
		ApprovalToken: token,
	}
	if kind == models.CollectionEdits {
		payload.OriginalData = original
	}

	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{ID: s.newJobID(), Type: JobTypeApprovalEmail, Payload: payload})
		if err == nil {
			return
		}
		s.logger.Warn("approval e-mail not queued, sending directly", append(fields, zap.Error(err))...)
	}

	go func() {
		sendCtx := context.WithoutCancel(ctx)
		if err := s.send(sendCtx, payload); err != nil {
			s.logger.Warn("approval e-mail failed", append(fields, zap.Error(err))...)
		}
	}()
}

// SendSuggestion delivers free-text feedback and reports whether it was accepted.
func (s *NotificationService) SendSuggestion(ctx context.Context, message string) bool {
	if !s.enabled {
		s.logger.Info("suggestion received while e-mail disabled", zap.Int("length", len(message)))
		return false
	}
	if err := s.send(ctx, emailPayload{Type: EmailTypeSuggestion, Message: message}); err != nil {
		s.logger.Warn("suggestion e-mail failed", zap.Error(err))
		return false
	}
	return true
}

// HandleJob is the jobs queue handler for approval mails.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(emailPayload)
	if !ok {
		s.logger.Error("unexpected e-mail job payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	return s.send(ctx, payload)
}

func (s *NotificationService) send(ctx context.Context, payload emailPayload) error {
	payload.Timestamp = models.FormatTimestamp(s.now())
	payload.Source = s.source

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode e-mail payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build e-mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.RecordEmail(payload.Type, false)
		return fmt.Errorf("post e-mail: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	s.metrics.RecordEmail(payload.Type, ok)
	if !ok {
		return fmt.Errorf("e-mail endpoint responded %d", resp.StatusCode)
	}
	return nil
}
