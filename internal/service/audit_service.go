package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
	"github.com/noah-isme/portal-colegio-api/pkg/jobs"
)

const auditJobType = "audit.record"

type auditLogStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, error)
}

type auditQueue interface {
	Enqueue(job jobs.Job) error
}

// AuditRecorder is what mutating services depend on.
type AuditRecorder interface {
	Record(ctx context.Context, actor authz.Identity, entityType string, entityID interface{}, action string, details interface{})
}

type nopAuditRecorder struct{}

func (nopAuditRecorder) Record(context.Context, authz.Identity, string, interface{}, string, interface{}) {
}

// AuditService writes audit entries through the job queue and serves the audit
// log listing.
type AuditService struct {
	repo    auditLogStore
	queue   auditQueue
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuditService constructs the audit service. A nil queue writes entries
// synchronously.
func NewAuditService(repo auditLogStore, queue auditQueue, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, queue: queue, metrics: metrics, logger: logger, now: time.Now}
}

// AttachQueue sets the queue after construction, since the queue handler is the
// service itself.
func (s *AuditService) AttachQueue(queue auditQueue) {
	s.queue = queue
}

// Record builds an audit entry and hands it to the queue. It never fails the
// caller: entries that cannot be queued are written inline, and entries that
// cannot be written at all are counted as dropped.
func (s *AuditService) Record(ctx context.Context, actor authz.Identity, entityType string, entityID interface{}, action string, details interface{}) {
	if s == nil || s.repo == nil {
		return
	}
	entry := s.buildEntry(actor, entityType, entityID, action, details)

	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Type: auditJobType, Payload: entry})
		if err == nil {
			return
		}
		if isAuditQueueSaturated(err) {
			s.logger.Warn("audit queue full, writing inline", zap.String("entity_type", entityType))
		} else {
			s.logger.Debug("audit queue unavailable, writing inline", zap.Error(err))
		}
	}

	if err := s.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.Dropped(entry, err)
	}
}

// HandleJob is the queue handler persisting a queued entry.
func (s *AuditService) HandleJob(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok || entry == nil {
		s.logger.Error("unexpected audit job payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	return s.repo.Create(ctx, entry)
}

// HandleFailure is the queue failure hook for entries that exhausted retries.
func (s *AuditService) HandleFailure(job jobs.Job, err error) {
	entry, _ := job.Payload.(*models.AuditLog)
	s.Dropped(entry, err)
}

// Dropped logs and counts an entry that could not be persisted.
func (s *AuditService) Dropped(entry *models.AuditLog, err error) {
	fields := []zap.Field{zap.Error(err)}
	if entry != nil {
		fields = append(fields,
			zap.String("audit_id", entry.ID),
			zap.String("entity_type", entry.EntityType),
			zap.String("entity_id", entry.EntityID),
			zap.String("action", entry.Action),
		)
	}
	s.logger.Error("audit entry dropped", fields...)
	if s.metrics != nil {
		s.metrics.RecordAuditDropped()
	}
}

// List returns audit entries, newest first.
func (s *AuditService) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, error) {
	filter.EntityType = strings.TrimSpace(filter.EntityType)
	filter.Action = strings.ToUpper(strings.TrimSpace(filter.Action))
	if filter.Action != "" && !validAuditAction(filter.Action) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be CREATE, UPDATE or DELETE")
	}
	if filter.Limit < 0 || filter.Limit > 1000 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "limit must be between 1 and 1000")
	}

	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return logs, nil
}

func (s *AuditService) buildEntry(actor authz.Identity, entityType string, entityID interface{}, action string, details interface{}) *models.AuditLog {
	entry := &models.AuditLog{
		ID:         uuid.NewString(),
		EntityType: entityType,
		EntityID:   formatEntityID(entityID),
		Action:     action,
		CreatedAt:  s.now().UTC(),
	}
	if actor.ID != 0 {
		id := actor.ID
		entry.UserID = &id
		if actor.Name != "" {
			name := actor.Name
			entry.UserName = &name
		}
	}
	entry.Details = encodeDetails(details)
	return entry
}

func validAuditAction(action string) bool {
	switch action {
	case models.AuditActionCreate, models.AuditActionUpdate, models.AuditActionDelete:
		return true
	}
	return false
}

func formatEntityID(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

func encodeDetails(details interface{}) string {
	switch v := details.(type) {
	case nil:
		return ""
	case string:
		return v
	case error:
		return v.Error()
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return ""
	}
	return string(raw)
}

// isAuditQueueSaturated reports queue back-pressure errors.
func isAuditQueueSaturated(err error) bool {
	return errors.Is(err, jobs.ErrQueueFull)
}
