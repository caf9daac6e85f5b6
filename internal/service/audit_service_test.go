package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
	"github.com/noah-isme/portal-colegio-api/pkg/jobs"
)

type auditStoreStub struct {
	mu         sync.Mutex
	created    []*models.AuditLog
	createErr  error
	lastFilter models.AuditLogFilter
}

func (s *auditStoreStub) Create(ctx context.Context, log *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, log)
	return nil
}

func (s *auditStoreStub) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, error) {
	s.lastFilter = filter
	return []models.AuditLog{{ID: "a"}}, nil
}

func (s *auditStoreStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created)
}

type fullQueue struct{ err error }

func (q fullQueue) Enqueue(jobs.Job) error { return q.err }

type capturingQueue struct{ jobs []jobs.Job }

func (q *capturingQueue) Enqueue(job jobs.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func TestAuditServiceRecordEnqueues(t *testing.T) {
	store := &auditStoreStub{}
	queue := &capturingQueue{}
	svc := NewAuditService(store, queue, nil, zap.NewNop())

	svc.Record(context.Background(), authz.Identity{ID: 4, Name: "Ana"}, models.AuditEntityProcedure, int64(12), models.AuditActionUpdate, map[string]string{"status": "APROBADO"})

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, auditJobType, queue.jobs[0].Type)
	entry := queue.jobs[0].Payload.(*models.AuditLog)
	assert.Equal(t, "12", entry.EntityID)
	assert.Equal(t, int64(4), *entry.UserID)
	assert.Equal(t, "Ana", *entry.UserName)
	assert.JSONEq(t, `{"status":"APROBADO"}`, entry.Details)
	assert.Equal(t, 0, store.count())

	require.NoError(t, svc.HandleJob(context.Background(), queue.jobs[0]))
	assert.Equal(t, 1, store.count())
}

func TestAuditServiceRecordFallsBackInline(t *testing.T) {
	store := &auditStoreStub{}
	svc := NewAuditService(store, fullQueue{err: jobs.ErrQueueFull}, nil, zap.NewNop())

	svc.Record(context.Background(), authz.Identity{}, models.AuditEntityStudent, int64(1), models.AuditActionDelete, nil)

	require.Equal(t, 1, store.count())
	assert.Nil(t, store.created[0].UserID)
	assert.Empty(t, store.created[0].Details)
}

func TestAuditServiceCountsDroppedEntries(t *testing.T) {
	store := &auditStoreStub{createErr: errors.New("db down")}
	metrics := NewMetricsService()
	svc := NewAuditService(store, nil, metrics, zap.NewNop())

	svc.Record(context.Background(), authz.Identity{ID: 1}, models.AuditEntityUser, int64(2), models.AuditActionCreate, nil)
	svc.HandleFailure(jobs.Job{Payload: &models.AuditLog{ID: "x"}}, errors.New("retries exhausted"))

	assert.Equal(t, uint64(2), metrics.Snapshot().AuditDropped)
}

func TestAuditServiceWithRunningQueue(t *testing.T) {
	store := &auditStoreStub{}
	svc := NewAuditService(store, nil, nil, zap.NewNop())
	queue := jobs.NewQueue("audit", svc.HandleJob, jobs.QueueConfig{Workers: 2, BufferSize: 8, RetryDelay: time.Millisecond, OnFailure: svc.HandleFailure})
	svc.AttachQueue(queue)
	queue.Start(context.Background())

	for i := 0; i < 5; i++ {
		svc.Record(context.Background(), authz.Identity{ID: 1}, models.AuditEntityInvoice, int64(i), models.AuditActionCreate, nil)
	}
	queue.Stop()

	assert.Equal(t, 5, store.count())
}

func TestAuditServiceListValidation(t *testing.T) {
	store := &auditStoreStub{}
	svc := NewAuditService(store, nil, nil, nil)

	_, err := svc.List(context.Background(), models.AuditLogFilter{Action: "PATCH"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.List(context.Background(), models.AuditLogFilter{Limit: 5000})
	require.Error(t, err)

	logs, err := svc.List(context.Background(), models.AuditLogFilter{Action: " update ", EntityType: " procedure", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, "UPDATE", store.lastFilter.Action)
	assert.Equal(t, "procedure", store.lastFilter.EntityType)
}

func TestFormatEntityID(t *testing.T) {
	assert.Equal(t, "", formatEntityID(nil))
	assert.Equal(t, "abc", formatEntityID("abc"))
	assert.Equal(t, "42", formatEntityID(int64(42)))
	assert.Equal(t, "7", formatEntityID(7))
}
