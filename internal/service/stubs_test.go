package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

type recordedAudit struct {
	entityType string
	entityID   interface{}
	action     string
	actorID    int64
	details    interface{}
}

type stubAuditRecorder struct {
	mu      sync.Mutex
	entries []recordedAudit
}

func (s *stubAuditRecorder) Record(ctx context.Context, actor authz.Identity, entityType string, entityID interface{}, action string, details interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, recordedAudit{entityType: entityType, entityID: entityID, action: action, actorID: actor.ID, details: details})
}

// memoryCacheRepo is a JSON round-tripping cache with prefix invalidation.
type memoryCacheRepo struct {
	store       map[string][]byte
	invalidated []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{store: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = payload
	return nil
}

func (m *memoryCacheRepo) Delete(_ context.Context, keys ...string) error {
	m.invalidated = append(m.invalidated, keys...)
	for _, key := range keys {
		delete(m.store, key)
	}
	return nil
}

func identity(id int64, roles ...authz.Role) authz.Identity {
	return authz.Identity{ID: id, Name: "user", Roles: authz.NewRoleSet(roles...)}
}

func adminActor(id int64) authz.Actor {
	return authz.NewActor(identity(id, authz.RoleAdmin), nil)
}

func teacherActor(id int64) authz.Actor {
	return authz.NewActor(identity(id, authz.RoleTeacher), nil)
}

func parentActor(id int64, students ...int64) authz.Actor {
	return authz.NewActor(identity(id, authz.RoleParent), authz.NewStudentSet(students...))
}

func int64Ref(v int64) *int64 { return &v }

func stringRef(v string) *string { return &v }
