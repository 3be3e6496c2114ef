package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-ops-api/internal/model"
)

type failingAuditRepo struct {
	err    error
	events []*model.AuditEvent
}

func (f *failingAuditRepo) Create(_ context.Context, ev *model.AuditEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *failingAuditRepo) List(_ context.Context, _ *model.AuditFilter) ([]*model.AuditEvent, int64, error) {
	return f.events, int64(len(f.events)), nil
}

func (f *failingAuditRepo) Cleanup(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func TestLogSwallowsWriteFailures(t *testing.T) {
	repo := &failingAuditRepo{err: errors.New("connection refused")}
	svc := NewService(repo)

	// Must not panic and must not surface the error to the caller.
	svc.Log(context.Background(), nil, uuid.New(), model.AuditActionCreate, model.AuditEntityPatient, uuid.New(), nil)
	assert.Empty(t, repo.events)
}

func TestLogPersistsEvent(t *testing.T) {
	repo := &failingAuditRepo{}
	svc := NewService(repo)
	actor := &model.TokenClaims{UserID: uuid.New(), Role: model.RoleNurse}
	entityID := uuid.New()

	svc.Log(context.Background(), actor, uuid.New(), model.AuditActionUpdate, model.AuditEntityPatient, entityID, &LogOptions{
		Changes:   map[string]string{"status": "active"},
		IPAddress: "10.0.0.1",
	})

	require.Len(t, repo.events, 1)
	ev := repo.events[0]
	assert.Equal(t, actor.UserID, ev.ActorID)
	assert.Equal(t, model.RoleNurse, ev.ActorRole)
	assert.Equal(t, model.AuditActionUpdate, ev.Action)
	assert.Equal(t, entityID, ev.EntityID)
	assert.Equal(t, "10.0.0.1", ev.IPAddress)

	var changes map[string]string
	require.NoError(t, json.Unmarshal(ev.Changes, &changes))
	assert.Equal(t, "active", changes["status"])
}

func TestEventBuildsRowWithoutActor(t *testing.T) {
	entityID := uuid.New()
	ev := Event(nil, uuid.New(), model.AuditActionCreate, model.AuditEntityUser, entityID, nil)

	assert.Equal(t, uuid.Nil, ev.ActorID)
	assert.Equal(t, entityID, ev.EntityID)
	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.False(t, ev.CreatedAt.IsZero())
}

func TestEventSerializesMetadata(t *testing.T) {
	actor := &model.TokenClaims{UserID: uuid.New(), Role: model.RoleSurgeon}
	ev := Event(actor, uuid.New(), model.AuditActionTransition, model.AuditEntitySurgicalCase, uuid.New(), &LogOptions{
		Metadata: map[string]interface{}{"from": "scheduled", "to": "in_theater"},
	})

	var meta map[string]string
	require.NoError(t, json.Unmarshal(ev.Metadata, &meta))
	assert.Equal(t, "in_theater", meta["to"])
}
