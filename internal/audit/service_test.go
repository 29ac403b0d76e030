package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/kiraya-market/kiraya-backend/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
CREATE TABLE audit_logs (
  id TEXT PRIMARY KEY,
  entity_type TEXT NOT NULL,
  entity_id TEXT NOT NULL,
  actor TEXT NOT NULL,
  action TEXT NOT NULL,
  context TEXT,
  created_at DATETIME
);`).Error)
	return db
}

func newAuditService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := setupAuditTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc, db
}

func TestService_Record(t *testing.T) {
	svc, _ := newAuditService(t)
	ctx := context.Background()

	orderID := uuid.NewString()
	entry, err := svc.Record(ctx, RecordInput{
		EntityType: EntityOrder,
		EntityID:   orderID,
		Actor:      uuid.NewString(),
		Action:     "order.created",
		Context:    map[string]any{"order_number": "ORD-20260901-ABC123"},
	})
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(entry.Context, &payload))
	assert.Equal(t, "ORD-20260901-ABC123", payload["order_number"])
}

func TestService_Record_defaultsToSystemActor(t *testing.T) {
	svc, _ := newAuditService(t)

	entry, err := svc.Record(context.Background(), RecordInput{
		EntityType: EntityFailure,
		EntityID:   uuid.NewString(),
		Action:     "failure.late_return",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SystemActor, entry.Actor)
}

func TestService_Record_validation(t *testing.T) {
	svc, _ := newAuditService(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordInput{EntityID: "x", Action: "y"})
	require.Error(t, err)
	_, err = svc.Record(ctx, RecordInput{EntityType: EntityOrder, Action: "y"})
	require.Error(t, err)
	_, err = svc.Record(ctx, RecordInput{EntityType: EntityOrder, EntityID: "x"})
	require.Error(t, err)
}

func TestService_RecordTx_rollsBackWithTransaction(t *testing.T) {
	svc, db := newAuditService(t)
	ctx := context.Background()
	entityID := uuid.NewString()

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.RecordTx(ctx, tx, RecordInput{
			EntityType: EntityOrder,
			EntityID:   entityID,
			Action:     "order.created",
		}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	entries, err := svc.ListByEntity(ctx, EntityOrder, entityID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_ListByEntity(t *testing.T) {
	svc, _ := newAuditService(t)
	ctx := context.Background()
	entityID := uuid.NewString()

	for _, action := range []string{"order.created", "order.approved", "order.completed"} {
		_, err := svc.Record(ctx, RecordInput{
			EntityType: EntityOrder,
			EntityID:   entityID,
			Action:     action,
		})
		require.NoError(t, err)
	}
	_, err := svc.Record(ctx, RecordInput{
		EntityType: EntityPayment,
		EntityID:   uuid.NewString(),
		Action:     "payment.signature_rejected",
	})
	require.NoError(t, err)

	entries, err := svc.ListByEntity(ctx, EntityOrder, entityID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "order.created", entries[0].Action)
	assert.Equal(t, "order.completed", entries[2].Action)
}

func TestActor(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, id.String(), Actor(id))
	assert.Equal(t, models.SystemActor, Actor(uuid.Nil))
}
