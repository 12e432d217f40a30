package inmemory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
)

func record(userID, tool string) *entity.HistoryRecord {
	return &entity.HistoryRecord{
		UserID:   userID,
		ToolName: tool,
		Summary:  "Executed " + tool,
		Status:   "success",
	}
}

func TestHistoryRecordAndList(t *testing.T) {
	store := NewHistoryStore(10)
	ctx := context.Background()

	id, err := store.RecordToolCall(ctx, record("alice", "send_email"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	records, err := store.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, id, records[0].ID)
	require.False(t, records[0].CreatedAt.IsZero())
}

func TestHistoryTrimsOldestBeyondBound(t *testing.T) {
	store := NewHistoryStore(3)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := store.RecordToolCall(ctx, record("alice", fmt.Sprintf("tool%d", i)))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	records, err := store.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, records, 3)

	// The two oldest are gone; the rest keep insertion order.
	require.Equal(t, "tool2", records[0].ToolName)
	require.Equal(t, "tool4", records[2].ToolName)

	// Updating a trimmed record is not found, not an error.
	found, err := store.UpdateRecord(ctx, "alice", ids[0], map[string]interface{}{"plan_status": "completed"})
	require.NoError(t, err)
	require.False(t, found)
}

func TestHistoryUpdateRecord(t *testing.T) {
	store := NewHistoryStore(10)
	ctx := context.Background()

	id, err := store.RecordToolCall(ctx, record("alice", "send_email"))
	require.NoError(t, err)

	found, err := store.UpdateRecord(ctx, "alice", id, map[string]interface{}{
		"plan_status": "completed",
		"summary":     "Sent the welcome email",
	})
	require.NoError(t, err)
	require.True(t, found)

	records, err := store.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "completed", records[0].PlanStatus)
	require.Equal(t, "Sent the welcome email", records[0].Summary)
}

func TestHistoryIsolatesUsers(t *testing.T) {
	store := NewHistoryStore(2)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.RecordToolCall(ctx, record("alice", fmt.Sprintf("tool%d", i)))
		require.NoError(t, err)
	}
	_, err := store.RecordToolCall(ctx, record("bob", "send_email"))
	require.NoError(t, err)

	aliceRecords, err := store.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, aliceRecords, 2, "alice's bound must not affect bob")

	bobRecords, err := store.ListByUser(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bobRecords, 1)
}
