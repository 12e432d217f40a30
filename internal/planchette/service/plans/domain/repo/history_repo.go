package repo

import (
	"context"

	"github.com/kestrad/planchette/internal/planchette/service/plans/domain/entity"
)

// HistoryRepository is the append-only, size-bounded log of user-visible
// tool calls. Implementations must be safe for concurrent use: multiple
// runs belonging to different sessions record into it at the same time.
type HistoryRepository interface {
	// RecordToolCall appends a record and returns its identifier. When
	// the user's log exceeds its bound, the oldest records are trimmed.
	RecordToolCall(ctx context.Context, record *entity.HistoryRecord) (string, error)

	// UpdateRecord applies a partial update to an existing record of the
	// user. It reports whether the record was found; an already-trimmed
	// record is not an error.
	UpdateRecord(ctx context.Context, userID, recordID string, update map[string]interface{}) (bool, error)

	// ListByUser returns the user's records, most recent last.
	ListByUser(ctx context.Context, userID string) ([]*entity.HistoryRecord, error)
}
