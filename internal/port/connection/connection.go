package connection

import (
	"context"
	"errors"
	"time"

	domainconn "github.com/vigneswara-propelo/harness-core-sub004/internal/domain/connection"
)

var (
	ErrNotFound = errors.New("connection: result not found")
	// ErrDuplicate is returned by Insert when another writer raced the same
	// (delegate, criteria) key in. The orchestrator treats it as benign.
	ErrDuplicate = errors.New("connection: duplicate result")
)

// Store persists connectivity probe results.
type Store interface {
	Find(ctx context.Context, delegateID, criteria string) (domainconn.Result, error)
	Insert(ctx context.Context, r domainconn.Result) error
	// SetValidity updates only the validity flag of an existing record.
	SetValidity(ctx context.Context, delegateID, criteria string, validated bool) error
	// Touch bumps the record's last-updated timestamp without re-probing.
	Touch(ctx context.Context, delegateID, criteria string, at time.Time) error
	// BulkDelete removes every result for the account; a non-blank delegateID
	// narrows the delete to that delegate.
	BulkDelete(ctx context.Context, accountID, delegateID string) error
}
