// Package scope centralizes owner resolution: a user's visibility set is
// resolved once per request and the resulting owner set is passed down to
// storage filters, instead of every query re-deriving household membership.
package scope

import (
	"context"

	"github.com/google/uuid"
)

// Owner is the resolved visibility set for a user: their own id plus the
// user ids of everyone sharing a household with them.
type Owner struct {
	UserID    uuid.UUID
	MemberIDs []uuid.UUID
}

// IDs returns the full owner set, user first.
func (o Owner) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, 1+len(o.MemberIDs))
	ids = append(ids, o.UserID)
	return append(ids, o.MemberIDs...)
}

// Resolver maps a user to their owner scope.
type Resolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (Owner, error)
}

// Single resolves every user to just themselves. Used in tests and
// single-user deployments without households.
type Single struct{}

func (Single) Resolve(_ context.Context, userID uuid.UUID) (Owner, error) {
	return Owner{UserID: userID}, nil
}
