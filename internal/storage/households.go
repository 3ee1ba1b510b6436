package storage

import (
	"context"
	"fmt"

	"finbook/internal/scope"

	"github.com/google/uuid"
)

// CreateHousehold registers a shared visibility group.
func (r *SQLiteRepository) CreateHousehold(ctx context.Context, id uuid.UUID, name string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO households (id, name) VALUES (?, ?)`, id.String(), name)
	if err != nil {
		return fmt.Errorf("create household: %w", err)
	}
	return nil
}

// AddHouseholdMember makes a user's records visible to the household.
// Re-adding an existing member is a no-op.
func (r *SQLiteRepository) AddHouseholdMember(ctx context.Context, householdID, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO household_members (household_id, user_id)
		 VALUES (?, ?)`, householdID.String(), userID.String())
	if err != nil {
		return fmt.Errorf("add household member: %w", err)
	}
	return nil
}

// Resolve implements scope.Resolver: the owner set is the user plus every
// other member of any household the user belongs to.
func (r *SQLiteRepository) Resolve(ctx context.Context, userID uuid.UUID) (scope.Owner, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT other.user_id
		 FROM household_members AS mine
		 JOIN household_members AS other ON other.household_id = mine.household_id
		 WHERE mine.user_id = ? AND other.user_id != ?
		 ORDER BY other.user_id`, userID.String(), userID.String())
	if err != nil {
		return scope.Owner{}, fmt.Errorf("resolve household members: %w", err)
	}
	defer rows.Close()

	owner := scope.Owner{UserID: userID}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return scope.Owner{}, fmt.Errorf("scan household member: %w", err)
		}
		member, err := uuid.Parse(raw)
		if err != nil {
			return scope.Owner{}, fmt.Errorf("parse household member id: %w", err)
		}
		owner.MemberIDs = append(owner.MemberIDs, member)
	}
	return owner, rows.Err()
}
