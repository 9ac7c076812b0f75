package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"blockparty/server/internal/model"
)

// ErrPartyAtCapacity is returned by the capacity-checked mutations when the
// party has no seats left under the rule being applied (all RSVPs at
// creation, verified RSVPs at verification).
var ErrPartyAtCapacity = errors.New("party is at capacity")

type RSVPRepository interface {
	// CreateWithCapacity inserts the RSVP only if the party's total RSVP
	// count is below maxAttendees. The check and the insert run in one
	// transaction holding a lock on the party row, so two concurrent
	// requests cannot both pass the check.
	CreateWithCapacity(ctx context.Context, rsvp *model.RSVP, maxAttendees int) error
	// VerifyWithCapacity marks the RSVP verified only if the party's
	// verified RSVP count is below maxAttendees, under the same locking
	// scheme. Verifying an already-verified RSVP is a no-op.
	VerifyWithCapacity(ctx context.Context, rsvpID, partyID uuid.UUID, maxAttendees int) (*model.RSVP, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.RSVP, error)
	FindByPartyAndUser(ctx context.Context, partyID, userID uuid.UUID) (*model.RSVP, error)
	CountByParty(ctx context.Context, partyID uuid.UUID) (int64, error)
	CountVerifiedByParty(ctx context.Context, partyID uuid.UUID) (int64, error)
	ListByParty(ctx context.Context, partyID uuid.UUID) ([]model.RSVP, error)
	// DeleteByPartyAndEmail removes the attendee's RSVP rows for the party
	// and reports how many were deleted. Zero is not an error.
	DeleteByPartyAndEmail(ctx context.Context, partyID uuid.UUID, email string) (int64, error)
}
