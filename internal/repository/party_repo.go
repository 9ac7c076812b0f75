package repository

import (
	"context"

	"github.com/google/uuid"

	"blockparty/server/internal/model"
)

type PartyRepository interface {
	Create(ctx context.Context, party *model.Party) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Party, error)
	// GetByIDWithRSVPs preloads the party's RSVPs ordered newest first.
	GetByIDWithRSVPs(ctx context.Context, id uuid.UUID) (*model.Party, error)
	// List returns every party ordered by date ascending. Visibility
	// filtering is the service's concern, not the store's.
	List(ctx context.Context) ([]model.Party, error)
	Update(ctx context.Context, party *model.Party) error
	// DeleteWithRSVPs removes the party and all of its RSVPs in a single
	// transaction so no reader ever observes an orphaned RSVP.
	DeleteWithRSVPs(ctx context.Context, id uuid.UUID) error
}
