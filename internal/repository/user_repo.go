package repository

import (
	"context"

	"github.com/google/uuid"

	"blockparty/server/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Upsert inserts the user or, if the email is already registered,
	// refreshes the display name. Used on every identity-provider sign-in.
	Upsert(ctx context.Context, user *model.User) error
}
