package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"blockparty/server/internal/model"
)

type pgRSVPRepository struct {
	db *gorm.DB
}

func NewPGRSVPRepository(db *gorm.DB) RSVPRepository {
	return &pgRSVPRepository{db: db}
}

// lockParty serializes capacity-sensitive writers for one party. Touching
// the row takes a row lock on Postgres and the write lock on SQLite, which
// is what the read-count-then-write sequence below needs.
func lockParty(tx *gorm.DB, partyID uuid.UUID) error {
	result := tx.Model(&model.Party{}).
		Where("id = ?", partyID).
		UpdateColumn("updated_at", time.Now().UTC())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *pgRSVPRepository) CreateWithCapacity(ctx context.Context, rsvp *model.RSVP, maxAttendees int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockParty(tx, rsvp.PartyID); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&model.RSVP{}).
			Where("party_id = ?", rsvp.PartyID).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(maxAttendees) {
			return ErrPartyAtCapacity
		}
		return tx.Create(rsvp).Error
	})
}

func (r *pgRSVPRepository) VerifyWithCapacity(ctx context.Context, rsvpID, partyID uuid.UUID, maxAttendees int) (*model.RSVP, error) {
	var rsvp model.RSVP
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockParty(tx, partyID); err != nil {
			return err
		}
		if err := tx.First(&rsvp, "id = ? AND party_id = ?", rsvpID, partyID).Error; err != nil {
			return err
		}
		if rsvp.IsVerified {
			return nil
		}
		var verified int64
		if err := tx.Model(&model.RSVP{}).
			Where("party_id = ? AND is_verified = ?", partyID, true).
			Count(&verified).Error; err != nil {
			return err
		}
		if verified >= int64(maxAttendees) {
			return ErrPartyAtCapacity
		}
		rsvp.IsVerified = true
		return tx.Model(&rsvp).UpdateColumn("is_verified", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &rsvp, nil
}

func (r *pgRSVPRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RSVP, error) {
	var rsvp model.RSVP
	if err := r.db.WithContext(ctx).First(&rsvp, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rsvp, nil
}

func (r *pgRSVPRepository) FindByPartyAndUser(ctx context.Context, partyID, userID uuid.UUID) (*model.RSVP, error) {
	var rsvp model.RSVP
	err := r.db.WithContext(ctx).
		Where("party_id = ? AND user_id = ?", partyID, userID).
		First(&rsvp).Error
	if err != nil {
		return nil, err
	}
	return &rsvp, nil
}

func (r *pgRSVPRepository) CountByParty(ctx context.Context, partyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RSVP{}).
		Where("party_id = ?", partyID).
		Count(&count).Error
	return count, err
}

func (r *pgRSVPRepository) CountVerifiedByParty(ctx context.Context, partyID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RSVP{}).
		Where("party_id = ? AND is_verified = ?", partyID, true).
		Count(&count).Error
	return count, err
}

func (r *pgRSVPRepository) ListByParty(ctx context.Context, partyID uuid.UUID) ([]model.RSVP, error) {
	var rsvps []model.RSVP
	err := r.db.WithContext(ctx).
		Where("party_id = ?", partyID).
		Order("created_at DESC").
		Find(&rsvps).Error
	return rsvps, err
}

func (r *pgRSVPRepository) DeleteByPartyAndEmail(ctx context.Context, partyID uuid.UUID, email string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("party_id = ? AND user_email = ?", partyID, email).
		Delete(&model.RSVP{})
	return result.RowsAffected, result.Error
}
