package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"blockparty/server/internal/model"
)

type pgPartyRepository struct {
	db *gorm.DB
}

func NewPGPartyRepository(db *gorm.DB) PartyRepository {
	return &pgPartyRepository{db: db}
}

func (r *pgPartyRepository) Create(ctx context.Context, party *model.Party) error {
	return r.db.WithContext(ctx).Create(party).Error
}

func (r *pgPartyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Party, error) {
	var party model.Party
	if err := r.db.WithContext(ctx).First(&party, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *pgPartyRepository) GetByIDWithRSVPs(ctx context.Context, id uuid.UUID) (*model.Party, error) {
	var party model.Party
	err := r.db.WithContext(ctx).
		Preload("RSVPs", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&party, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &party, nil
}

func (r *pgPartyRepository) List(ctx context.Context) ([]model.Party, error) {
	var parties []model.Party
	err := r.db.WithContext(ctx).Order("date ASC").Find(&parties).Error
	return parties, err
}

func (r *pgPartyRepository) Update(ctx context.Context, party *model.Party) error {
	return r.db.WithContext(ctx).Save(party).Error
}

func (r *pgPartyRepository) DeleteWithRSVPs(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("party_id = ?", id).Delete(&model.RSVP{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Party{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
