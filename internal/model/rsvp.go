package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RSVP is one user's request to attend a party. Attendee email and name are
// denormalized alongside the user foreign key so attendee lists render
// without joins. An RSVP starts unverified (pending) and is confirmed by the
// host or administrator, capacity permitting.
type RSVP struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PartyID        uuid.UUID `gorm:"type:uuid;not null;index" json:"party_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	UserEmail      string    `gorm:"type:varchar(320);not null" json:"user_email"`
	UserName       string    `gorm:"type:varchar(256)" json:"user_name"`
	AlcoholRequest string    `gorm:"type:text" json:"alcohol_request,omitempty"`
	Suggestion     string    `gorm:"type:text" json:"suggestion,omitempty"`
	IsVerified     bool      `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt      time.Time `json:"created_at"`

	Party Party `gorm:"foreignKey:PartyID" json:"-"`
}

func (RSVP) TableName() string { return "rsvps" }

func (r *RSVP) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
