package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxAttendeesCeiling bounds how large a party may be declared.
const MaxAttendeesCeiling = 100

// Party is a hostable event. Date is always stored in UTC; the host's email
// is denormalized so authorization checks do not need a join. An unverified
// party is visible only to its host and the administrator.
type Party struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string    `gorm:"type:varchar(256);not null" json:"title"`
	Date         time.Time `gorm:"not null;index" json:"date"`
	MaxAttendees int       `gorm:"not null" json:"max_attendees"`
	FlatNo       string    `gorm:"type:varchar(64);not null" json:"flat_no"`
	HostName     string    `gorm:"type:varchar(256);not null" json:"host_name"`
	HostEmail    string    `gorm:"type:varchar(320);not null;index" json:"host_email"`
	HostID       uuid.UUID `gorm:"type:uuid;not null" json:"host_id"`
	IsVerified   bool      `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	RSVPs []RSVP `gorm:"foreignKey:PartyID" json:"rsvps,omitempty"`
}

func (Party) TableName() string { return "parties" }

func (p *Party) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
