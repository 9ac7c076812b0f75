package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for all models and creates custom indexes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Party{},
		&RSVP{},
	); err != nil {
		return err
	}

	// One RSVP per (party, attendee).
	return db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_rsvps_party_user " +
			"ON rsvps (party_id, user_id)",
	).Error
}
