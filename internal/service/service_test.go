package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"blockparty/server/internal/model"
	"blockparty/server/internal/repository"
)

const (
	testAdminEmail = "admin@example.com"
	testTimezone   = "Asia/Kolkata"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// The in-memory database exists per connection; pin the pool to one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, model.AutoMigrate(db))
	return db
}

type fixture struct {
	db       *gorm.DB
	users    repository.UserRepository
	parties  repository.PartyRepository
	rsvps    repository.RSVPRepository
	partySvc PartyService
	rsvpSvc  RSVPService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	users := repository.NewPGUserRepository(db)
	parties := repository.NewPGPartyRepository(db)
	rsvps := repository.NewPGRSVPRepository(db)
	policy := NewFixedEmailAdminPolicy(testAdminEmail)

	partySvc, err := NewPartyService(parties, users, policy, testTimezone)
	require.NoError(t, err)

	return &fixture{
		db:       db,
		users:    users,
		parties:  parties,
		rsvps:    rsvps,
		partySvc: partySvc,
		rsvpSvc:  NewRSVPService(rsvps, parties, policy),
	}
}

// signIn registers a user the way the auth callback would and returns the
// matching principal.
func (f *fixture) signIn(t *testing.T, email, name string) Principal {
	t.Helper()

	user := &model.User{Email: email, Name: name}
	require.NoError(t, f.users.Upsert(context.Background(), user))
	return Principal{UserID: user.ID, Email: email, Name: name}
}

func validPartyInput() PartyInput {
	return PartyInput{
		Title:        "Summer Rooftop Bash",
		Date:         "2025-06-14T18:30",
		MaxAttendees: 10,
		FlatNo:       "4B",
		HostName:     "Priya",
	}
}

// hostParty creates a party for host and, unless the host is the
// administrator, has the administrator verify it.
func (f *fixture) hostParty(t *testing.T, host Principal, maxAttendees int) *model.Party {
	t.Helper()

	in := validPartyInput()
	in.MaxAttendees = maxAttendees
	party, err := f.partySvc.Create(context.Background(), host, in)
	require.NoError(t, err)

	if !party.IsVerified {
		admin := f.signIn(t, testAdminEmail, "Admin")
		party, err = f.partySvc.Verify(context.Background(), admin, party.ID)
		require.NoError(t, err)
	}
	return party
}
