package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"blockparty/server/internal/model"
	"blockparty/server/internal/repository"
)

// Form dates arrive as datetime-local strings without zone information; they
// are interpreted in the configured zone and stored in UTC.
const formDateLayout = "2006-01-02T15:04"

type PartyInput struct {
	Title        string `json:"title"`
	Date         string `json:"date"`
	MaxAttendees int    `json:"max_attendees"`
	FlatNo       string `json:"flat_no"`
	HostName     string `json:"host_name"`
}

type PartyService interface {
	Create(ctx context.Context, p Principal, in PartyInput) (*model.Party, error)
	// List returns parties ordered by date ascending. A nil viewer sees
	// only verified parties; a host additionally sees their own; the
	// administrator sees everything.
	List(ctx context.Context, viewer *Principal) ([]model.Party, error)
	// Get returns one party with its RSVPs. Viewers who are neither host
	// nor administrator see only verified RSVPs, and unverified parties
	// are hidden from them entirely.
	Get(ctx context.Context, viewer Principal, id uuid.UUID) (*model.Party, error)
	Update(ctx context.Context, p Principal, id uuid.UUID, in PartyInput) (*model.Party, error)
	Verify(ctx context.Context, p Principal, id uuid.UUID) (*model.Party, error)
	Delete(ctx context.Context, p Principal, id uuid.UUID) error
}

type partyService struct {
	partyRepo repository.PartyRepository
	userRepo  repository.UserRepository
	policy    AdminPolicy
	loc       *time.Location
}

func NewPartyService(
	partyRepo repository.PartyRepository,
	userRepo repository.UserRepository,
	policy AdminPolicy,
	timezone string,
) (PartyService, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load party timezone %q: %w", timezone, err)
	}
	return &partyService{
		partyRepo: partyRepo,
		userRepo:  userRepo,
		policy:    policy,
		loc:       loc,
	}, nil
}

// parseDate accepts an RFC 3339 timestamp or a zoneless form value and
// returns the instant in UTC.
func (s *partyService) parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(formDateLayout, value, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be RFC 3339 or %s", ErrInvalidInput, formDateLayout)
	}
	return t.UTC(), nil
}

func validatePartyFields(in PartyInput, requireHostName bool) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Date) == "" {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.FlatNo) == "" {
		return fmt.Errorf("%w: flat number is required", ErrInvalidInput)
	}
	if requireHostName && strings.TrimSpace(in.HostName) == "" {
		return fmt.Errorf("%w: host name is required", ErrInvalidInput)
	}
	if in.MaxAttendees < 1 || in.MaxAttendees > model.MaxAttendeesCeiling {
		return fmt.Errorf("%w: max attendees must be between 1 and %d", ErrInvalidInput, model.MaxAttendeesCeiling)
	}
	return nil
}

func (s *partyService) Create(ctx context.Context, p Principal, in PartyInput) (*model.Party, error) {
	if err := validatePartyFields(in, true); err != nil {
		return nil, err
	}
	date, err := s.parseDate(in.Date)
	if err != nil {
		return nil, err
	}

	// The session may outlive the user row; treat a missing row as a
	// store/identity inconsistency rather than creating an orphaned party.
	if _, err := s.userRepo.GetByID(ctx, p.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find host user: %w", err)
	}

	party := &model.Party{
		Title:        strings.TrimSpace(in.Title),
		Date:         date,
		MaxAttendees: in.MaxAttendees,
		FlatNo:       strings.TrimSpace(in.FlatNo),
		HostName:     strings.TrimSpace(in.HostName),
		HostEmail:    p.Email,
		HostID:       p.UserID,
		IsVerified:   s.policy.IsAdmin(p.Email),
	}
	if err := s.partyRepo.Create(ctx, party); err != nil {
		return nil, fmt.Errorf("create party: %w", err)
	}
	return party, nil
}

func (s *partyService) List(ctx context.Context, viewer *Principal) ([]model.Party, error) {
	parties, err := s.partyRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}

	if viewer != nil && s.policy.IsAdmin(viewer.Email) {
		return parties, nil
	}

	visible := make([]model.Party, 0, len(parties))
	for _, party := range parties {
		if party.IsVerified || (viewer != nil && party.HostEmail == viewer.Email) {
			visible = append(visible, party)
		}
	}
	return visible, nil
}

func (s *partyService) Get(ctx context.Context, viewer Principal, id uuid.UUID) (*model.Party, error) {
	party, err := s.partyRepo.GetByIDWithRSVPs(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartyNotFound
		}
		return nil, fmt.Errorf("get party: %w", err)
	}

	if s.canManage(viewer, party) {
		return party, nil
	}

	// Unverified parties do not exist for outside viewers, and pending
	// RSVPs stay between the attendee and the host.
	if !party.IsVerified {
		return nil, ErrPartyNotFound
	}
	verified := make([]model.RSVP, 0, len(party.RSVPs))
	for _, rsvp := range party.RSVPs {
		if rsvp.IsVerified {
			verified = append(verified, rsvp)
		}
	}
	party.RSVPs = verified
	return party, nil
}

func (s *partyService) Update(ctx context.Context, p Principal, id uuid.UUID, in PartyInput) (*model.Party, error) {
	if err := validatePartyFields(in, false); err != nil {
		return nil, err
	}
	date, err := s.parseDate(in.Date)
	if err != nil {
		return nil, err
	}

	party, err := s.partyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartyNotFound
		}
		return nil, fmt.Errorf("get party: %w", err)
	}
	if !s.canManage(p, party) {
		return nil, ErrForbidden
	}

	// Verification state and host identity never change through an edit.
	party.Title = strings.TrimSpace(in.Title)
	party.Date = date
	party.MaxAttendees = in.MaxAttendees
	party.FlatNo = strings.TrimSpace(in.FlatNo)

	if err := s.partyRepo.Update(ctx, party); err != nil {
		return nil, fmt.Errorf("update party: %w", err)
	}
	return party, nil
}

func (s *partyService) Verify(ctx context.Context, p Principal, id uuid.UUID) (*model.Party, error) {
	if !s.policy.IsAdmin(p.Email) {
		return nil, ErrForbidden
	}

	party, err := s.partyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartyNotFound
		}
		return nil, fmt.Errorf("get party: %w", err)
	}

	party.IsVerified = true
	if err := s.partyRepo.Update(ctx, party); err != nil {
		return nil, fmt.Errorf("verify party: %w", err)
	}
	return party, nil
}

func (s *partyService) Delete(ctx context.Context, p Principal, id uuid.UUID) error {
	party, err := s.partyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPartyNotFound
		}
		return fmt.Errorf("get party: %w", err)
	}
	if !s.canManage(p, party) {
		return ErrForbidden
	}

	if err := s.partyRepo.DeleteWithRSVPs(ctx, id); err != nil {
		return fmt.Errorf("delete party: %w", err)
	}
	return nil
}

func (s *partyService) canManage(p Principal, party *model.Party) bool {
	return s.policy.IsAdmin(p.Email) || party.HostEmail == p.Email
}

var _ PartyService = (*partyService)(nil)
