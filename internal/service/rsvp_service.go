package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"blockparty/server/internal/model"
	"blockparty/server/internal/repository"
)

type RSVPInput struct {
	AlcoholRequest string `json:"alcohol_request"`
	Suggestion     string `json:"suggestion"`
}

type RSVPService interface {
	// Create registers a pending RSVP. Preconditions in order, first
	// failure wins: party exists, party is verified, no existing RSVP for
	// this attendee, total RSVP count below the cap.
	Create(ctx context.Context, p Principal, partyID uuid.UUID, in RSVPInput) (*model.RSVP, error)
	// Verify confirms a pending RSVP. Host or administrator only; the
	// verified count is recomputed at verification time so a seat accepted
	// at creation can still be refused here.
	Verify(ctx context.Context, p Principal, partyID, rsvpID uuid.UUID) (*model.RSVP, error)
	// Cancel removes the attendee's RSVP. Permitted for the administrator,
	// the host, or the attendee themselves. Cancelling an RSVP that does
	// not exist succeeds.
	Cancel(ctx context.Context, p Principal, partyID uuid.UUID, attendeeEmail string) error
}

type rsvpService struct {
	rsvpRepo  repository.RSVPRepository
	partyRepo repository.PartyRepository
	policy    AdminPolicy
}

func NewRSVPService(
	rsvpRepo repository.RSVPRepository,
	partyRepo repository.PartyRepository,
	policy AdminPolicy,
) RSVPService {
	return &rsvpService{
		rsvpRepo:  rsvpRepo,
		partyRepo: partyRepo,
		policy:    policy,
	}
}

func (s *rsvpService) Create(ctx context.Context, p Principal, partyID uuid.UUID, in RSVPInput) (*model.RSVP, error) {
	party, err := s.partyRepo.GetByID(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartyNotFound
		}
		return nil, fmt.Errorf("get party: %w", err)
	}
	if !party.IsVerified {
		return nil, ErrPartyNotVerified
	}

	_, err = s.rsvpRepo.FindByPartyAndUser(ctx, partyID, p.UserID)
	if err == nil {
		return nil, ErrDuplicateRSVP
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing rsvp: %w", err)
	}

	rsvp := &model.RSVP{
		PartyID:        partyID,
		UserID:         p.UserID,
		UserEmail:      p.Email,
		UserName:       p.Name,
		AlcoholRequest: strings.TrimSpace(in.AlcoholRequest),
		Suggestion:     strings.TrimSpace(in.Suggestion),
	}
	if err := s.rsvpRepo.CreateWithCapacity(ctx, rsvp, party.MaxAttendees); err != nil {
		switch {
		case errors.Is(err, repository.ErrPartyAtCapacity):
			return nil, ErrPartyFull
		case errors.Is(err, gorm.ErrDuplicatedKey):
			// Unique index backstop for two requests racing past the
			// pre-check above.
			return nil, ErrDuplicateRSVP
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrPartyNotFound
		}
		return nil, fmt.Errorf("create rsvp: %w", err)
	}
	return rsvp, nil
}

func (s *rsvpService) Verify(ctx context.Context, p Principal, partyID, rsvpID uuid.UUID) (*model.RSVP, error) {
	party, err := s.partyRepo.GetByID(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartyNotFound
		}
		return nil, fmt.Errorf("get party: %w", err)
	}
	if !s.policy.IsAdmin(p.Email) && party.HostEmail != p.Email {
		return nil, ErrForbidden
	}

	rsvp, err := s.rsvpRepo.VerifyWithCapacity(ctx, rsvpID, partyID, party.MaxAttendees)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPartyAtCapacity):
			return nil, ErrPartyFull
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrRSVPNotFound
		}
		return nil, fmt.Errorf("verify rsvp: %w", err)
	}
	return rsvp, nil
}

func (s *rsvpService) Cancel(ctx context.Context, p Principal, partyID uuid.UUID, attendeeEmail string) error {
	attendeeEmail = strings.TrimSpace(attendeeEmail)
	if attendeeEmail == "" {
		return fmt.Errorf("%w: attendee email is required", ErrInvalidInput)
	}

	party, err := s.partyRepo.GetByID(ctx, partyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPartyNotFound
		}
		return fmt.Errorf("get party: %w", err)
	}

	isSelf := p.Email == attendeeEmail
	if !isSelf && !s.policy.IsAdmin(p.Email) && party.HostEmail != p.Email {
		return ErrForbidden
	}

	// Idempotent: deleting zero rows is success.
	if _, err := s.rsvpRepo.DeleteByPartyAndEmail(ctx, partyID, attendeeEmail); err != nil {
		return fmt.Errorf("cancel rsvp: %w", err)
	}
	return nil
}

var _ RSVPService = (*rsvpService)(nil)
