package service

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrForbidden        = errors.New("forbidden")
	ErrUserNotFound     = errors.New("user not found")
	ErrPartyNotFound    = errors.New("party not found")
	ErrRSVPNotFound     = errors.New("rsvp not found")
	ErrPartyNotVerified = errors.New("party is not verified yet")
	ErrDuplicateRSVP    = errors.New("you have already RSVPed to this party")
	ErrPartyFull        = errors.New("party is full")

	ErrOAuth2ProviderNotConfigured = errors.New("oauth2 provider not configured")
	ErrOAuth2InvalidState          = errors.New("invalid or expired oauth2 state")
	ErrOAuth2TokenExchange         = errors.New("failed to exchange oauth2 code for token")
	ErrOAuth2UserInfo              = errors.New("failed to get oauth2 user info")
	ErrRefreshTokenInvalid         = errors.New("refresh token invalid or revoked")
)
