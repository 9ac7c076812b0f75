package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"blockparty/server/internal/metrics"
	"blockparty/server/internal/service"
	"blockparty/server/pkg/response"
)

type RSVPHandler struct {
	rsvpService service.RSVPService
}

func NewRSVPHandler(rsvpService service.RSVPService) *RSVPHandler {
	return &RSVPHandler{rsvpService: rsvpService}
}

func (h *RSVPHandler) Create(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	partyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid party id")
		return
	}

	// Both fields are optional; an empty body is a plain RSVP.
	var in service.RSVPInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}

	rsvp, err := h.rsvpService.Create(c.Request.Context(), p, partyID, in)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	metrics.RSVPsCreated.Inc()
	response.Success(c, rsvp)
}

func (h *RSVPHandler) Verify(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	partyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid party id")
		return
	}
	rsvpID, err := uuid.Parse(c.Param("rsvpID"))
	if err != nil {
		response.BadRequest(c, "invalid rsvp id")
		return
	}

	rsvp, err := h.rsvpService.Verify(c.Request.Context(), p, partyID, rsvpID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	metrics.RSVPsVerified.Inc()
	response.Success(c, rsvp)
}

// Cancel removes an RSVP. The attendee email comes from the `email` query
// parameter; attendees cancel themselves, hosts and the administrator may
// cancel anyone.
func (h *RSVPHandler) Cancel(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}
	partyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid party id")
		return
	}

	attendeeEmail := c.Query("email")
	if attendeeEmail == "" {
		// Defaults to cancelling the caller's own RSVP.
		attendeeEmail = p.Email
	}

	if err := h.rsvpService.Cancel(c.Request.Context(), p, partyID, attendeeEmail); err != nil {
		mapServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"cancelled": true})
}
