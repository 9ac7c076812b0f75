package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"blockparty/server/internal/metrics"
	"blockparty/server/internal/service"
	"blockparty/server/pkg/response"
)

type PartyHandler struct {
	partyService service.PartyService
}

func NewPartyHandler(partyService service.PartyService) *PartyHandler {
	return &PartyHandler{partyService: partyService}
}

// List returns parties ordered by date. Anonymous viewers see only verified
// parties; hosts additionally see their own; the administrator sees all.
func (h *PartyHandler) List(c *gin.Context) {
	var viewer *service.Principal
	if p, err := principalFromContext(c); err == nil {
		viewer = &p
	}

	parties, err := h.partyService.List(c.Request.Context(), viewer)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	response.Success(c, parties)
}

func (h *PartyHandler) Create(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var in service.PartyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	party, err := h.partyService.Create(c.Request.Context(), p, in)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	metrics.PartiesCreated.Inc()
	response.Success(c, party)
}

func (h *PartyHandler) Get(c *gin.Context) {
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

	party, err := h.partyService.Get(c.Request.Context(), p, partyID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	response.Success(c, party)
}

func (h *PartyHandler) Update(c *gin.Context) {
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

	var in service.PartyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	party, err := h.partyService.Update(c.Request.Context(), p, partyID, in)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	response.Success(c, party)
}

func (h *PartyHandler) Verify(c *gin.Context) {
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

	party, err := h.partyService.Verify(c.Request.Context(), p, partyID)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	response.Success(c, party)
}

func (h *PartyHandler) Delete(c *gin.Context) {
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

	if err := h.partyService.Delete(c.Request.Context(), p, partyID); err != nil {
		mapServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
