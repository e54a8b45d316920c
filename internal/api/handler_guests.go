package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-allocation-backend/internal/booking"
)

func (h *Handler) ListGuests(c *gin.Context) {
	guests, err := h.store.ListGuests(c.Request.Context(), includeArchived(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, guests)
}

func (h *Handler) GetGuest(c *gin.Context) {
	guest, err := h.store.GetGuest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, guest)
}

// CreateGuest handles POST /api/guests. A known email returns the existing guest.
func (h *Handler) CreateGuest(c *gin.Context) {
	var req booking.CreateGuestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	guest, err := h.service.CreateGuest(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, guest)
}

func (h *Handler) ArchiveGuest(c *gin.Context) {
	id := c.Param("id")
	d, err := h.service.ArchiveGuest(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, archived(id, d))
}
