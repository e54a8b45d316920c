package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/booking"
	"hostel-allocation-backend/internal/parse"
)

// ListRooms handles GET /api/rooms. Archived rooms and beds are included
// with ?archived=true.
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.store.ListRooms(c.Request.Context(), includeArchived(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// GetRoom handles GET /api/rooms/:id.
func (h *Handler) GetRoom(c *gin.Context) {
	room, err := h.store.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// CreateRoom handles POST /api/rooms.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req booking.CreateRoomInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	room, err := h.service.CreateRoom(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

type addBedRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddBed handles POST /api/rooms/:id/beds.
func (h *Handler) AddBed(c *gin.Context) {
	var req addBedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	bed, err := h.service.AddBed(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bed)
}

// ArchiveRoom handles DELETE /api/rooms/:id. The room's beds are archived with it.
func (h *Handler) ArchiveRoom(c *gin.Context) {
	id := c.Param("id")
	d, err := h.service.ArchiveRoom(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, archived(id, d))
}

// ArchiveBed handles DELETE /api/beds/:id.
func (h *Handler) ArchiveBed(c *gin.Context) {
	id := c.Param("id")
	d, err := h.service.ArchiveBed(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, archived(id, d))
}

// RoomOccupancy handles GET /api/rooms/:id/occupancy?date=YYYY-MM-DD.
func (h *Handler) RoomOccupancy(c *gin.Context) {
	h.resourceOccupancy(c, allocation.KindRoom)
}

// BedOccupancy handles GET /api/beds/:id/occupancy?date=YYYY-MM-DD.
func (h *Handler) BedOccupancy(c *gin.Context) {
	h.resourceOccupancy(c, allocation.KindBed)
}

func (h *Handler) resourceOccupancy(c *gin.Context, kind allocation.ResourceKind) {
	day, err := parse.OptionalDate(c.Query("date"), h.loc)
	if err != nil {
		badRequest(c, err)
		return
	}
	o, err := h.service.Occupancy(c.Request.Context(), kind, c.Param("id"), day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// OccupancyReport handles GET /api/occupancy?date=YYYY-MM-DD.
func (h *Handler) OccupancyReport(c *gin.Context) {
	day, err := parse.OptionalDate(c.Query("date"), h.loc)
	if err != nil {
		badRequest(c, err)
		return
	}
	report, err := h.service.OccupancyReport(c.Request.Context(), day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// stay reads the required checkIn and checkOut query parameters.
func (h *Handler) stay(c *gin.Context) (allocation.Range, error) {
	checkIn, err := h.date(c.Query("checkIn"))
	if err != nil {
		return allocation.Range{}, fmt.Errorf("checkIn: %w", err)
	}
	checkOut, err := h.date(c.Query("checkOut"))
	if err != nil {
		return allocation.Range{}, fmt.Errorf("checkOut: %w", err)
	}
	return allocation.NewRange(checkIn, checkOut), nil
}

// RoomAvailability handles GET /api/rooms/:id/availability?checkIn=&checkOut=.
func (h *Handler) RoomAvailability(c *gin.Context) {
	stay, err := h.stay(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	a, err := h.service.RoomAvailability(c.Request.Context(), c.Param("id"), stay)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// AvailableRooms handles GET /api/availability?checkIn=&checkOut=.
func (h *Handler) AvailableRooms(c *gin.Context) {
	stay, err := h.stay(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	rooms, err := h.service.AvailableRooms(c.Request.Context(), stay)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}
