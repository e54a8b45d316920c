package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/booking"
	"hostel-allocation-backend/internal/parse"
	"hostel-allocation-backend/internal/store"
)

type createBookingRequest struct {
	GuestID  string            `json:"guestId" binding:"required"`
	RoomID   string            `json:"roomId"`
	BedID    string            `json:"bedId"`
	CheckIn  string            `json:"checkIn" binding:"required"`
	CheckOut string            `json:"checkOut" binding:"required"`
	Status   allocation.Status `json:"status"`
	Notes    string            `json:"notes"`
}

type inquiryRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Phone       string `json:"phone"`
	Nationality string `json:"nationality"`
	RoomID      string `json:"roomId"`
	BedID       string `json:"bedId"`
	CheckIn     string `json:"checkIn" binding:"required"`
	CheckOut    string `json:"checkOut" binding:"required"`
	Notes       string `json:"notes"`
}

type updateBookingRequest struct {
	RoomID   *string `json:"roomId"`
	BedID    *string `json:"bedId"`
	CheckIn  *string `json:"checkIn"`
	CheckOut *string `json:"checkOut"`
	Notes    *string `json:"notes"`
}

type transitionRequest struct {
	Status allocation.Status `json:"status" binding:"required"`
}

// ListBookings handles GET /api/bookings with optional guestId, roomId,
// bedId, status and archived filters.
func (h *Handler) ListBookings(c *gin.Context) {
	filter := store.BookingFilter{
		GuestID:         c.Query("guestId"),
		RoomID:          c.Query("roomId"),
		BedID:           c.Query("bedId"),
		Status:          allocation.Status(c.Query("status")),
		IncludeArchived: includeArchived(c),
	}
	if filter.Status != "" && !filter.Status.Known() {
		badRequest(c, fmt.Errorf("unknown status %q", filter.Status))
		return
	}
	bookings, err := h.store.ListBookings(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.store.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CreateBooking handles POST /api/bookings. Operator bookings start confirmed
// unless status is "requested".
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, err := h.date(req.CheckIn)
	if err != nil {
		badRequest(c, err)
		return
	}
	checkOut, err := h.date(req.CheckOut)
	if err != nil {
		badRequest(c, err)
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		GuestID:  req.GuestID,
		RoomID:   req.RoomID,
		BedID:    req.BedID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Status:   req.Status,
		Notes:    req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// RequestBooking handles POST /api/booking-requests, the public inquiry form.
func (h *Handler) RequestBooking(c *gin.Context) {
	var req inquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, err := h.date(req.CheckIn)
	if err != nil {
		badRequest(c, err)
		return
	}
	checkOut, err := h.date(req.CheckOut)
	if err != nil {
		badRequest(c, err)
		return
	}

	b, err := h.service.RequestBooking(c.Request.Context(), booking.BookingRequestInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Nationality: req.Nationality,
		RoomID:      req.RoomID,
		BedID:       req.BedID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Notes:       req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":       b.ID,
		"status":   b.Status,
		"checkIn":  b.CheckIn,
		"checkOut": b.CheckOut,
	})
}

// UpdateBooking handles PATCH /api/bookings/:id.
func (h *Handler) UpdateBooking(c *gin.Context) {
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	in := booking.UpdateBookingInput{RoomID: req.RoomID, BedID: req.BedID, Notes: req.Notes}
	if req.CheckIn != nil {
		t, err := h.date(*req.CheckIn)
		if err != nil {
			badRequest(c, err)
			return
		}
		in.CheckIn = &t
	}
	if req.CheckOut != nil {
		t, err := h.date(*req.CheckOut)
		if err != nil {
			badRequest(c, err)
			return
		}
		in.CheckOut = &t
	}

	b, err := h.service.UpdateBooking(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// TransitionBooking handles POST /api/bookings/:id/transitions.
func (h *Handler) TransitionBooking(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.service.Transition(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CancelBooking handles POST /api/bookings/:id/cancel. Cancelling twice succeeds.
func (h *Handler) CancelBooking(c *gin.Context) {
	b, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// NextStates handles GET /api/bookings/:id/next-states.
func (h *Handler) NextStates(c *gin.Context) {
	next, err := h.service.NextStates(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"next": next})
}

// ArchiveBooking handles DELETE /api/bookings/:id. Only cancelled or
// checked-out bookings can be archived.
func (h *Handler) ArchiveBooking(c *gin.Context) {
	id := c.Param("id")
	d, err := h.service.ArchiveBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, archived(id, d))
}

// DailyActivity handles GET /api/activity?date=YYYY-MM-DD. The date defaults to today.
func (h *Handler) DailyActivity(c *gin.Context) {
	day, err := parse.OptionalDate(c.Query("date"), h.loc)
	if err != nil {
		badRequest(c, err)
		return
	}
	activity, err := h.service.DailyActivity(c.Request.Context(), day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}
