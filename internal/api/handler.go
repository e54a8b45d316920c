package api

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/booking"
	"hostel-allocation-backend/internal/parse"
	"hostel-allocation-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	service *booking.Service
	store   store.Store
	loc     *time.Location
}

// NewHandler creates a new API handler. loc is the hostel's timezone, used
// to read dates sent by clients.
func NewHandler(service *booking.Service, s store.Store, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{service: service, store: s, loc: loc}
}

// respondError writes err using the status code of its kind.
func respondError(c *gin.Context, err error) {
	var rej *booking.RejectionError
	switch {
	case errors.As(err, &rej):
		status := http.StatusConflict
		if rej.Reason == allocation.ReasonInvalidRange {
			status = http.StatusUnprocessableEntity
		}
		conflicts := rej.Conflicts
		if conflicts == nil {
			conflicts = []string{}
		}
		c.AbortWithStatusJSON(status, gin.H{"error": rej.Error(), "reason": rej.Reason, "conflicts": conflicts})
	case errors.Is(err, booking.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrInvalidInput):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrArchived):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error(), "reason": "archived"})
	default:
		log.Printf("Error handling %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// date reads a required date field.
func (h *Handler) date(raw string) (time.Time, error) {
	return parse.Date(raw, h.loc)
}

func includeArchived(c *gin.Context) bool {
	return c.Query("archived") == "true"
}

// archivalResponse is returned by every archive endpoint.
type archivalResponse struct {
	ID           string   `json:"id"`
	Archived     bool     `json:"archived"`
	AlreadyDone  bool     `json:"alreadyArchived"`
	CascadedBeds []string `json:"cascadedBeds,omitempty"`
}

func archived(id string, d allocation.ArchivalDecision) archivalResponse {
	return archivalResponse{ID: id, Archived: true, AlreadyDone: d.Noop, CascadedBeds: d.CascadeBeds}
}
