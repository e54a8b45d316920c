package api

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"hostel-allocation-backend/config"
	"hostel-allocation-backend/internal/booking"
	"hostel-allocation-backend/internal/mw"
	"hostel-allocation-backend/internal/store"
)

const limiterIdleTimeout = 10 * time.Minute

// NewRouter creates and configures a new Gin router. ctx bounds the
// background cleanup of per-IP rate limiters.
func NewRouter(ctx context.Context, cfg *config.ServerConfig, svc *booking.Service, s store.Store, loc *time.Location) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(svc, s, loc)

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	go pruneLimiters(ctx, limiter)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	api := r.Group("/api")
	api.Use(mw.RateLimiter(limiter), mw.FlushOnWrite(cacheStore))
	{
		api.GET("/rooms", caching, handler.ListRooms)
		api.POST("/rooms", handler.CreateRoom)
		api.GET("/rooms/:id", caching, handler.GetRoom)
		api.DELETE("/rooms/:id", handler.ArchiveRoom)
		api.POST("/rooms/:id/beds", handler.AddBed)
		api.GET("/rooms/:id/occupancy", handler.RoomOccupancy)
		api.GET("/rooms/:id/availability", handler.RoomAvailability)

		api.DELETE("/beds/:id", handler.ArchiveBed)
		api.GET("/beds/:id/occupancy", handler.BedOccupancy)

		api.GET("/guests", caching, handler.ListGuests)
		api.POST("/guests", handler.CreateGuest)
		api.GET("/guests/:id", caching, handler.GetGuest)
		api.DELETE("/guests/:id", handler.ArchiveGuest)

		api.GET("/bookings", handler.ListBookings)
		api.POST("/bookings", handler.CreateBooking)
		api.GET("/bookings/:id", handler.GetBooking)
		api.PATCH("/bookings/:id", handler.UpdateBooking)
		api.DELETE("/bookings/:id", handler.ArchiveBooking)
		api.POST("/bookings/:id/transitions", handler.TransitionBooking)
		api.POST("/bookings/:id/cancel", handler.CancelBooking)
		api.GET("/bookings/:id/next-states", handler.NextStates)

		api.POST("/booking-requests", handler.RequestBooking)

		api.GET("/availability", handler.AvailableRooms)
		api.GET("/activity", handler.DailyActivity)
		api.GET("/occupancy", handler.OccupancyReport)
	}

	return r
}

func pruneLimiters(ctx context.Context, limiter *mw.IPRateLimiter) {
	ticker := time.NewTicker(limiterIdleTimeout)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Prune(limiterIdleTimeout); n > 0 {
				log.Printf("Pruned %d idle rate limiters", n)
			}
		}
	}
}
