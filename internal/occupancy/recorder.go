package occupancy

import (
	"context"
	"log"
	"time"

	"gorm.io/datatypes"

	"hostel-allocation-backend/config"
	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/booking"
	"hostel-allocation-backend/internal/model"
)

// Reporter computes the occupancy of every live resource for a day.
type Reporter interface {
	OccupancyReport(ctx context.Context, day time.Time) ([]booking.ResourceOccupancy, error)
}

// SnapshotStore persists daily occupancy rows.
type SnapshotStore interface {
	SaveOccupancySnapshots(ctx context.Context, snapshots []model.OccupancySnapshot) error
}

// Recorder periodically stores today's occupancy of every room and bed, one
// row per resource and day. Later runs on the same day overwrite the row.
type Recorder struct {
	cfg      *config.RecorderConfig
	reporter Reporter
	store    SnapshotStore
	clock    allocation.Clock
}

// NewRecorder creates a new occupancy recorder.
func NewRecorder(cfg *config.RecorderConfig, reporter Reporter, store SnapshotStore, clock allocation.Clock) *Recorder {
	return &Recorder{cfg: cfg, reporter: reporter, store: store, clock: clock}
}

// Run records occupancy immediately and then once per configured interval
// until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) {
	if !r.cfg.Enabled {
		log.Println("Occupancy recorder is disabled. Not starting.")
		return
	}
	log.Println("Starting occupancy recorder...")

	r.record(ctx)

	timer := time.NewTimer(r.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Occupancy recorder shutting down.")
			return
		case <-timer.C:
			r.record(ctx)
			timer.Reset(r.cfg.Interval)
		}
	}
}

func (r *Recorder) record(ctx context.Context) {
	if n, err := r.RecordOnce(ctx); err != nil {
		log.Printf("Error recording occupancy: %v", err)
	} else {
		log.Printf("Recorded occupancy for %d resources", n)
	}
}

// RecordOnce stores today's occupancy and returns the number of rows written.
func (r *Recorder) RecordOnce(ctx context.Context) (int, error) {
	now := r.clock.Now()
	day := allocation.Today(r.clock)

	report, err := r.reporter.OccupancyReport(ctx, day)
	if err != nil {
		return 0, err
	}

	snapshots := make([]model.OccupancySnapshot, 0, len(report))
	for _, o := range report {
		snapshots = append(snapshots, model.OccupancySnapshot{
			ResourceKind: string(o.Kind),
			ResourceID:   o.ID,
			Day:          datatypes.Date(day),
			Capacity:     o.Capacity,
			Occupied:     o.Occupied,
			Available:    o.Available,
			Rate:         o.Rate,
			RecordedAt:   now.UTC(),
		})
	}
	if err := r.store.SaveOccupancySnapshots(ctx, snapshots); err != nil {
		return 0, err
	}
	return len(snapshots), nil
}
