package occupancy

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hostel-allocation-backend/config"
	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/booking"
	"hostel-allocation-backend/internal/db"
	"hostel-allocation-backend/internal/model"
	"hostel-allocation-backend/internal/store"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

func TestRecorder_RecordOnceUpsertsPerDay(t *testing.T) {
	ctx := context.Background()
	gormDB := newTestDB(t)
	s := store.NewGormStore(gormDB)

	morning := time.Date(2025, 10, 16, 8, 0, 0, 0, time.UTC)
	svc := booking.NewService(s, allocation.FixedClock(morning), nil, 0)

	dorm, err := svc.CreateRoom(ctx, booking.CreateRoomInput{Name: "Dorm", Mode: model.RoomModeDorm, Beds: []string{"A1", "A2"}})
	require.NoError(t, err)
	guest, err := svc.CreateGuest(ctx, booking.CreateGuestInput{Name: "Ana"})
	require.NoError(t, err)
	_, err = svc.CreateBooking(ctx, booking.CreateBookingInput{
		GuestID:  guest.ID,
		BedID:    dorm.Beds[0].ID,
		CheckIn:  time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, 10, 18, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	cfg := &config.RecorderConfig{Enabled: true, Interval: time.Hour}
	recorder := NewRecorder(cfg, svc, s, allocation.FixedClock(morning))

	n, err := recorder.RecordOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// A second run on the same day replaces the rows.
	recorder.clock = allocation.FixedClock(morning.Add(4 * time.Hour))
	_, err = recorder.RecordOnce(ctx)
	require.NoError(t, err)

	var rows []model.OccupancySnapshot
	require.NoError(t, gormDB.Order("resource_kind DESC, resource_id").Find(&rows).Error)
	require.Len(t, rows, 3)

	byID := map[string]model.OccupancySnapshot{}
	for _, row := range rows {
		byID[row.ResourceID] = row
		assert.True(t, morning.Add(4*time.Hour).Equal(row.RecordedAt))
	}
	assert.Equal(t, 2, byID[dorm.ID].Capacity)
	assert.Equal(t, 1, byID[dorm.ID].Occupied)
	assert.Equal(t, 50.0, byID[dorm.ID].Rate)
	assert.Equal(t, 1, byID[dorm.Beds[0].ID].Occupied)
	assert.Equal(t, 0, byID[dorm.Beds[1].ID].Occupied)
}

type failingReporter struct{}

func (failingReporter) OccupancyReport(context.Context, time.Time) ([]booking.ResourceOccupancy, error) {
	return nil, errors.New("database is down")
}

type countingStore struct{ calls int }

func (c *countingStore) SaveOccupancySnapshots(context.Context, []model.OccupancySnapshot) error {
	c.calls++
	return nil
}

func TestRecorder_ReportErrorSkipsSave(t *testing.T) {
	saver := &countingStore{}
	recorder := NewRecorder(&config.RecorderConfig{Enabled: true, Interval: time.Hour}, failingReporter{}, saver, allocation.FixedClock(time.Now()))

	_, err := recorder.RecordOnce(context.Background())
	assert.Error(t, err)
	assert.Zero(t, saver.calls)
}

type staticReporter struct{ n atomic.Int32 }

func (r *staticReporter) OccupancyReport(_ context.Context, day time.Time) ([]booking.ResourceOccupancy, error) {
	r.n.Add(1)
	return []booking.ResourceOccupancy{{Kind: allocation.KindBed, ID: "bed-1", Day: day}}, nil
}

func (r *staticReporter) calls() int { return int(r.n.Load()) }

func TestRecorder_RunStopsWithContext(t *testing.T) {
	saver := &countingStore{}
	reporter := &staticReporter{}
	recorder := NewRecorder(&config.RecorderConfig{Enabled: true, Interval: time.Hour}, reporter, saver, allocation.FixedClock(time.Now()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		recorder.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return reporter.calls() > 0 }, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recorder did not stop")
	}
}

func TestRecorder_DisabledReturnsImmediately(t *testing.T) {
	recorder := NewRecorder(&config.RecorderConfig{Enabled: false}, failingReporter{}, &countingStore{}, allocation.FixedClock(time.Now()))
	recorder.Run(context.Background())
}
