package escrow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stayhubapp/stayhub-backend/pkg/db/models"
	"github.com/stayhubapp/stayhub-backend/pkg/enums"
)

func setupBookingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	bookings := `
CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  client_id TEXT NOT NULL,
  provider_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  hold_transaction_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(bookings).Error)
	return db
}

func TestBookingRepoFindAndUpdate(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	booking := &models.Booking{
		ID:         uuid.New(),
		ClientID:   uuid.New(),
		ProviderID: uuid.New(),
		Amount:     decimal.NewFromInt(200),
		Status:     enums.BookingStatusPending,
	}
	require.NoError(t, db.Create(booking).Error)

	found, err := repo.FindBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ClientID, found.ClientID)
	assert.True(t, found.Amount.Equal(decimal.NewFromInt(200)))
	assert.Nil(t, found.HoldTransactionID)

	holdID := uuid.New()
	require.NoError(t, repo.UpdateBooking(ctx, booking.ID, map[string]any{
		"hold_transaction_id": holdID,
		"status":              enums.BookingStatusConfirmed,
	}))

	found, err = repo.FindBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusConfirmed, found.Status)
	require.NotNil(t, found.HoldTransactionID)
	assert.Equal(t, holdID, *found.HoldTransactionID)
}

func TestBookingRepoMissingRows(t *testing.T) {
	db := setupBookingTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.FindBooking(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = repo.UpdateBooking(ctx, uuid.New(), map[string]any{"status": enums.BookingStatusCanceled})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
