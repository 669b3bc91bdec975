package repository

import (
	"context"
	"testing"
	"time"

	"fixpoint/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSQLiteDB(t *testing.T) *gorm.DB {
	// A named in-memory database keeps the schema visible across pooled
	// connections for the duration of the test.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ServiceRequest{},
		&models.StatusUpdate{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
		Role:     models.RoleUser,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestRequestRepository_CreateAndGet(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "owner")

	registered := &models.ServiceRequest{
		Kind:         models.RequestKindRegistered,
		UserID:       &user.ID,
		DeviceType:   "Laptop",
		Brand:        "Lenovo",
		Model:        "T14",
		Problem:      "Will not boot",
		TrackingCode: "SRTESTREG001",
	}
	require.NoError(t, repo.Create(ctx, registered))
	assert.Equal(t, models.RequestStatusPending, mustGet(t, repo, ctx, registered.ID).Status)

	anonymous := &models.ServiceRequest{
		Kind:           models.RequestKindAnonymous,
		ContactName:    "Walk In",
		ContactEmail:   "walkin@example.com",
		ContactPhone:   "555-0100",
		ContactAddress: "1 Main St",
		DeviceType:     "Phone",
		Brand:          "Pixel",
		Model:          "8",
		Problem:        "Cracked screen",
		TrackingCode:   "SRTESTANON01",
	}
	require.NoError(t, repo.Create(ctx, anonymous))

	t.Run("GetByID preloads owner", func(t *testing.T) {
		got, err := repo.GetByID(ctx, registered.ID)
		require.NoError(t, err)
		require.NotNil(t, got.User)
		assert.Equal(t, "owner", got.User.Username)
	})

	t.Run("GetByTrackingCode", func(t *testing.T) {
		got, err := repo.GetByTrackingCode(ctx, "SRTESTANON01")
		require.NoError(t, err)
		assert.Equal(t, models.RequestKindAnonymous, got.Kind)
		assert.Nil(t, got.UserID)
	})

	t.Run("GetByTrackingCode unknown code", func(t *testing.T) {
		_, err := repo.GetByTrackingCode(ctx, "SRNOPE")
		require.Error(t, err)
		appErr, ok := err.(*models.AppError)
		require.True(t, ok)
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})

	t.Run("Duplicate tracking code is a conflict", func(t *testing.T) {
		dup := &models.ServiceRequest{
			Kind:         models.RequestKindAnonymous,
			ContactName:  "Other",
			ContactEmail: "other@example.com",
			DeviceType:   "Phone",
			Brand:        "Pixel",
			Model:        "8",
			Problem:      "Battery",
			TrackingCode: "SRTESTANON01",
		}
		err := repo.Create(ctx, dup)
		require.Error(t, err)
		appErr, ok := err.(*models.AppError)
		require.True(t, ok)
		assert.Equal(t, "CONFLICT", appErr.Code)
	})
}

func TestRequestRepository_UpdateStatus(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	req := &models.ServiceRequest{
		Kind:         models.RequestKindAnonymous,
		ContactName:  "Walk In",
		ContactEmail: "walkin@example.com",
		DeviceType:   "Tablet",
		Brand:        "Samsung",
		Model:        "S9",
		Problem:      "No charge",
		TrackingCode: "SRTESTUPD001",
	}
	require.NoError(t, repo.Create(ctx, req))

	updated, audit, err := repo.UpdateStatus(ctx, req.ID, models.RequestStatusApproved, "parts ordered")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, updated.Status)
	require.NotNil(t, audit)
	assert.Equal(t, req.ID, audit.ServiceRequestID)
	assert.Equal(t, "parts ordered", audit.Note)

	// Audit entries accumulate in order, one per change.
	_, _, err = repo.UpdateStatus(ctx, req.ID, models.RequestStatusInProgress, "")
	require.NoError(t, err)

	got, err := repo.GetByTrackingCode(ctx, "SRTESTUPD001")
	require.NoError(t, err)
	require.Len(t, got.StatusUpdates, 2)
	assert.Equal(t, models.RequestStatusApproved, got.StatusUpdates[0].Status)
	assert.Equal(t, models.RequestStatusInProgress, got.StatusUpdates[1].Status)

	t.Run("Unknown request", func(t *testing.T) {
		_, _, err := repo.UpdateStatus(ctx, 9999, models.RequestStatusApproved, "")
		require.Error(t, err)
		appErr, ok := err.(*models.AppError)
		require.True(t, ok)
		assert.Equal(t, "NOT_FOUND", appErr.Code)
	})
}

func TestRequestRepository_List(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "lister")
	other := seedUser(t, db, "other")

	var firstID uint
	codes := []string{"SRLIST01", "SRLIST02", "SRLIST03"}
	for i, code := range codes {
		userID := &owner.ID
		if i == 2 {
			userID = &other.ID
		}
		req := &models.ServiceRequest{
			Kind:         models.RequestKindRegistered,
			UserID:       userID,
			DeviceType:   "Laptop",
			Brand:        "Dell",
			Model:        "XPS",
			Problem:      "Overheating",
			TrackingCode: code,
		}
		require.NoError(t, repo.Create(ctx, req))
		if i == 0 {
			firstID = req.ID
		}
	}

	_, _, err := repo.UpdateStatus(ctx, firstID, models.RequestStatusApproved, "")
	require.NoError(t, err)

	t.Run("Filter by owner", func(t *testing.T) {
		reqs, total, err := repo.List(ctx, RequestFilter{UserID: &owner.ID, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, reqs, 2)
	})

	t.Run("Filter by status", func(t *testing.T) {
		status := models.RequestStatusApproved
		reqs, total, err := repo.List(ctx, RequestFilter{Status: &status, Limit: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, reqs, 1)
		assert.Equal(t, "SRLIST01", reqs[0].TrackingCode)
	})

	t.Run("Pagination keeps exact total", func(t *testing.T) {
		reqs, total, err := repo.List(ctx, RequestFilter{Limit: 2, Offset: 0})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Len(t, reqs, 2)

		rest, total, err := repo.List(ctx, RequestFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Len(t, rest, 1)
	})
}

func TestRequestRepository_CountByStatus(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	for i, code := range []string{"SRCNT01", "SRCNT02", "SRCNT03"} {
		req := &models.ServiceRequest{
			Kind:         models.RequestKindAnonymous,
			ContactName:  "C",
			ContactEmail: "c@example.com",
			DeviceType:   "Phone",
			Brand:        "B",
			Model:        "M",
			Problem:      "P",
			TrackingCode: code,
		}
		require.NoError(t, repo.Create(ctx, req))
		if i == 0 {
			_, _, err := repo.UpdateStatus(ctx, req.ID, models.RequestStatusRejected, "")
			require.NoError(t, err)
		}
	}

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[models.RequestStatusPending])
	assert.EqualValues(t, 1, counts[models.RequestStatusRejected])
}

func TestRequestRepository_ListStalePendingIDs(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	stale := &models.ServiceRequest{
		Kind:         models.RequestKindAnonymous,
		ContactName:  "Old",
		ContactEmail: "old@example.com",
		DeviceType:   "Phone",
		Brand:        "B",
		Model:        "M",
		Problem:      "P",
		TrackingCode: "SRSTALE01",
	}
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, db.Model(stale).
		Update("created_at", time.Now().Add(-120*24*time.Hour)).Error)

	fresh := &models.ServiceRequest{
		Kind:         models.RequestKindAnonymous,
		ContactName:  "New",
		ContactEmail: "new@example.com",
		DeviceType:   "Phone",
		Brand:        "B",
		Model:        "M",
		Problem:      "P",
		TrackingCode: "SRSTALE02",
	}
	require.NoError(t, repo.Create(ctx, fresh))

	ids, err := repo.ListStalePendingIDs(ctx, time.Now().Add(-90*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, stale.ID, ids[0])
}

func mustGet(t *testing.T, repo RequestRepository, ctx context.Context, id uint) *models.ServiceRequest {
	t.Helper()
	req, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	return req
}
