package seed

import (
	"testing"

	"fixpoint/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSeedDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ServiceRequest{},
		&models.StatusUpdate{},
		&models.BlogCategory{},
		&models.BlogPost{},
		&models.Service{},
		&models.ContactMessage{},
		&models.Setting{},
	))
	return db
}

func TestSeed_PopulatesAllTables(t *testing.T) {
	db := setupSeedDB(t)

	err := Seed(db, Options{NumUsers: 5, NumRequests: 12, SkipBcrypt: true, MaxDays: 30})
	require.NoError(t, err)

	var userCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.EqualValues(t, 6, userCount) // 5 customers + admin

	var admin models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	var requestCount int64
	require.NoError(t, db.Model(&models.ServiceRequest{}).Count(&requestCount).Error)
	assert.EqualValues(t, 12, requestCount)

	var serviceCount int64
	require.NoError(t, db.Model(&models.Service{}).Count(&serviceCount).Error)
	assert.EqualValues(t, len(catalogServices), serviceCount)

	var postCount int64
	require.NoError(t, db.Model(&models.BlogPost{}).Count(&postCount).Error)
	assert.EqualValues(t, len(blogTitles), postCount)

	var draftCount int64
	require.NoError(t, db.Model(&models.BlogPost{}).
		Where("published = ?", false).Count(&draftCount).Error)
	assert.EqualValues(t, 1, draftCount)
}

func TestSeed_RequestLifecyclesHaveAuditTrails(t *testing.T) {
	db := setupSeedDB(t)

	require.NoError(t, Seed(db, Options{NumUsers: 3, NumRequests: 12, SkipBcrypt: true}))

	var completed []models.ServiceRequest
	require.NoError(t, db.Where("status = ?", models.RequestStatusCompleted).
		Find(&completed).Error)
	require.NotEmpty(t, completed)

	// A completed request passed through APPROVED and IN_PROGRESS first.
	var updates []models.StatusUpdate
	require.NoError(t, db.Where("service_request_id = ?", completed[0].ID).
		Order("created_at ASC").Find(&updates).Error)
	require.Len(t, updates, 3)
	assert.Equal(t, models.RequestStatusApproved, updates[0].Status)
	assert.Equal(t, models.RequestStatusInProgress, updates[1].Status)
	assert.Equal(t, models.RequestStatusCompleted, updates[2].Status)

	var pendingAudits int64
	require.NoError(t, db.Model(&models.StatusUpdate{}).
		Joins("JOIN service_requests ON service_requests.id = status_updates.service_request_id").
		Where("service_requests.status = ?", models.RequestStatusPending).
		Count(&pendingAudits).Error)
	assert.EqualValues(t, 0, pendingAudits)
}

func TestSeed_CleanRemovesPreviousRun(t *testing.T) {
	db := setupSeedDB(t)

	require.NoError(t, Seed(db, Options{NumUsers: 2, NumRequests: 6, SkipBcrypt: true}))
	require.NoError(t, Seed(db, Options{NumUsers: 2, NumRequests: 6, SkipBcrypt: true, ShouldClean: true}))

	var userCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.EqualValues(t, 3, userCount)
}

func TestLifecyclePath(t *testing.T) {
	tests := []struct {
		name   string
		from   models.RequestStatus
		target models.RequestStatus
		want   []models.RequestStatus
		ok     bool
	}{
		{
			name:   "pending to approved",
			from:   models.RequestStatusPending,
			target: models.RequestStatusApproved,
			want:   []models.RequestStatus{models.RequestStatusApproved},
			ok:     true,
		},
		{
			name:   "pending to completed walks the chain",
			from:   models.RequestStatusPending,
			target: models.RequestStatusCompleted,
			want: []models.RequestStatus{
				models.RequestStatusApproved,
				models.RequestStatusInProgress,
				models.RequestStatusCompleted,
			},
			ok: true,
		},
		{
			name:   "approved to cancelled",
			from:   models.RequestStatusApproved,
			target: models.RequestStatusCancelled,
			want:   []models.RequestStatus{models.RequestStatusCancelled},
			ok:     true,
		},
		{
			name:   "terminal state has no outgoing path",
			from:   models.RequestStatusRejected,
			target: models.RequestStatusApproved,
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := lifecyclePath(tt.from, tt.target)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
