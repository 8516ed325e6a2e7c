package repository

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/practice-app/apperror"
	"github.com/yeremiapane/practice-app/database"
	"github.com/yeremiapane/practice-app/models"
	"github.com/yeremiapane/practice-app/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.MigratePractice(db))
	require.NoError(t, database.MigrateDocuments(db))
	return db
}

func newPlacement(t *testing.T, db *gorm.DB) *models.Placement {
	t.Helper()
	require.NoError(t, db.Create(&models.Practice{ID: 1, Title: "Data Engineering", CompanyID: 30}).Error)
	sup := uint(31)
	p := &models.Placement{
		StudentID:           10,
		PracticeID:          1,
		CompanySupervisorID: &sup,
		AssignmentStatus:    models.AssignmentPending,
		StartDate:           time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:             time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC),
		ExpectedHours:       100,
		Status:              models.PlacementActive,
	}
	require.NoError(t, NewPlacementRepository(db).Create(context.Background(), p))
	return p
}

func TestPlacementCompareAndSetStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPlacementRepository(db)
	p := newPlacement(t, db)
	ctx := context.Background()

	won, err := repo.CompareAndSetStatus(ctx, p.ID, models.PlacementActive, models.PlacementCompleted, time.Now())
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.CompareAndSetStatus(ctx, p.ID, models.PlacementActive, models.PlacementCompleted, time.Now())
	require.NoError(t, err)
	assert.False(t, won, "the second writer sees a stale from-status")

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlacementCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.Practice)
	assert.Equal(t, "Data Engineering", got.Practice.Title)

	_, err = repo.FindByID(ctx, 999)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestPlacementVisibleIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPlacementRepository(db)
	p := newPlacement(t, db)
	ctx := context.Background()

	owner := uint(30)
	ids, err := repo.VisibleIDs(ctx, PlacementScope{CompanyID: &owner})
	require.NoError(t, err)
	assert.Equal(t, []uint{p.ID}, ids, "the practice owner sees the placement")

	stranger := uint(99)
	ids, err = repo.VisibleIDs(ctx, PlacementScope{CompanyID: &stranger})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestHourLogPromotionNeedsBothSlots(t *testing.T) {
	db := setupTestDB(t)
	p := newPlacement(t, db)
	repo := NewHourLogRepository(db)
	ctx := context.Background()

	log := &models.HourLog{PlacementID: p.ID, StudentID: 10, Date: time.Now(), Hours: 6, Description: "ETL", Status: models.HourLogPending}
	require.NoError(t, repo.Create(ctx, log))

	now := time.Now()
	prof := uint(20)
	ok, err := repo.StampApproval(ctx, log.ID, models.SlotTeacher, models.Approval{By: &prof, At: &now})
	require.NoError(t, err)
	assert.True(t, ok)

	promoted, err := repo.PromoteIfComplete(ctx, log.ID)
	require.NoError(t, err)
	assert.False(t, promoted)

	sup := uint(31)
	_, err = repo.StampApproval(ctx, log.ID, models.SlotCompany, models.Approval{By: &sup, At: &now})
	require.NoError(t, err)
	promoted, err = repo.PromoteIfComplete(ctx, log.ID)
	require.NoError(t, err)
	assert.True(t, promoted)

	promoted, err = repo.PromoteIfComplete(ctx, log.ID)
	require.NoError(t, err)
	assert.False(t, promoted, "promotion happens once")

	sum, err := repo.SumHours(ctx, p.ID, []string{models.HourLogApproved}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 6, sum, 0.001)

	sum, err = repo.SumHours(ctx, p.ID, []string{models.HourLogApproved}, log.ID)
	require.NoError(t, err)
	assert.Zero(t, sum)

	_, err = repo.StampApproval(ctx, log.ID, "dean", models.Approval{By: &sup, At: &now})
	assert.Error(t, err)
}

func TestCertificateOneLivePerPlacement(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCertificateRepository(db)
	ctx := context.Background()

	first := &models.Certificate{PlacementID: 5, StudentID: 10, CertificateNumber: "CERT/A", Status: models.CertificatePending}
	require.NoError(t, repo.Create(ctx, first))

	dup := &models.Certificate{PlacementID: 5, StudentID: 10, CertificateNumber: "CERT/B", Status: models.CertificatePending}
	err := repo.Create(ctx, dup)
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	ok, err := repo.Transition(ctx, first.ID, []string{models.CertificatePending}, models.CertificateRejected, map[string]interface{}{
		"rejection_reason": "wrong hours",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	again := &models.Certificate{PlacementID: 5, StudentID: 10, CertificateNumber: "CERT/C", Status: models.CertificatePending}
	require.NoError(t, repo.Create(ctx, again), "a rejected certificate frees the placement")

	live, err := repo.FindLiveByPlacement(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, again.ID, live.ID)
}

func TestCertificateListIncomplete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCertificateRepository(db)
	ctx := context.Background()
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC)

	complete := &models.Certificate{
		PlacementID: 1, StudentID: 10, CertificateNumber: "CERT/1", Status: models.CertificatePending,
		StudentName: "Siti Rahayu", PracticeName: "Data Engineering", TotalHours: 100, StartDate: &start, EndDate: &end,
	}
	placeholder := &models.Certificate{
		PlacementID: 2, StudentID: 11, CertificateNumber: "CERT/2", Status: models.CertificatePending,
		StudentName: models.PlaceholderStudentName(11), PracticeName: "Data Engineering", TotalHours: 100, StartDate: &start, EndDate: &end,
	}
	require.NoError(t, repo.Create(ctx, complete))
	require.NoError(t, repo.Create(ctx, placeholder))

	certs, err := repo.ListIncomplete(ctx, 10)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, placeholder.ID, certs[0].ID)
}
