package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/practice-app/contracts"
	"github.com/yeremiapane/practice-app/database"
	"github.com/yeremiapane/practice-app/models"
	"github.com/yeremiapane/practice-app/repository"
	"github.com/yeremiapane/practice-app/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

const (
	studentID      uint = 10
	otherStudentID uint = 11
	professorID    uint = 20
	otherProfID    uint = 21
	companyOwnerID uint = 30
	supervisorID   uint = 31
	coordinatorID  uint = 40
	adminID        uint = 50
	practiceID     uint = 1
)

var (
	student      = Actor{ID: studentID, Role: models.RoleStudent}
	otherStudent = Actor{ID: otherStudentID, Role: models.RoleStudent}
	professor    = Actor{ID: professorID, Role: models.RoleProfessor}
	otherProf    = Actor{ID: otherProfID, Role: models.RoleProfessor}
	companyOwner = Actor{ID: companyOwnerID, Role: models.RoleCompany}
	supervisor   = Actor{ID: supervisorID, Role: models.RoleCompany}
	coordinator  = Actor{ID: coordinatorID, Role: models.RoleCoordinator}
	admin        = Actor{ID: adminID, Role: models.RoleAdmin}
)

// setupTestDB opens a private in-memory sqlite database for one test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
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

func seedDirectory(t *testing.T, db *gorm.DB) {
	t.Helper()
	users := []models.User{
		{ID: studentID, Name: "Siti Rahayu", Email: "siti@example.com", Role: models.RoleStudent},
		{ID: otherStudentID, Name: "Andi Wijaya", Email: "andi@example.com", Role: models.RoleStudent},
		{ID: professorID, Name: "Dr. Budi Santoso", Email: "budi@example.com", Role: models.RoleProfessor},
		{ID: otherProfID, Name: "Dr. Rina Kusuma", Email: "rina@example.com", Role: models.RoleProfessor},
		{ID: companyOwnerID, Name: "PT Nusantara Digital", Email: "hr@nusantara.example.com", Role: models.RoleCompany},
		{ID: supervisorID, Name: "Agus Pratama", Email: "agus@nusantara.example.com", Role: models.RoleCompany},
		{ID: coordinatorID, Name: "Coordinator", Email: "coord@example.com", Role: models.RoleCoordinator},
		{ID: adminID, Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin},
	}
	require.NoError(t, db.Create(&users).Error)
	require.NoError(t, db.Create(&models.Practice{
		ID:        practiceID,
		Title:     "Backend Engineering Internship",
		CompanyID: companyOwnerID,
	}).Error)
}

// seedPlacement creates an ACTIVE placement of studentID supervised by
// supervisorID. A nil professor leaves the assignment PENDING.
func seedPlacement(t *testing.T, db *gorm.DB, expected int, prof *uint) *models.Placement {
	t.Helper()
	sup := supervisorID
	placement := &models.Placement{
		StudentID:           studentID,
		PracticeID:          practiceID,
		CompanySupervisorID: &sup,
		ProfessorID:         prof,
		AssignmentStatus:    models.AssignmentPending,
		StartDate:           time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:             time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC),
		ExpectedHours:       expected,
		Status:              models.PlacementActive,
	}
	if prof != nil {
		placement.AssignmentStatus = models.AssignmentAccepted
	}
	require.NoError(t, db.Create(placement).Error)
	return placement
}

func uintPtr(v uint) *uint { return &v }

type fakeRequester struct {
	mu    sync.Mutex
	calls []contracts.GenerateCertificateRequest
	err   error
}

func (f *fakeRequester) RequestCertificate(ctx context.Context, req contracts.GenerateCertificateRequest) (*contracts.CertificateReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &contracts.CertificateReceipt{
		ID:                uint(len(f.calls)),
		CertificateNumber: fmt.Sprintf("CERT/TEST/%06d", req.PlacementID),
		Status:            models.CertificatePending,
	}, nil
}

func (f *fakeRequester) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var errNetwork = errors.New("dial tcp 127.0.0.1:8081: connect: connection refused")

type practiceFixture struct {
	db         *gorm.DB
	placements *repository.PlacementRepository
	logs       *repository.HourLogRepository
	requester  *fakeRequester
	trigger    *CompletionTrigger
	lifecycle  *PlacementLifecycle
	ledger     *HourLedger
}

func newPracticeFixture(t *testing.T, autoComplete bool) *practiceFixture {
	t.Helper()
	db := setupTestDB(t)
	seedDirectory(t, db)

	placements := repository.NewPlacementRepository(db)
	logs := repository.NewHourLogRepository(db)
	directory := repository.NewUserDirectory(db)
	catalog := repository.NewPracticeCatalog(db)
	requester := &fakeRequester{}
	trigger := NewCompletionTrigger(requester, directory, catalog)
	lifecycle := NewPlacementLifecycle(placements, logs, directory, catalog, trigger, autoComplete)

	return &practiceFixture{
		db:         db,
		placements: placements,
		logs:       logs,
		requester:  requester,
		trigger:    trigger,
		lifecycle:  lifecycle,
		ledger:     NewHourLedger(logs, placements, lifecycle),
	}
}

func (f *practiceFixture) submit(t *testing.T, placementID uint, hours float64) *models.HourLog {
	t.Helper()
	log, err := f.ledger.Submit(context.Background(), student, SubmitHourLogInput{
		PlacementID: placementID,
		Date:        time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		Hours:       hours,
		Description: "Implemented the attendance export endpoint",
		Activities:  []string{"coding", "code review"},
	})
	require.NoError(t, err)
	return log
}

func (f *practiceFixture) reload(t *testing.T, placementID uint) *models.Placement {
	t.Helper()
	placement, err := f.placements.FindByID(context.Background(), placementID)
	require.NoError(t, err)
	return placement
}

// requesterFunc adapts a function to CertificateRequester.
type requesterFunc func(ctx context.Context) error

func (fn requesterFunc) RequestCertificate(ctx context.Context, req contracts.GenerateCertificateRequest) (*contracts.CertificateReceipt, error) {
	if err := fn(ctx); err != nil {
		return nil, err
	}
	return &contracts.CertificateReceipt{ID: 1, Status: models.CertificatePending}, nil
}
