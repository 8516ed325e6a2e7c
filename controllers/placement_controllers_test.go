package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/practice-app/apperror"
	"github.com/yeremiapane/practice-app/contracts"
	"github.com/yeremiapane/practice-app/controllers"
	"github.com/yeremiapane/practice-app/middlewares"
	"github.com/yeremiapane/practice-app/models"
	"github.com/yeremiapane/practice-app/repository"
	"github.com/yeremiapane/practice-app/services"
	"gorm.io/gorm"
)

func setupPlacementRouter(db *gorm.DB, requester *stubRequester) *gin.Engine {
	placements := repository.NewPlacementRepository(db)
	logs := repository.NewHourLogRepository(db)
	directory := repository.NewUserDirectory(db)
	catalog := repository.NewPracticeCatalog(db)
	trigger := services.NewCompletionTrigger(requester, directory, catalog)
	ctrl := controllers.NewPlacementController(
		services.NewPlacementLifecycle(placements, logs, directory, catalog, trigger, false))

	r := gin.New()
	auth := r.Group("/", middlewares.AuthMiddleware())
	auth.POST("/placements", ctrl.CreatePlacement)
	auth.GET("/placements/:id", ctrl.GetPlacement)
	auth.PATCH("/placements/:id", ctrl.UpdatePlacement)
	auth.PATCH("/placements/:id/assign-professor", ctrl.AssignProfessor)
	auth.PATCH("/placements/:id/assignment", ctrl.RespondAssignment)
	auth.POST("/placements/:id/request-certificate", ctrl.RequestCertificate)
	auth.GET("/internal/placements/:id/summary", ctrl.GetSummary)
	return r
}

func TestCreatePlacement(t *testing.T) {
	db := setupTestDB(t)
	r := setupPlacementRouter(db, &stubRequester{})
	body := map[string]interface{}{
		"studentId":     10,
		"practiceId":    1,
		"startDate":     "2024-02-01",
		"endDate":       "2024-07-31",
		"expectedHours": 240,
	}

	w, res := perform(t, r, http.MethodPost, "/placements", token(t, 40, models.RoleCoordinator), body)
	require.Equal(t, http.StatusCreated, w.Code, res.Message)
	var placement models.Placement
	require.NoError(t, json.Unmarshal(res.Data, &placement))
	assert.Equal(t, models.PlacementActive, placement.Status)
	assert.Equal(t, models.AssignmentPending, placement.AssignmentStatus)

	w, _ = perform(t, r, http.MethodPost, "/placements", token(t, 10, models.RoleStudent), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	body["endDate"] = "2024-01-01"
	w, _ = perform(t, r, http.MethodPost, "/placements", token(t, 40, models.RoleCoordinator), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdatePlacementStatus(t *testing.T) {
	db := setupTestDB(t)
	requester := &stubRequester{}
	r := setupPlacementRouter(db, requester)
	placement := seedPlacement(t, db, 120)
	path := fmt.Sprintf("/placements/%d", placement.ID)
	coordinatorTok := token(t, 40, models.RoleCoordinator)

	w, _ := perform(t, r, http.MethodPatch, path, token(t, 10, models.RoleStudent), map[string]interface{}{"status": "COMPLETED"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = perform(t, r, http.MethodPatch, path, coordinatorTok, map[string]interface{}{"status": "FINISHED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, res := perform(t, r, http.MethodPatch, path, coordinatorTok, map[string]interface{}{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, res.Message)
	var updated models.Placement
	require.NoError(t, json.Unmarshal(res.Data, &updated))
	assert.Equal(t, models.PlacementCompleted, updated.Status)
	assert.Equal(t, 1, requester.calls)

	w, _ = perform(t, r, http.MethodPatch, path, coordinatorTok, map[string]interface{}{"status": "ACTIVE"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, res = perform(t, r, http.MethodPatch, path, coordinatorTok, map[string]interface{}{"status": "COMPLETED"})
	require.Equal(t, http.StatusOK, w.Code, res.Message)
	assert.Equal(t, 1, requester.calls, "repeating COMPLETED does not fire again")
}

func TestCompletionFailureStillCompletes(t *testing.T) {
	db := setupTestDB(t)
	requester := &stubRequester{err: fmt.Errorf("connection refused")}
	r := setupPlacementRouter(db, requester)
	placement := seedPlacement(t, db, 120)

	w, res := perform(t, r, http.MethodPatch, fmt.Sprintf("/placements/%d", placement.ID), token(t, 40, models.RoleCoordinator),
		map[string]interface{}{"status": "COMPLETED"})
	require.Equal(t, http.StatusOK, w.Code, res.Message)
	assert.True(t, res.Status)

	w, _ = perform(t, r, http.MethodPost, fmt.Sprintf("/placements/%d/request-certificate", placement.ID), token(t, 10, models.RoleStudent), nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	requester.err = nil
	w, res = perform(t, r, http.MethodPost, fmt.Sprintf("/placements/%d/request-certificate", placement.ID), token(t, 10, models.RoleStudent), nil)
	require.Equal(t, http.StatusAccepted, w.Code, res.Message)
	var receipt contracts.CertificateReceipt
	require.NoError(t, json.Unmarshal(res.Data, &receipt))
	assert.Equal(t, models.CertificatePending, receipt.Status)
}

func TestRepeatedCertificateRequestIsConflict(t *testing.T) {
	db := setupTestDB(t)
	requester := &stubRequester{}
	r := setupPlacementRouter(db, requester)
	placement := seedPlacement(t, db, 120)

	w, res := perform(t, r, http.MethodPatch, fmt.Sprintf("/placements/%d", placement.ID), token(t, 40, models.RoleCoordinator),
		map[string]interface{}{"status": "COMPLETED"})
	require.Equal(t, http.StatusOK, w.Code, res.Message)
	require.Equal(t, 1, requester.calls)

	requester.err = apperror.Conflict("document service: placement %d already has an active certificate", placement.ID)
	w, res = perform(t, r, http.MethodPost, fmt.Sprintf("/placements/%d/request-certificate", placement.ID), token(t, 10, models.RoleStudent), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, res.Message, "already has an active certificate")
	assert.Equal(t, 2, requester.calls)
}

func TestAssignmentNegotiation(t *testing.T) {
	db := setupTestDB(t)
	r := setupPlacementRouter(db, &stubRequester{})
	sup := uint(31)
	placement := &models.Placement{
		StudentID:           10,
		PracticeID:          1,
		CompanySupervisorID: &sup,
		AssignmentStatus:    models.AssignmentPending,
		StartDate:           time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:             time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC),
		ExpectedHours:       100,
		Status:              models.PlacementActive,
	}
	require.NoError(t, db.Create(placement).Error)

	w, res := perform(t, r, http.MethodPatch, fmt.Sprintf("/placements/%d/assign-professor", placement.ID), token(t, 31, models.RoleCompany),
		map[string]interface{}{"professorId": 20})
	require.Equal(t, http.StatusOK, w.Code, res.Message)

	w, _ = perform(t, r, http.MethodPatch, fmt.Sprintf("/placements/%d/assignment", placement.ID), token(t, 20, models.RoleProfessor),
		map[string]interface{}{"action": "shrug"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, res = perform(t, r, http.MethodPatch, fmt.Sprintf("/placements/%d/assignment", placement.ID), token(t, 20, models.RoleProfessor),
		map[string]interface{}{"action": "decline"})
	require.Equal(t, http.StatusOK, w.Code, res.Message)
	var updated models.Placement
	require.NoError(t, json.Unmarshal(res.Data, &updated))
	assert.Equal(t, models.AssignmentDeclined, updated.AssignmentStatus)
	assert.Nil(t, updated.ProfessorID)

	// professorId on the generic update goes through the invitation flow.
	w, res = perform(t, r, http.MethodPatch, fmt.Sprintf("/placements/%d", placement.ID), token(t, 40, models.RoleCoordinator),
		map[string]interface{}{"professorId": 20})
	require.Equal(t, http.StatusOK, w.Code, res.Message)
	require.NoError(t, json.Unmarshal(res.Data, &updated))
	assert.Equal(t, models.AssignmentInvited, updated.AssignmentStatus)
}

func TestRejectedUpdateLeavesAssignmentUntouched(t *testing.T) {
	db := setupTestDB(t)
	r := setupPlacementRouter(db, &stubRequester{})
	placement := &models.Placement{
		StudentID:        10,
		PracticeID:       1,
		AssignmentStatus: models.AssignmentPending,
		StartDate:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC),
		ExpectedHours:    100,
		Status:           models.PlacementActive,
	}
	require.NoError(t, db.Create(placement).Error)
	path := fmt.Sprintf("/placements/%d", placement.ID)
	coordinatorTok := token(t, 40, models.RoleCoordinator)

	cases := []struct {
		name string
		body map[string]interface{}
		code int
	}{
		{"unknown status", map[string]interface{}{"professorId": 20, "status": "FINISHED"}, http.StatusBadRequest},
		{"end before start", map[string]interface{}{"professorId": 20, "endDate": "2024-01-01"}, http.StatusBadRequest},
		{"not a professor", map[string]interface{}{"professorId": 10, "expectedHours": 200}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := perform(t, r, http.MethodPatch, path, coordinatorTok, tc.body)
			assert.Equal(t, tc.code, w.Code)

			var stored models.Placement
			require.NoError(t, db.First(&stored, placement.ID).Error)
			assert.Equal(t, models.AssignmentPending, stored.AssignmentStatus)
			assert.Nil(t, stored.ProfessorID)
			assert.Equal(t, 100, stored.ExpectedHours)
			assert.Equal(t, models.PlacementActive, stored.Status)
		})
	}

	// Students cannot reach the invitation through the generic update either.
	w, _ := perform(t, r, http.MethodPatch, path, token(t, 10, models.RoleStudent), map[string]interface{}{"professorId": 20})
	assert.Equal(t, http.StatusForbidden, w.Code)
	var stored models.Placement
	require.NoError(t, db.First(&stored, placement.ID).Error)
	assert.Equal(t, models.AssignmentPending, stored.AssignmentStatus)
}

func TestPlacementSummaryAndVisibility(t *testing.T) {
	db := setupTestDB(t)
	r := setupPlacementRouter(db, &stubRequester{})
	placement := seedPlacement(t, db, 120)

	w, res := perform(t, r, http.MethodGet, fmt.Sprintf("/internal/placements/%d/summary", placement.ID), token(t, 1, models.RoleService), nil)
	require.Equal(t, http.StatusOK, w.Code, res.Message)
	var summary contracts.PlacementSummary
	require.NoError(t, json.Unmarshal(res.Data, &summary))
	assert.Equal(t, "Siti Rahayu", summary.StudentName)
	assert.Equal(t, "Dr. Budi Santoso", summary.ProfessorName)
	assert.Equal(t, "Backend Engineering Internship", summary.PracticeName)

	w, _ = perform(t, r, http.MethodGet, "/internal/placements/999/summary", token(t, 1, models.RoleService), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = perform(t, r, http.MethodGet, fmt.Sprintf("/placements/%d", placement.ID), token(t, 10, models.RoleStudent), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = perform(t, r, http.MethodGet, fmt.Sprintf("/placements/%d", placement.ID), token(t, 11, models.RoleStudent), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
