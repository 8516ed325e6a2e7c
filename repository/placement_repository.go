package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeremiapane/practice-app/apperror"
	"github.com/yeremiapane/practice-app/models"
	"gorm.io/gorm"
)

type PlacementRepository struct {
	DB *gorm.DB
}

func NewPlacementRepository(db *gorm.DB) *PlacementRepository {
	return &PlacementRepository{DB: db}
}

// PlacementScope narrows placement queries to what one actor may see. A nil
// field is not applied; an empty scope matches every placement.
type PlacementScope struct {
	StudentID   *uint
	ProfessorID *uint
	CompanyID   *uint
}

func (r *PlacementRepository) Create(ctx context.Context, placement *models.Placement) error {
	if err := r.DB.WithContext(ctx).Create(placement).Error; err != nil {
		return fmt.Errorf("create placement: %w", err)
	}
	return nil
}

func (r *PlacementRepository) FindByID(ctx context.Context, id uint) (*models.Placement, error) {
	var placement models.Placement
	err := r.DB.WithContext(ctx).Preload("Practice").First(&placement, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("placement %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find placement %d: %w", id, err)
	}
	return &placement, nil
}

// VisibleIDs returns the ids of the placements inside scope.
func (r *PlacementRepository) VisibleIDs(ctx context.Context, scope PlacementScope) ([]uint, error) {
	query := r.DB.WithContext(ctx).Model(&models.Placement{})
	if scope.StudentID != nil {
		query = query.Where("student_id = ?", *scope.StudentID)
	}
	if scope.ProfessorID != nil {
		query = query.Where("professor_id = ?", *scope.ProfessorID)
	}
	if scope.CompanyID != nil {
		owned := r.DB.Model(&models.Practice{}).Select("id").Where("company_id = ?", *scope.CompanyID)
		query = query.Where("company_supervisor_id = ? OR practice_id IN (?)", *scope.CompanyID, owned)
	}

	var ids []uint
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list visible placements: %w", err)
	}
	return ids, nil
}

// OpenIDs lists placements whose status can still change.
func (r *PlacementRepository) OpenIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&models.Placement{}).
		Where("status IN ?", []string{models.PlacementActive, models.PlacementOnHold}).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list open placements: %w", err)
	}
	return ids, nil
}

// CompareAndSetStatus moves the placement from one status to another. It
// reports false when the stored status was no longer from.
func (r *PlacementRepository) CompareAndSetStatus(ctx context.Context, id uint, from, to string, at time.Time) (bool, error) {
	fields := map[string]interface{}{"status": to, "updated_at": at}
	if to == models.PlacementCompleted {
		fields["completed_at"] = at
	}
	res := r.DB.WithContext(ctx).Model(&models.Placement{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("update placement %d status: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// CompareAndSetAssignment updates the professor assignment only while the
// stored assignment status is one of from. When expectProfessor is set the
// stored professor must match too.
func (r *PlacementRepository) CompareAndSetAssignment(ctx context.Context, id uint, from []string, expectProfessor *uint, to string, professorID *uint) (bool, error) {
	query := r.DB.WithContext(ctx).Model(&models.Placement{}).
		Where("id = ? AND assignment_status IN ?", id, from)
	if expectProfessor != nil {
		query = query.Where("professor_id = ?", *expectProfessor)
	}

	res := query.Updates(map[string]interface{}{
		"assignment_status": to,
		"professor_id":      professorID,
		"updated_at":        time.Now(),
	})
	if res.Error != nil {
		return false, fmt.Errorf("update placement %d assignment: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// UpdateFields writes plain column updates. Status and assignment changes go
// through the compare-and-set methods instead.
func (r *PlacementRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now()
	if err := r.DB.WithContext(ctx).Model(&models.Placement{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("update placement %d: %w", id, err)
	}
	return nil
}

func (r *PlacementRepository) SetCompletedHours(ctx context.Context, id uint, hours float64) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"completed_hours": hours})
}
