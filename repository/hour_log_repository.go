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

type HourLogRepository struct {
	DB *gorm.DB
}

func NewHourLogRepository(db *gorm.DB) *HourLogRepository {
	return &HourLogRepository{DB: db}
}

// HourLogFilter selects hour logs for listing. When Restrict is set only
// logs of PlacementIDs are returned, and an empty PlacementIDs yields nothing.
type HourLogFilter struct {
	PlacementID  *uint
	StudentID    *uint
	Status       string
	PlacementIDs []uint
	Restrict     bool
}

type StatusCount struct {
	Status string
	Count  int64
}

func slotPrefix(slot string) (string, error) {
	switch slot {
	case models.SlotTeacher:
		return "teacher_approval_", nil
	case models.SlotCompany:
		return "company_approval_", nil
	default:
		return "", fmt.Errorf("unknown approval slot %q", slot)
	}
}

func (r *HourLogRepository) Create(ctx context.Context, log *models.HourLog) error {
	if err := r.DB.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("create hour log: %w", err)
	}
	return nil
}

func (r *HourLogRepository) FindByID(ctx context.Context, id uint) (*models.HourLog, error) {
	var log models.HourLog
	err := r.DB.WithContext(ctx).First(&log, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("hour log %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find hour log %d: %w", id, err)
	}
	return &log, nil
}

func (r *HourLogRepository) List(ctx context.Context, filter HourLogFilter) ([]models.HourLog, error) {
	logs := []models.HourLog{}
	if filter.Restrict && len(filter.PlacementIDs) == 0 {
		return logs, nil
	}

	query := r.DB.WithContext(ctx).Model(&models.HourLog{})
	if filter.Restrict {
		query = query.Where("placement_id IN ?", filter.PlacementIDs)
	}
	if filter.PlacementID != nil {
		query = query.Where("placement_id = ?", *filter.PlacementID)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Order("date DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list hour logs: %w", err)
	}
	return logs, nil
}

// SumHours adds up the hours of a placement's logs in the given statuses.
// A non-zero excludeID leaves that log out of the total.
func (r *HourLogRepository) SumHours(ctx context.Context, placementID uint, statuses []string, excludeID uint) (float64, error) {
	query := r.DB.WithContext(ctx).Model(&models.HourLog{}).
		Where("placement_id = ? AND status IN ?", placementID, statuses)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var total float64
	if err := query.Select("COALESCE(SUM(hours), 0)").Row().Scan(&total); err != nil {
		return 0, fmt.Errorf("sum hours of placement %d: %w", placementID, err)
	}
	return total, nil
}

func (r *HourLogRepository) CountByStatus(ctx context.Context, placementID uint) ([]StatusCount, error) {
	var counts []StatusCount
	err := r.DB.WithContext(ctx).Model(&models.HourLog{}).
		Select("status, COUNT(*) AS count").
		Where("placement_id = ?", placementID).
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count hour logs of placement %d: %w", placementID, err)
	}
	return counts, nil
}

// UpdatePending edits a log that is still PENDING and owned by studentID.
func (r *HourLogRepository) UpdatePending(ctx context.Context, id, studentID uint, fields map[string]interface{}) (bool, error) {
	fields["updated_at"] = time.Now()
	res := r.DB.WithContext(ctx).Model(&models.HourLog{}).
		Where("id = ? AND student_id = ? AND status = ?", id, studentID, models.HourLogPending).
		Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("update hour log %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *HourLogRepository) DeletePending(ctx context.Context, id, studentID uint) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND student_id = ? AND status = ?", id, studentID, models.HourLogPending).
		Delete(&models.HourLog{})
	if res.Error != nil {
		return false, fmt.Errorf("delete hour log %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// StampApproval fills one approval slot while the log is PENDING. Stamping a
// slot twice overwrites the earlier approval from the same side.
func (r *HourLogRepository) StampApproval(ctx context.Context, id uint, slot string, approval models.Approval) (bool, error) {
	prefix, err := slotPrefix(slot)
	if err != nil {
		return false, err
	}
	res := r.DB.WithContext(ctx).Model(&models.HourLog{}).
		Where("id = ? AND status = ?", id, models.HourLogPending).
		Updates(map[string]interface{}{
			prefix + "by":       approval.By,
			prefix + "at":       approval.At,
			prefix + "comments": approval.Comments,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("stamp %s approval on hour log %d: %w", slot, id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// PromoteIfComplete turns a PENDING log APPROVED once both slots are filled.
// Only one concurrent caller observes true.
func (r *HourLogRepository) PromoteIfComplete(ctx context.Context, id uint) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.HourLog{}).
		Where("id = ? AND status = ? AND teacher_approval_by IS NOT NULL AND company_approval_by IS NOT NULL",
			id, models.HourLogPending).
		Updates(map[string]interface{}{
			"status":     models.HourLogApproved,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("promote hour log %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Reject ends a PENDING log and records the rejecting reviewer.
func (r *HourLogRepository) Reject(ctx context.Context, id, reviewerID uint, role, comments string, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.HourLog{}).
		Where("id = ? AND status = ?", id, models.HourLogPending).
		Updates(map[string]interface{}{
			"status":            models.HourLogRejected,
			"reviewed_by":       reviewerID,
			"reviewed_at":       at,
			"reviewer_comments": comments,
			"rejected_by_role":  role,
			"updated_at":        at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("reject hour log %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}
