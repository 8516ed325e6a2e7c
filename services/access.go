package services

import (
	"github.com/yeremiapane/practice-app/apperror"
	"github.com/yeremiapane/practice-app/models"
	"github.com/yeremiapane/practice-app/repository"
)

// canViewPlacement applies the role-based read rule shared by placements and
// their hour logs.
func canViewPlacement(actor Actor, placement *models.Placement) bool {
	switch actor.Role {
	case models.RoleStudent:
		return placement.StudentID == actor.ID
	case models.RoleProfessor:
		return placement.AssignedTo(actor.ID)
	case models.RoleCompany:
		return placement.SupervisedBy(actor.ID)
	case models.RoleCoordinator, models.RoleAdmin:
		return true
	default:
		return false
	}
}

// placementScope returns the listing scope of actor. restrict is false for
// roles that see every placement.
func placementScope(actor Actor) (scope repository.PlacementScope, restrict bool, err error) {
	id := actor.ID
	switch actor.Role {
	case models.RoleStudent:
		return repository.PlacementScope{StudentID: &id}, true, nil
	case models.RoleProfessor:
		return repository.PlacementScope{ProfessorID: &id}, true, nil
	case models.RoleCompany:
		return repository.PlacementScope{CompanyID: &id}, true, nil
	case models.RoleCoordinator, models.RoleAdmin:
		return repository.PlacementScope{}, false, nil
	default:
		return scope, false, apperror.Forbidden("role %q cannot list placements", actor.Role)
	}
}
