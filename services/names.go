package services

import (
	"context"

	"github.com/yeremiapane/practice-app/models"
)

// userName returns the directory name of id, or placeholder when the user is
// unknown or the lookup fails.
func userName(ctx context.Context, dir Directory, id uint, placeholder string) string {
	if dir == nil {
		return placeholder
	}
	user, err := dir.FindUser(ctx, id)
	if err != nil || user == nil || user.Name == "" {
		return placeholder
	}
	return user.Name
}

func studentName(ctx context.Context, dir Directory, id uint) string {
	return userName(ctx, dir, id, models.PlaceholderStudentName(id))
}

// professorName is empty when no professor is assigned.
func professorName(ctx context.Context, dir Directory, id *uint) string {
	if id == nil {
		return ""
	}
	return userName(ctx, dir, *id, models.PlaceholderProfessorName(*id))
}

func practiceName(ctx context.Context, catalog Catalog, placement *models.Placement) string {
	if placement.Practice != nil && placement.Practice.Title != "" {
		return placement.Practice.Title
	}
	if catalog != nil {
		if practice, err := catalog.FindPractice(ctx, placement.PracticeID); err == nil && practice.Title != "" {
			return practice.Title
		}
	}
	return models.PlaceholderPracticeName(placement.PracticeID)
}
