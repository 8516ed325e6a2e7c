package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeremiapane/practice-app/apperror"
	"github.com/yeremiapane/practice-app/models"
	"gorm.io/gorm"
)

// UserDirectory reads the local mirror of the identity directory.
type UserDirectory struct {
	DB *gorm.DB
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{DB: db}
}

func (d *UserDirectory) FindUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := d.DB.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return &user, nil
}

type PracticeCatalog struct {
	DB *gorm.DB
}

func NewPracticeCatalog(db *gorm.DB) *PracticeCatalog {
	return &PracticeCatalog{DB: db}
}

func (p *PracticeCatalog) FindPractice(ctx context.Context, id uint) (*models.Practice, error) {
	var practice models.Practice
	err := p.DB.WithContext(ctx).First(&practice, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("practice %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("find practice %d: %w", id, err)
	}
	return &practice, nil
}
