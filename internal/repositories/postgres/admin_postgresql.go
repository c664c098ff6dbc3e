package postgres

import (
	"context"

	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"gorm.io/gorm"
)

type AdminPostgreSQL struct {
	base
}

func NewAdminPostgreSQL(db *gorm.DB) repositories.AdminRepository {
	return &AdminPostgreSQL{base{db: db}}
}

func (a *AdminPostgreSQL) Create(ctx context.Context, tx *gorm.DB, admin *models.Admin) error {
	return a.getDB(ctx, tx).Create(admin).Error
}

func (a *AdminPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Admin, error) {
	var admin models.Admin
	if err := a.getDB(ctx, tx).First(&admin, id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (a *AdminPostgreSQL) GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.Admin, error) {
	var admin models.Admin
	if err := a.getDB(ctx, tx).Where("name = ?", name).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (a *AdminPostgreSQL) GetByPhone(ctx context.Context, tx *gorm.DB, phone string) (*models.Admin, error) {
	var admin models.Admin
	if err := a.getDB(ctx, tx).Where("phone = ?", phone).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (a *AdminPostgreSQL) SetPassword(ctx context.Context, tx *gorm.DB, id uint, hash string) error {
	res := a.getDB(ctx, tx).Model(&models.Admin{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (a *AdminPostgreSQL) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	err := a.getDB(ctx, tx).Model(&models.Admin{}).Count(&count).Error
	return count, err
}
