package postgres

import (
	"context"

	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"gorm.io/gorm"
)

type ResultPostgreSQL struct {
	base
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{base{db: db}}
}

func (r *ResultPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	return r.getDB(ctx, tx).Create(result).Error
}

func (r *ResultPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	var result models.Result
	if err := r.getDB(ctx, tx).First(&result, id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	res := r.getDB(ctx, tx).Delete(&models.Result{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ResultPostgreSQL) DeleteByStudent(ctx context.Context, tx *gorm.DB, studentID uint) (int64, error) {
	res := r.getDB(ctx, tx).Where("student_id = ?", studentID).Delete(&models.Result{})
	return res.RowsAffected, res.Error
}

func (r *ResultPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	q := r.getDB(ctx, tx).Model(&models.Result{})
	if filters.StudentID != nil {
		q = q.Where("student_id = ?", *filters.StudentID)
	}
	if filters.ExamID != nil {
		q = q.Where("exam_id = ?", *filters.ExamID)
	}
	if filters.DateFrom != nil {
		q = q.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		q = q.Where("created_at < ?", *filters.DateTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortColumn := "created_at"
	if filters.SortBy == "updated_at" {
		sortColumn = "updated_at"
	}

	var results []*models.Result
	err := paginate(q.Order(sortColumn+" DESC").Order("id DESC"), filters.Limit, filters.Offset).Find(&results).Error
	return results, total, err
}

// ListAll is a full scan in insertion order.
func (r *ResultPostgreSQL) ListAll(ctx context.Context, tx *gorm.DB) ([]*models.Result, error) {
	var results []*models.Result
	err := r.getDB(ctx, tx).Order("id ASC").Find(&results).Error
	return results, err
}

// ListByStudent returns the student's attempts, most recent first.
func (r *ResultPostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Result, error) {
	var results []*models.Result
	err := r.getDB(ctx, tx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&results).Error
	return results, err
}
