package postgres

import (
	"context"

	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"gorm.io/gorm"
)

type ExamPostgreSQL struct {
	base
}

func NewExamPostgreSQL(db *gorm.DB) repositories.ExamRepository {
	return &ExamPostgreSQL{base{db: db}}
}

func (e *ExamPostgreSQL) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	return e.getDB(ctx, tx).Create(exam).Error
}

func (e *ExamPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := e.getDB(ctx, tx).First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

// Update writes every column, including zero values such as IsHidden=false.
func (e *ExamPostgreSQL) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	res := e.getDB(ctx, tx).Model(exam).Select("*").Omit("id", "created_at").Updates(exam)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (e *ExamPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	res := e.getDB(ctx, tx).Delete(&models.Exam{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns newest exams first.
func (e *ExamPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	q := e.getDB(ctx, tx).Model(&models.Exam{})
	if filters.Category != "" {
		q = q.Where("category = ?", filters.Category)
	}
	if !filters.IncludeHidden {
		q = q.Where("is_hidden = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var exams []*models.Exam
	err := paginate(q.Order("created_at DESC").Order("id DESC"), filters.Limit, filters.Offset).Find(&exams).Error
	return exams, total, err
}

func (e *ExamPostgreSQL) SetHidden(ctx context.Context, tx *gorm.DB, id uint, hidden bool) error {
	res := e.getDB(ctx, tx).Model(&models.Exam{}).Where("id = ?", id).Update("is_hidden", hidden)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
