package postgres

import (
	"context"
	"strings"

	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type StudentPostgreSQL struct {
	base
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &StudentPostgreSQL{base{db: db}}
}

func (s *StudentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	return s.getDB(ctx, tx).Create(student).Error
}

func (s *StudentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Student, error) {
	var student models.Student
	if err := s.getDB(ctx, tx).First(&student, id).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (s *StudentPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.Student, error) {
	var student models.Student
	if err := s.getDB(ctx, tx).Where("email = ?", email).First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (s *StudentPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Student, error) {
	var students []*models.Student
	if len(ids) == 0 {
		return students, nil
	}
	err := s.getDB(ctx, tx).Where("id IN ?", ids).Find(&students).Error
	return students, err
}

func (s *StudentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	return s.getDB(ctx, tx).
		Model(student).
		Select("first_name", "last_name", "email", "phone", "password_hash", "updated_at").
		Updates(student).Error
}

func (s *StudentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	res := s.getDB(ctx, tx).Delete(&models.Student{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns newest students first.
func (s *StudentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.StudentFilters) ([]*models.Student, int64, error) {
	q := s.getDB(ctx, tx).Model(&models.Student{})
	if term := strings.TrimSpace(filters.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ? OR LOWER(reg_no) LIKE ?",
			like, like, like, like, like,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var students []*models.Student
	err := paginate(q.Order("created_at DESC").Order("id DESC"), filters.Limit, filters.Offset).Find(&students).Error
	return students, total, err
}

// ListAllByName orders by first then last name, the report card ordering.
func (s *StudentPostgreSQL) ListAllByName(ctx context.Context, tx *gorm.DB) ([]*models.Student, error) {
	var students []*models.Student
	err := s.getDB(ctx, tx).
		Order("first_name ASC").
		Order("last_name ASC").
		Order("id ASC").
		Find(&students).Error
	return students, err
}

func (s *StudentPostgreSQL) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string, excludeID *uint) (bool, error) {
	return s.exists(ctx, tx, "email = ?", email, excludeID)
}

func (s *StudentPostgreSQL) ExistsByPhone(ctx context.Context, tx *gorm.DB, phone string, excludeID *uint) (bool, error) {
	return s.exists(ctx, tx, "phone = ?", phone, excludeID)
}

func (s *StudentPostgreSQL) ExistsByRegNo(ctx context.Context, tx *gorm.DB, regNo string) (bool, error) {
	return s.exists(ctx, tx, "reg_no = ?", regNo, nil)
}

func (s *StudentPostgreSQL) exists(ctx context.Context, tx *gorm.DB, cond string, value interface{}, excludeID *uint) (bool, error) {
	q := s.getDB(ctx, tx).Model(&models.Student{}).Where(cond, value)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *StudentPostgreSQL) SetPassword(ctx context.Context, tx *gorm.DB, id uint, hash string) error {
	return s.updateColumn(ctx, tx, id, "password_hash", hash)
}

func (s *StudentPostgreSQL) SetAttendance(ctx context.Context, tx *gorm.DB, id uint, dates []string) error {
	return s.updateColumn(ctx, tx, id, "attendance_dates", datatypes.JSONSlice[string](dates))
}

func (s *StudentPostgreSQL) updateColumn(ctx context.Context, tx *gorm.DB, id uint, column string, value interface{}) error {
	res := s.getDB(ctx, tx).Model(&models.Student{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
