package postgres

import (
	"context"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"gorm.io/gorm"
)

type SessionPostgreSQL struct {
	base
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{base{db: db}}
}

func (s *SessionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, session *models.Session) error {
	return s.getDB(ctx, tx).Create(session).Error
}

func (s *SessionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Session, error) {
	var session models.Session
	if err := s.getDB(ctx, tx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// FindActiveForStudent returns the longest-lived session still valid at now.
func (s *SessionPostgreSQL) FindActiveForStudent(ctx context.Context, tx *gorm.DB, studentID uint, now time.Time) (*models.Session, error) {
	var session models.Session
	err := s.getDB(ctx, tx).
		Where("student_id = ? AND expires_at >= ?", studentID, now).
		Order("expires_at DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Session, error) {
	var sessions []*models.Session
	err := s.getDB(ctx, tx).Order("created_at DESC").Find(&sessions).Error
	return sessions, err
}

func (s *SessionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	res := s.getDB(ctx, tx).Where("id = ?", id).Delete(&models.Session{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *SessionPostgreSQL) DeleteByStudent(ctx context.Context, tx *gorm.DB, studentID uint) (int64, error) {
	res := s.getDB(ctx, tx).Where("student_id = ?", studentID).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}

func (s *SessionPostgreSQL) DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	res := s.getDB(ctx, tx).Where("expires_at < ?", now).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}
