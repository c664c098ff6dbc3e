package postgres

import (
	"context"

	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db       *gorm.DB
	students repositories.StudentRepository
	exams    repositories.ExamRepository
	results  repositories.ResultRepository
	sessions repositories.SessionRepository
	admins   repositories.AdminRepository
}

// NewRepository wires the GORM-backed repositories around one connection pool.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		db:       db,
		students: NewStudentPostgreSQL(db),
		exams:    NewExamPostgreSQL(db),
		results:  NewResultPostgreSQL(db),
		sessions: NewSessionPostgreSQL(db),
		admins:   NewAdminPostgreSQL(db),
	}
}

func (r *repository) Student() repositories.StudentRepository { return r.students }
func (r *repository) Exam() repositories.ExamRepository       { return r.exams }
func (r *repository) Result() repositories.ResultRepository   { return r.results }
func (r *repository) Session() repositories.SessionRepository { return r.sessions }
func (r *repository) Admin() repositories.AdminRepository     { return r.admins }

func (r *repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// base carries the pool and resolves the handle a call should run on.
type base struct {
	db *gorm.DB
}

func (b base) getDB(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return b.db.WithContext(ctx)
}

func paginate(q *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	return q
}
