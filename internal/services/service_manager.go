package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/auth"
	"github.com/gaonpathshala/exam-portal/internal/cache"
	"github.com/gaonpathshala/exam-portal/internal/events"
	"github.com/gaonpathshala/exam-portal/internal/metrics"
	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"github.com/gaonpathshala/exam-portal/internal/validator"
)

// ServiceManager exposes every service built over one repository.
type ServiceManager interface {
	Student() StudentService
	Auth() AuthService
	Exam() ExamService
	Result() ResultService
	Session() SessionService
	ImportExport() ImportExportService
}

// Dependencies are shared by all services. Publisher, Cache and Metrics may be nil.
type Dependencies struct {
	Repo       repositories.Repository
	Logger     *slog.Logger
	Validator  *validator.Validator
	Tokens     *auth.TokenIssuer
	Publisher  events.EventPublisher
	Cache      cache.CacheService
	Metrics    *metrics.Metrics
	SessionTTL time.Duration
	CacheTTL   time.Duration

	// DefaultImportFormat applies when an import request names no format.
	DefaultImportFormat models.ImportFormat
}

type serviceManager struct {
	student      StudentService
	auth         AuthService
	exam         ExamService
	result       ResultService
	session      SessionService
	importExport ImportExportService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewNoopCache()
	}
	if deps.SessionTTL == 0 {
		deps.SessionTTL = 2 * time.Hour
	}
	if deps.CacheTTL == 0 {
		deps.CacheTTL = 5 * time.Minute
	}

	return &serviceManager{
		student:      NewStudentService(deps),
		auth:         NewAuthService(deps),
		exam:         NewExamService(deps),
		result:       NewResultService(deps),
		session:      NewSessionService(deps),
		importExport: NewImportExportService(deps),
	}
}

func (m *serviceManager) Student() StudentService           { return m.student }
func (m *serviceManager) Auth() AuthService                 { return m.auth }
func (m *serviceManager) Exam() ExamService                 { return m.exam }
func (m *serviceManager) Result() ResultService             { return m.result }
func (m *serviceManager) Session() SessionService           { return m.session }
func (m *serviceManager) ImportExport() ImportExportService { return m.importExport }

// ===== SHARED HELPERS =====

// emitter publishes best-effort: a failed publish is logged and never fails the caller.
type emitter struct {
	publisher events.EventPublisher
	logger    *slog.Logger
}

func (e emitter) emit(ctx context.Context, event *events.Event) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.Type, "event_id", event.ID, "error", err)
	}
}

// invalidator drops cached aggregate views after writes that change them.
type invalidator struct {
	cache  cache.CacheService
	logger *slog.Logger
}

func (i invalidator) aggregates(ctx context.Context) {
	if err := i.cache.Delete(ctx, cache.KeyLeaderboard, cache.KeyReportCards); err != nil {
		i.logger.WarnContext(ctx, "Failed to invalidate aggregate cache", "error", err)
	}
	if err := i.cache.DeletePattern(ctx, cache.KeyStudentStatsPrefix+"*"); err != nil {
		i.logger.WarnContext(ctx, "Failed to invalidate student stats cache", "error", err)
	}
}

func (i invalidator) studentStats(ctx context.Context, studentID uint) {
	if err := i.cache.Delete(ctx, statsKey(studentID)); err != nil {
		i.logger.WarnContext(ctx, "Failed to invalidate student stats cache", "student_id", studentID, "error", err)
	}
}
