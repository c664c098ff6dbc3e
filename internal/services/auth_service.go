package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/auth"
	"github.com/gaonpathshala/exam-portal/internal/metrics"
	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"github.com/gaonpathshala/exam-portal/internal/validator"
	"github.com/google/uuid"
)

type authService struct {
	repo       repositories.Repository
	log        *ServiceLogger
	validator  *validator.Validator
	tokens     *auth.TokenIssuer
	metrics    *metrics.Metrics
	sessionTTL time.Duration
	now        func() time.Time
}

func NewAuthService(deps Dependencies) AuthService {
	ttl := deps.SessionTTL
	if ttl == 0 {
		ttl = 2 * time.Hour
	}
	return &authService{
		repo:       deps.Repo,
		log:        NewServiceLogger(deps.Logger, "auth"),
		validator:  deps.Validator,
		tokens:     deps.Tokens,
		metrics:    deps.Metrics,
		sessionTTL: ttl,
		now:        time.Now,
	}
}

// ===== STUDENT =====

// StudentLogin reuses the student's live session or opens a new one.
func (s *authService) StudentLogin(ctx context.Context, req *StudentLoginRequest) (resp *StudentLoginResponse, err error) {
	defer func() {
		if err == nil || !IsValidation(err) {
			s.metrics.LoginAttempt(string(models.RoleStudent), err == nil)
		}
	}()

	if err = s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)

	student, err := s.repo.Student().GetByEmail(ctx, nil, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.log.LogSecurityEvent(ctx, "student_login", false, "reason", "unknown_email")
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find student: %w", err)
	}
	if !student.HasPassword() {
		s.log.LogSecurityEvent(ctx, "student_login", false, "student_id", student.ID, "reason", "no_password")
		return nil, ErrAccountNotProvisioned
	}
	ok, err := auth.CheckPassword(*student.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.log.LogSecurityEvent(ctx, "student_login", false, "student_id", student.ID, "reason", "bad_password")
		return nil, ErrUnauthorized
	}

	now := s.now()
	if n, err := s.repo.Session().DeleteExpired(ctx, nil, now); err != nil {
		s.log.Logger().WarnContext(ctx, "Failed to purge expired sessions", "error", err)
	} else if n > 0 {
		s.log.Logger().DebugContext(ctx, "Purged expired sessions", "count", n)
	}

	session, err := s.repo.Session().FindActiveForStudent(ctx, nil, student.ID, now)
	switch {
	case err == nil:
	case repositories.IsNotFoundError(err):
		session = &models.Session{
			ID:        uuid.NewString(),
			StudentID: &student.ID,
			Name:      student.FullName(),
			Email:     student.Email,
			RegNo:     student.RegistrationNumber(),
			ExpiresAt: now.Add(s.sessionTTL),
		}
		if err = s.repo.Session().Create(ctx, nil, session); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	s.log.LogSecurityEvent(ctx, "student_login", true, "student_id", student.ID, "session_id", session.ID)
	return &StudentLoginResponse{
		SessionID: session.ID,
		StudentID: student.ID,
		Name:      student.FullName(),
		Email:     student.Email,
		RegNo:     student.RegistrationNumber(),
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *authService) VerifyStudentDetails(ctx context.Context, req *VerifyDetailsRequest) error {
	if err := s.validator.ValidateStruct(req); err != nil {
		return err
	}
	_, err := s.matchStudent(ctx, req)
	return err
}

func (s *authService) ResetStudentPassword(ctx context.Context, req *ResetStudentPasswordRequest) error {
	if err := s.validator.ValidateStruct(req); err != nil {
		return err
	}
	student, err := s.matchStudent(ctx, &req.VerifyDetailsRequest)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.Student().SetPassword(ctx, nil, student.ID, hash); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	s.log.LogSecurityEvent(ctx, "student_password_reset", true, "student_id", student.ID)
	return nil
}

// matchStudent requires email and phone to match exactly and names case-insensitively.
func (s *authService) matchStudent(ctx context.Context, req *VerifyDetailsRequest) (*models.Student, error) {
	student, err := s.repo.Student().GetByEmail(ctx, nil, normalizeEmail(req.Email))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrVerificationFailed
		}
		return nil, fmt.Errorf("failed to find student: %w", err)
	}
	if student.Phone != strings.TrimSpace(req.Phone) ||
		!strings.EqualFold(student.FirstName, strings.TrimSpace(req.FirstName)) ||
		!strings.EqualFold(student.LastName, strings.TrimSpace(req.LastName)) {
		s.log.LogSecurityEvent(ctx, "student_verify_details", false, "student_id", student.ID)
		return nil, ErrVerificationFailed
	}
	return student, nil
}

// ===== ADMIN =====

// AdminLogin opens an admin session and signs a token bound to it.
func (s *authService) AdminLogin(ctx context.Context, req *AdminLoginRequest) (resp *AdminLoginResponse, err error) {
	defer func() {
		if err == nil || !IsValidation(err) {
			s.metrics.LoginAttempt(string(models.RoleAdmin), err == nil)
		}
	}()

	if err = s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	admin, err := s.repo.Admin().GetByName(ctx, nil, strings.TrimSpace(req.Username))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.log.LogSecurityEvent(ctx, "admin_login", false, "reason", "unknown_admin")
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	ok, err := auth.CheckPassword(admin.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.log.LogSecurityEvent(ctx, "admin_login", false, "admin_id", admin.ID, "reason", "bad_password")
		return nil, ErrUnauthorized
	}

	now := s.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		AdminID:   &admin.ID,
		Name:      admin.Name,
		ExpiresAt: now.Add(s.tokens.TTL()),
	}
	token, expires, err := s.tokens.Issue(admin.ID, session.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	session.ExpiresAt = expires
	if err = s.repo.Session().Create(ctx, nil, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.log.LogSecurityEvent(ctx, "admin_login", true, "admin_id", admin.ID, "session_id", session.ID)
	return &AdminLoginResponse{
		Name:      admin.Name,
		Role:      auth.RoleAdmin,
		Token:     token,
		ExpiresAt: expires,
	}, nil
}

func (s *authService) AdminForgotPassword(ctx context.Context, req *AdminForgotPasswordRequest) (*AdminForgotPasswordResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	admin, err := s.repo.Admin().GetByPhone(ctx, nil, strings.TrimSpace(req.Phone))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrVerificationFailed
		}
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	return &AdminForgotPasswordResponse{
		Message: "Phone verified. You can now reset your password.",
		AdminID: admin.ID,
	}, nil
}

func (s *authService) AdminResetPassword(ctx context.Context, req *AdminResetPasswordRequest) error {
	if err := s.validator.ValidateStruct(req); err != nil {
		return err
	}
	admin, err := s.repo.Admin().GetByID(ctx, nil, req.AdminID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAdminNotFound
		}
		return fmt.Errorf("failed to find admin: %w", err)
	}
	if admin.Phone != strings.TrimSpace(req.Phone) {
		s.log.LogSecurityEvent(ctx, "admin_password_reset", false, "admin_id", admin.ID)
		return ErrVerificationFailed
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.Admin().SetPassword(ctx, nil, admin.ID, hash); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	s.log.LogSecurityEvent(ctx, "admin_password_reset", true, "admin_id", admin.ID)
	return nil
}

func (s *authService) SeedAdmin(ctx context.Context, req *SeedAdminRequest) (bool, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return false, err
	}

	for _, lookup := range []func() (*models.Admin, error){
		func() (*models.Admin, error) { return s.repo.Admin().GetByPhone(ctx, nil, req.Phone) },
		func() (*models.Admin, error) { return s.repo.Admin().GetByName(ctx, nil, req.Name) },
	} {
		_, err := lookup()
		if err == nil {
			return false, nil
		}
		if !repositories.IsNotFoundError(err) {
			return false, fmt.Errorf("failed to look up admin: %w", err)
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return false, err
	}
	admin := &models.Admin{Name: req.Name, PasswordHash: hash, Phone: req.Phone}
	if err := s.repo.Admin().Create(ctx, nil, admin); err != nil {
		if repositories.IsDuplicateError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to seed admin: %w", err)
	}
	s.log.Logger().InfoContext(ctx, "Seeded admin", "admin_id", admin.ID, "name", admin.Name)
	return true, nil
}
