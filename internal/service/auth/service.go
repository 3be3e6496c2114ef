package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/clinicore/clinic-ops-api/internal/email"
	"github.com/clinicore/clinic-ops-api/internal/model"
	"github.com/clinicore/clinic-ops-api/internal/repository"
	"github.com/clinicore/clinic-ops-api/internal/service/audit"
	"github.com/clinicore/clinic-ops-api/pkg/auth"
	apperrors "github.com/clinicore/clinic-ops-api/pkg/errors"
	"github.com/clinicore/clinic-ops-api/pkg/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	resetTokenExpiry = 1 * time.Hour
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	jwtSvc    auth.JWTService
	hasher    security.PasswordHasher
	emailSvc  email.Service
	auditor   *audit.Service
}

func NewService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository,
	jwtSvc auth.JWTService, emailSvc email.Service, auditor *audit.Service) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtSvc:    jwtSvc,
		hasher:    security.NewBcryptHasher(security.DefaultCost),
		emailSvc:  emailSvc,
		auditor:   auditor,
	}
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	if user.Status == model.UserStatusLocked {
		if time.Since(user.LastLoginAttempt) < lockoutDuration {
			return nil, apperrors.Unauthorized("account is locked, please try again later")
		}
		user.Status = model.UserStatusActive
		user.LoginAttempts = 0
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		user.LoginAttempts++
		user.LastLoginAttempt = time.Now()
		if user.LoginAttempts >= maxLoginAttempts {
			user.Status = model.UserStatusLocked
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update login attempts: %w", err)
		}
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	user.LoginAttempts = 0
	now := time.Now()
	user.LastLoginAt = &now
	user.UpdatedAt = now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update login timestamp: %w", err)
	}

	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	actor := &model.TokenClaims{UserID: user.ID, ClinicID: user.ClinicID, Email: user.Email, Role: user.Role}
	s.auditor.Log(ctx, actor, user.ClinicID, model.AuditActionLogin, model.AuditEntityAuth, user.ID, nil)

	return tokens, nil
}

func (s *Service) ValidateToken(ctx context.Context, token string) (*model.TokenClaims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid token")
	}
	return claims, nil
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}
	if user.Status != model.UserStatusActive {
		return nil, apperrors.Unauthorized("account is not active")
	}

	return s.generateTokens(user)
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if existing, _ := s.userRepo.GetByEmail(ctx, req.Email); existing != nil {
		return nil, apperrors.Conflict("email already registered", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.BadRequest("invalid password", err)
	}

	clinicID, err := uuid.Parse(req.ClinicID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid clinic ID", err)
	}

	now := time.Now()
	user := &model.User{
		Base:         model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ClinicID:     clinicID,
		Email:        req.Email,
		Name:         req.Name,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         model.RolePatient,
		Status:       model.UserStatusPending,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.emailSvc.SendWelcome(ctx, user.Email, user.Name); err != nil {
		log.Warn().Err(err).Str("email", user.Email).Msg("failed to send welcome email")
	}

	actor := &model.TokenClaims{UserID: user.ID, ClinicID: user.ClinicID, Email: user.Email, Role: user.Role}
	s.auditor.Log(ctx, actor, user.ClinicID, model.AuditActionCreate, model.AuditEntityUser, user.ID, nil)

	return user, nil
}

// ForgotPassword never reveals whether the address is registered.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		return nil
	}

	token := uuid.New().String()
	if err := s.tokenRepo.StoreResetToken(ctx, user.ID, token, time.Now().Add(resetTokenExpiry)); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.emailSvc.SendPasswordReset(ctx, user.Email, token); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokenRepo.ValidateResetToken(ctx, token)
	if err != nil {
		return apperrors.BadRequest("invalid or expired reset token", nil)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.BadRequest("invalid password", err)
	}

	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return apperrors.NotFound("user", err)
	}

	user.PasswordHash = hash
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.tokenRepo.InvalidateResetToken(ctx, token); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate reset token")
	}

	actor := &model.TokenClaims{UserID: user.ID, ClinicID: user.ClinicID, Email: user.Email, Role: user.Role}
	s.auditor.Log(ctx, actor, user.ClinicID, model.AuditActionUpdate, model.AuditEntityAuth, user.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"event": "password_reset"},
	})
	return nil
}

func (s *Service) generateTokens(user *model.User) (*model.TokenResponse, error) {
	accessToken, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtSvc.GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtSvc.AccessExpiry().Seconds()),
	}, nil
}
