package service

import (
	"context"
	"fmt"
	"tourbook/config"
	"tourbook/infras/jwt"
	"tourbook/infras/otel"
	"tourbook/internal/domains/auth/model/dto"
	userModel "tourbook/internal/domains/user/model"
	userRepo "tourbook/internal/domains/user/repository"
	"tourbook/shared"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/failure"
	"tourbook/shared/password"
	"tourbook/shared/timezone"

	"github.com/rs/zerolog/log"
)

var (
	errInvalidCredentials = failure.Unauthorized("invalid email or password")
	errInvalidRefresh     = failure.Unauthorized("invalid refresh token")
	errInactiveAccount    = failure.Unauthorized("user account is deactivated")
)

// Auth issues token pairs to staff accounts.
type Auth interface {
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (dto.RefreshTokenResponse, error)
}

type serviceImpl struct {
	userRepo   userRepo.User
	cfg        *config.Config
	otel       otel.Otel
	jwtService jwt.JWT
}

func New(userRepo userRepo.User, cfg *config.Config, otel otel.Otel, jwt jwt.JWT) Auth {
	return &serviceImpl{
		userRepo:   userRepo,
		cfg:        cfg,
		otel:       otel,
		jwtService: jwt,
	}
}

func (s *serviceImpl) findUser(ctx context.Context, field, value string) (userModel.User, error) {
	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: field, Operator: gDto.FilterOperatorEq, Value: value, Table: userModel.TableName},
		},
	}

	user, err := s.userRepo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Str(field, value).Msg("failed to get user")

		return user, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// issue signs a fresh pair for an active account.
func (s *serviceImpl) issue(user userModel.User) (dto.Tokens, error) {
	if !user.Active {
		log.Warn().Str("user_id", user.ID).Msg("token requested for deactivated account")

		return dto.Tokens{}, errInactiveAccount
	}

	pair, err := s.jwtService.GenerateTokenPair(user.ID, user.Email, user.Role)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("failed to generate tokens")

		return dto.Tokens{}, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return dto.NewTokens(pair), nil
}

func (s *serviceImpl) Login(ctx context.Context, req dto.LoginRequest) (res dto.LoginResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Auth.Login")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, err := s.findUser(ctx, userModel.FieldEmail, req.NormalizedEmail())
	if err != nil {
		return res, err
	}

	// Unknown email and wrong password are indistinguishable to the caller.
	if user.ID == "" || password.Verify(req.Password, user.Password) != nil {
		return res, errInvalidCredentials
	}

	tokens, err := s.issue(user)
	if err != nil {
		return res, err
	}

	stamp := shared.TransformFields(dto.LastLogin{At: timezone.Now()}, user.ID)
	if err := s.userRepo.Update(ctx, stamp, shared.FilterByID(user.ID, userModel.FieldID, userModel.TableName)); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}

	return dto.LoginResponse{Tokens: tokens, UserID: user.ID, Role: user.Role}, nil
}

// RefreshToken issues a new pair for the owner of a valid refresh token. The
// account is read again so deactivation and role changes take effect.
func (s *serviceImpl) RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (res dto.RefreshTokenResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Auth.RefreshToken")
	defer scope.End()
	defer scope.TraceIfError(err)

	claims, err := s.jwtService.ValidateToken(req.RefreshToken, jwt.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("rejected refresh token")

		return res, errInvalidRefresh
	}

	user, err := s.findUser(ctx, userModel.FieldID, claims.UserID)
	if err != nil {
		return res, err
	}

	if user.ID == "" {
		return res, errInvalidRefresh
	}

	tokens, err := s.issue(user)
	if err != nil {
		return res, err
	}

	return dto.RefreshTokenResponse{Tokens: tokens}, nil
}
