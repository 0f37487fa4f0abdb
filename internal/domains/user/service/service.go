package service

import (
	"context"
	"fmt"
	"tourbook/config"
	"tourbook/infras/otel"
	"tourbook/internal/domains/user/model"
	"tourbook/internal/domains/user/model/dto"
	"tourbook/internal/domains/user/repository"
	"tourbook/shared"
	"tourbook/shared/cache"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/failure"
	"tourbook/shared/password"

	"github.com/rs/zerolog/log"
)

const cacheWorkerList = "workers:list"

var errEmailTaken = failure.Conflict("email already registered")

// User manages the staff accounts bookings get assigned to.
type User interface {
	CreateWorker(ctx context.Context, req dto.CreateWorkerRequest) (dto.UserResponse, error)
	ListWorkers(ctx context.Context, req gDto.QueryParams) (dto.GetUsersResponse, error)
	Get(ctx context.Context, id string) (dto.UserResponse, error)
}

type serviceImpl struct {
	repo  repository.User
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.User, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) User {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

func byField(field string, value any) gDto.FilterGroup {
	return gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: field, Operator: gDto.FilterOperatorEq, Value: value, Table: model.TableName},
		},
	}
}

func (s *serviceImpl) CreateWorker(ctx context.Context, req dto.CreateWorkerRequest) (res dto.UserResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".User.CreateWorker")
	defer scope.End()
	defer scope.TraceIfError(err)

	actorID, _ := ctx.Value(constant.ContextKeyUserID).(string)
	worker := req.ToModel(actorID, "")

	taken, err := s.repo.Exist(ctx, byField(model.FieldEmail, worker.Email))
	if err != nil {
		log.Error().Err(err).Msg("failed to look up worker email")

		return res, fmt.Errorf("failed to look up worker email: %w", err)
	}

	if taken {
		return res, errEmailTaken
	}

	if worker.Password, err = password.Hash(req.Password); err != nil {
		return res, failure.BadRequest(err)
	}

	if err = s.repo.Insert(ctx, worker); err != nil {
		log.Error().Err(err).Msg("failed to insert worker")

		return res, fmt.Errorf("failed to insert worker: %w", err)
	}

	log.Info().Str("user_id", worker.ID).Str("created_by", actorID).Msg("worker created")

	go shared.InvalidateCaches(context.WithoutCancel(ctx), s.cache, cacheWorkerList)

	res.FromModel(worker)

	return res, nil
}

// ListWorkers pages through staff accounts. Pages are cached until the next
// worker is created.
func (s *serviceImpl) ListWorkers(ctx context.Context, req gDto.QueryParams) (res dto.GetUsersResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".User.ListWorkers")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := byField(model.FieldRole, constant.RoleStaff)
	key := shared.BuildCacheKeyWithQuery(cacheWorkerList, req, filter)

	return cache.Remember(ctx, s.cache, key, s.cfg.Cache.TTL, func(ctx context.Context) (page dto.GetUsersResponse, err error) {
		total, err := s.repo.Count(ctx, filter)
		if err != nil {
			log.Error().Err(err).Msg("failed to count workers")

			return page, fmt.Errorf("failed to count workers: %w", err)
		}

		workers, err := s.repo.GetAll(ctx, req, filter)
		if err != nil {
			log.Error().Err(err).Msg("failed to list workers")

			return page, fmt.Errorf("failed to list workers: %w", err)
		}

		page.FromModels(workers, total, req.Limit)

		return page, nil
	})
}

// Get reads the account uncached. Roles feed authorization and must be fresh.
func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.UserResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".User.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, err := s.repo.Get(ctx, byField(model.FieldID, id))
	if err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("failed to get user")

		return res, fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == "" {
		return res, failure.NotFound("user not found")
	}

	res.FromModel(user)

	return res, nil
}
