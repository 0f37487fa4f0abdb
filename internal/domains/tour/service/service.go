package service

import (
	"context"
	"fmt"
	"slices"
	"tourbook/config"
	"tourbook/infras/otel"
	"tourbook/internal/domains/tour/model"
	"tourbook/internal/domains/tour/model/dto"
	"tourbook/internal/domains/tour/repository"
	"tourbook/shared"
	"tourbook/shared/cache"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/failure"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetTour = "tour:get"
)

// Tour is the read side of the tour catalogue that bookings depend on.
type Tour interface {
	Get(ctx context.Context, id string) (dto.TourResponse, error)
	Titles(ctx context.Context, ids []string) (map[string]string, error)
}

type serviceImpl struct {
	repo  repository.Tour
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.Tour, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Tour {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.TourResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Tour.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	return cache.Remember(ctx, s.cache, shared.BuildCacheKey(cacheGetTour, id), s.cfg.Cache.TTL, func(ctx context.Context) (res dto.TourResponse, err error) {
		tour, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
		if err != nil {
			log.Error().Err(err).Str("tour_id", id).Msg("failed to get tour")

			return res, fmt.Errorf("failed to get tour: %w", err)
		}

		if tour.ID == "" {
			return res, failure.NotFound("tour not found")
		}

		res.FromModel(tour)

		return res, nil
	})
}

// Titles maps tour ids to titles. Unknown ids are left out.
func (s *serviceImpl) Titles(ctx context.Context, ids []string) (res map[string]string, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Tour.Titles")
	defer scope.End()
	defer scope.TraceIfError(err)

	res = map[string]string{}

	ids = slices.Compact(slices.Sorted(slices.Values(ids)))
	if len(ids) == 0 {
		return res, nil
	}

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldID,
				Operator: gDto.FilterOperatorIn,
				Value:    ids,
				Table:    model.TableName,
			},
		},
	}

	tours, err := s.repo.GetAll(ctx, gDto.QueryParams{}, filter, model.FieldID, model.FieldTitle)
	if err != nil {
		log.Error().Err(err).Msg("failed to get tour titles")

		return res, fmt.Errorf("failed to get tour titles: %w", err)
	}

	for _, tour := range tours {
		res[tour.ID] = tour.Title
	}

	return res, nil
}
