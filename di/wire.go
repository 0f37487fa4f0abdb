//go:build wireinject
// +build wireinject

package di

import (
	"tourbook/config"
	"tourbook/infras/jwt"
	"tourbook/infras/kafka"
	"tourbook/infras/otel"
	"tourbook/infras/postgres"
	"tourbook/infras/redis"
	authService "tourbook/internal/domains/auth/service"
	"tourbook/internal/domains/booking/events"
	bookingRepository "tourbook/internal/domains/booking/repository"
	bookingService "tourbook/internal/domains/booking/service"
	tourRepository "tourbook/internal/domains/tour/repository"
	tourService "tourbook/internal/domains/tour/service"
	userRepository "tourbook/internal/domains/user/repository"
	userService "tourbook/internal/domains/user/service"
	authHandler "tourbook/internal/handlers/auth"
	bookingHandler "tourbook/internal/handlers/booking"
	userHandler "tourbook/internal/handlers/user"
	"tourbook/permissions"
	"tourbook/shared/cache"
	"tourbook/transport/http"
	"tourbook/transport/http/middleware"
	"tourbook/transport/http/router"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var userDomain = wire.NewSet(
	userRepository.New,
	userService.New,
)

var tourDomain = wire.NewSet(
	tourRepository.New,
	tourService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	events.NewPublisher,
	bookingService.New,
)

var authDomain = wire.NewSet(
	authService.New,
)

var domains = wire.NewSet(
	userDomain,
	tourDomain,
	bookingDomain,
	authDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	bookingHandler.New,
	userHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
