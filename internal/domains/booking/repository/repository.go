package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"tourbook/infras/otel"
	"tourbook/infras/postgres"
	"tourbook/internal/domains/booking/model"
	gDto "tourbook/shared/dto"
	gRepo "tourbook/shared/repository"
)

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	// CompareAndUpdate applies req only when filter still matches, reporting
	// whether a row was written.
	CompareAndUpdate(ctx context.Context, req map[string]any, filter gDto.FilterGroup) (bool, error)
}

type repositoryImpl struct {
	gRepo.Store[model.Booking]
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Store: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}

// NewInMemory keeps bookings in process memory.
func NewInMemory(otel otel.Otel) Booking {
	return &repositoryImpl{
		Store: gRepo.NewMemoryRepository[model.Booking](model.EntityName, model.FieldID, otel),
	}
}
