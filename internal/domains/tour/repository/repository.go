package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"tourbook/infras/otel"
	"tourbook/infras/postgres"
	"tourbook/internal/domains/tour/model"
	gDto "tourbook/shared/dto"
	gRepo "tourbook/shared/repository"
)

type Tour interface {
	Insert(ctx context.Context, model model.Tour) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Tour, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Tour, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
}

type repositoryImpl struct {
	gRepo.Store[model.Tour]
}

func New(db *postgres.Connection, otel otel.Otel) Tour {
	return &repositoryImpl{
		Store: gRepo.NewRepository[model.Tour](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}

func NewInMemory(otel otel.Otel) Tour {
	return &repositoryImpl{
		Store: gRepo.NewMemoryRepository[model.Tour](model.EntityName, model.FieldID, otel),
	}
}
