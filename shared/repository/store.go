package repository

import (
	"context"
	"tourbook/shared/dto"
)

// Store is the contract shared by the postgres Repository and MemoryRepository.
type Store[T any] interface {
	Insert(ctx context.Context, model T) error
	Exist(ctx context.Context, filter dto.FilterGroup) (bool, error)
	Get(ctx context.Context, filter dto.FilterGroup, columns ...string) (T, error)
	GetAll(ctx context.Context, params dto.QueryParams, filter dto.FilterGroup, columns ...string) ([]T, error)
	Count(ctx context.Context, filter dto.FilterGroup) (int, error)
	Update(ctx context.Context, mod map[string]any, filter dto.FilterGroup) error
	CompareAndUpdate(ctx context.Context, mod map[string]any, filter dto.FilterGroup) (bool, error)
}

var (
	_ Store[struct{}] = (*Repository[struct{}])(nil)
	_ Store[struct{}] = (*MemoryRepository[struct{}])(nil)
)
