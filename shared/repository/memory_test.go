package repository_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"tourbook/infras/otel/mocks"
	"tourbook/shared/dto"
	"tourbook/shared/model"
	"tourbook/shared/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level string

type row struct {
	ID       string    `db:"id"`
	Level    level     `db:"level"`
	Owner    *string   `db:"owner"`
	Amount   int       `db:"amount"`
	Day      time.Time `db:"day"`
	Version  int       `db:"version"`
	Internal string
	model.Metadata
}

func newRows(t *testing.T) *repository.MemoryRepository[row] {
	t.Helper()

	repo := repository.NewMemoryRepository[row]("row", "id", mocks.NewOtel())
	owner := "w-1"
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := []row{
		{ID: "a", Level: "low", Owner: &owner, Amount: 10, Day: base, Version: 1, Metadata: model.Metadata{CreatedAt: base}},
		{ID: "b", Level: "high", Amount: 30, Day: base.AddDate(0, 0, 1), Version: 1, Metadata: model.Metadata{CreatedAt: base.Add(time.Hour)}},
		{ID: "c", Level: "high", Owner: &owner, Amount: 20, Day: base.AddDate(0, 0, 2), Version: 1, Metadata: model.Metadata{CreatedAt: base.Add(2 * time.Hour)}},
	}

	for _, r := range seed {
		require.NoError(t, repo.Insert(context.Background(), r))
	}

	return repo
}

func eq(field string, value any) dto.Filter {
	return dto.Filter{Field: field, Value: value, Operator: dto.FilterOperatorEq}
}

func TestMemoryRepository_Insert(t *testing.T) {
	repo := newRows(t)

	err := repo.Insert(context.Background(), row{ID: "a"})
	assert.Error(t, err)

	count, err := repo.Count(context.Background(), dto.FilterGroup{})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMemoryRepository_Filters(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   dto.FilterGroup
		expected int
	}{
		{
			name:     "eq on named string type",
			filter:   dto.FilterGroup{Filters: []any{eq("level", "high")}},
			expected: 2,
		},
		{
			name:     "eq on pointer column",
			filter:   dto.FilterGroup{Filters: []any{eq("owner", "w-1")}},
			expected: 2,
		},
		{
			name:     "is null",
			filter:   dto.FilterGroup{Filters: []any{dto.Filter{Field: "owner", Operator: dto.FilterIsNull}}},
			expected: 1,
		},
		{
			name:     "not eq skips null",
			filter:   dto.FilterGroup{Filters: []any{dto.Filter{Field: "owner", Value: "w-2", Operator: dto.FilterOperatorNotEq}}},
			expected: 2,
		},
		{
			name: "time range",
			filter: dto.FilterGroup{
				Operator: dto.FilterGroupOperatorAnd,
				Filters: []any{
					dto.Filter{Field: "day", Value: base, Operator: dto.FilterOperatorGreater},
					dto.Filter{Field: "day", Value: base.AddDate(0, 0, 2), Operator: dto.FilterOperatorLessEq},
				},
			},
			expected: 2,
		},
		{
			name:     "date literal eq",
			filter:   dto.FilterGroup{Filters: []any{eq("day", "2024-01-02")}},
			expected: 1,
		},
		{
			name: "date literal range",
			filter: dto.FilterGroup{
				Operator: dto.FilterGroupOperatorAnd,
				Filters: []any{
					dto.Filter{Field: "day", Value: "2024-01-02", Operator: dto.FilterOperatorGreaterEq},
					dto.Filter{Field: "day", Value: "2024-01-03", Operator: dto.FilterOperatorLessEq},
				},
			},
			expected: 2,
		},
		{
			name:     "non date string never matches a time column",
			filter:   dto.FilterGroup{Filters: []any{eq("day", "yesterday")}},
			expected: 0,
		},
		{
			name:     "in",
			filter:   dto.FilterGroup{Filters: []any{dto.Filter{Field: "id", Value: []string{"a", "c", "z"}, Operator: dto.FilterOperatorIn}}},
			expected: 2,
		},
		{
			name: "nested or",
			filter: dto.FilterGroup{
				Operator: dto.FilterGroupOperatorAnd,
				Filters: []any{
					eq("level", "high"),
					dto.FilterGroup{
						Operator: dto.FilterGroupOperatorOr,
						Filters: []any{
							dto.Filter{Field: "amount", Value: 25, Operator: dto.FilterOperatorGreaterEq},
							dto.Filter{Field: "owner", Operator: dto.FilterIsNull},
						},
					},
				},
			},
			expected: 1,
		},
		{
			name:     "embedded metadata column",
			filter:   dto.FilterGroup{Filters: []any{dto.Filter{Field: "created_at", Value: base, Operator: dto.FilterOperatorGreater}}},
			expected: 2,
		},
	}

	repo := newRows(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := repo.Count(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, count)
		})
	}
}

func TestMemoryRepository_UnknownColumn(t *testing.T) {
	repo := newRows(t)

	_, err := repo.Count(context.Background(), dto.FilterGroup{Filters: []any{eq("missing", 1)}})
	assert.Error(t, err)

	models, err := repo.GetAll(context.Background(), dto.QueryParams{SortBy: "missing", SortDir: dto.SortDirAsc}, dto.FilterGroup{})
	require.NoError(t, err)
	assert.Len(t, models, 3)
}

func TestMemoryRepository_GetAll(t *testing.T) {
	repo := newRows(t)

	models, err := repo.GetAll(context.Background(), dto.QueryParams{SortBy: "created_at", SortDir: dto.SortDirDesc, Limit: 2}, dto.FilterGroup{})
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "c", models[0].ID)
	assert.Equal(t, "b", models[1].ID)

	models, err = repo.GetAll(context.Background(), dto.QueryParams{SortBy: "rows.amount", SortDir: dto.SortDirAsc, Page: 2, Limit: 2}, dto.FilterGroup{})
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "b", models[0].ID)

	models, err = repo.GetAll(context.Background(), dto.QueryParams{Page: 5, Limit: 2}, dto.FilterGroup{})
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestMemoryRepository_Get(t *testing.T) {
	repo := newRows(t)

	found, err := repo.Get(context.Background(), dto.FilterGroup{Filters: []any{eq("id", "b")}})
	require.NoError(t, err)
	assert.Equal(t, 30, found.Amount)

	missing, err := repo.Get(context.Background(), dto.FilterGroup{Filters: []any{eq("id", "zzz")}})
	require.NoError(t, err)
	assert.Empty(t, missing.ID)

	exist, err := repo.Exist(context.Background(), dto.FilterGroup{Filters: []any{eq("id", "a")}})
	require.NoError(t, err)
	assert.True(t, exist)

	_, err = repo.Exist(context.Background(), dto.FilterGroup{})
	assert.Error(t, err)
}

func TestMemoryRepository_Update(t *testing.T) {
	repo := newRows(t)
	ctx := context.Background()
	byID := dto.FilterGroup{Filters: []any{eq("id", "b")}}

	owner := "w-9"
	require.NoError(t, repo.Update(ctx, map[string]any{"owner": &owner, "level": "mid", "amount": 31}, byID))

	updated, err := repo.Get(ctx, byID)
	require.NoError(t, err)
	require.NotNil(t, updated.Owner)
	assert.Equal(t, "w-9", *updated.Owner)
	assert.Equal(t, level("mid"), updated.Level)
	assert.Equal(t, 31, updated.Amount)

	require.NoError(t, repo.Update(ctx, map[string]any{"owner": nil}, byID))

	updated, err = repo.Get(ctx, byID)
	require.NoError(t, err)
	assert.Nil(t, updated.Owner)

	err = repo.Update(ctx, map[string]any{"amount": "many"}, byID)
	assert.Error(t, err)

	unchanged, err := repo.Get(ctx, byID)
	require.NoError(t, err)
	assert.Equal(t, 31, unchanged.Amount)

	assert.Error(t, repo.Update(ctx, map[string]any{"amount": 1}, dto.FilterGroup{}))
	assert.Error(t, repo.Update(ctx, map[string]any{"missing": 1}, byID))
}

func TestMemoryRepository_CompareAndUpdate(t *testing.T) {
	repo := newRows(t)
	ctx := context.Background()

	versioned := func(expected int) dto.FilterGroup {
		return dto.FilterGroup{
			Operator: dto.FilterGroupOperatorAnd,
			Filters: []any{
				eq("id", "a"),
				dto.Filter{ArgName: "expected_version", Field: "version", Value: expected, Operator: dto.FilterOperatorEq},
			},
		}
	}

	ok, err := repo.CompareAndUpdate(ctx, map[string]any{"amount": 11, "version": 2}, versioned(1))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.CompareAndUpdate(ctx, map[string]any{"amount": 12, "version": 2}, versioned(1))
	require.NoError(t, err)
	assert.False(t, ok)

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)

	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			won, err := repo.CompareAndUpdate(ctx, map[string]any{"version": 3}, versioned(2))
			if err == nil && won {
				winners.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}
