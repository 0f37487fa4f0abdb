package repository

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"
	"tourbook/infras/otel"
	"tourbook/shared/constant"
	"tourbook/shared/dto"
)

var (
	errDuplicateKey   = errors.New("duplicate key")
	errUnknownColumn  = errors.New("unknown column")
	errUnsupportedOp  = errors.New("unsupported filter operator")
	errNotAssignable  = errors.New("value not assignable to column")
	errUnsupportedRow = errors.New("memory repository requires a struct type")
)

// MemoryRepository keeps rows of T in process memory and evaluates the same
// dto.FilterGroup trees as Repository. Every write holds the lock for the whole
// read-compare-write, so CompareAndUpdate is atomic.
type MemoryRepository[T any] struct {
	mu            sync.RWMutex
	otel          otel.Otel
	entitas       string
	primaryColumn string
	fields        map[string][]int
	rows          []T
}

func NewMemoryRepository[T any](entitasName, primaryColumn string, otl otel.Otel) *MemoryRepository[T] {
	var zero T

	fields := map[string][]int{}

	if reflectType := reflect.TypeOf(zero); reflectType != nil && reflectType.Kind() == reflect.Struct {
		collectFields(reflectType, nil, fields)
	}

	return &MemoryRepository[T]{
		otel:          otl,
		entitas:       entitasName,
		primaryColumn: primaryColumn,
		fields:        fields,
	}
}

func collectFields(reflectType reflect.Type, parent []int, fields map[string][]int) {
	for i := range reflectType.NumField() {
		field := reflectType.Field(i)
		index := append(slices.Clone(parent), i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			collectFields(field.Type, index, fields)

			continue
		}

		dbTag := field.Tag.Get("db")
		if dbTag == "" || dbTag == "-" {
			continue
		}

		fields[dbTag] = index
	}
}

func (repo *MemoryRepository[T]) scope(ctx context.Context, method string) (context.Context, otel.Scope) {
	return repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.memory.%s", constant.OtelRepositoryScopeName, repo.entitas, method))
}

func (repo *MemoryRepository[T]) Insert(ctx context.Context, model T) (err error) {
	_, scope := repo.scope(ctx, "Insert")
	defer scope.End()
	defer scope.TraceIfError(err)

	repo.mu.Lock()
	defer repo.mu.Unlock()

	if len(repo.fields) == 0 {
		return errUnsupportedRow
	}

	key, err := repo.value(reflect.ValueOf(model), repo.primaryColumn)
	if err != nil {
		return err
	}

	for _, row := range repo.rows {
		existing, _ := repo.value(reflect.ValueOf(row), repo.primaryColumn)
		if c, ok := compareValues(existing, key); ok && c == 0 {
			return fmt.Errorf("failed to insert data (%s): %w", repo.entitas, errDuplicateKey)
		}
	}

	repo.rows = append(repo.rows, model)

	return nil
}

func (repo *MemoryRepository[T]) Exist(ctx context.Context, filter dto.FilterGroup) (bool, error) {
	if len(filter.Filters) == 0 {
		return false, errRequiredFilter
	}

	count, err := repo.Count(ctx, filter)

	return count > 0, err
}

// Get returns the first matching row or the zero value of T. Column projection
// is not applied.
func (repo *MemoryRepository[T]) Get(ctx context.Context, filter dto.FilterGroup, _ ...string) (model T, err error) {
	_, scope := repo.scope(ctx, "Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, row := range repo.rows {
		matched, err := repo.matchGroup(reflect.ValueOf(row), filter)
		if err != nil {
			return model, err
		}

		if matched {
			return row, nil
		}
	}

	return model, nil
}

func (repo *MemoryRepository[T]) GetAll(ctx context.Context, params dto.QueryParams, filter dto.FilterGroup, _ ...string) (models []T, err error) {
	_, scope := repo.scope(ctx, "GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	models, err = repo.filter(filter)
	if err != nil {
		return nil, err
	}

	sortBy := params.SortBy
	if idx := strings.LastIndex(sortBy, "."); idx >= 0 {
		sortBy = sortBy[idx+1:]
	}

	if _, ok := repo.fields[sortBy]; ok {
		desc := strings.EqualFold(params.SortDir, dto.SortDirDesc)

		slices.SortStableFunc(models, func(a, b T) int {
			left, _ := repo.value(reflect.ValueOf(a), sortBy)
			right, _ := repo.value(reflect.ValueOf(b), sortBy)

			c := orderValues(left, right)
			if desc {
				return -c
			}

			return c
		})
	}

	if params.Limit > 0 {
		offset := 0
		if params.Page > 0 {
			offset = (params.Page - 1) * params.Limit
		}

		if offset >= len(models) {
			return []T{}, nil
		}

		models = models[offset:min(offset+params.Limit, len(models))]
	}

	return models, nil
}

func (repo *MemoryRepository[T]) Count(ctx context.Context, filter dto.FilterGroup) (count int, err error) {
	_, scope := repo.scope(ctx, "Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	repo.mu.RLock()
	defer repo.mu.RUnlock()

	models, err := repo.filter(filter)

	return len(models), err
}

func (repo *MemoryRepository[T]) Update(ctx context.Context, mod map[string]any, filter dto.FilterGroup) error {
	_, err := repo.update(ctx, mod, filter)

	return err
}

func (repo *MemoryRepository[T]) CompareAndUpdate(ctx context.Context, mod map[string]any, filter dto.FilterGroup) (bool, error) {
	affected, err := repo.update(ctx, mod, filter)

	return affected > 0, err
}

func (repo *MemoryRepository[T]) update(ctx context.Context, mod map[string]any, filter dto.FilterGroup) (affected int, err error) {
	_, scope := repo.scope(ctx, "update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if len(filter.Filters) == 0 {
		return 0, errRequiredFilter
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	for col := range mod {
		if _, ok := repo.fields[col]; !ok {
			return 0, fmt.Errorf("%w: %s", errUnknownColumn, col)
		}
	}

	for i := range repo.rows {
		matched, err := repo.matchGroup(reflect.ValueOf(repo.rows[i]), filter)
		if err != nil {
			return affected, err
		}

		if !matched {
			continue
		}

		// Work on a copy so a failed assignment leaves the stored row untouched.
		updated := repo.rows[i]
		target := reflect.ValueOf(&updated).Elem()

		for col, value := range mod {
			if err := assign(target.FieldByIndex(repo.fields[col]), value); err != nil {
				return affected, fmt.Errorf("failed to update data (%s.%s): %w", repo.entitas, col, err)
			}
		}

		repo.rows[i] = updated
		affected++
	}

	return affected, nil
}

func (repo *MemoryRepository[T]) filter(filter dto.FilterGroup) ([]T, error) {
	models := []T{}

	for _, row := range repo.rows {
		matched, err := repo.matchGroup(reflect.ValueOf(row), filter)
		if err != nil {
			return nil, err
		}

		if matched {
			models = append(models, row)
		}
	}

	return models, nil
}

func (repo *MemoryRepository[T]) value(row reflect.Value, col string) (any, error) {
	index, ok := repo.fields[col]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownColumn, col)
	}

	return row.FieldByIndex(index).Interface(), nil
}

func (repo *MemoryRepository[T]) matchGroup(row reflect.Value, group dto.FilterGroup) (bool, error) {
	if len(group.Filters) == 0 {
		return true, nil
	}

	anyOf := strings.EqualFold(group.Operator, dto.FilterGroupOperatorOr)

	for _, item := range group.Filters {
		var (
			matched bool
			err     error
		)

		switch f := item.(type) {
		case dto.Filter:
			matched, err = repo.matchFilter(row, f)
		case dto.FilterGroup:
			matched, err = repo.matchGroup(row, f)
		default:
			continue
		}

		if err != nil {
			return false, err
		}

		if anyOf && matched {
			return true, nil
		}

		if !anyOf && !matched {
			return false, nil
		}
	}

	return !anyOf, nil
}

func (repo *MemoryRepository[T]) matchFilter(row reflect.Value, f dto.Filter) (bool, error) {
	current, err := repo.value(row, f.Field)
	if err != nil {
		return false, err
	}

	switch f.Operator {
	case dto.FilterIsNull:
		return normalize(current) == nil, nil
	case dto.FilterIsNotNull:
		return normalize(current) != nil, nil
	case dto.FilterOperatorIn:
		list := reflect.ValueOf(f.Value)
		if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
			return false, fmt.Errorf("%w: in requires a slice", errUnsupportedOp)
		}

		for idx := range list.Len() {
			if c, ok := compareValues(current, list.Index(idx).Interface()); ok && c == 0 {
				return true, nil
			}
		}

		return false, nil
	case dto.FilterOperatorLike:
		str, ok := normalize(current).(string)
		if !ok {
			return false, nil
		}

		return strings.Contains(strings.ToLower(str), strings.ToLower(fmt.Sprint(f.Value))), nil
	}

	c, ok := compareValues(current, f.Value)
	if !ok {
		return false, nil
	}

	switch f.Operator {
	case dto.FilterOperatorEq:
		return c == 0, nil
	case dto.FilterOperatorNotEq:
		return c != 0, nil
	case dto.FilterOperatorLess:
		return c < 0, nil
	case dto.FilterOperatorLessEq:
		return c <= 0, nil
	case dto.FilterOperatorGreater:
		return c > 0, nil
	case dto.FilterOperatorGreaterEq:
		return c >= 0, nil
	default:
		return false, fmt.Errorf("%w: %s", errUnsupportedOp, f.Operator)
	}
}

// normalize flattens pointers and named types into string, int64, float64,
// bool or time.Time. A nil pointer becomes nil.
func normalize(value any) any {
	if value == nil {
		return nil
	}

	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}

		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint()) //nolint:gosec
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Bool:
		return v.Bool()
	default:
		if t, ok := v.Interface().(time.Time); ok {
			return t
		}

		return v.Interface()
	}
}

// compareValues orders a and b with SQL semantics: comparing against NULL
// or across incompatible types is not a match.
func compareValues(a, b any) (int, bool) {
	left, right := normalize(a), normalize(b)
	if left == nil || right == nil {
		return 0, false
	}

	switch x := left.(type) {
	case string:
		y, ok := right.(string)
		if !ok {
			return 0, false
		}

		return strings.Compare(x, y), true
	case int64:
		switch y := right.(type) {
		case int64:
			return cmp.Compare(x, y), true
		case float64:
			return cmp.Compare(float64(x), y), true
		}
	case float64:
		switch y := right.(type) {
		case float64:
			return cmp.Compare(x, y), true
		case int64:
			return cmp.Compare(x, float64(y)), true
		}
	case bool:
		y, ok := right.(bool)
		if !ok {
			return 0, false
		}

		if x == y {
			return 0, true
		}

		if !x {
			return -1, true
		}

		return 1, true
	case time.Time:
		switch y := right.(type) {
		case time.Time:
			return x.Compare(y), true
		case string:
			// a YYYY-MM-DD literal compares against the stored calendar date, as postgres does for DATE columns
			if _, err := time.Parse(time.DateOnly, y); err != nil {
				return 0, false
			}

			return strings.Compare(x.Format(time.DateOnly), y), true
		}
	}

	return 0, false
}

// orderValues sorts NULLs last, matching postgres ASC ordering.
func orderValues(a, b any) int {
	left, right := normalize(a), normalize(b)

	switch {
	case left == nil && right == nil:
		return 0
	case left == nil:
		return 1
	case right == nil:
		return -1
	}

	c, _ := compareValues(left, right)

	return c
}

func assign(field reflect.Value, value any) error {
	if value == nil {
		field.Set(reflect.Zero(field.Type()))

		return nil
	}

	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Pointer && v.IsNil() {
		field.Set(reflect.Zero(field.Type()))

		return nil
	}

	if v.Type().AssignableTo(field.Type()) {
		field.Set(v)

		return nil
	}

	target := field.Type()
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	if target.Kind() == reflect.Pointer {
		elem := target.Elem()
		if v.Kind() != elem.Kind() || !v.Type().ConvertibleTo(elem) {
			return fmt.Errorf("%w: %s to %s", errNotAssignable, v.Type(), target)
		}

		ptr := reflect.New(elem)
		ptr.Elem().Set(v.Convert(elem))
		field.Set(ptr)

		return nil
	}

	if v.Kind() != target.Kind() || !v.Type().ConvertibleTo(target) {
		return fmt.Errorf("%w: %s to %s", errNotAssignable, v.Type(), target)
	}

	field.Set(v.Convert(target))

	return nil
}
