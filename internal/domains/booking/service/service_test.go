package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	"tourbook/config"
	"tourbook/infras/otel/mocks"
	"tourbook/internal/domains/booking/events"
	bookingMocks "tourbook/internal/domains/booking/mocks"
	"tourbook/internal/domains/booking/model"
	"tourbook/internal/domains/booking/model/dto"
	"tourbook/internal/domains/booking/repository"
	"tourbook/internal/domains/booking/service"
	tourModel "tourbook/internal/domains/tour/model"
	tourRepo "tourbook/internal/domains/tour/repository"
	tourService "tourbook/internal/domains/tour/service"
	userModel "tourbook/internal/domains/user/model"
	userRepo "tourbook/internal/domains/user/repository"
	cacheMocks "tourbook/shared/cache/mocks"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/failure"
	gModel "tourbook/shared/model"
	"tourbook/shared/timezone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	adminID    = "00000000-0000-0000-0000-0000000000a1"
	workerAID  = "00000000-0000-0000-0000-0000000000b1"
	workerBID  = "00000000-0000-0000-0000-0000000000b2"
	inactiveID = "00000000-0000-0000-0000-0000000000c1"
	tourID     = "tour-1"
	sunsetID   = "tour-2"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recorder) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)

	return r.err
}

func (r *recorder) failWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.err = err
}

func (r *recorder) versions() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	versions := make([]int, 0, len(r.events))
	for _, event := range r.events {
		versions = append(versions, event.Version)
	}

	return versions
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]events.Type, 0, len(r.events))
	for _, event := range r.events {
		types = append(types, event.Type)
	}

	return types
}

type fixture struct {
	svc       service.Booking
	bookings  repository.Booking
	users     userRepo.User
	published *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	otl := mocks.NewOtel()
	ctrl := gomock.NewController(t)

	redisCache := cacheMocks.NewMockRedisCache(ctrl)
	redisCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss")).AnyTimes()
	redisCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	users := userRepo.NewInMemory(otl)
	for _, user := range []userModel.User{
		{ID: adminID, Email: "admin@example.com", Role: constant.RoleAdmin, Active: true},
		{ID: workerAID, Email: "a@example.com", Role: constant.RoleStaff, Active: true},
		{ID: workerBID, Email: "b@example.com", Role: constant.RoleStaff, Active: true},
		{ID: inactiveID, Email: "gone@example.com", Role: constant.RoleAdmin, Active: false},
	} {
		require.NoError(t, users.Insert(ctx, user))
	}

	tours := tourRepo.NewInMemory(otl)
	require.NoError(t, tours.Insert(ctx, tourModel.Tour{ID: tourID, Title: "Old Town Walk", Price: "$40", MaxPeople: 10}))
	require.NoError(t, tours.Insert(ctx, tourModel.Tour{ID: sunsetID, Title: "Sunset Cruise", Price: "$90"}))

	cfg := &config.Config{}
	cfg.Cache.TTL = 60
	cfg.App.Booking.RecentBookingLimit = 2

	bookings := repository.NewInMemory(otl)
	published := &recorder{}

	return &fixture{
		svc:       service.New(bookings, users, tourService.New(tours, cfg, redisCache, otl), published, cfg, otl),
		bookings:  bookings,
		users:     users,
		published: published,
	}
}

func as(userID string) context.Context {
	return context.WithValue(context.Background(), constant.ContextKeyUserID, userID)
}

func ptr[T any](v T) *T {
	return &v
}

func createReq(method string, details *string) dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		TourID:         tourID,
		FullName:       "Jane Doe",
		Email:          "jane@example.com",
		Phone:          "+10000000",
		NumberOfPeople: 2,
		StartDate:      timezone.Now().AddDate(0, 0, 7).Format(constant.DateOnlyFormat),
		PaymentMethod:  method,
		PaymentDetails: details,
		TotalAmount:    "$80.00",
	}
}

func (f *fixture) create(t *testing.T, method string, details *string) dto.BookingResponse {
	t.Helper()

	res, err := f.svc.Create(context.Background(), createReq(method, details))
	require.NoError(t, err)

	return res
}

func (f *fixture) assign(t *testing.T, bookingID, workerID string) {
	t.Helper()

	_, err := f.svc.Assign(as(adminID), bookingID, &workerID)
	require.NoError(t, err)
}

func (f *fixture) stored(t *testing.T, id string) model.Booking {
	t.Helper()

	booking, err := f.bookings.Get(context.Background(), gDto.FilterGroup{
		Filters: []any{gDto.Filter{Field: model.FieldID, Value: id, Operator: gDto.FilterOperatorEq}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, booking.ID)

	return booking
}

func TestBookingService_CreateDerivesPaymentState(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		details     *string
		wantStatus  string
		wantDeposit bool
	}{
		{name: "plastic is paid", method: "plastic", wantStatus: "paid"},
		{name: "visa is paid", method: "visa", wantStatus: "paid"},
		{name: "later is unpaid", method: "later", wantStatus: "unpaid"},
		{name: "cash without deposit", method: "cash", details: ptr("pay on arrival"), wantStatus: "unpaid"},
		{name: "cash mentioning a deposit", method: "cash", details: ptr("30% DEPOSIT at the office"), wantStatus: "partially_paid", wantDeposit: true},
		{name: "card ignores deposit wording", method: "visa", details: ptr("deposit"), wantStatus: "paid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			res := f.create(t, tt.method, tt.details)

			assert.Equal(t, tt.wantStatus, res.PaymentStatus)
			assert.Equal(t, tt.wantDeposit, res.DepositPaid)
			assert.Equal(t, "pending", res.Status)
			assert.Equal(t, "Old Town Walk", res.TourTitle)
			assert.Equal(t, 1, res.Version)
			assert.Nil(t, res.AssignedToID)
			assert.Nil(t, res.CompletedAt)

			stored := f.stored(t, res.ID)
			assert.Equal(t, stored.CreatedAt, stored.ModifiedAt)
		})
	}
}

func TestBookingService_CreateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(req *dto.CreateBookingRequest)
		wantKind failure.Kind
	}{
		{name: "unknown tour", mutate: func(req *dto.CreateBookingRequest) { req.TourID = "nope" }, wantKind: failure.KindNotFound},
		{name: "unknown payment method", mutate: func(req *dto.CreateBookingRequest) { req.PaymentMethod = "bitcoin" }, wantKind: failure.KindInvalidArgument},
		{name: "unparsable date", mutate: func(req *dto.CreateBookingRequest) { req.StartDate = "next friday" }, wantKind: failure.KindInvalidArgument},
		{name: "no people", mutate: func(req *dto.CreateBookingRequest) { req.NumberOfPeople = 0 }, wantKind: failure.KindInvalidArgument},
		{name: "over tour capacity", mutate: func(req *dto.CreateBookingRequest) { req.NumberOfPeople = 11 }, wantKind: failure.KindInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			req := createReq("cash", nil)
			tt.mutate(&req)

			_, err := f.svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.True(t, failure.IsKind(err, tt.wantKind), "got %v", err)

			count, err := f.bookings.Count(context.Background(), gDto.FilterGroup{})
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestBookingService_CompletionStampsOnce(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, "later", nil)
	f.assign(t, booking.ID, workerAID)

	completed, err := f.svc.SetStatus(as(workerAID), booking.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, "completed", completed.Status)
	require.NotNil(t, completed.CompletedAt)

	first := f.stored(t, booking.ID).CompletedAt
	require.NotNil(t, first)

	again, err := f.svc.SetStatus(as(adminID), booking.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, "completed", again.Status)
	assert.Equal(t, *first, *f.stored(t, booking.ID).CompletedAt)

	reopened, err := f.svc.SetStatus(as(adminID), booking.ID, "pending")
	require.NoError(t, err)
	assert.Equal(t, "pending", reopened.Status)
	assert.NotNil(t, reopened.CompletedAt)
}

func TestBookingService_ClosedBookings(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, "later", nil)
	f.assign(t, booking.ID, workerAID)

	_, err := f.svc.SetStatus(as(workerAID), booking.ID, "cancelled")
	require.NoError(t, err)

	_, err = f.svc.SetStatus(as(workerAID), booking.ID, "pending")
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindForbidden))

	_, err = f.svc.SetStatus(as(adminID), booking.ID, "completed")
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindInvalidOperation))

	stored := f.stored(t, booking.ID)
	assert.Equal(t, model.StatusCancelled, stored.Status)
	assert.Nil(t, stored.CompletedAt)

	reopened, err := f.svc.SetStatus(as(adminID), booking.ID, "pending")
	require.NoError(t, err)
	assert.Equal(t, "pending", reopened.Status)

	completed, err := f.svc.SetStatus(as(workerAID), booking.ID, "completed")
	require.NoError(t, err)
	assert.NotNil(t, completed.CompletedAt)
}

func TestBookingService_SetStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, "later", nil)

	_, err := f.svc.SetStatus(as(adminID), booking.ID, "archived")
	assert.True(t, failure.IsKind(err, failure.KindInvalidArgument))

	_, err = f.svc.SetStatus(as(adminID), "missing", "confirmed")
	assert.True(t, failure.IsKind(err, failure.KindNotFound))
}

func TestBookingService_SetNotesAuthorization(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, "later", nil)
	f.assign(t, booking.ID, workerAID)

	before := f.stored(t, booking.ID)

	_, err := f.svc.SetNotes(as(workerBID), booking.ID, ptr("x"))
	assert.True(t, failure.IsKind(err, failure.KindForbidden))
	assert.Equal(t, before, f.stored(t, booking.ID))

	res, err := f.svc.SetNotes(as(workerAID), booking.ID, ptr("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", *res.Notes)

	res, err = f.svc.SetNotes(as(adminID), booking.ID, ptr("y"))
	require.NoError(t, err)
	assert.Equal(t, "y", *res.Notes)

	after := f.stored(t, booking.ID)
	assert.Equal(t, before.Version+2, after.Version)
	assert.Equal(t, adminID, after.ModifiedBy)
	assert.False(t, after.ModifiedAt.Before(before.ModifiedAt))

	res, err = f.svc.SetNotes(as(adminID), booking.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Notes)
}

func TestBookingService_RequiresKnownActiveActor(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, "later", nil)

	_, err := f.svc.SetNotes(context.Background(), booking.ID, ptr("x"))
	assert.True(t, failure.IsKind(err, failure.KindUnauthorized))

	_, err = f.svc.SetNotes(as(inactiveID), booking.ID, ptr("x"))
	assert.True(t, failure.IsKind(err, failure.KindUnauthorized))

	_, err = f.svc.SetNotes(as("ghost"), booking.ID, ptr("x"))
	assert.True(t, failure.IsKind(err, failure.KindUnauthorized))
}

func TestBookingService_RoleIsReadOnEveryCall(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, "later", nil)

	_, err := f.svc.SetNotes(as(workerBID), booking.ID, ptr("x"))
	require.True(t, failure.IsKind(err, failure.KindForbidden))

	byID := gDto.FilterGroup{Filters: []any{gDto.Filter{Field: userModel.FieldID, Value: workerBID, Operator: gDto.FilterOperatorEq}}}
	require.NoError(t, f.users.Update(context.Background(), map[string]any{userModel.FieldRole: constant.RoleAdmin}, byID))

	_, err = f.svc.SetNotes(as(workerBID), booking.ID, ptr("x"))
	assert.NoError(t, err)
}

func TestBookingService_DepositOnlyForCash(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, "visa", nil)
	before := f.stored(t, booking.ID)

	_, err := f.svc.SetDepositStatus(as(adminID), booking.ID, true)
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindInvalidOperation))
	assert.False(t, failure.IsKind(err, failure.KindInvalidArgument))
	assert.Equal(t, "deposit status is only applicable for cash payments", err.Error())

	after := f.stored(t, booking.ID)
	assert.False(t, after.DepositPaid)
	assert.Equal(t, before.Version, after.Version)
}

func TestBookingService_DepositPromotesUnpaid(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, "cash", nil)
	f.assign(t, booking.ID, workerAID)

	res, err := f.svc.SetDepositStatus(as(workerAID), booking.ID, true)
	require.NoError(t, err)
	assert.True(t, res.DepositPaid)
	assert.Equal(t, "partially_paid", res.PaymentStatus)

	res, err = f.svc.SetDepositStatus(as(workerAID), booking.ID, false)
	require.NoError(t, err)
	assert.False(t, res.DepositPaid)
	assert.Equal(t, "partially_paid", res.PaymentStatus)

	_, err = f.svc.SetDepositStatus(as(workerBID), booking.ID, true)
	assert.True(t, failure.IsKind(err, failure.KindForbidden))
}

func TestBookingService_PaidImpliesDeposit(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, "cash", nil)
	require.False(t, booking.DepositPaid)

	res, err := f.svc.SetPaymentStatus(as(adminID), booking.ID, "paid")
	require.NoError(t, err)
	assert.Equal(t, "paid", res.PaymentStatus)
	assert.True(t, res.DepositPaid)

	stored := f.stored(t, booking.ID)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)
	assert.True(t, stored.DepositPaid)
}

func TestBookingService_PaymentOverrides(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, "later", nil)
	f.assign(t, booking.ID, workerAID)

	_, err := f.svc.SetPaymentStatus(as(workerAID), booking.ID, "bogus")
	assert.True(t, failure.IsKind(err, failure.KindInvalidArgument))

	res, err := f.svc.SetPaymentStatus(as(workerAID), booking.ID, "paid")
	require.NoError(t, err)
	assert.Equal(t, "paid", res.PaymentStatus)

	_, err = f.svc.SetPaymentStatus(as(workerAID), booking.ID, "unpaid")
	assert.True(t, failure.IsKind(err, failure.KindForbidden))

	_, err = f.svc.SetPaymentStatus(as(workerAID), booking.ID, "refunded")
	assert.True(t, failure.IsKind(err, failure.KindForbidden))

	_, err = f.svc.SetPaymentStatus(as(workerBID), booking.ID, "paid")
	assert.True(t, failure.IsKind(err, failure.KindForbidden))

	res, err = f.svc.SetPaymentStatus(as(adminID), booking.ID, "refunded")
	require.NoError(t, err)
	assert.Equal(t, "refunded", res.PaymentStatus)
}

func TestBookingService_AssignIsAdminOnly(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, "later", nil)
	f.assign(t, booking.ID, workerAID)

	_, err := f.svc.Assign(as(workerAID), booking.ID, ptr(workerAID))
	assert.True(t, failure.IsKind(err, failure.KindForbidden))

	_, err = f.svc.Assign(as(workerAID), booking.ID, ptr(workerBID))
	assert.True(t, failure.IsKind(err, failure.KindForbidden))

	_, err = f.svc.Assign(as(workerBID), booking.ID, nil)
	assert.True(t, failure.IsKind(err, failure.KindForbidden))

	res, err := f.svc.Assign(as(adminID), booking.ID, ptr(workerBID))
	require.NoError(t, err)
	require.NotNil(t, res.AssignedToID)
	assert.Equal(t, workerBID, *res.AssignedToID)
}

func TestBookingService_AssignValidatesWorker(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, "later", nil)

	_, err := f.svc.Assign(as(adminID), booking.ID, ptr(adminID))
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindInvalidArgument))
	assert.Equal(t, "selected user is not a staff member", err.Error())

	_, err = f.svc.Assign(as(adminID), booking.ID, ptr("no-such-user"))
	assert.True(t, failure.IsKind(err, failure.KindNotFound))

	retired := userModel.User{ID: "00000000-0000-0000-0000-0000000000b9", Email: "retired@example.com", Role: constant.RoleStaff, Active: false}
	require.NoError(t, f.users.Insert(context.Background(), retired))

	_, err = f.svc.Assign(as(adminID), booking.ID, &retired.ID)
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindInvalidArgument))
	assert.Equal(t, "selected staff member is inactive", err.Error())
	assert.Nil(t, f.stored(t, booking.ID).AssignedToID)

	f.assign(t, booking.ID, workerAID)

	res, err := f.svc.Assign(as(adminID), booking.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, res.AssignedToID)
	assert.Nil(t, f.stored(t, booking.ID).AssignedToID)
}

func TestBookingService_GetAndList(t *testing.T) {
	f := newFixture(t)

	mine := f.create(t, "later", nil)
	other := f.create(t, "visa", nil)
	f.assign(t, mine.ID, workerAID)

	got, err := f.svc.Get(as(workerAID), mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "Old Town Walk", got.TourTitle)

	_, err = f.svc.Get(as(workerAID), other.ID)
	assert.True(t, failure.IsKind(err, failure.KindForbidden))

	assigned, err := f.svc.ListAssigned(as(workerAID), gDto.QueryParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, assigned.Bookings, 1)
	assert.Equal(t, mine.ID, assigned.Bookings[0].ID)

	_, err = f.svc.List(as(workerAID), gDto.QueryParams{}, dto.ListFilter{})
	assert.True(t, failure.IsKind(err, failure.KindForbidden))

	unassigned, err := f.svc.List(as(adminID), gDto.QueryParams{Page: 1, Limit: 10}, dto.ListFilter{AssignedToID: "none"})
	require.NoError(t, err)
	require.Len(t, unassigned.Bookings, 1)
	assert.Equal(t, other.ID, unassigned.Bookings[0].ID)
	assert.Equal(t, 1, unassigned.TotalData)

	paid, err := f.svc.List(as(adminID), gDto.QueryParams{Page: 1, Limit: 10}, dto.ListFilter{PaymentStatus: "paid"})
	require.NoError(t, err)
	require.Len(t, paid.Bookings, 1)
	assert.Equal(t, other.ID, paid.Bookings[0].ID)
}

func TestBookingService_WorkerStats(t *testing.T) {
	f := newFixture(t)

	today := createReq("later", nil)
	today.StartDate = timezone.Now().Format(constant.DateOnlyFormat)

	todayBooking, err := f.svc.Create(context.Background(), today)
	require.NoError(t, err)

	future := f.create(t, "later", nil)
	forB := f.create(t, "later", nil)

	f.assign(t, todayBooking.ID, workerAID)
	f.assign(t, future.ID, workerAID)
	f.assign(t, forB.ID, workerBID)

	_, err = f.svc.SetStatus(as(workerAID), future.ID, "completed")
	require.NoError(t, err)

	statsA, err := f.svc.WorkerStats(as(workerAID), workerAID)
	require.NoError(t, err)
	assert.Equal(t, 1, statsA.TodayBookings)
	assert.Equal(t, 1, statsA.CompletedBookings)
	assert.Len(t, statsA.RecentBookings, 2)

	statsB, err := f.svc.WorkerStats(as(adminID), workerBID)
	require.NoError(t, err)
	assert.Equal(t, 0, statsB.CompletedBookings)
	assert.Equal(t, 0, statsB.TodayBookings)

	_, err = f.svc.WorkerStats(as(workerBID), workerAID)
	assert.True(t, failure.IsKind(err, failure.KindForbidden))

	_, err = f.svc.WorkerStats(as(adminID), "no-such-worker")
	assert.True(t, failure.IsKind(err, failure.KindNotFound))
}

func TestBookingService_TodayMatchesStoredCalendarDate(t *testing.T) {
	f := newFixture(t)

	today, err := timezone.ParseDate(timezone.TodayDate())
	require.NoError(t, err)

	// start dates come back from the database as midnight at offset zero
	for i, day := range []time.Time{today, today.AddDate(0, 0, -1), today.AddDate(0, 0, 1)} {
		require.NoError(t, f.bookings.Insert(context.Background(), model.Booking{
			ID:            []string{"d-today", "d-yesterday", "d-tomorrow"}[i],
			TourID:        tourID,
			StartDate:     time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.FixedZone("", 0)),
			Status:        model.StatusConfirmed,
			PaymentMethod: model.PaymentMethodLater,
			PaymentStatus: model.PaymentStatusUnpaid,
			AssignedToID:  ptr(workerAID),
			Version:       1,
		}))
	}

	stats, err := f.svc.WorkerStats(as(workerAID), workerAID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TodayBookings)

	booking, err := f.svc.Get(as(adminID), "d-today")
	require.NoError(t, err)
	assert.Equal(t, timezone.TodayDate(), booking.StartDate)
}

func TestBookingService_RecentBookings(t *testing.T) {
	f := newFixture(t)

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, timezone.GetLocation())

	for i, tour := range []string{tourID, sunsetID, tourID} {
		created := base.Add(time.Duration(i) * time.Hour)

		require.NoError(t, f.bookings.Insert(context.Background(), model.Booking{
			ID:            []string{"r-1", "r-2", "r-3"}[i],
			TourID:        tour,
			StartDate:     base,
			Status:        model.StatusPending,
			PaymentMethod: model.PaymentMethodLater,
			PaymentStatus: model.PaymentStatusUnpaid,
			AssignedToID:  ptr(workerAID),
			Version:       1,
			Metadata:      gModel.Metadata{CreatedAt: created, ModifiedAt: created},
		}))
	}

	stats, err := f.svc.WorkerStats(as(workerAID), workerAID)
	require.NoError(t, err)
	require.Len(t, stats.RecentBookings, 2)
	assert.Equal(t, "r-3", stats.RecentBookings[0].ID)
	assert.Equal(t, "Old Town Walk", stats.RecentBookings[0].TourTitle)
	assert.Equal(t, "r-2", stats.RecentBookings[1].ID)
	assert.Equal(t, "Sunset Cruise", stats.RecentBookings[1].TourTitle)
}

func TestBookingService_AdminStats(t *testing.T) {
	f := newFixture(t)

	seed := []struct {
		status  model.Status
		payment model.PaymentStatus
		amount  string
		worker  *string
		created time.Time
	}{
		{status: model.StatusConfirmed, payment: model.PaymentStatusPaid, amount: "$1,200.50", worker: ptr(workerAID), created: timezone.Now()},
		{status: model.StatusPending, payment: model.PaymentStatusUnpaid, amount: "80"},
		{status: model.StatusCancelled, payment: model.PaymentStatusPaid, amount: "$500"},
		{status: model.StatusCompleted, payment: model.PaymentStatusRefunded, amount: "$300"},
		{status: model.StatusCompleted, payment: model.PaymentStatusPaid, amount: "call us", worker: ptr(workerBID)},
	}

	for i, row := range seed {
		require.NoError(t, f.bookings.Insert(context.Background(), model.Booking{
			ID:            []string{"s-1", "s-2", "s-3", "s-4", "s-5"}[i],
			TourID:        tourID,
			Status:        row.status,
			PaymentMethod: model.PaymentMethodVisa,
			PaymentStatus: row.payment,
			TotalAmount:   row.amount,
			AssignedToID:  row.worker,
			Version:       1,
			Metadata:      gModel.Metadata{CreatedAt: row.created},
		}))
	}

	_, err := f.svc.AdminStats(as(workerAID))
	assert.True(t, failure.IsKind(err, failure.KindForbidden))

	stats, err := f.svc.AdminStats(as(adminID))
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalBookings)
	assert.Equal(t, map[string]int{"pending": 1, "confirmed": 1, "completed": 2, "cancelled": 1}, stats.ByStatus)
	assert.Equal(t, map[string]int{"unpaid": 1, "partially_paid": 0, "paid": 3, "refunded": 1}, stats.ByPaymentStatus)
	assert.Equal(t, 3, stats.Unassigned)
	assert.Equal(t, 1, stats.CreatedToday)
	assert.Equal(t, int64(128050), stats.TotalRevenueCents)
	assert.Equal(t, "1280.50", stats.TotalRevenue)
}

func TestBookingService_ConcurrentMutationsKeepBothChanges(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, "cash", nil)

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		_, err := f.svc.SetNotes(as(adminID), booking.ID, ptr("vip"))
		assert.NoError(t, err)
	}()

	go func() {
		defer wg.Done()

		_, err := f.svc.SetPaymentStatus(as(adminID), booking.ID, "paid")
		assert.NoError(t, err)
	}()

	wg.Wait()

	stored := f.stored(t, booking.ID)
	require.NotNil(t, stored.Notes)
	assert.Equal(t, "vip", *stored.Notes)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus)
	assert.True(t, stored.DepositPaid)
	assert.Equal(t, 3, stored.Version)
}

func TestBookingService_PublishesEvents(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, "later", nil)
	f.assign(t, booking.ID, workerAID)

	_, err := f.svc.SetStatus(as(workerAID), booking.ID, "confirmed")
	require.NoError(t, err)

	_, err = f.svc.SetNotes(as(workerAID), booking.ID, ptr("meet at the pier"))
	require.NoError(t, err)

	// published before each call returns, in the order the changes were made
	assert.Equal(t, []events.Type{
		events.TypeCreated,
		events.TypeAssigned,
		events.TypeStatusChanged,
		events.TypeNotesChanged,
	}, f.published.types())
	assert.Equal(t, []int{1, 2, 3, 4}, f.published.versions())
}

func TestBookingService_UndeliveredEventKeepsChange(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, "later", nil)
	f.published.failWith(errors.New("broker unavailable"))

	res, err := f.svc.SetStatus(as(adminID), booking.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, "confirmed", res.Status)
	assert.Equal(t, model.StatusConfirmed, f.stored(t, booking.ID).Status)
	assert.Len(t, f.published.types(), 2)
}

func TestBookingService_ConflictAfterLostRaces(t *testing.T) {
	tests := []struct {
		name     string
		results  []bool
		wantErr  bool
		wantCall int
	}{
		{name: "succeeds on retry", results: []bool{false, true}, wantCall: 2},
		{name: "gives up after three attempts", results: []bool{false, false, false}, wantErr: true, wantCall: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			otl := mocks.NewOtel()

			bookings := bookingMocks.NewMockBooking(ctrl)

			users := userRepo.NewInMemory(otl)
			require.NoError(t, users.Insert(context.Background(), userModel.User{ID: adminID, Role: constant.RoleAdmin, Active: true}))

			version := 4
			bookings.EXPECT().Get(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, _ gDto.FilterGroup, _ ...string) (model.Booking, error) {
				version++

				return model.Booking{ID: "b-1", Status: model.StatusPending, PaymentMethod: model.PaymentMethodCash, Version: version}, nil
			}).Times(tt.wantCall)

			for _, result := range tt.results {
				bookings.EXPECT().CompareAndUpdate(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, fields map[string]any, filter gDto.FilterGroup) (bool, error) {
						where, args := filter.GetWhereClause()
						assert.Contains(t, where, "expected_version")
						assert.Equal(t, version, args["expected_version"])
						assert.Equal(t, version+1, fields[model.FieldVersion])

						return result, nil
					})
			}

			publisher := &recorder{}
			svc := service.New(bookings, users, nil, publisher, &config.Config{}, otl)

			res, err := svc.SetStatus(as(adminID), "b-1", "confirmed")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, failure.IsKind(err, failure.KindConflict))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "confirmed", res.Status)
		})
	}
}

func TestBookingService_PersistenceErrorIsNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	otl := mocks.NewOtel()

	bookings := bookingMocks.NewMockBooking(ctrl)

	users := userRepo.NewInMemory(otl)
	require.NoError(t, users.Insert(context.Background(), userModel.User{ID: adminID, Role: constant.RoleAdmin, Active: true}))

	bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{ID: "b-1", Version: 1}, nil).Times(1)
	bookings.EXPECT().CompareAndUpdate(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, errors.New("connection reset")).Times(1)

	svc := service.New(bookings, users, nil, &recorder{}, &config.Config{}, otl)

	_, err := svc.SetNotes(as(adminID), "b-1", ptr("x"))
	require.Error(t, err)
	assert.False(t, failure.IsKind(err, failure.KindConflict))
}
