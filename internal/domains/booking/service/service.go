package service

import (
	"context"
	"fmt"
	"tourbook/config"
	"tourbook/infras/otel"
	"tourbook/internal/domains/booking/events"
	"tourbook/internal/domains/booking/model"
	"tourbook/internal/domains/booking/model/dto"
	"tourbook/internal/domains/booking/policy"
	"tourbook/internal/domains/booking/repository"
	tourService "tourbook/internal/domains/tour/service"
	userModel "tourbook/internal/domains/user/model"
	userRepo "tourbook/internal/domains/user/repository"
	"tourbook/shared"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/failure"
	"tourbook/shared/timezone"

	"github.com/rs/zerolog/log"
)

var (
	errBookingNotFound    = failure.NotFound("booking not found")
	errWorkerNotFound     = failure.NotFound("worker not found")
	errNotStaff           = failure.InvalidArgument("selected user is not a staff member")
	errInactiveWorker     = failure.InvalidArgument("selected staff member is inactive")
	errForbiddenBooking   = failure.Forbidden("you are not allowed to act on this booking")
	errForbiddenAssign    = failure.Forbidden("only administrators can assign bookings")
	errForbiddenPayment   = failure.Forbidden("only administrators can refund or move a payment backwards")
	errForbiddenReopen    = failure.Forbidden("only administrators can reopen a completed or cancelled booking")
	errForbiddenStats     = failure.Forbidden("you are not allowed to view these statistics")
	errUnauthenticated    = failure.Unauthorized("authentication required")
	errConcurrentMutation = failure.Conflict("booking was modified concurrently, please retry")
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	List(ctx context.Context, query gDto.QueryParams, filter dto.ListFilter) (dto.GetBookingsResponse, error)
	ListAssigned(ctx context.Context, query gDto.QueryParams) (dto.GetBookingsResponse, error)
	SetStatus(ctx context.Context, id, status string) (dto.BookingResponse, error)
	SetPaymentStatus(ctx context.Context, id, status string) (dto.BookingResponse, error)
	SetDepositStatus(ctx context.Context, id string, paid bool) (dto.BookingResponse, error)
	SetNotes(ctx context.Context, id string, notes *string) (dto.BookingResponse, error)
	Assign(ctx context.Context, id string, workerID *string) (dto.BookingResponse, error)
	WorkerStats(ctx context.Context, workerID string) (dto.WorkerStatsResponse, error)
	AdminStats(ctx context.Context) (dto.AdminStatsResponse, error)
}

type serviceImpl struct {
	repo      repository.Booking
	users     userRepo.User
	tours     tourService.Tour
	publisher events.Publisher
	cfg       *config.Config
	otel      otel.Otel
}

func New(
	repo repository.Booking,
	users userRepo.User,
	tours tourService.Tour,
	publisher events.Publisher,
	cfg *config.Config,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:      repo,
		users:     users,
		tours:     tours,
		publisher: publisher,
		cfg:       cfg,
		otel:      otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Booking.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := req.ToModel(timezone.Now())
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	tour, err := s.tours.Get(ctx, booking.TourID)
	if err != nil {
		return res, fmt.Errorf("failed to resolve tour: %w", err)
	}

	if tour.MaxPeople > 0 && booking.NumberOfPeople > tour.MaxPeople {
		return res, failure.InvalidArgument(fmt.Sprintf("this tour accepts at most %d people", tour.MaxPeople)) //nolint:wrapcheck
	}

	if err = s.repo.Insert(ctx, booking); err != nil {
		log.Error().Err(err).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	s.publish(ctx, events.New(events.TypeCreated, booking, constant.ContextGuest))

	res.FromModel(booking)
	res.TourTitle = tour.Title

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Booking.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor, err := s.actor(ctx)
	if err != nil {
		return res, err
	}

	booking, err := s.load(ctx, id)
	if err != nil {
		return res, err
	}

	if !policy.CanActOn(booking, actor) {
		return res, errForbiddenBooking
	}

	res.FromModel(booking)

	titles, err := s.tours.Titles(ctx, []string{booking.TourID})
	if err != nil {
		return res, fmt.Errorf("failed to annotate booking: %w", err)
	}

	res.TourTitle = titles[booking.TourID]

	return res, nil
}

func (s *serviceImpl) List(ctx context.Context, query gDto.QueryParams, filter dto.ListFilter) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Booking.List")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor, err := s.actor(ctx)
	if err != nil {
		return res, err
	}

	if !actor.IsAdmin() {
		return res, errForbiddenBooking
	}

	return s.page(ctx, query, filter.ToFilterGroup())
}

func (s *serviceImpl) ListAssigned(ctx context.Context, query gDto.QueryParams) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Booking.ListAssigned")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor, err := s.actor(ctx)
	if err != nil {
		return res, err
	}

	return s.page(ctx, query, assignedTo(actor.ID))
}

func (s *serviceImpl) page(ctx context.Context, query gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	query = dto.NormalizeQuery(query)

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, query, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, query.Limit)

	titles, err := s.tours.Titles(ctx, res.TourIDs())
	if err != nil {
		return res, fmt.Errorf("failed to annotate bookings: %w", err)
	}

	res.WithTitles(titles)

	return res, nil
}

func (s *serviceImpl) SetStatus(ctx context.Context, id, status string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Booking.SetStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	target, err := model.ParseStatus(status)
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	booking, err := s.mutate(ctx, id, events.TypeStatusChanged, func(booking model.Booking, actor policy.Actor) (model.Booking, error) {
		if !policy.CanActOn(booking, actor) {
			return booking, errForbiddenBooking
		}

		if !policy.CanSetStatus(booking, actor, target) {
			return booking, errForbiddenReopen
		}

		return booking.WithStatus(target, timezone.Now()) //nolint:wrapcheck
	})
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) SetPaymentStatus(ctx context.Context, id, status string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Booking.SetPaymentStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	target, err := model.ParsePaymentStatus(status)
	if err != nil {
		return res, err //nolint:wrapcheck
	}

	booking, err := s.mutate(ctx, id, events.TypePaymentChanged, func(booking model.Booking, actor policy.Actor) (model.Booking, error) {
		if !policy.CanActOn(booking, actor) {
			return booking, errForbiddenBooking
		}

		if !policy.CanSetPaymentStatus(booking, actor, target) {
			return booking, errForbiddenPayment
		}

		return booking.WithPaymentStatus(target), nil
	})
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) SetDepositStatus(ctx context.Context, id string, paid bool) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Booking.SetDepositStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.mutate(ctx, id, events.TypeDepositChanged, func(booking model.Booking, actor policy.Actor) (model.Booking, error) {
		if !policy.CanActOn(booking, actor) {
			return booking, errForbiddenBooking
		}

		return booking.WithDeposit(paid) //nolint:wrapcheck
	})
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) SetNotes(ctx context.Context, id string, notes *string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Booking.SetNotes")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.mutate(ctx, id, events.TypeNotesChanged, func(booking model.Booking, actor policy.Actor) (model.Booking, error) {
		if !policy.CanActOn(booking, actor) {
			return booking, errForbiddenBooking
		}

		return booking.WithNotes(notes), nil
	})
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) Assign(ctx context.Context, id string, workerID *string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Booking.Assign")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.mutate(ctx, id, events.TypeAssigned, func(booking model.Booking, actor policy.Actor) (model.Booking, error) {
		if !policy.CanAssign(actor) {
			return booking, errForbiddenAssign
		}

		if workerID == nil {
			return booking.WithAssignee(nil), nil
		}

		worker, err := s.user(ctx, *workerID)
		if err != nil {
			return booking, err
		}

		if worker.ID == "" {
			return booking, errWorkerNotFound
		}

		if worker.Role != constant.RoleStaff {
			return booking, errNotStaff
		}

		if !worker.Active {
			return booking, errInactiveWorker
		}

		assignee := worker.ID

		return booking.WithAssignee(&assignee), nil
	})
	if err != nil {
		return res, err
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) WorkerStats(ctx context.Context, workerID string) (res dto.WorkerStatsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Booking.WorkerStats")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor, err := s.actor(ctx)
	if err != nil {
		return res, err
	}

	if !policy.CanViewWorker(actor, workerID) {
		return res, errForbiddenStats
	}

	worker, err := s.user(ctx, workerID)
	if err != nil {
		return res, err
	}

	if worker.ID == "" {
		return res, errWorkerNotFound
	}

	res.WorkerID = worker.ID

	res.TodayBookings, err = s.todayBookingsCount(ctx, worker.ID)
	if err != nil {
		return res, err
	}

	res.CompletedBookings, err = s.completedBookingsCount(ctx, worker.ID)
	if err != nil {
		return res, err
	}

	res.RecentBookings, err = s.recentBookings(ctx, worker.ID, s.recentLimit())
	if err != nil {
		return res, err
	}

	return res, nil
}

func (s *serviceImpl) todayBookingsCount(ctx context.Context, workerID string) (int, error) {
	filter := assignedTo(workerID)
	filter.Filters = append(filter.Filters, gDto.Filter{
		ArgName:  "today",
		Field:    model.FieldStartDate,
		Value:    timezone.TodayDate(),
		Operator: gDto.FilterOperatorEq,
		Table:    model.TableName,
	})

	count, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Str("worker_id", workerID).Msg("failed to count today's bookings")

		return 0, fmt.Errorf("failed to count today's bookings: %w", err)
	}

	return count, nil
}

func (s *serviceImpl) completedBookingsCount(ctx context.Context, workerID string) (int, error) {
	filter := assignedTo(workerID)
	filter.Filters = append(filter.Filters, gDto.Filter{
		Field:    model.FieldStatus,
		Value:    model.StatusCompleted,
		Operator: gDto.FilterOperatorEq,
		Table:    model.TableName,
	})

	count, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Str("worker_id", workerID).Msg("failed to count completed bookings")

		return 0, fmt.Errorf("failed to count completed bookings: %w", err)
	}

	return count, nil
}

func (s *serviceImpl) recentBookings(ctx context.Context, workerID string, limit int) ([]dto.BookingResponse, error) {
	query := gDto.QueryParams{
		Limit:   limit,
		SortBy:  model.FieldCreatedAt,
		SortDir: gDto.SortDirDesc,
	}

	models, err := s.repo.GetAll(ctx, query, assignedTo(workerID))
	if err != nil {
		log.Error().Err(err).Str("worker_id", workerID).Msg("failed to get recent bookings")

		return nil, fmt.Errorf("failed to get recent bookings: %w", err)
	}

	var page dto.GetBookingsResponse
	page.FromModels(models, len(models), limit)

	titles, err := s.tours.Titles(ctx, page.TourIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to annotate recent bookings: %w", err)
	}

	page.WithTitles(titles)

	return page.Bookings, nil
}

func (s *serviceImpl) recentLimit() int {
	if s.cfg.App.Booking.RecentBookingLimit > 0 {
		return s.cfg.App.Booking.RecentBookingLimit
	}

	return constant.DefaultRecentBookings
}

// actor resolves the caller and re-reads its role from the user store.
func (s *serviceImpl) actor(ctx context.Context) (policy.Actor, error) {
	actorID, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if actorID == "" {
		return policy.Actor{}, errUnauthenticated
	}

	user, err := s.user(ctx, actorID)
	if err != nil {
		return policy.Actor{}, err
	}

	if user.ID == "" || !user.Active {
		return policy.Actor{}, errUnauthenticated
	}

	return policy.Actor{ID: user.ID, Role: user.Role}, nil
}

func (s *serviceImpl) user(ctx context.Context, id string) (userModel.User, error) {
	user, err := s.users.Get(ctx, shared.FilterByID(id, userModel.FieldID, userModel.TableName))
	if err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("failed to get user")

		return user, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (s *serviceImpl) load(ctx context.Context, id string) (model.Booking, error) {
	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Str("booking_id", id).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == "" {
		return booking, errBookingNotFound
	}

	return booking, nil
}

// publish runs after the write succeeded and inside the request, so one
// caller's successive changes reach the topic in order. Delivery failures are
// logged and never undo the change; consumers order concurrent writers by version.
func (s *serviceImpl) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		log.Warn().Err(err).Str("booking_id", event.BookingID).Msg("booking event not delivered")
	}
}

func assignedTo(workerID string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldAssignedToID,
				Value:    workerID,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
		},
	}
}
