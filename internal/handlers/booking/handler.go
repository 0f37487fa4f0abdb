package booking

import (
	"net/http"
	"tourbook/infras/otel"
	"tourbook/internal/domains/booking/model/dto"
	"tourbook/internal/domains/booking/service"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/validator"
	"tourbook/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const paramID = "id"

type Handler struct {
	service service.Booking
	otel    otel.Otel
}

func New(service service.Booking, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Post("/bookings", handler.CreateBooking)

	router.Get("/admin/bookings", handler.GetBookings)
	router.Get("/admin/bookings/{id}", handler.GetBookingByID)
	router.Patch("/admin/bookings/{id}/status", handler.SetAdminStatus)
	router.Patch("/admin/bookings/{id}/payment-status", handler.SetPaymentStatus)
	router.Patch("/admin/bookings/{id}/deposit", handler.SetDepositStatus)
	router.Patch("/admin/bookings/{id}/notes", handler.SetNotes)
	router.Patch("/admin/bookings/{id}/assign", handler.AssignBooking)
	router.Get("/admin/stats", handler.GetAdminStats)

	router.Get("/worker/bookings", handler.GetAssignedBookings)
	router.Get("/worker/bookings/{id}", handler.GetBookingByID)
	router.Patch("/worker/bookings/{id}/status", handler.SetWorkerStatus)
	router.Patch("/worker/bookings/{id}/payment-status", handler.SetPaymentStatus)
	router.Patch("/worker/bookings/{id}/deposit", handler.SetDepositStatus)
	router.Patch("/worker/bookings/{id}/notes", handler.SetNotes)
	router.Get("/worker/stats", handler.GetMyStats)
}

// CreateBooking handles a public booking request.
// @Summary Create a new booking
// @Description Book a tour. The payment state is derived from the payment method.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Data[dto.BookingResponse] "Booking created"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [post]
func (handler *Handler) CreateBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	booking, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create booking")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Booking created successfully")

	response.WithJSON(writer, http.StatusCreated, booking)
}

// GetBookings lists every booking for administrators.
// @Summary List bookings
// @Description Paginated booking list with optional filters.
// @Tags Booking
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param status query string false "pending, confirmed, completed or cancelled"
// @Param payment_status query string false "unpaid, partially_paid, paid or refunded"
// @Param assigned_to_id query string false "Worker ID, or none for unassigned bookings"
// @Param tour_id query string false "Tour ID"
// @Param start_date_from query string false "YYYY-MM-DD"
// @Param start_date_to query string false "YYYY-MM-DD"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/admin/bookings [get]
// @Security BearerAuth
func (handler *Handler) GetBookings(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookings")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	filter := dto.ListFilter{}
	filter.FromRequest(request)

	if err := validator.ValidateStruct(&filter); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate booking filter")

		response.WithError(writer, err)

		return
	}

	bookings, err := handler.service.List(ctx, queryParams, filter)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get bookings")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, bookings)
}

// GetAssignedBookings lists the bookings assigned to the caller.
// @Summary List my bookings
// @Tags Worker
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "Assigned bookings"
// @Failure 401 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/worker/bookings [get]
// @Security BearerAuth
func (handler *Handler) GetAssignedBookings(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAssignedBookings")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	bookings, err := handler.service.ListAssigned(ctx, queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get assigned bookings")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, bookings)
}

// GetBookingByID returns one booking to an administrator or its assigned worker.
// @Summary Get a booking
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/admin/bookings/{id} [get]
// @Router /v1/worker/bookings/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetBookingByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingByID")
	defer scope.End()

	booking, err := handler.service.Get(ctx, chi.URLParam(request, paramID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, booking)
}

// SetAdminStatus changes the lifecycle status from the admin surface.
// @Summary Set booking status
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.AdminStatusRequest true "pending, confirmed or cancelled"
// @Success 200 {object} response.Data[dto.BookingResponse] "Updated booking"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/admin/bookings/{id}/status [patch]
// @Security BearerAuth
func (handler *Handler) SetAdminStatus(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SetAdminStatus")
	defer scope.End()

	req := dto.AdminStatusRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	booking, err := handler.service.SetStatus(ctx, chi.URLParam(request, paramID), req.Status)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to set booking status")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, booking)
}

// SetWorkerStatus changes the lifecycle status from the worker surface.
// @Summary Set booking status
// @Tags Worker
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.WorkerStatusRequest true "pending, completed or cancelled"
// @Success 200 {object} response.Data[dto.BookingResponse] "Updated booking"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/worker/bookings/{id}/status [patch]
// @Security BearerAuth
func (handler *Handler) SetWorkerStatus(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SetWorkerStatus")
	defer scope.End()

	req := dto.WorkerStatusRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	booking, err := handler.service.SetStatus(ctx, chi.URLParam(request, paramID), req.Status)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to set booking status")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, booking)
}

// SetPaymentStatus overrides the payment status.
// @Summary Set payment status
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.PaymentStatusRequest true "Payment status"
// @Success 200 {object} response.Data[dto.BookingResponse] "Updated booking"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/admin/bookings/{id}/payment-status [patch]
// @Router /v1/worker/bookings/{id}/payment-status [patch]
// @Security BearerAuth
func (handler *Handler) SetPaymentStatus(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SetPaymentStatus")
	defer scope.End()

	req := dto.PaymentStatusRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	booking, err := handler.service.SetPaymentStatus(ctx, chi.URLParam(request, paramID), req.PaymentStatus)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to set payment status")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, booking)
}

// SetDepositStatus records whether the deposit of a cash booking was paid.
// @Summary Set deposit status
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.DepositRequest true "Deposit flag"
// @Success 200 {object} response.Data[dto.BookingResponse] "Updated booking"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/admin/bookings/{id}/deposit [patch]
// @Router /v1/worker/bookings/{id}/deposit [patch]
// @Security BearerAuth
func (handler *Handler) SetDepositStatus(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SetDepositStatus")
	defer scope.End()

	req := dto.DepositRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	booking, err := handler.service.SetDepositStatus(ctx, chi.URLParam(request, paramID), *req.DepositPaid)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to set deposit status")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, booking)
}

// SetNotes replaces the internal notes. A blank value clears them.
// @Summary Set booking notes
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.NotesRequest true "Notes"
// @Success 200 {object} response.Data[dto.BookingResponse] "Updated booking"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/admin/bookings/{id}/notes [patch]
// @Router /v1/worker/bookings/{id}/notes [patch]
// @Security BearerAuth
func (handler *Handler) SetNotes(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SetNotes")
	defer scope.End()

	req := dto.NotesRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	booking, err := handler.service.SetNotes(ctx, chi.URLParam(request, paramID), req.Value())
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to set booking notes")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, booking)
}

// AssignBooking assigns the booking to a staff member, or clears the assignment.
// @Summary Assign a booking
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.AssignRequest true "Worker ID, null to unassign"
// @Success 200 {object} response.Data[dto.BookingResponse] "Updated booking"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/admin/bookings/{id}/assign [patch]
// @Security BearerAuth
func (handler *Handler) AssignBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".AssignBooking")
	defer scope.End()

	req := dto.AssignRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	booking, err := handler.service.Assign(ctx, chi.URLParam(request, paramID), req.Value())
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to assign booking")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Booking assigned successfully")

	response.WithJSON(writer, http.StatusOK, booking)
}

// GetAdminStats returns booking totals across the whole system.
// @Summary Admin statistics
// @Tags Stats
// @Produce json
// @Success 200 {object} response.Data[dto.AdminStatsResponse] "Statistics"
// @Failure 403 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/admin/stats [get]
// @Security BearerAuth
func (handler *Handler) GetAdminStats(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAdminStats")
	defer scope.End()

	stats, err := handler.service.AdminStats(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get admin statistics")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, stats)
}

// GetMyStats returns the caller's own worker statistics.
// @Summary My statistics
// @Tags Worker
// @Produce json
// @Success 200 {object} response.Data[dto.WorkerStatsResponse] "Statistics"
// @Failure 401 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/worker/stats [get]
// @Security BearerAuth
func (handler *Handler) GetMyStats(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyStats")
	defer scope.End()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	stats, err := handler.service.WorkerStats(ctx, userID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get worker statistics")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, stats)
}
