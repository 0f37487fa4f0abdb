package user

import (
	"net/http"
	"tourbook/infras/otel"
	bookingService "tourbook/internal/domains/booking/service"
	"tourbook/internal/domains/user/model/dto"
	"tourbook/internal/domains/user/service"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/validator"
	"tourbook/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service  service.User
	bookings bookingService.Booking
	otel     otel.Otel
}

func New(service service.User, bookings bookingService.Booking, otel otel.Otel) Handler {
	return Handler{
		service:  service,
		bookings: bookings,
		otel:     otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Post("/admin/workers", handler.CreateWorker)
	router.Get("/admin/workers", handler.GetWorkers)
	router.Get("/admin/workers/{id}", handler.GetWorkerByID)
	router.Get("/admin/workers/{id}/stats", handler.GetWorkerStats)
}

// CreateWorker handles the creation of a staff account.
// @Summary Create a worker
// @Description Create an active staff account that bookings can be assigned to.
// @Tags Worker
// @Accept json
// @Produce json
// @Param request body dto.CreateWorkerRequest true "Create Worker Request"
// @Success 201 {object} response.Data[dto.UserResponse] "Worker created"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/admin/workers [post]
// @Security BearerAuth
func (handler *Handler) CreateWorker(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateWorker")
	defer scope.End()

	req := dto.CreateWorkerRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	worker, err := handler.service.CreateWorker(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create worker")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Worker created successfully")

	response.WithJSON(writer, http.StatusCreated, worker)
}

// GetWorkers lists staff accounts.
// @Summary List workers
// @Tags Worker
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[dto.GetUsersResponse] "List of workers"
// @Failure 500 {object} response.Error
// @Router /v1/admin/workers [get]
// @Security BearerAuth
func (handler *Handler) GetWorkers(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetWorkers")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	workers, err := handler.service.ListWorkers(ctx, queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get workers")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, workers)
}

// GetWorkerByID returns one account.
// @Summary Get a worker
// @Tags Worker
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Data[dto.UserResponse] "Worker"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/admin/workers/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetWorkerByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetWorkerByID")
	defer scope.End()

	worker, err := handler.service.Get(ctx, chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get worker")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, worker)
}

// GetWorkerStats returns the statistics of one worker.
// @Summary Worker statistics
// @Tags Stats
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Data[bookingDto.WorkerStatsResponse] "Statistics"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/admin/workers/{id}/stats [get]
// @Security BearerAuth
func (handler *Handler) GetWorkerStats(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetWorkerStats")
	defer scope.End()

	stats, err := handler.bookings.WorkerStats(ctx, chi.URLParam(request, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get worker statistics")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, stats)
}
