package dto

import (
	"net/http"
	"slices"
	"strings"
	"time"
	"tourbook/internal/domains/booking/model"
	"tourbook/shared"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	gModel "tourbook/shared/model"
	"tourbook/shared/timezone"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	TourID          string  `json:"tour_id"                    validate:"required"`
	FullName        string  `json:"full_name"                  validate:"required,notblank,max=100"`
	Email           string  `json:"email"                      validate:"required,email,max=100"`
	Phone           string  `json:"phone"                      validate:"required,max=30"`
	NumberOfPeople  int     `json:"number_of_people"           validate:"required,min=1"`
	StartDate       string  `json:"start_date"                 validate:"required,date"`
	PaymentMethod   string  `json:"payment_method"             validate:"required,oneof=plastic visa cash later"`
	PaymentDetails  *string `json:"payment_details,omitempty"  validate:"omitempty,max=500"`
	SpecialRequests *string `json:"special_requests,omitempty" validate:"omitempty,max=1000"`
	TotalAmount     string  `json:"total_amount"               validate:"required,max=50"`
}

// ToModel builds a pending booking whose payment state is derived from the
// payment method.
func (r *CreateBookingRequest) ToModel(now time.Time) (model.Booking, error) {
	method, err := model.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return model.Booking{}, err
	}

	if r.NumberOfPeople < 1 {
		return model.Booking{}, model.ErrInvalidPeople
	}

	startDate, err := timezone.ParseDate(r.StartDate)
	if err != nil {
		return model.Booking{}, model.ErrInvalidStartDate
	}

	paymentStatus, depositPaid := model.InitialPayment(method, r.PaymentDetails)

	return model.Booking{
		ID:              uuid.NewString(),
		TourID:          r.TourID,
		FullName:        strings.TrimSpace(r.FullName),
		Email:           strings.TrimSpace(r.Email),
		Phone:           strings.TrimSpace(r.Phone),
		NumberOfPeople:  r.NumberOfPeople,
		SpecialRequests: r.SpecialRequests,
		StartDate:       startDate,
		Status:          model.StatusPending,
		PaymentMethod:   method,
		PaymentStatus:   paymentStatus,
		DepositPaid:     depositPaid,
		PaymentDetails:  r.PaymentDetails,
		TotalAmount:     strings.TrimSpace(r.TotalAmount),
		Version:         1,
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  constant.ContextGuest,
			ModifiedBy: constant.ContextGuest,
		},
	}, nil
}

// AdminStatusRequest is the status change allowed on the admin surface.
// Completion belongs to the worker surface.
type AdminStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed cancelled"`
}

// WorkerStatusRequest is the status change allowed on the worker surface.
type WorkerStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed cancelled"`
}

type PaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=unpaid partially_paid paid refunded"`
}

type DepositRequest struct {
	DepositPaid *bool `json:"deposit_paid" validate:"required"`
}

type NotesRequest struct {
	Notes *string `json:"notes" validate:"omitempty,max=2000"`
}

// Value returns nil for a missing or blank note.
func (r NotesRequest) Value() *string {
	if r.Notes == nil || strings.TrimSpace(*r.Notes) == "" {
		return nil
	}

	return r.Notes
}

type AssignRequest struct {
	WorkerID *string `json:"worker_id" validate:"omitempty,uuid"`
}

// Value returns nil when the assignment should be cleared.
func (r AssignRequest) Value() *string {
	if r.WorkerID == nil || *r.WorkerID == "" {
		return nil
	}

	return r.WorkerID
}

type BookingResponse struct {
	ID              string  `json:"id"`
	TourID          string  `json:"tour_id"`
	TourTitle       string  `json:"tour_title,omitempty"`
	FullName        string  `json:"full_name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	NumberOfPeople  int     `json:"number_of_people"`
	SpecialRequests *string `json:"special_requests,omitempty"`
	StartDate       string  `json:"start_date"`
	Status          string  `json:"status"`
	PaymentMethod   string  `json:"payment_method"`
	PaymentStatus   string  `json:"payment_status"`
	DepositPaid     bool    `json:"deposit_paid"`
	PaymentDetails  *string `json:"payment_details,omitempty"`
	TotalAmount     string  `json:"total_amount"`
	Notes           *string `json:"notes,omitempty"`
	AssignedToID    *string `json:"assigned_to_id"`
	CompletedAt     *string `json:"completed_at"`
	Version         int     `json:"version"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	r.ID = model.ID
	r.TourID = model.TourID
	r.FullName = model.FullName
	r.Email = model.Email
	r.Phone = model.Phone
	r.NumberOfPeople = model.NumberOfPeople
	r.SpecialRequests = model.SpecialRequests
	r.StartDate = timezone.FormatDate(model.StartDate)
	r.Status = model.Status.String()
	r.PaymentMethod = model.PaymentMethod.String()
	r.PaymentStatus = model.PaymentStatus.String()
	r.DepositPaid = model.DepositPaid
	r.PaymentDetails = model.PaymentDetails
	r.TotalAmount = model.TotalAmount
	r.Notes = model.Notes
	r.AssignedToID = model.AssignedToID
	r.Version = model.Version
	r.Metadata.FromModel(model.Metadata)

	r.CompletedAt = nil
	if model.CompletedAt != nil {
		completedAt := timezone.Format(*model.CompletedAt, constant.DateFormat)
		r.CompletedAt = &completedAt
	}
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

// WithTitles annotates every booking with the title of its tour.
func (r *GetBookingsResponse) WithTitles(titles map[string]string) {
	for i := range r.Bookings {
		r.Bookings[i].TourTitle = titles[r.Bookings[i].TourID]
	}
}

// TourIDs lists the tours referenced by the page.
func (r *GetBookingsResponse) TourIDs() []string {
	ids := make([]string, 0, len(r.Bookings))
	for _, booking := range r.Bookings {
		ids = append(ids, booking.TourID)
	}

	return ids
}

const assignedToNone = "none"

var sortableColumns = []string{
	model.FieldCreatedAt,
	constant.FieldModifiedAt,
	model.FieldStartDate,
	model.FieldStatus,
	model.FieldPaymentStatus,
}

// ListFilter narrows the administrative booking listing. AssignedToID "none"
// selects unassigned bookings.
type ListFilter struct {
	Status        string `json:"status"          validate:"omitempty,oneof=pending confirmed completed cancelled"`
	PaymentStatus string `json:"payment_status"  validate:"omitempty,oneof=unpaid partially_paid paid refunded"`
	AssignedToID  string `json:"assigned_to_id"  validate:"omitempty,max=64"`
	TourID        string `json:"tour_id"         validate:"omitempty,max=64"`
	StartDateFrom string `json:"start_date_from" validate:"omitempty,date"`
	StartDateTo   string `json:"start_date_to"   validate:"omitempty,date"`
}

func (f *ListFilter) FromRequest(r *http.Request) {
	query := r.URL.Query()

	f.Status = strings.ToLower(query.Get(model.FieldStatus))
	f.PaymentStatus = strings.ToLower(query.Get(model.FieldPaymentStatus))
	f.AssignedToID = query.Get(model.FieldAssignedToID)
	f.TourID = query.Get(model.FieldTourID)
	f.StartDateFrom = query.Get("start_date_from")
	f.StartDateTo = query.Get("start_date_to")
}

// ToFilterGroup must only be called on a validated filter.
func (f *ListFilter) ToFilterGroup() gDto.FilterGroup {
	filters := []any{}

	eq := func(field string, value any) {
		filters = append(filters, gDto.Filter{Field: field, Value: value, Operator: gDto.FilterOperatorEq, Table: model.TableName})
	}

	if f.Status != "" {
		eq(model.FieldStatus, f.Status)
	}

	if f.PaymentStatus != "" {
		eq(model.FieldPaymentStatus, f.PaymentStatus)
	}

	if f.TourID != "" {
		eq(model.FieldTourID, f.TourID)
	}

	switch f.AssignedToID {
	case "":
	case assignedToNone:
		filters = append(filters, gDto.Filter{Field: model.FieldAssignedToID, Operator: gDto.FilterIsNull, Table: model.TableName})
	default:
		eq(model.FieldAssignedToID, f.AssignedToID)
	}

	// start_date is a calendar date, so bounds are compared as dates rather than instants.
	if _, err := timezone.ParseDate(f.StartDateFrom); err == nil {
		filters = append(filters, gDto.Filter{
			ArgName:  "start_date_from",
			Field:    model.FieldStartDate,
			Value:    f.StartDateFrom,
			Operator: gDto.FilterOperatorGreaterEq,
			Table:    model.TableName,
		})
	}

	if _, err := timezone.ParseDate(f.StartDateTo); err == nil {
		filters = append(filters, gDto.Filter{
			ArgName:  "start_date_to",
			Field:    model.FieldStartDate,
			Value:    f.StartDateTo,
			Operator: gDto.FilterOperatorLessEq,
			Table:    model.TableName,
		})
	}

	return gDto.FilterGroup{Filters: filters, Operator: gDto.FilterGroupOperatorAnd}
}

// NormalizeQuery falls back to newest first and replaces unknown sort columns.
func NormalizeQuery(query gDto.QueryParams) gDto.QueryParams {
	if !slices.Contains(sortableColumns, query.SortBy) {
		query.SortBy = model.FieldCreatedAt
	}

	if query.SortDir == "" {
		query.SortDir = gDto.SortDirDesc
	}

	return query
}

type WorkerStatsResponse struct {
	WorkerID          string            `json:"worker_id"`
	TodayBookings     int               `json:"today_bookings"`
	CompletedBookings int               `json:"completed_bookings"`
	RecentBookings    []BookingResponse `json:"recent_bookings"`
}

type AdminStatsResponse struct {
	TotalBookings     int            `json:"total_bookings"`
	ByStatus          map[string]int `json:"by_status"`
	ByPaymentStatus   map[string]int `json:"by_payment_status"`
	Unassigned        int            `json:"unassigned"`
	CreatedToday      int            `json:"created_today"`
	TotalRevenue      string         `json:"total_revenue"`
	TotalRevenueCents int64          `json:"total_revenue_cents"`
}
