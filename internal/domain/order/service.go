// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrInvalidTransition is returned for a fulfillment status change the
// order's current status does not allow
var ErrInvalidTransition = errors.New("invalid status transition")

// Service handles seller-facing order business logic
type Service struct {
	repo   Repository
	logger *logrus.Logger
}

// NewService creates a new order service
func NewService(repo Repository, logger *logrus.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// ListRequest represents order list query parameters
type ListRequest struct {
	Page          int           `form:"page,default=1"`
	Limit         int           `form:"limit,default=20"`
	Status        Status        `form:"status"`
	PaymentStatus PaymentStatus `form:"payment_status"`
	SortBy        string        `form:"sort_by,default=created_at"`
	SortOrder     string        `form:"sort_order,default=desc"`
	DateFrom      string        `form:"date_from"`
	DateTo        string        `form:"date_to"`
}

// ListResponse represents orders with pagination
type ListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// StatusUpdateRequest represents a seller's status change
type StatusUpdateRequest struct {
	Status  Status `json:"status" binding:"required"`
	Comment string `json:"comment"`
}

func (r *ListRequest) normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 || r.Limit > 100 {
		r.Limit = 20
	}
}

func (r *ListRequest) orderClause() string {
	validSortFields := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"total_amount": true,
		"status":       true,
		"order_number": true,
	}

	sortBy, sortOrder := r.SortBy, r.SortOrder
	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}
	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}

// Get retrieves a single order of a store
func (s *Service) Get(ctx context.Context, storeID, id uint) (*Order, error) {
	return s.repo.Get(ctx, storeID, id)
}

// GetForSession retrieves an order only if it was placed by sessionID
func (s *Service) GetForSession(ctx context.Context, storeID, id uint, sessionID string) (*Order, error) {
	o, err := s.repo.Get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	if o.SessionID == "" || o.SessionID != sessionID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// List retrieves a page of a store's orders
func (s *Service) List(ctx context.Context, storeID uint, req *ListRequest) (*ListResponse, error) {
	req.normalize()

	orders, total, err := s.repo.List(ctx, storeID, req)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// UpdateStatus moves an order along its fulfillment path. Cash on delivery
// orders are marked paid when delivered.
func (s *Service) UpdateStatus(ctx context.Context, storeID, id uint, to Status, comment, actor string) (*Order, error) {
	o, err := s.repo.Get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}

	from := o.Status
	if !isValidStatusTransition(from, to) {
		return nil, fmt.Errorf("%w from %s to %s", ErrInvalidTransition, from, to)
	}

	now := time.Now().UTC()
	o.Status = to
	switch to {
	case StatusShipped:
		o.ShippedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
		if o.PaymentMethod == PaymentMethodCOD && o.PaymentStatus == PaymentStatusPending {
			o.PaymentStatus = PaymentStatusPaid
			o.PaidAt = &now
		}
	case StatusCancelled:
		o.CancelledAt = &now
	}

	entry := &StatusHistory{
		OrderID:   o.ID,
		From:      from,
		Status:    to,
		Comment:   comment,
		CreatedBy: actor,
		CreatedAt: now,
	}
	if err := s.repo.SaveStatus(ctx, o, entry); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": o.ID,
		"store_id": storeID,
		"from":     from,
		"to":       to,
		"actor":    actor,
	}).Info("Order status updated")

	return s.repo.Get(ctx, storeID, id)
}

func isValidStatusTransition(from, to Status) bool {
	validTransitions := map[Status][]Status{
		StatusPending: {
			StatusProcessing,
			StatusCancelled,
		},
		StatusProcessing: {
			StatusShipped,
			StatusCancelled,
		},
		StatusShipped: {
			StatusDelivered,
		},
	}

	allowed, exists := validTransitions[from]
	if !exists {
		return false
	}
	for _, status := range allowed {
		if status == to {
			return true
		}
	}
	return false
}
