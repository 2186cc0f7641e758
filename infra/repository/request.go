package repository

import (
	"context"
	"errors"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/domain/request"
	repo "github.com/amirasaad/backoffice/pkg/repository/request"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository creates a workflow request repository on the given session.
func NewRequestRepository(db *gorm.DB) repo.Repository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *request.Request) error {
	m := mapRequestToModel(req)
	return WrapError(func() error { return r.db.WithContext(ctx).Create(&m).Error })
}

func (r *requestRepository) Get(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	var m Request
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToRequest(&m), nil
}

func (r *requestRepository) GetPendingForUpdate(ctx context.Context, id uuid.UUID) (*request.Request, error) {
	var m Request
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND status = ?", id, string(request.StatusPending)).
		First(&m).Error
	if err != nil {
		if errors.Is(MapGormErrorToDomain(err), domain.ErrNotFound) {
			return nil, domain.NotFoundf("pending request %s", id)
		}
		return nil, err
	}
	return mapModelToRequest(&m), nil
}

func (r *requestRepository) ListPending(ctx context.Context, kind request.Kind) ([]*request.Request, error) {
	return r.list(r.db.WithContext(ctx).
		Where("kind = ? AND status = ?", string(kind), string(request.StatusPending)))
}

func (r *requestRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*request.Request, error) {
	return r.list(r.db.WithContext(ctx).Where("requester_id = ?", requesterID))
}

func (r *requestRepository) list(q *gorm.DB) ([]*request.Request, error) {
	var ms []Request
	if err := q.Order("requested_at DESC").Order("id DESC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*request.Request, 0, len(ms))
	for i := range ms {
		out = append(out, mapModelToRequest(&ms[i]))
	}
	return out, nil
}

// MarkResolved is a conditional update: it only touches a row that is still
// Pending, so at most one resolver can succeed.
func (r *requestRepository) MarkResolved(ctx context.Context, req *request.Request) error {
	res := r.db.WithContext(ctx).Model(&Request{}).
		Where("id = ? AND status = ?", req.ID, string(request.StatusPending)).
		Updates(map[string]any{
			"status":      string(req.Status),
			"resolved_at": req.ResolvedAt,
			"resolved_by": req.ResolvedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return request.ErrAlreadyResolved
	}
	return nil
}

func mapRequestToModel(req *request.Request) Request {
	return Request{
		ID:            req.ID,
		Kind:          string(req.Kind),
		Status:        string(req.Status),
		RequesterID:   req.RequesterID,
		AccountType:   string(req.Payload.AccountType),
		AccountNumber: req.Payload.AccountNumber,
		Reason:        req.Payload.Reason,
		RequestedAt:   req.RequestedAt,
		ResolvedAt:    req.ResolvedAt,
		ResolvedBy:    req.ResolvedBy,
	}
}

func mapModelToRequest(m *Request) *request.Request {
	return &request.Request{
		ID:          m.ID,
		Kind:        request.Kind(m.Kind),
		RequesterID: m.RequesterID,
		Payload: request.Payload{
			AccountType:   account.Type(m.AccountType),
			AccountNumber: m.AccountNumber,
			Reason:        m.Reason,
		},
		Status:      request.Status(m.Status),
		RequestedAt: m.RequestedAt,
		ResolvedAt:  m.ResolvedAt,
		ResolvedBy:  m.ResolvedBy,
	}
}
