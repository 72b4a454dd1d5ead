package orders

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/internal/ponumber"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/enums"
	"github.com/angelmondragon/solarpo-backend/pkg/pagination"
)

// Repository defines persistence operations for material order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.MaterialOrder) error
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.MaterialOrder, error)
	CountByJob(ctx context.Context, jobID uuid.UUID) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.MaterialOrder, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, query listOrdersQuery) ([]models.MaterialOrder, *pagination.Cursor, error)
}

type listOrdersQuery struct {
	Status     *enums.MaterialOrderStatus
	SupplierID *uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrder inserts the order together with its item snapshot.
func (r *repository) CreateOrder(ctx context.Context, order *models.MaterialOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.MaterialOrder, error) {
	var orders []models.MaterialOrder
	err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByPosition).
		Where("job_id = ?", jobID).
		Order("po_number ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return ponumber.Less(orders[i].PONumber, orders[j].PONumber)
	})
	return orders, nil
}

func (r *repository) CountByJob(ctx context.Context, jobID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MaterialOrder{}).
		Where("job_id = ?", jobID).
		Count(&count).Error
	return count, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.MaterialOrder, error) {
	var order models.MaterialOrder
	err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByPosition).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.MaterialOrder{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List pages through orders newest first. The returned cursor points at the
// last row of the page and is nil on the final page.
func (r *repository) List(ctx context.Context, query listOrdersQuery) ([]models.MaterialOrder, *pagination.Cursor, error) {
	q := r.db.WithContext(ctx).Model(&models.MaterialOrder{})
	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	if query.SupplierID != nil {
		q = q.Where("supplier_id = ?", *query.SupplierID)
	}
	if query.Cursor != nil {
		clause, args := pagination.Keyset(*query.Cursor)
		q = q.Where(clause, args...)
	}

	var orders []models.MaterialOrder
	err := q.Preload("Items", orderItemsByPosition).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(query.Limit)).
		Find(&orders).Error
	if err != nil {
		return nil, nil, err
	}
	orders, next := pagination.Page(orders, query.Limit, func(o models.MaterialOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return orders, next, nil
}

func orderItemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
