package orders

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	domainorders "github.com/yungbote/deelicious-bakes-backend/internal/domain/orders"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

const (
	SortCreatedAsc   = "created-asc"
	SortCreatedDesc  = "created-desc"
	SortTotalAsc     = "total-asc"
	SortTotalDesc    = "total-desc"
	SortStatus       = "status"
	SortDeliveryDate = "delivery-date"
)

type ListFilter struct {
	UserID   *uuid.UUID
	Statuses []string
	DateFrom *time.Time
	DateTo   *time.Time
	Sort     string
	Limit    int
	Offset   int
}

type UserStats struct {
	TotalOrders     int64 `json:"total_orders"`
	TotalSpentCents int64 `json:"total_spent_cents"`
	CompletedOrders int64 `json:"completed_orders"`
	PendingOrders   int64 `json:"pending_orders"`
}

type Analytics struct {
	TotalOrders            int64            `json:"total_orders"`
	StatusCounts           map[string]int64 `json:"status_counts"`
	PaymentStatusCounts    map[string]int64 `json:"payment_status_counts"`
	RevenueCents           int64            `json:"revenue_cents"`
	AverageOrderValueCents int64            `json:"average_order_value_cents"`
}

type PopularProduct struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Quantity     int64     `json:"quantity"`
	RevenueCents int64     `json:"revenue_cents"`
	OrderCount   int64     `json:"order_count"`
}

type OrderRepo interface {
	Create(dbc dbctx.Context, o *types.Order) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error)
	NumberExists(dbc dbctx.Context, number string) (bool, error)
	List(dbc dbctx.Context, f ListFilter) ([]*types.Order, int64, error)
	ItemCounts(dbc dbctx.Context, orderIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	UserStats(dbc dbctx.Context, userID uuid.UUID) (*UserStats, error)
	Recent(dbc dbctx.Context, limit int) ([]*types.Order, error)
	ByStatus(dbc dbctx.Context, status string) ([]*types.Order, error)
	ByDeliveryDate(dbc dbctx.Context, from, to time.Time) ([]*types.Order, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error
	AddHistory(dbc dbctx.Context, h *types.OrderStatusHistory) error
	Analytics(dbc dbctx.Context, from, to *time.Time) (*Analytics, error)
	PopularProducts(dbc dbctx.Context, limit int) ([]PopularProduct, error)
	Count(dbc dbctx.Context, since *time.Time, statuses []string) (int64, error)
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return &orderRepo{db: db, log: baseLog.With("repo", "OrderRepo")}
}

// Create inserts the order together with its items and history rows.
func (r *orderRepo) Create(dbc dbctx.Context, o *types.Order) error {
	return dbc.DB(r.db).Create(o).Error
}

func (r *orderRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Order, error) {
	var rows []*types.Order
	if err := dbc.DB(r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *orderRepo) NumberExists(dbc dbctx.Context, number string) (bool, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Order{}).Where("order_number = ?", number).Count(&n).Error
	return n > 0, err
}

func (r *orderRepo) List(dbc dbctx.Context, f ListFilter) ([]*types.Order, int64, error) {
	q := dbc.DB(r.db).Model(&types.Order{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.DateFrom != nil {
		q = q.Where("created_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("created_at < ?", *f.DateTo)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	switch f.Sort {
	case SortCreatedAsc:
		q = q.Order("created_at ASC")
	case SortTotalAsc:
		q = q.Order("total_cents ASC").Order("created_at DESC")
	case SortTotalDesc:
		q = q.Order("total_cents DESC").Order("created_at DESC")
	case SortStatus:
		q = q.Order("status ASC").Order("created_at DESC")
	case SortDeliveryDate:
		q = q.Order(deliveryNullsLast).Order("delivery_date ASC").Order("created_at DESC")
	default:
		q = q.Order("created_at DESC")
	}
	var rows []*types.Order
	if err := q.Limit(f.Limit).Offset(f.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

const deliveryNullsLast = "CASE WHEN delivery_date IS NULL THEN 1 ELSE 0 END"

func (r *orderRepo) ItemCounts(dbc dbctx.Context, orderIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		OrderID uuid.UUID
		Count   int64
	}
	if err := dbc.DB(r.db).Model(&types.OrderItem{}).
		Select("order_id, COALESCE(SUM(quantity), 0) AS count").
		Where("order_id IN ?", orderIDs).
		Group("order_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.OrderID] = row.Count
	}
	return out, nil
}

// UserStats leaves cancelled orders out of the amount spent.
func (r *orderRepo) UserStats(dbc dbctx.Context, userID uuid.UUID) (*UserStats, error) {
	var s UserStats
	err := dbc.DB(r.db).Model(&types.Order{}).
		Select(`COUNT(*) AS total_orders,
			COALESCE(SUM(CASE WHEN status <> ? THEN total_cents ELSE 0 END), 0) AS total_spent_cents,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed_orders,
			COALESCE(SUM(CASE WHEN status IN ? THEN 1 ELSE 0 END), 0) AS pending_orders`,
			domainorders.StatusCancelled, domainorders.StatusDelivered, domainorders.OpenStatuses).
		Where("user_id = ?", userID).
		Scan(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *orderRepo) Recent(dbc dbctx.Context, limit int) ([]*types.Order, error) {
	var rows []*types.Order
	err := dbc.DB(r.db).Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// ByStatus orders by delivery date with undated orders last, then newest.
func (r *orderRepo) ByStatus(dbc dbctx.Context, status string) ([]*types.Order, error) {
	var rows []*types.Order
	err := dbc.DB(r.db).
		Where("status = ?", status).
		Order(deliveryNullsLast).Order("delivery_date ASC").Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *orderRepo) ByDeliveryDate(dbc dbctx.Context, from, to time.Time) ([]*types.Order, error) {
	var rows []*types.Order
	err := dbc.DB(r.db).
		Preload("Items").
		Where("delivery_date >= ? AND delivery_date < ?", from, to).
		Order("delivery_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *orderRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Order{}).Where("id = ?", id).Updates(fields).Error
}

func (r *orderRepo) AddHistory(dbc dbctx.Context, h *types.OrderStatusHistory) error {
	return dbc.DB(r.db).Create(h).Error
}

type groupCount struct {
	Grp   string
	Count int64
	Total int64
}

func (r *orderRepo) Analytics(dbc dbctx.Context, from, to *time.Time) (*Analytics, error) {
	scope := func() *gorm.DB {
		q := dbc.DB(r.db).Model(&types.Order{})
		if from != nil {
			q = q.Where("created_at >= ?", *from)
		}
		if to != nil {
			q = q.Where("created_at < ?", *to)
		}
		return q
	}
	out := &Analytics{StatusCounts: map[string]int64{}, PaymentStatusCounts: map[string]int64{}}
	for _, s := range domainorders.Statuses {
		out.StatusCounts[s] = 0
	}
	for _, s := range domainorders.PaymentStatuses {
		out.PaymentStatusCounts[s] = 0
	}

	var byStatus []groupCount
	if err := scope().Select("status AS grp, COUNT(*) AS count, COALESCE(SUM(total_cents), 0) AS total").
		Group("status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, g := range byStatus {
		out.StatusCounts[g.Grp] = g.Count
		out.TotalOrders += g.Count
	}

	var byPayment []groupCount
	if err := scope().Select("payment_status AS grp, COUNT(*) AS count, COALESCE(SUM(total_cents), 0) AS total").
		Group("payment_status").Scan(&byPayment).Error; err != nil {
		return nil, err
	}
	var paidOrders int64
	for _, g := range byPayment {
		out.PaymentStatusCounts[g.Grp] = g.Count
		if g.Grp == domainorders.PaymentCompleted {
			out.RevenueCents = g.Total
			paidOrders = g.Count
		}
	}
	if paidOrders > 0 {
		out.AverageOrderValueCents = out.RevenueCents / paidOrders
	}
	return out, nil
}

func (r *orderRepo) PopularProducts(dbc dbctx.Context, limit int) ([]PopularProduct, error) {
	var rows []PopularProduct
	err := dbc.DB(r.db).Table("order_item").
		Select(`order_item.product_id AS product_id,
			MAX(order_item.product_name) AS product_name,
			SUM(order_item.quantity) AS quantity,
			SUM(order_item.total_price_cents) AS revenue_cents,
			COUNT(DISTINCT order_item.order_id) AS order_count`).
		Joins("JOIN customer_order ON customer_order.id = order_item.order_id").
		Where("customer_order.status <> ?", domainorders.StatusCancelled).
		Group("order_item.product_id").
		Order("quantity DESC").Order("revenue_cents DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *orderRepo) Count(dbc dbctx.Context, since *time.Time, statuses []string) (int64, error) {
	q := dbc.DB(r.db).Model(&types.Order{})
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}
