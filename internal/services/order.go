package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/orders"
	"github.com/yungbote/deelicious-bakes-backend/internal/email"
	"github.com/yungbote/deelicious-bakes-backend/internal/observability"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/ctxutil"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

const (
	orderNumberPrefix   = "DLB-"
	orderSuffixAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	orderSuffixLen      = 6
	orderNumberAttempts = 5
	defaultOrderLimit   = 20
	recentOrdersLimit   = 10
	popularLimit        = 10
	maxOrderNotesLen    = 1000
)

var orderSorts = map[string]bool{
	repos.OrderSortCreatedAsc:   true,
	repos.OrderSortCreatedDesc:  true,
	repos.OrderSortTotalAsc:     true,
	repos.OrderSortTotalDesc:    true,
	repos.OrderSortStatus:       true,
	repos.OrderSortDeliveryDate: true,
}

type CheckoutInput struct {
	DeliveryAddress     types.DeliveryAddress `json:"delivery_address" binding:"required"`
	DeliveryDate        *time.Time            `json:"delivery_date"`
	SpecialInstructions string                `json:"special_instructions" binding:"max=1000"`
}

type OrderQuery struct {
	Statuses []string
	DateFrom *time.Time
	DateTo   *time.Time
	Sort     string
	Limit    int
	Offset   int
}

type OrderListItem struct {
	*types.Order
	ItemCount int64 `json:"item_count"`
}

type OrderPage struct {
	Items  []OrderListItem `json:"items"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type OrderService interface {
	Checkout(ctx context.Context, in CheckoutInput) (*types.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Order, error)
	UserOrders(ctx context.Context, q OrderQuery) (*OrderPage, error)
	UserStats(ctx context.Context) (*repos.OrderUserStats, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*types.Order, error)

	Recent(ctx context.Context, limit int) ([]*types.Order, error)
	ByStatus(ctx context.Context, status string) ([]*types.Order, error)
	ByDeliveryDate(ctx context.Context, day time.Time) ([]*types.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, notes string) (*types.Order, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, status, intentID string) (*types.Order, error)
	Analytics(ctx context.Context, from, to *time.Time) (*repos.OrderAnalytics, error)
	PopularProducts(ctx context.Context, limit int) ([]repos.PopularProduct, error)
}

type orderService struct {
	db          *gorm.DB
	log         *logger.Logger
	orderRepo   repos.OrderRepo
	cartRepo    repos.CartRepo
	productRepo repos.ProductRepo
	variantRepo repos.VariantRepo
	userRepo    repos.UserRepo
	carts       CartService
	emails      EmailService
	notify      Notifier
	baseURL     string
	now         func() time.Time
}

func NewOrderService(
	db *gorm.DB,
	log *logger.Logger,
	orderRepo repos.OrderRepo,
	cartRepo repos.CartRepo,
	productRepo repos.ProductRepo,
	variantRepo repos.VariantRepo,
	userRepo repos.UserRepo,
	carts CartService,
	emails EmailService,
	notify Notifier,
	baseURL string,
) OrderService {
	return &orderService{
		db:          db,
		log:         log.With("service", "OrderService"),
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		variantRepo: variantRepo,
		userRepo:    userRepo,
		carts:       carts,
		emails:      emails,
		notify:      notify,
		baseURL:     strings.TrimRight(baseURL, "/"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// newOrderNumber formats DLB-YYYYMMDD-XXXXXX with a suffix drawn from an
// alphabet without look-alike characters.
func newOrderNumber(now time.Time) (string, error) {
	var sb strings.Builder
	sb.WriteString(orderNumberPrefix)
	sb.WriteString(now.UTC().Format("20060102"))
	sb.WriteByte('-')
	max := big.NewInt(int64(len(orderSuffixAlphabet)))
	for i := 0; i < orderSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("order number: %w", err)
		}
		sb.WriteByte(orderSuffixAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

func checkAddress(a types.DeliveryAddress) error {
	required := []struct {
		field string
		value string
		max   int
	}{
		{"First name", a.FirstName, 50},
		{"Last name", a.LastName, 50},
		{"Address line 1", a.AddressLine1, 100},
		{"City", a.City, 50},
		{"State", a.State, 50},
		{"Postal code", a.PostalCode, 20},
		{"Country", a.Country, 50},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apierr.BadRequest("invalid_address", r.field+" is required")
		}
		if err := checkMaxLen(r.field, r.value, r.max); err != nil {
			return err
		}
	}
	optional := []struct {
		field string
		value string
		max   int
	}{
		{"Address line 2", a.AddressLine2, 100},
		{"Phone", a.Phone, 20},
		{"Delivery instructions", a.DeliveryInstructions, 500},
	}
	for _, o := range optional {
		if err := checkMaxLen(o.field, o.value, o.max); err != nil {
			return err
		}
	}
	return nil
}

func (ors *orderService) uniqueNumber(dbc dbctx.Context) (string, error) {
	for i := 0; i < orderNumberAttempts; i++ {
		n, err := newOrderNumber(ors.now())
		if err != nil {
			return "", err
		}
		taken, err := ors.orderRepo.NumberExists(dbc, n)
		if err != nil {
			return "", fmt.Errorf("check order number: %w", err)
		}
		if !taken {
			return n, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique order number")
}

func (ors *orderService) Checkout(ctx context.Context, in CheckoutInput) (*types.Order, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	if err := checkAddress(in.DeliveryAddress); err != nil {
		return nil, err
	}
	instructions := strings.TrimSpace(in.SpecialInstructions)
	if err := checkMaxLen("Special instructions", instructions, maxOrderNotesLen); err != nil {
		return nil, err
	}
	if in.DeliveryDate != nil && !in.DeliveryDate.After(ors.now()) {
		return nil, apierr.BadRequest("invalid_delivery_date", "Delivery date must be in the future")
	}

	var order *types.Order
	err = ors.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		c, err := ors.cartRepo.GetByUserID(dbc, userID)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if c == nil {
			return apierr.BadRequest("empty_cart", "Your cart is empty")
		}
		items, err := ors.cartRepo.Items(dbc, c.ID)
		if err != nil {
			return fmt.Errorf("load cart items: %w", err)
		}
		if len(items) == 0 {
			return apierr.BadRequest("empty_cart", "Your cart is empty")
		}

		lines := make([]types.OrderItem, 0, len(items))
		for _, it := range items {
			if it.Product == nil || !it.Product.IsActive {
				return apierr.Conflict("product_unavailable", "An item in your cart is no longer available")
			}
			variantName := ""
			var ok bool
			if it.VariantID != nil {
				if it.Variant == nil || !it.Variant.IsAvailable {
					return apierr.Conflict("product_unavailable", it.Product.Name+" is no longer available in that option")
				}
				variantName = it.Variant.Name
				ok, err = ors.variantRepo.AdjustStock(dbc, *it.VariantID, -it.Quantity)
			} else {
				ok, err = ors.productRepo.AdjustStock(dbc, it.ProductID, -it.Quantity)
			}
			if err != nil {
				return fmt.Errorf("reserve stock: %w", err)
			}
			if !ok {
				return apierr.Conflict("insufficient_stock", "Not enough stock for "+it.Product.Name)
			}
			lines = append(lines, types.OrderItem{
				ProductID:       it.ProductID,
				VariantID:       it.VariantID,
				ProductName:     it.Product.Name,
				VariantName:     variantName,
				Quantity:        it.Quantity,
				UnitPriceCents:  it.UnitPriceCents,
				TotalPriceCents: it.LineTotalCents(),
				Customizations:  it.Customizations,
			})
		}

		sum := ComputeSummary(items, ors.carts.Config())
		number, err := ors.uniqueNumber(dbc)
		if err != nil {
			return err
		}
		order = &types.Order{
			OrderNumber:         number,
			UserID:              userID,
			Status:              orders.StatusPending,
			SubtotalCents:       sum.SubtotalCents,
			TaxCents:            sum.TaxCents,
			DeliveryFeeCents:    sum.DeliveryFeeCents,
			TotalCents:          sum.TotalCents,
			SpecialInstructions: instructions,
			DeliveryDate:        in.DeliveryDate,
			DeliveryAddress:     datatypes.NewJSONType(in.DeliveryAddress),
			PaymentStatus:       orders.PaymentPending,
			Items:               lines,
			History: []types.OrderStatusHistory{{
				Status:    orders.StatusPending,
				Notes:     "Order placed",
				CreatedBy: &userID,
			}},
		}
		if err := ors.orderRepo.Create(dbc, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return ors.cartRepo.Clear(dbc, c.ID)
	})
	if err != nil {
		return nil, err
	}

	observability.Current().IncOrderPlaced(order.TotalCents)
	ors.log.Info("Order placed", "order_id", order.ID, "user_id", userID, "total_cents", order.TotalCents)
	ors.sendConfirmation(ctx, order)
	if ors.notify != nil {
		ors.notify.OrderPlaced(ctx, order)
	}
	return order, nil
}

func (ors *orderService) orderURL(id uuid.UUID) string {
	return ors.baseURL + "/orders/" + id.String()
}

func (ors *orderService) customer(ctx context.Context, userID uuid.UUID) *types.User {
	u, err := ors.userRepo.GetByID(dbctx.New(ctx), userID)
	if err != nil {
		ors.log.Warn("Could not load order customer", "user_id", userID, "error", err)
		return nil
	}
	return u
}

func (ors *orderService) sendConfirmation(ctx context.Context, o *types.Order) {
	u := ors.customer(ctx, o.UserID)
	if u == nil {
		return
	}
	items := make([]map[string]any, 0, len(o.Items))
	for _, it := range o.Items {
		name := it.ProductName
		if it.VariantName != "" {
			name += " (" + it.VariantName + ")"
		}
		items = append(items, map[string]any{"name": name, "quantity": it.Quantity, "total": it.TotalPriceCents})
	}
	data := map[string]any{
		"firstName":   u.FirstName,
		"number":      o.OrderNumber,
		"items":       items,
		"subtotal":    o.SubtotalCents,
		"tax":         o.TaxCents,
		"deliveryFee": o.DeliveryFeeCents,
		"total":       o.TotalCents,
		"orderUrl":    ors.orderURL(o.ID),
	}
	if o.DeliveryDate != nil {
		data["deliveryDate"] = o.DeliveryDate.Format("Monday, January 2, 2006")
	}
	if err := ors.emails.Send(ctx, u.Email, email.TemplateOrderConfirmation, data); err != nil {
		ors.log.Warn("Order confirmation email failed", "order_id", o.ID, "error", err)
	}
}

func (ors *orderService) sendStatus(ctx context.Context, o *types.Order, notes string) {
	u := ors.customer(ctx, o.UserID)
	if u == nil {
		return
	}
	data := map[string]any{
		"firstName": u.FirstName,
		"number":    o.OrderNumber,
		"status":    o.Status,
		"notes":     notes,
		"orderUrl":  ors.orderURL(o.ID),
	}
	if err := ors.emails.Send(ctx, u.Email, email.TemplateOrderStatus, data); err != nil {
		ors.log.Warn("Order status email failed", "order_id", o.ID, "error", err)
	}
}

// Get hides other customers' orders behind a 404.
func (ors *orderService) Get(ctx context.Context, id uuid.UUID) (*types.Order, error) {
	rd := ctxutil.GetRequestData(ctx)
	userID, err := requireUser(rd)
	if err != nil {
		return nil, err
	}
	o, err := ors.orderRepo.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if o == nil || (o.UserID != userID && !rd.IsAdmin()) {
		return nil, apierr.NotFound("order")
	}
	return o, nil
}

func (ors *orderService) UserOrders(ctx context.Context, q OrderQuery) (*OrderPage, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	for _, s := range q.Statuses {
		if !oneOf(s, orders.Statuses) {
			return nil, apierr.BadRequest("invalid_status", "Unknown order status "+s)
		}
	}
	sort := q.Sort
	if !orderSorts[sort] {
		sort = repos.OrderSortCreatedDesc
	}
	f := repos.OrderListFilter{
		UserID:   &userID,
		Statuses: q.Statuses,
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
		Sort:     sort,
		Limit:    clampLimit(q.Limit, defaultOrderLimit, 100),
		Offset:   clampOffset(q.Offset),
	}
	dbc := dbctx.New(ctx)
	rows, total, err := ors.orderRepo.List(dbc, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, o := range rows {
		ids = append(ids, o.ID)
	}
	counts, err := ors.orderRepo.ItemCounts(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("count order items: %w", err)
	}
	page := &OrderPage{Items: make([]OrderListItem, 0, len(rows)), Total: total, Limit: f.Limit, Offset: f.Offset}
	for _, o := range rows {
		page.Items = append(page.Items, OrderListItem{Order: o, ItemCount: counts[o.ID]})
	}
	return page, nil
}

func (ors *orderService) UserStats(ctx context.Context) (*repos.OrderUserStats, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	return ors.orderRepo.UserStats(dbctx.New(ctx), userID)
}

func (ors *orderService) restoreStock(dbc dbctx.Context, o *types.Order) error {
	for _, it := range o.Items {
		var err error
		if it.VariantID != nil {
			_, err = ors.variantRepo.AdjustStock(dbc, *it.VariantID, it.Quantity)
		} else {
			_, err = ors.productRepo.AdjustStock(dbc, it.ProductID, it.Quantity)
		}
		if err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}
	}
	return nil
}

// transition applies a status change inside the caller's transaction.
func (ors *orderService) transition(dbc dbctx.Context, o *types.Order, status, notes string, by *uuid.UUID) error {
	if o.Status == status || !orders.CanTransition(o.Status, status) {
		return apierr.Conflict("invalid_transition", fmt.Sprintf("Cannot change order status from %s to %s", o.Status, status))
	}
	if status == orders.StatusCancelled {
		if err := ors.restoreStock(dbc, o); err != nil {
			return err
		}
	}
	if err := ors.orderRepo.UpdateFields(dbc, o.ID, map[string]any{"status": status}); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return ors.orderRepo.AddHistory(dbc, &types.OrderStatusHistory{
		OrderID:   o.ID,
		Status:    status,
		Notes:     notes,
		CreatedBy: by,
	})
}

func (ors *orderService) Cancel(ctx context.Context, id uuid.UUID, reason string) (*types.Order, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if err := checkMaxLen("Reason", reason, maxOrderNotesLen); err != nil {
		return nil, err
	}
	notes := "Cancelled by customer"
	if reason != "" {
		notes += ": " + reason
	}
	var out *types.Order
	var from string
	err = ors.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		o, err := ors.orderRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if o == nil || o.UserID != userID {
			return apierr.NotFound("order")
		}
		if o.Status != orders.StatusPending && o.Status != orders.StatusConfirmed {
			return apierr.Conflict("cannot_cancel", "Only pending or confirmed orders can be cancelled")
		}
		from = o.Status
		if err := ors.transition(dbc, o, orders.StatusCancelled, notes, &userID); err != nil {
			return err
		}
		out, err = ors.orderRepo.GetByID(dbc, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	ors.log.Info("Order cancelled by customer", "order_id", id, "user_id", userID)
	if ors.notify != nil {
		ors.notify.OrderStatusChanged(ctx, out, from)
	}
	return out, nil
}

func (ors *orderService) Recent(ctx context.Context, limit int) ([]*types.Order, error) {
	return ors.orderRepo.Recent(dbctx.New(ctx), clampLimit(limit, recentOrdersLimit, 100))
}

func (ors *orderService) ByStatus(ctx context.Context, status string) ([]*types.Order, error) {
	if !oneOf(status, orders.Statuses) {
		return nil, apierr.BadRequest("invalid_status", "Unknown order status")
	}
	return ors.orderRepo.ByStatus(dbctx.New(ctx), status)
}

func (ors *orderService) ByDeliveryDate(ctx context.Context, day time.Time) ([]*types.Order, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return ors.orderRepo.ByDeliveryDate(dbctx.New(ctx), from, from.Add(24*time.Hour))
}

func (ors *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status, notes string) (*types.Order, error) {
	adminID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	if !oneOf(status, orders.Statuses) {
		return nil, apierr.BadRequest("invalid_status", "Unknown order status")
	}
	notes = strings.TrimSpace(notes)
	if err := checkMaxLen("Notes", notes, maxOrderNotesLen); err != nil {
		return nil, err
	}
	var out *types.Order
	var from string
	err = ors.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		o, err := ors.orderRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if o == nil {
			return apierr.NotFound("order")
		}
		from = o.Status
		if err := ors.transition(dbc, o, status, notes, &adminID); err != nil {
			return err
		}
		out, err = ors.orderRepo.GetByID(dbc, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	ors.log.Info("Order status updated", "order_id", id, "status", status)
	ors.sendStatus(ctx, out, notes)
	if ors.notify != nil {
		ors.notify.OrderStatusChanged(ctx, out, from)
	}
	return out, nil
}

func (ors *orderService) UpdatePayment(ctx context.Context, id uuid.UUID, status, intentID string) (*types.Order, error) {
	if !oneOf(status, orders.PaymentStatuses) {
		return nil, apierr.BadRequest("invalid_payment_status", "Unknown payment status")
	}
	intentID = strings.TrimSpace(intentID)
	if err := checkMaxLen("Payment intent id", intentID, 255); err != nil {
		return nil, err
	}
	var out *types.Order
	err := ors.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		o, err := ors.orderRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if o == nil {
			return apierr.NotFound("order")
		}
		fields := map[string]any{"payment_status": status}
		if intentID != "" {
			fields["payment_intent_id"] = intentID
		}
		if err := ors.orderRepo.UpdateFields(dbc, id, fields); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		out, err = ors.orderRepo.GetByID(dbc, id)
		return err
	})
	return out, err
}

func (ors *orderService) Analytics(ctx context.Context, from, to *time.Time) (*repos.OrderAnalytics, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, apierr.BadRequest("invalid_range", "from must not be after to")
	}
	return ors.orderRepo.Analytics(dbctx.New(ctx), from, to)
}

func (ors *orderService) PopularProducts(ctx context.Context, limit int) ([]repos.PopularProduct, error) {
	return ors.orderRepo.PopularProducts(dbctx.New(ctx), clampLimit(limit, popularLimit, 100))
}
