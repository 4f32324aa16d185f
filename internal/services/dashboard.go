package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/messaging"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/orders"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

const recentCustomersLimit = 5

type Dashboard struct {
	TotalCustomers        int64               `json:"total_customers"`
	VerifiedCustomers     int64               `json:"verified_customers"`
	TotalOrders           int64               `json:"total_orders"`
	OrdersLast7Days       int64               `json:"orders_last_7_days"`
	NewCustomersLast7Days int64               `json:"new_customers_last_7_days"`
	PendingOrders         int64               `json:"pending_orders"`
	RecentCustomers       []*types.User       `json:"recent_customers"`
	Products              *repos.ProductStats `json:"products"`
	UnreadMessages        int64               `json:"unread_messages"`
	OpenCustomRequests    int64               `json:"open_custom_requests"`
}

type DashboardService interface {
	Get(ctx context.Context) (*Dashboard, error)
}

type dashboardService struct {
	log         *logger.Logger
	userRepo    repos.UserRepo
	orderRepo   repos.OrderRepo
	productRepo repos.ProductRepo
	messageRepo repos.MessageRepo
	requestRepo repos.CustomRequestRepo
	now         func() time.Time
}

func NewDashboardService(
	log *logger.Logger,
	userRepo repos.UserRepo,
	orderRepo repos.OrderRepo,
	productRepo repos.ProductRepo,
	messageRepo repos.MessageRepo,
	requestRepo repos.CustomRequestRepo,
) DashboardService {
	return &dashboardService{
		log:         log.With("service", "DashboardService"),
		userRepo:    userRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		messageRepo: messageRepo,
		requestRepo: requestRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (ds *dashboardService) Get(ctx context.Context) (*Dashboard, error) {
	dbc := dbctx.New(ctx)
	weekAgo := ds.now().AddDate(0, 0, -7)
	out := &Dashboard{}
	var err error

	if out.TotalCustomers, err = ds.userRepo.CountByRole(dbc, types.RoleUser, nil, false); err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}
	if out.VerifiedCustomers, err = ds.userRepo.CountByRole(dbc, types.RoleUser, nil, true); err != nil {
		return nil, fmt.Errorf("count verified customers: %w", err)
	}
	if out.NewCustomersLast7Days, err = ds.userRepo.CountByRole(dbc, types.RoleUser, &weekAgo, false); err != nil {
		return nil, fmt.Errorf("count new customers: %w", err)
	}
	if out.RecentCustomers, err = ds.userRepo.Recent(dbc, types.RoleUser, recentCustomersLimit); err != nil {
		return nil, fmt.Errorf("recent customers: %w", err)
	}
	if out.RecentCustomers == nil {
		out.RecentCustomers = []*types.User{}
	}
	if out.TotalOrders, err = ds.orderRepo.Count(dbc, nil, nil); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	if out.OrdersLast7Days, err = ds.orderRepo.Count(dbc, &weekAgo, nil); err != nil {
		return nil, fmt.Errorf("count recent orders: %w", err)
	}
	if out.PendingOrders, err = ds.orderRepo.Count(dbc, nil, orders.OpenStatuses); err != nil {
		return nil, fmt.Errorf("count pending orders: %w", err)
	}
	if out.Products, err = ds.productRepo.Stats(dbc); err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}
	msgs, err := ds.messageRepo.Stats(dbc)
	if err != nil {
		return nil, fmt.Errorf("message stats: %w", err)
	}
	out.UnreadMessages = msgs.UnreadFromCustomers
	counts, err := ds.requestRepo.StatusCounts(dbc)
	if err != nil {
		return nil, fmt.Errorf("request stats: %w", err)
	}
	out.OpenCustomRequests = counts[messaging.RequestPending] + counts[messaging.RequestReviewing]
	return out, nil
}
