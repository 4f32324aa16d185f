package services

import (
	"context"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
	"github.com/yungbote/deelicious-bakes-backend/internal/realtime"
	"github.com/yungbote/deelicious-bakes-backend/internal/realtime/bus"
)

type Emitter interface {
	Emit(ctx context.Context, msg realtime.Message)
}

// HubEmitter delivers to clients connected to this instance only.
type HubEmitter struct{ Hub *realtime.Hub }

func (e *HubEmitter) Emit(_ context.Context, msg realtime.Message) {
	e.Hub.Broadcast(msg)
}

// BusEmitter publishes through the shared bus; every instance's forwarder
// hands the message to its own hub.
type BusEmitter struct {
	Bus bus.Bus
	Log *logger.Logger
}

func (e *BusEmitter) Emit(ctx context.Context, msg realtime.Message) {
	if err := e.Bus.Publish(context.WithoutCancel(ctx), msg); err != nil && e.Log != nil {
		e.Log.Warn("realtime publish failed", "event", msg.Event, "error", err)
	}
}

// Notifier pushes live updates to the owning customer and to admins.
// A nil Notifier is valid and does nothing.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *types.Order)
	OrderStatusChanged(ctx context.Context, order *types.Order, from string)
	MessagePosted(ctx context.Context, thread *types.MessageThread, msg *types.Message)
	CustomRequestUpdated(ctx context.Context, req *types.CustomRequest)
}

type notifier struct {
	emit Emitter
}

func NewNotifier(emit Emitter) Notifier {
	if emit == nil {
		return nil
	}
	return &notifier{emit: emit}
}

func (n *notifier) both(ctx context.Context, userChannel string, event realtime.Event, data map[string]any) {
	n.emit.Emit(ctx, realtime.Message{Channel: userChannel, Event: event, Data: data})
	n.emit.Emit(ctx, realtime.Message{Channel: realtime.AdminChannel, Event: event, Data: data})
}

func (n *notifier) OrderPlaced(ctx context.Context, order *types.Order) {
	if order == nil {
		return
	}
	n.both(ctx, realtime.UserChannel(order.UserID), realtime.EventOrderPlaced, map[string]any{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"status":       order.Status,
		"total_cents":  order.TotalCents,
	})
}

func (n *notifier) OrderStatusChanged(ctx context.Context, order *types.Order, from string) {
	if order == nil {
		return
	}
	n.both(ctx, realtime.UserChannel(order.UserID), realtime.EventOrderStatusChanged, map[string]any{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"from":         from,
		"status":       order.Status,
	})
}

// MessagePosted tells the other side of the conversation: staff replies go
// to the customer, customer messages go to admins.
func (n *notifier) MessagePosted(ctx context.Context, thread *types.MessageThread, msg *types.Message) {
	if thread == nil || msg == nil {
		return
	}
	channel := realtime.AdminChannel
	if !msg.IsFromCustomer {
		channel = realtime.UserChannel(thread.UserID)
	}
	n.emit.Emit(ctx, realtime.Message{Channel: channel, Event: realtime.EventMessagePosted, Data: map[string]any{
		"thread_id":  thread.ID,
		"subject":    thread.Subject,
		"message_id": msg.ID,
		"sender_id":  msg.SenderID,
	}})
}

func (n *notifier) CustomRequestUpdated(ctx context.Context, req *types.CustomRequest) {
	if req == nil {
		return
	}
	n.both(ctx, realtime.UserChannel(req.UserID), realtime.EventCustomRequestUpdated, map[string]any{
		"request_id": req.ID,
		"status":     req.Status,
	})
}
