package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

type OrderHandler struct {
	orderService services.OrderService
}

func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (oh *OrderHandler) Checkout(c *gin.Context) {
	var in services.CheckoutInput
	if !bindJSON(c, &in) {
		return
	}
	order, err := oh.orderService.Checkout(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"order": order})
}

// List accepts status (repeatable or comma separated), date_from, date_to,
// sort, limit and offset.
func (oh *OrderHandler) List(c *gin.Context) {
	from, ok := queryTime(c, "date_from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "date_to")
	if !ok {
		return
	}
	page, err := oh.orderService.UserOrders(c.Request.Context(), services.OrderQuery{
		Statuses: queryList(c, "status"),
		DateFrom: from,
		DateTo:   to,
		Sort:     c.Query("sort"),
		Limit:    queryInt(c, "limit"),
		Offset:   queryInt(c, "offset"),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, page)
}

func (oh *OrderHandler) Stats(c *gin.Context) {
	stats, err := oh.orderService.UserStats(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, stats)
}

func (oh *OrderHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	order, err := oh.orderService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": order})
}

func (oh *OrderHandler) Cancel(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason" binding:"max=500"`
	}
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	order, err := oh.orderService.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": order})
}

// admin

func (oh *OrderHandler) Recent(c *gin.Context) {
	items, err := oh.orderService.Recent(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"orders": items})
}

func (oh *OrderHandler) ByStatus(c *gin.Context) {
	items, err := oh.orderService.ByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"orders": items})
}

func (oh *OrderHandler) ByDeliveryDate(c *gin.Context) {
	day, err := time.Parse(dateLayout, c.Param("date"))
	if err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_date", "Date must be YYYY-MM-DD"))
		return
	}
	items, err := oh.orderService.ByDeliveryDate(c.Request.Context(), day)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"orders": items})
}

func (oh *OrderHandler) AdminGet(c *gin.Context) {
	oh.Get(c)
}

func (oh *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
		Notes  string `json:"notes" binding:"max=1000"`
	}
	if !bindJSON(c, &req) {
		return
	}
	order, err := oh.orderService.UpdateStatus(c.Request.Context(), id, req.Status, req.Notes)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": order})
}

func (oh *OrderHandler) UpdatePayment(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		PaymentStatus   string `json:"payment_status" binding:"required"`
		PaymentIntentID string `json:"payment_intent_id" binding:"max=255"`
	}
	if !bindJSON(c, &req) {
		return
	}
	order, err := oh.orderService.UpdatePayment(c.Request.Context(), id, req.PaymentStatus, req.PaymentIntentID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": order})
}

func (oh *OrderHandler) Analytics(c *gin.Context) {
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}
	out, err := oh.orderService.Analytics(c.Request.Context(), from, to)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (oh *OrderHandler) PopularProducts(c *gin.Context) {
	items, err := oh.orderService.PopularProducts(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"products": items})
}
