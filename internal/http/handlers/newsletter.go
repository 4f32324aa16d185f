package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/deelicious-bakes-backend/internal/domain/newsletter"
	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

type NewsletterHandler struct {
	newsletterService services.NewsletterService
}

func NewNewsletterHandler(newsletterService services.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{newsletterService: newsletterService}
}

func (nh *NewsletterHandler) Subscribe(c *gin.Context) {
	var in services.SubscribeInput
	if !bindJSON(c, &in) {
		return
	}
	sub, err := nh.newsletterService.Subscribe(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": services.SubscribedMessage, "subscriber": sub})
}

func (nh *NewsletterHandler) SubscribeMethodNotAllowed(c *gin.Context) {
	response.RespondError(c, http.StatusMethodNotAllowed, "method_not_allowed", errors.New("Method not allowed"))
}

func (nh *NewsletterHandler) Unsubscribe(c *gin.Context) {
	var in services.UnsubscribeInput
	if !bindJSON(c, &in) {
		return
	}
	if _, err := nh.newsletterService.Unsubscribe(c.Request.Context(), in); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": services.UnsubscribedMessage})
}

// admin

func (nh *NewsletterHandler) List(c *gin.Context) {
	status := c.Query("status")
	page, err := nh.newsletterService.List(c.Request.Context(), status, queryInt(c, "limit"), queryInt(c, "offset"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	active, err := nh.newsletterService.Count(c.Request.Context(), newsletter.StatusSubscribed)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"items":            page.Items,
		"total":            page.Total,
		"limit":            page.Limit,
		"offset":           page.Offset,
		"subscribed_total": active,
	})
}
