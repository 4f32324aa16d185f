package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

type CustomRequestHandler struct {
	requestService services.CustomRequestService
}

func NewCustomRequestHandler(requestService services.CustomRequestService) *CustomRequestHandler {
	return &CustomRequestHandler{requestService: requestService}
}

func requestQuery(c *gin.Context) services.RequestQuery {
	return services.RequestQuery{
		Status:   c.Query("status"),
		Type:     c.Query("type"),
		HasQuote: queryBoolPtr(c, "has_quote"),
		Search:   c.Query("search"),
		Limit:    queryInt(c, "limit"),
		Offset:   queryInt(c, "offset"),
	}
}

func (rh *CustomRequestHandler) Create(c *gin.Context) {
	var in services.CustomRequestInput
	if !bindJSON(c, &in) {
		return
	}
	req, err := rh.requestService.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"request": req})
}

func (rh *CustomRequestHandler) List(c *gin.Context) {
	page, err := rh.requestService.UserRequests(c.Request.Context(), requestQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, page)
}

func (rh *CustomRequestHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	req, err := rh.requestService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"request": req})
}

func (rh *CustomRequestHandler) Approve(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	req, err := rh.requestService.Approve(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"request": req})
}

func (rh *CustomRequestHandler) Decline(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	req, err := rh.requestService.Decline(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"request": req})
}

// admin

func (rh *CustomRequestHandler) AdminList(c *gin.Context) {
	page, err := rh.requestService.AllRequests(c.Request.Context(), requestQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, page)
}

func (rh *CustomRequestHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in services.CustomRequestUpdate
	if !bindJSON(c, &in) {
		return
	}
	req, err := rh.requestService.Update(c.Request.Context(), id, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"request": req})
}
