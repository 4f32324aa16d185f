package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/deelicious-bakes-backend/internal/domain/messaging"
	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

type MessageHandler struct {
	messageService services.MessageService
}

func NewMessageHandler(messageService services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func threadQuery(c *gin.Context) services.ThreadQuery {
	return services.ThreadQuery{
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		Search:     c.Query("search"),
		UnreadOnly: queryBool(c, "unread_only"),
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
	}
}

func (mh *MessageHandler) ListThreads(c *gin.Context) {
	page, err := mh.messageService.UserThreads(c.Request.Context(), threadQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, page)
}

func (mh *MessageHandler) CreateThread(c *gin.Context) {
	var in services.NewThreadInput
	if !bindJSON(c, &in) {
		return
	}
	thread, err := mh.messageService.CreateThread(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"thread": thread})
}

// GetThread also marks the other side's messages as read.
func (mh *MessageHandler) GetThread(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	thread, err := mh.messageService.GetThread(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"thread": thread})
}

func (mh *MessageHandler) PostMessage(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in services.PostMessageInput
	if !bindJSON(c, &in) {
		return
	}
	msg, err := mh.messageService.PostMessage(c.Request.Context(), id, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"message": msg})
}

func (mh *MessageHandler) CloseThread(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	thread, err := mh.messageService.SetThreadStatus(c.Request.Context(), id, messaging.ThreadClosed)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"thread": thread})
}

func (mh *MessageHandler) UnreadCount(c *gin.Context) {
	n, err := mh.messageService.UnreadCount(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"unread_count": n})
}

// admin

func (mh *MessageHandler) AllThreads(c *gin.Context) {
	page, err := mh.messageService.AllThreads(c.Request.Context(), threadQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, page)
}

func (mh *MessageHandler) SetStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required,oneof=open closed pending"`
	}
	if !bindJSON(c, &req) {
		return
	}
	thread, err := mh.messageService.SetThreadStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"thread": thread})
}

func (mh *MessageHandler) Stats(c *gin.Context) {
	stats, err := mh.messageService.Stats(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, stats)
}

func (mh *MessageHandler) Activity(c *gin.Context) {
	rows, err := mh.messageService.RecentActivity(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"activity": rows})
}
