package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/ctxutil"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
	"github.com/yungbote/deelicious-bakes-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.Hub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub}
}

// Stream holds the request open as an event stream. Every session joins the
// caller's user channel; admins also join the admin channel.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondAPIError(c, apierr.Unauthorized("unauthorized", "Not authenticated"))
		return
	}

	client := h.hub.NewClient(rd.UserID)
	h.hub.AddChannel(client, realtime.UserChannel(rd.UserID))
	if rd.IsAdmin() {
		h.hub.AddChannel(client, realtime.AdminChannel)
	}
	h.log.Debug("Event stream open", "user_id", rd.UserID, "client_id", client.ID)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
	h.hub.CloseClient(client)
}
