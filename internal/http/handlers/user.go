package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

const maxAvatarUploadBytes = 5 << 20

type UserHandler struct {
	userService    services.UserService
	accountService services.AccountService
}

func NewUserHandler(userService services.UserService, accountService services.AccountService) *UserHandler {
	return &UserHandler{userService: userService, accountService: accountService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

func (uh *UserHandler) UpdateMe(c *gin.Context) {
	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if !bindJSON(c, &req) {
		return
	}
	me, err := uh.userService.UpdateProfile(c.Request.Context(), req.FirstName, req.LastName)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

func (uh *UserHandler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := uh.userService.ChangePassword(c.Request.Context(), req.CurrentPassword, req.NewPassword); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Password changed"})
}

func (uh *UserHandler) ResendVerification(c *gin.Context) {
	if err := uh.accountService.ResendVerification(c.Request.Context()); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Verification email sent"})
}

func (uh *UserHandler) RequestEmailChange(c *gin.Context) {
	var req struct {
		NewEmail string `json:"new_email" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := uh.accountService.RequestEmailChange(c.Request.Context(), req.NewEmail); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Check your current inbox to confirm the change"})
}

func (uh *UserHandler) RequestDeletion(c *gin.Context) {
	if err := uh.accountService.RequestAccountDeletion(c.Request.Context()); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Check your inbox to confirm account deletion"})
}

func (uh *UserHandler) GetAvatar(c *gin.Context) {
	png, err := uh.userService.GetAvatar(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, "image/png", png)
}

func (uh *UserHandler) UploadAvatar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAvatarUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondAPIError(c, apierr.BadRequest("missing_file", "Upload an image in the file field"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_file", "Could not read upload"))
		return
	}
	if err := uh.userService.UploadAvatar(c.Request.Context(), raw); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// admin

func (uh *UserHandler) ListUsers(c *gin.Context) {
	res, err := uh.userService.ListUsers(c.Request.Context(), repos.UserListFilter{
		Search: c.Query("search"),
		Role:   c.Query("role"),
		Banned: queryBoolPtr(c, "banned"),
		Limit:  queryInt(c, "limit"),
		Offset: queryInt(c, "offset"),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

func (uh *UserHandler) SetRole(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role" binding:"required,oneof=user admin"`
	}
	if !bindJSON(c, &req) {
		return
	}
	user, err := uh.userService.SetRole(c.Request.Context(), id, req.Role)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}

func (uh *UserHandler) Ban(c *gin.Context) {
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
	user, err := uh.userService.Ban(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}

func (uh *UserHandler) Unban(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	user, err := uh.userService.Unban(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}
