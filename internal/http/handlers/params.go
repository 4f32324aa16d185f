package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
	"github.com/yungbote/deelicious-bakes-backend/internal/http/validation"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
)

const dateLayout = "2006-01-02"

// bindJSON writes the 400 itself and reports whether the handler may go on.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondAPIError(c, validation.BindError(err))
		return false
	}
	return true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_id", "Invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return n
}

func queryIntPtr(c *gin.Context, key string) (*int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_query", "Invalid "+key))
		return nil, false
	}
	return &n, true
}

func queryInt64Ptr(c *gin.Context, key string) (*int64, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_query", "Invalid "+key))
		return nil, false
	}
	return &n, true
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return b
}

func queryBoolPtr(c *gin.Context, key string) *bool {
	b, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return nil
	}
	return &b
}

func queryUUIDPtr(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_query", "Invalid "+key))
		return nil, false
	}
	return &id, true
}

// queryList accepts both ?k=a&k=b and ?k=a,b.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func queryUUIDs(c *gin.Context, key string) ([]uuid.UUID, bool) {
	parts := queryList(c, key)
	out := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		id, err := uuid.Parse(p)
		if err != nil {
			response.RespondAPIError(c, apierr.BadRequest("invalid_query", "Invalid "+key))
			return nil, false
		}
		out = append(out, id)
	}
	return out, true
}

// queryTime accepts RFC 3339 or a bare YYYY-MM-DD.
func queryTime(c *gin.Context, key string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		response.RespondAPIError(c, apierr.BadRequest("invalid_query", "Invalid "+key))
		return nil, false
	}
	return &t, true
}
