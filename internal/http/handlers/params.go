package handlers

import (
	"strconv"
	"strings"

	"github.com/geocoder89/storehub/internal/apperr"
	"github.com/geocoder89/storehub/internal/service"
	"github.com/gin-gonic/gin"
)

// parseID reads the :id path param; it writes the 400 itself on failure.
func parseID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id < 1 {
		RespondError(ctx, apperr.Validation(apperr.MsgInvalidID, nil))
		return 0, false
	}
	return id, true
}

// parsePage reads ?page and ?limit. Garbage falls back to the defaults.
func parsePage(ctx *gin.Context) service.PageRequest {
	page, _ := strconv.Atoi(ctx.Query("page"))
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	return service.PageRequest{Page: page, Limit: limit}.Normalize()
}

func optionalQuery(ctx *gin.Context, key string) *string {
	v, ok := ctx.GetQuery(key)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
