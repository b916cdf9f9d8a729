package search

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jirafa27/DocumentSearcher/internal/shared/apperr"
	"github.com/jirafa27/DocumentSearcher/internal/shared/config"
	"github.com/jirafa27/DocumentSearcher/internal/shared/server/middleware"
	"github.com/jirafa27/DocumentSearcher/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc                *Service
	DefaultContextSize int
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, defaultContextSize int) *Handler {
	if defaultContextSize < 0 {
		defaultContextSize = config.DefaultContextSize
	}
	return &Handler{Svc: svc, DefaultContextSize: defaultContextSize}
}

// RegisterRoutes attaches search routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search", h.search)
}

func (h *Handler) search(c *gin.Context) {
	req := Request{
		Query:      c.Query("query"),
		OwnerID:    middleware.OwnerIDFromContext(c),
		DocumentID: strings.TrimSpace(c.Query("document_id")),
	}
	if req.Query == "" {
		req.Query = c.Query("q")
	}

	var err error
	if req.Exact, err = boolParam(c, "exact"); err != nil {
		respond.FromError(c, err)
		return
	}
	if req.ContextBefore, err = intParam(c, "context_before", h.DefaultContextSize); err != nil {
		respond.FromError(c, err)
		return
	}
	if req.ContextAfter, err = intParam(c, "context_after", h.DefaultContextSize); err != nil {
		respond.FromError(c, err)
		return
	}
	if req.Limit, err = intParam(c, "limit", DefaultLimit); err != nil {
		respond.FromError(c, err)
		return
	}
	if req.Offset, err = intParam(c, "offset", 0); err != nil {
		respond.FromError(c, err)
		return
	}

	res, err := h.Svc.Search(c.Request.Context(), req)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, toResponse(res))
}

func intParam(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Invalid(name, "must be an integer")
	}
	return v, nil
}

func boolParam(c *gin.Context, name string) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.Invalid(name, "must be true or false")
	}
	return v, nil
}

