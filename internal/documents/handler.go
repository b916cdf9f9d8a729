package documents

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jirafa27/DocumentSearcher/internal/shared/apperr"
	"github.com/jirafa27/DocumentSearcher/internal/shared/config"
	"github.com/jirafa27/DocumentSearcher/internal/shared/server/middleware"
	"github.com/jirafa27/DocumentSearcher/internal/shared/server/respond"
)

// multipart framing on top of the file itself
const uploadOverhead = 1 << 20

// Handler wires HTTP handlers to the services.
type Handler struct {
	Svc         *Service
	Ingest      Ingestor
	MaxFileSize int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, ingest Ingestor, maxFileSize int64) *Handler {
	if maxFileSize <= 0 {
		maxFileSize = config.DefaultMaxFileSize
	}
	return &Handler{Svc: svc, Ingest: ingest, MaxFileSize: maxFileSize}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/upload", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.PUT("/documents/:id", h.replace)
	rg.GET("/documents/:id/text", h.text)
	rg.GET("/documents/:id/file", h.file)
	rg.DELETE("/documents/:id", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	in, ok := h.readUpload(c)
	if !ok {
		return
	}

	res, err := h.Ingest.Upload(c.Request.Context(), in)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	c.Set("documentId", res.Document.ID)

	status := http.StatusCreated
	if !res.Created {
		status = http.StatusOK
	}
	respond.JSON(c, status, toDetailResponse(res.Document, res.Length))
}

func (h *Handler) replace(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)
	in, ok := h.readUpload(c)
	if !ok {
		return
	}

	res, err := h.Ingest.Replace(c.Request.Context(), id, in)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, toDetailResponse(res.Document, res.Length))
}

// readUpload parses the multipart body. It writes the error response
// itself and reports false on failure.
func (h *Handler) readUpload(c *gin.Context) (UploadInput, bool) {
	ownerID := middleware.OwnerIDFromContext(c)
	if ownerID == "" {
		respond.FromError(c, apperr.Invalid("owner_id", "is required"))
		return UploadInput{}, false
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxFileSize+uploadOverhead)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.FromError(c, apperr.Invalid("file", fmt.Sprintf("exceeds the %d byte limit", h.MaxFileSize)))
			return UploadInput{}, false
		}
		respond.FromError(c, apperr.Invalid("file", "is required"))
		return UploadInput{}, false
	}
	if fileHeader.Size > h.MaxFileSize {
		respond.FromError(c, apperr.Invalid("file", fmt.Sprintf("exceeds the %d byte limit", h.MaxFileSize)))
		return UploadInput{}, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.FromError(c, apperr.Invalid("file", "unable to read file"))
		return UploadInput{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.MaxFileSize+1))
	if err != nil {
		respond.FromError(c, apperr.Invalid("file", "unable to read file"))
		return UploadInput{}, false
	}

	declared := strings.TrimSpace(c.PostForm("type"))
	if declared == "" {
		declared = strings.TrimSpace(c.Query("type"))
	}
	if declared == "" {
		declared = fileHeader.Header.Get("Content-Type")
	}

	return UploadInput{
		OwnerID:      ownerID,
		FileName:     fileHeader.Filename,
		DeclaredType: declared,
		Data:         data,
	}, true
}

func (h *Handler) list(c *gin.Context) {
	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			respond.FromError(c, apperr.Invalid("limit", "must be an integer"))
			return
		}
		limit = parsed
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	if v := c.Query("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			respond.FromError(c, apperr.Invalid("offset", "must be an integer"))
			return
		}
		offset = parsed
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := h.Svc.List(c.Request.Context(), middleware.OwnerIDFromContext(c), limit, offset)
	if err != nil {
		respond.FromError(c, err)
		return
	}

	resp := listResponse{Documents: make([]DocumentResponse, 0, len(docs)), Limit: limit, Offset: offset}
	for _, doc := range docs {
		resp.Documents = append(resp.Documents, toResponse(doc))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)
	detail, err := h.Svc.Get(c.Request.Context(), middleware.OwnerIDFromContext(c), id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, toDetailResponse(detail.Document, detail.ContentLength))
}

func (h *Handler) text(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)
	content, err := h.Svc.Text(c.Request.Context(), middleware.OwnerIDFromContext(c), id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	respond.Text(c, http.StatusOK, content.Text)
}

func (h *Handler) file(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)
	doc, rc, err := h.Svc.OpenFile(c.Request.Context(), middleware.OwnerIDFromContext(c), id)
	if err != nil {
		respond.FromError(c, err)
		return
	}
	defer rc.Close()

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", doc.FileName),
	}
	c.DataFromReader(http.StatusOK, doc.SizeBytes, doc.MimeType, rc, headers)
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)
	if err := h.Ingest.Delete(c.Request.Context(), middleware.OwnerIDFromContext(c), id); err != nil {
		respond.FromError(c, err)
		return
	}
	respond.OK(c, gin.H{"documentId": id, "deleted": true})
}
