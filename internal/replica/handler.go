package replica

import (
	"errors"
	"net/http"

	apperrors "encrypted-notes/internal/errors"
	"encrypted-notes/internal/ids"
	"encrypted-notes/internal/seal"
	"encrypted-notes/internal/transaction"
	"encrypted-notes/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the API on r. Authentication is the caller's.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/transactions", h.Ingest)
	r.GET("/spaces", h.ShowSpaces)
	r.GET("/spaces/:id/notes", h.ShowNotes)
	r.GET("/spaces/:id/pages", h.ShowPages)
	r.GET("/spaces/:id/files", h.ShowFiles)
	r.PUT("/spaces/:id/key", h.PutKey)
	r.POST("/spaces/:id/checkpoint", h.Checkpoint)
	r.GET("/notes/:id", h.ShowNote)
	r.GET("/settings", h.ShowSettings)
}

type IngestRequest struct {
	Transactions []*transaction.Transaction `json:"transactions" binding:"required,min=1,dive,required"`
}

type IngestResponse struct {
	*IngestResult
	Errors []*apperrors.APIError `json:"errors"`
}

func newIngestResponse(res *IngestResult) IngestResponse {
	out := IngestResponse{IngestResult: res, Errors: make([]*apperrors.APIError, 0, len(res.Errors))}
	for _, err := range res.Errors {
		var apiErr *apperrors.APIError
		if !errors.As(err, &apiErr) {
			apiErr = apperrors.Internal(err)
		}
		out.Errors = append(out.Errors, apiErr)
	}
	return out
}

func (h *Handler) Ingest(c *gin.Context) {
	var form IngestRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(apperrors.NewValidationError(err))
		return
	}

	res, err := h.service.Ingest(c.Request.Context(), form.Transactions)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, newIngestResponse(res))
}

func spaceParam(c *gin.Context) (ids.SpaceID, bool) {
	space, err := ids.ParseSpaceID(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest("invalid space id", err))
		return ids.SpaceID{}, false
	}
	return space, true
}

func (h *Handler) ShowSpaces(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.service.Spaces(c.Request.Context())})
}

func (h *Handler) ShowNotes(c *gin.Context) {
	space, ok := spaceParam(c)
	if !ok {
		return
	}

	page, pageSize := utils.GetPaginationParams(c)
	result, err := h.service.Notes(c.Request.Context(), space, page, pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ShowPages(c *gin.Context) {
	space, ok := spaceParam(c)
	if !ok {
		return
	}

	pages, err := h.service.Pages(c.Request.Context(), space)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": pages})
}

func (h *Handler) ShowFiles(c *gin.Context) {
	space, ok := spaceParam(c)
	if !ok {
		return
	}

	files, err := h.service.Files(c.Request.Context(), space)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": files})
}

func (h *Handler) ShowNote(c *gin.Context) {
	id, err := ids.ParseNoteID(c.Param("id"))
	if err != nil {
		c.Error(apperrors.BadRequest("invalid note id", err))
		return
	}

	note, err := h.service.Note(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, note)
}

func (h *Handler) ShowSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Settings(c.Request.Context()))
}

type PutKeyRequest struct {
	Key string `json:"key" binding:"required,hexadecimal,len=64"`
}

func (h *Handler) PutKey(c *gin.Context) {
	space, ok := spaceParam(c)
	if !ok {
		return
	}

	var form PutKeyRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(apperrors.NewValidationError(err))
		return
	}
	key, err := seal.KeyFromHex(form.Key)
	if err != nil {
		c.Error(apperrors.BadRequest("invalid key", err))
		return
	}

	res, err := h.service.PutSpaceKey(c.Request.Context(), space, key)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, newIngestResponse(res))
}

type CheckpointResponse struct {
	Space      ids.SpaceID `json:"space"`
	Type       string      `json:"type"`
	Operations [][]byte    `json:"operations"`
}

func (h *Handler) Checkpoint(c *gin.Context) {
	space, ok := spaceParam(c)
	if !ok {
		return
	}

	sealed, err := h.service.Checkpoint(c.Request.Context(), space)
	if err != nil {
		c.Error(err)
		return
	}

	resp := CheckpointResponse{Space: space, Type: transaction.OperationType, Operations: make([][]byte, 0, len(sealed))}
	for _, enc := range sealed {
		data, err := enc.Marshal()
		if err != nil {
			c.Error(err)
			return
		}
		resp.Operations = append(resp.Operations, data)
	}

	c.JSON(http.StatusOK, resp)
}
