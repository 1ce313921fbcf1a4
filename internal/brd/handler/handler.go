package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reqforge/reqforge/internal/apperrors"
	"github.com/reqforge/reqforge/internal/brd"
	"github.com/reqforge/reqforge/internal/brd/service"
	"github.com/reqforge/reqforge/pkg/middleware"
)

// Exporter uploads a document snapshot and hands back a download URL.
// Implemented by the MinIO storage; nil when object storage is not
// configured.
type Exporter interface {
	ExportBRD(ctx context.Context, d *brd.BRD) (string, error)
}

type Handler struct {
	svc      *service.Service
	exporter Exporter
}

func New(svc *service.Service, exporter Exporter) *Handler {
	return &Handler{svc: svc, exporter: exporter}
}

// Register wires the collaboration routes. Reads are public; mutations go
// through the auth middleware.
func (h *Handler) Register(api *gin.RouterGroup, auth gin.HandlerFunc) {
	api.GET("/brds/:id", h.GetBRD)
	api.PUT("/brds/:id", auth, h.UpdateBRD)
	api.GET("/brds/:id/comments", h.ListComments)
	api.GET("/brds/:id/stories", h.ListStories)
	api.POST("/brds/:id/stories", auth, h.AddStory)
	api.GET("/brds/:id/events", h.StreamEvents)
	api.GET("/brds/:id/export", auth, h.Export)

	api.POST("/comments", auth, h.AddComment)
	api.PUT("/comments/:id", auth, h.UpdateComment)
	api.DELETE("/comments/:id", auth, h.DeleteComment)

	api.PUT("/stories/:id", auth, h.UpdateStory)
	api.DELETE("/stories/:id", auth, h.DeleteStory)
}

func (h *Handler) GetBRD(c *gin.Context) {
	d, err := h.svc.GetBRD(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err)})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateBRD(c *gin.Context) {
	var req brd.UpdateBRD
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := h.svc.UpdateBRD(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err)})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) ListComments(c *gin.Context) {
	out, err := h.svc.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err)})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) AddComment(c *gin.Context) {
	var req struct {
		BRDID   string `json:"brdId"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email, ok := middleware.CurrentEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "identity has no email"})
		return
	}
	cm, err := h.svc.AddComment(c.Request.Context(), req.BRDID, req.Content, email)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err)})
		return
	}
	c.JSON(http.StatusOK, cm)
}

func (h *Handler) UpdateComment(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email, _ := middleware.CurrentEmail(c)
	cm, err := h.svc.UpdateComment(c.Request.Context(), c.Param("id"), req.Content, email)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err)})
		return
	}
	c.JSON(http.StatusOK, cm)
}

func (h *Handler) DeleteComment(c *gin.Context) {
	email, _ := middleware.CurrentEmail(c)
	if err := h.svc.DeleteComment(c.Request.Context(), c.Param("id"), email); err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err)})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListStories is the ensure-populated read: an empty list triggers one
// generation pass before responding.
func (h *Handler) ListStories(c *gin.Context) {
	out, err := h.svc.EnsureStories(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": out})
}

func (h *Handler) AddStory(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := h.svc.AddStory(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err)})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) UpdateStory(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := h.svc.UpdateStory(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err)})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) DeleteStory(c *gin.Context) {
	if err := h.svc.DeleteStory(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err)})
		return
	}
	c.Status(http.StatusNoContent)
}

// StreamEvents sends the document's comment/story deltas as SSE until the
// client goes away.
func (h *Handler) StreamEvents(c *gin.Context) {
	ch, cancel := h.svc.Subscribe(c.Param("id"))
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, open := <-ch:
			if !open {
				return false
			}
			c.SSEvent("change", mustJSON(ev))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) Export(c *gin.Context) {
	if h.exporter == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "object storage not configured"})
		return
	}
	d, err := h.svc.GetBRD(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err)})
		return
	}
	url, err := h.exporter.ExportBRD(c.Request.Context(), d)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
