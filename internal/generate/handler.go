package generate

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reqforge/reqforge/internal/apperrors"
	"github.com/reqforge/reqforge/pkg/metrics"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(api *gin.RouterGroup, auth gin.HandlerFunc) {
	api.POST("/generate", auth, h.GenerateBRD)
	api.POST("/generateUserStories", auth, h.GenerateUserStories)
}

func (h *Handler) GenerateBRD(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	doc, err := h.svc.GenerateBRD(c.Request.Context(), req)
	if err != nil {
		metrics.GenerationRequests.WithLabelValues("brd", "error").Inc()
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err)})
		return
	}
	metrics.GenerationRequests.WithLabelValues("brd", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"brdId": doc.ID, "brd": doc.Content})
}

func (h *Handler) GenerateUserStories(c *gin.Context) {
	var req struct {
		BRDID    string `json:"brdId"`
		Goals    string `json:"goals"`
		Features string `json:"features"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	stories, err := h.svc.GenerateUserStories(c.Request.Context(), req.BRDID, req.Goals, req.Features)
	if err != nil {
		metrics.GenerationRequests.WithLabelValues("stories", "error").Inc()
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err)})
		return
	}
	metrics.GenerationRequests.WithLabelValues("stories", "ok").Inc()

	// clients edit and delete freshly generated stories by id
	out := make([]gin.H, 0, len(stories))
	for _, st := range stories {
		out = append(out, gin.H{"id": st.ID, "content": st.Content})
	}
	c.JSON(http.StatusOK, gin.H{"stories": out})
}
