package share

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reqforge/reqforge/internal/apperrors"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register wires the share endpoints. Creating a link requires a signed-in
// user; resolving one is public by design.
func (h *Handler) Register(api *gin.RouterGroup, auth gin.HandlerFunc) {
	api.POST("/share", auth, h.Create)
	api.GET("/share", h.Resolve)
}

func (h *Handler) Create(c *gin.Context) {
	var req struct {
		BRDID    string `json:"brdId"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	link, _, err := h.svc.Create(c.Request.Context(), req.BRDID, req.Password)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shareableLink": link})
}

func (h *Handler) Resolve(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing share id"})
		return
	}
	t, err := h.svc.Resolve(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err)})
		return
	}
	c.JSON(http.StatusOK, t)
}
