package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chaos-io/rmbg/rembg"
)

const missingURLMessage = "Missing 'url' query parameter."

// Stager 把远程图片落到本地，release 负责删除本地文件
type Stager interface {
	Download(ctx context.Context, url string) (path string, release func(), err error)
}

type Dependencies struct {
	Logger  *slog.Logger
	Stager  Stager
	Remover rembg.Remover
	AppName string
}

type Handler struct {
	logger  *slog.Logger
	stager  Stager
	remover rembg.Remover
	appName string
}

func NewHandler(deps *Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:  logger,
		stager:  deps.Stager,
		remover: deps.Remover,
		appName: deps.AppName,
	}
}

// RemoveBackground handles GET /?url=... and GET /api/remove-bg?url=...
func (h *Handler) RemoveBackground(c *gin.Context) {
	imageURL := c.Query("url")
	if imageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": missingURLMessage})
		return
	}

	ctx := c.Request.Context()

	path, release, err := h.stager.Download(ctx, imageURL)
	if err != nil {
		h.fail(c, imageURL, err)
		return
	}
	defer release()

	resultURL, err := h.remover.Remove(ctx, path)
	if err != nil {
		h.fail(c, imageURL, err)
		return
	}

	h.logger.Info("background removed",
		slog.String("url", imageURL),
		slog.String("result", resultURL),
	)
	c.JSON(http.StatusOK, gin.H{"url": resultURL})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.appName,
	})
}

func (h *Handler) fail(c *gin.Context, imageURL string, err error) {
	h.logger.Error("remove background failed",
		slog.String("url", imageURL),
		slog.Any("error", err),
	)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
