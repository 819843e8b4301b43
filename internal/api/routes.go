package api

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	imagepkg "github.com/youruser/imageapi/internal/image"
	"github.com/youruser/imageapi/internal/model"
)

// Renderer produces the images served by the handlers. Returned surfaces are
// owned by the caller.
type Renderer interface {
	Shop(ctx context.Context, shop *model.Shop, locale string, force bool) (*imagepkg.Surface, error)
	ShopSection(ctx context.Context, section *model.ShopSection, locale string, force bool) (*imagepkg.Surface, error)
	Locker(ctx context.Context, locker *model.Locker) (*imagepkg.Surface, error)
	Stats(ctx context.Context, stats *model.Stats, t model.StatsType) (*imagepkg.Surface, error)
	ProgressBar(ctx context.Context, bar *model.ProgressBar) (*imagepkg.Surface, error)
	Drop(ctx context.Context, drop *model.Drop) (*imagepkg.Surface, error)
	Sweep() int
}

// Handler serves the HTTP API.
type Handler struct {
	renderer Renderer
	logger   *slog.Logger
	apiKey   string
}

// NewHandler returns a handler. An empty apiKey disables authentication.
func NewHandler(renderer Renderer, logger *slog.Logger, apiKey string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{renderer: renderer, logger: logger, apiKey: apiKey}
}

// NewEngine returns a gin engine with the middleware and routes installed.
func (h *Handler) NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), accessLog(h.logger), gin.Recovery())
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/health", health)

	authed := r.Group("/", apiKey(h.apiKey))
	{
		authed.POST("/shop", h.shop)
		authed.POST("/shop/section", h.shopSection)
		authed.POST("/locker", h.locker)
		authed.POST("/stats", h.stats)

		utils := authed.Group("/utils")
		utils.POST("/progressBar", h.progressBar)
		utils.POST("/drop", h.drop)
		utils.GET("/qr", qrHandler)
		utils.GET("/collectGarbage", h.collectGarbage)
	}
}
