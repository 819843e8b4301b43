package api

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	imagepkg "github.com/youruser/imageapi/internal/image"
	"github.com/youruser/imageapi/internal/layout"
	"github.com/youruser/imageapi/internal/logger"
	"github.com/youruser/imageapi/internal/model"
	"go.trai.ch/zerr"
)

// statusClientClosed answers renders aborted because the caller went away.
const statusClientClosed = 499

// lockerQuality maps the item count to a JPEG quality, largest lockers
// compressing hardest.
var lockerQuality = []struct {
	maxItems int
	quality  int
}{
	{100, 100}, {150, 95}, {200, 90}, {250, 85}, {300, 80}, {325, 75},
	{350, 70}, {400, 65}, {425, 60}, {450, 55}, {475, 50}, {500, 45},
}

// LockerQuality returns the JPEG quality for a locker of the given size.
func LockerQuality(items int, lossless bool) int {
	if lossless {
		return 100
	}
	for _, q := range lockerQuality {
		if items <= q.maxItems {
			return q.quality
		}
	}
	return lockerQuality[len(lockerQuality)-1].quality
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) shop(c *gin.Context) {
	var req model.Shop
	if !bind(c, &req) {
		return
	}
	locale := queryLocale(c)
	h.logger.Info("item shop image request", "locale", locale, "new_shop", queryBool(c, "isNewShop"))
	out, err := h.renderer.Shop(c.Request.Context(), &req, locale, queryBool(c, "isNewShop"))
	h.respond(c, out, err, imagepkg.PNG, 0)
}

func (h *Handler) shopSection(c *gin.Context) {
	var req model.ShopSection
	if !bind(c, &req) {
		return
	}
	locale := queryLocale(c)
	h.logger.Info("item shop section image request", "locale", locale, "section", req.ID)
	out, err := h.renderer.ShopSection(c.Request.Context(), &req, locale, queryBool(c, "isNewShop"))
	h.respond(c, out, err, imagepkg.PNG, 0)
}

func (h *Handler) locker(c *gin.Context) {
	var req model.Locker
	if !bind(c, &req) {
		return
	}
	h.logger.Info("locker image request", "player", req.PlayerName, "items", len(req.Items), "request", req.RequestID)
	out, err := h.renderer.Locker(c.Request.Context(), &req)
	h.respond(c, out, err, imagepkg.JPEG, LockerQuality(len(req.Items), queryBool(c, "lossless")))
}

func (h *Handler) stats(c *gin.Context) {
	t, err := model.ParseStatsType(strings.ToLower(c.Query("type")))
	if err != nil {
		h.fail(c, err)
		return
	}
	var req model.Stats
	if !bind(c, &req) {
		return
	}
	h.logger.Info("stats image request", "player", req.PlayerName, "type", string(t))
	out, err := h.renderer.Stats(c.Request.Context(), &req, t)
	h.respond(c, out, err, imagepkg.PNG, 0)
}

func (h *Handler) progressBar(c *gin.Context) {
	var req model.ProgressBar
	if !bind(c, &req) {
		return
	}
	out, err := h.renderer.ProgressBar(c.Request.Context(), &req)
	h.respond(c, out, err, imagepkg.PNG, 0)
}

func (h *Handler) drop(c *gin.Context) {
	var req model.Drop
	if !bind(c, &req) {
		return
	}
	if req.Locale == "" {
		req.Locale = model.DefaultLocale
	}
	out, err := h.renderer.Drop(c.Request.Context(), &req)
	h.respond(c, out, err, imagepkg.JPEG, 100)
}

// qrHandler returns a PNG of a QR code for the "text" query parameter.
func qrHandler(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	size := imagepkg.DefaultQRSize
	if v, err := strconv.Atoi(c.Query("size")); err == nil {
		size = v
	}
	b, err := imagepkg.GenerateQRPNG(text, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}

func (h *Handler) collectGarbage(c *gin.Context) {
	swept := h.renderer.Sweep()
	runtime.GC()
	debug.FreeOSMemory()
	h.logger.Info("garbage collected", "swept", swept)
	c.Status(http.StatusNoContent)
}

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func queryLocale(c *gin.Context) string {
	if l := c.Query("locale"); l != "" {
		return l
	}
	return model.DefaultLocale
}

func queryBool(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}

// respond encodes out and releases it.
func (h *Handler) respond(c *gin.Context, out *imagepkg.Surface, err error, f imagepkg.Format, quality int) {
	if err != nil {
		h.fail(c, err)
		return
	}
	defer out.Release()

	b, err := imagepkg.EncodeBytes(out.Image(), f, quality)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, f.ContentType(), b)
}

func (h *Handler) fail(c *gin.Context, err error) {
	ctx := c.Request.Context()
	switch {
	case errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, layout.ErrNoSections),
		errors.Is(err, layout.ErrInvalidSize),
		errors.Is(err, layout.ErrRowOverflow):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(statusClientClosed)
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "render timed out"})
	default:
		logger.Error(ctx, h.logger, zerr.With(err, "request_id", c.GetString(ctxRequestID)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
