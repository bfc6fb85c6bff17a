package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"portfolio/internal/api/middleware"
	"portfolio/internal/storage"
)

// StorageHandler 代理公开对象读取，替代对象存储的公开 Bucket。
type StorageHandler struct {
	db    *gorm.DB
	store objectStore
}

// NewStorageHandler 构造 StorageHandler。
func NewStorageHandler(db *gorm.DB, store objectStore) *StorageHandler {
	return &StorageHandler{db: db, store: store}
}

// ServePublicObject 处理 /storage/v1/object/public/:bucket/*path。
func (h *StorageHandler) ServePublicObject(c *gin.Context) {
	bucket := c.Param("bucket")
	key := strings.TrimPrefix(c.Param("path"), "/")
	if !storage.KnownBucket(bucket) || !isValidPublicObjectKey(key) {
		NotFound(c, "object not found")
		return
	}
	h.stream(c, bucket, key)
}

// Favicon 输出站点小图标，未设置时 404。
func (h *StorageHandler) Favicon(c *gin.Context) {
	settings, err := loadSettings(c.Request.Context(), h.db)
	if err != nil {
		Internal(c, "failed to load settings")
		return
	}
	if settings.SmallLogoPath == "" {
		NotFound(c, "favicon not configured")
		return
	}
	h.stream(c, storage.BucketImages, settings.SmallLogoPath)
}

func (h *StorageHandler) stream(c *gin.Context, bucket, key string) {
	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c).With(slog.String("bucket", bucket), slog.String("key", key))

	meta, err := h.store.StatObject(ctx, bucket, key)
	if err != nil {
		if storage.IsObjectMissing(err) {
			NotFound(c, "object not found")
			return
		}
		log.Error("stat object failed", slog.Any("error", err))
		BadGateway(c, "storage unavailable")
		return
	}

	body, err := h.store.GetObject(ctx, bucket, key)
	if err != nil {
		log.Error("get object failed", slog.Any("error", err))
		BadGateway(c, "storage unavailable")
		return
	}
	defer body.Close()

	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	headers := map[string]string{
		"Cache-Control":          "public, max-age=3600",
		"X-Content-Type-Options": "nosniff",
	}
	if isSVG(contentType) {
		// SVG 与站点同源，禁止其中的脚本与外部资源。
		headers["Content-Security-Policy"] = svgContentSecurityPolicy
	}
	c.DataFromReader(http.StatusOK, meta.Size, contentType, body, headers)
}

const svgContentSecurityPolicy = "default-src 'none'; style-src 'unsafe-inline'; sandbox"

func isSVG(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), "image/svg+xml")
}
