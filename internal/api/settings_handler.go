package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"portfolio/internal/api/middleware"
	"portfolio/internal/database"
	"portfolio/internal/portfolio"
	"portfolio/internal/storage"
)

// SettingsHandler 维护全站唯一的配置行。
type SettingsHandler struct {
	db    *gorm.DB
	files *fileWorkflow
}

// NewSettingsHandler 构造 SettingsHandler。
func NewSettingsHandler(db *gorm.DB, files *fileWorkflow) *SettingsHandler {
	return &SettingsHandler{db: db, files: files}
}

type settingsRequest struct {
	HeroTitle    string `json:"hero_title" binding:"max=255"`
	HeroSubtitle string `json:"hero_subtitle" binding:"max=512"`
	AboutMe      string `json:"about_me"`
	Mission      string `json:"mission"`
	Vision       string `json:"vision"`
	PrimaryEmail string `json:"primary_email" binding:"omitempty,email"`
	Location     string `json:"location"`
	LinkedinURL  string `json:"linkedin_url" binding:"omitempty,url"`
	GithubURL    string `json:"github_url" binding:"omitempty,url"`
	TwitterURL   string `json:"twitter_url" binding:"omitempty,url"`
	InstagramURL string `json:"instagram_url" binding:"omitempty,url"`
}

type settingsResponse struct {
	database.SiteSettings
	LogoURL      string `json:"logo_url"`
	SmallLogoURL string `json:"small_logo_url"`
}

// loadSettings 显式按固定 ID 查找；不存在时返回零值配置而不是错误。
func loadSettings(ctx context.Context, db *gorm.DB) (database.SiteSettings, error) {
	var settings database.SiteSettings
	err := db.WithContext(ctx).Where("id = ?", database.SiteSettingsID).Take(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.SiteSettings{Model: database.Model{ID: database.SiteSettingsID}}, nil
	}
	if err != nil {
		return database.SiteSettings{}, err
	}
	return settings, nil
}

func (h *SettingsHandler) toResponse(s database.SiteSettings) settingsResponse {
	return settingsResponse{
		SiteSettings: s,
		LogoURL:      h.files.publicURL(storage.BucketImages, s.LogoPath),
		SmallLogoURL: h.files.publicURL(storage.BucketImages, s.SmallLogoPath),
	}
}

// GetSettings 返回站点配置（管理端与公开端共用）。
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := loadSettings(c.Request.Context(), h.db)
	if err != nil {
		middleware.LoggerFromContext(c).Error("load settings failed", slog.Any("error", err))
		Internal(c, "failed to load settings")
		return
	}
	c.JSON(http.StatusOK, h.toResponse(settings))
}

// UpdateSettings upserts the text fields on the fixed row; logo paths are left untouched.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	row := database.SiteSettings{
		Model:        database.Model{ID: database.SiteSettingsID},
		HeroTitle:    req.HeroTitle,
		HeroSubtitle: req.HeroSubtitle,
		AboutMe:      req.AboutMe,
		Mission:      req.Mission,
		Vision:       req.Vision,
		PrimaryEmail: req.PrimaryEmail,
		Location:     req.Location,
		LinkedinURL:  req.LinkedinURL,
		GithubURL:    req.GithubURL,
		TwitterURL:   req.TwitterURL,
		InstagramURL: req.InstagramURL,
	}

	ctx := c.Request.Context()
	err := h.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"hero_title", "hero_subtitle", "about_me", "mission", "vision", "primary_email",
			"location", "linkedin_url", "github_url", "twitter_url", "instagram_url", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		middleware.LoggerFromContext(c).Error("upsert settings failed", slog.Any("error", err))
		Internal(c, "failed to save settings")
		return
	}

	h.GetSettings(c)
}

// logoColumn maps the :kind parameter to its column and object name prefix.
func logoColumn(kind string) (column, prefix string, ok bool) {
	switch kind {
	case "logo":
		return "logo_path", "logo", true
	case "small_logo":
		return "small_logo_path", "small-logo", true
	}
	return "", "", false
}

// UploadLogo 上传 logo / small_logo，成功写库后删除旧对象。
func (h *SettingsHandler) UploadLogo(c *gin.Context) {
	column, prefix, ok := logoColumn(c.Param("kind"))
	if !ok {
		BadRequest(c, "kind must be logo or small_logo")
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}

	ctx := withCorrelationID(c)
	log := middleware.LoggerFromContext(c).With(slog.String("kind", c.Param("kind")))

	key, err := h.files.uploadAs(ctx, fh, storage.BucketImages, portfolio.LogoObjectName(prefix, fh.Filename, h.files.now()))
	if err != nil {
		respondUploadError(c, err)
		return
	}

	oldPath, err := h.setLogoPath(ctx, column, key)
	if err != nil {
		h.files.compensate(ctx, log, storage.BucketImages, key)
		log.Error("update logo path failed", slog.Any("error", err))
		Internal(c, "failed to save settings")
		return
	}
	if oldPath != "" && oldPath != key {
		h.files.remove(ctx, log, storage.BucketImages, oldPath)
	}

	h.GetSettings(c)
}

// DeleteLogo 清空路径并删除对象。
func (h *SettingsHandler) DeleteLogo(c *gin.Context) {
	column, _, ok := logoColumn(c.Param("kind"))
	if !ok {
		BadRequest(c, "kind must be logo or small_logo")
		return
	}

	ctx := withCorrelationID(c)
	log := middleware.LoggerFromContext(c)

	oldPath, err := h.setLogoPath(ctx, column, "")
	if err != nil {
		log.Error("clear logo path failed", slog.Any("error", err))
		Internal(c, "failed to save settings")
		return
	}
	cleanup := h.files.remove(ctx, log, storage.BucketImages, oldPath)

	settings, err := loadSettings(ctx, h.db)
	if err != nil {
		Internal(c, "failed to load settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": h.toResponse(settings), "storage_cleanup": cleanup})
}

// setLogoPath writes column in a transaction, creating the row if needed, and returns the previous path.
func (h *SettingsHandler) setLogoPath(ctx context.Context, column, path string) (string, error) {
	var oldPath string
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		settings, err := loadSettings(ctx, tx)
		if err != nil {
			return err
		}
		if column == "logo_path" {
			oldPath, settings.LogoPath = settings.LogoPath, path
		} else {
			oldPath, settings.SmallLogoPath = settings.SmallLogoPath, path
		}
		return tx.Save(&settings).Error
	})
	return oldPath, err
}
