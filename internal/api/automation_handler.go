package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"portfolio/internal/api/middleware"
	"portfolio/internal/database"
	"portfolio/internal/portfolio"
	"portfolio/internal/storage"
)

const defaultAutomationPlatform = "Make.com"

// AutomationHandler 管理自动化案例。
type AutomationHandler struct {
	db    *gorm.DB
	files *fileWorkflow
}

// NewAutomationHandler 构造 AutomationHandler。
func NewAutomationHandler(db *gorm.DB, files *fileWorkflow) *AutomationHandler {
	return &AutomationHandler{db: db, files: files}
}

type automationForm struct {
	Title               string `form:"title" binding:"required,max=255"`
	Platform            string `form:"platform" binding:"max=128"`
	ShortDescription    string `form:"short_description" binding:"max=512"`
	DetailedDescription string `form:"detailed_description"`
	BusinessContext     string `form:"business_context"`
	Tags                string `form:"tags"`
	ToolsUsed           string `form:"tools_used"`
	ComplexityLevel     string `form:"complexity_level"`
	TimeSaved           string `form:"time_saved" binding:"max=255"`
	ROIDescription      string `form:"roi_description"`
	Status              string `form:"status"`
	Featured            bool   `form:"featured"`
	OrderIndex          int    `form:"order_index"`
	RemoveFile          bool   `form:"remove_file"`
}

func (f automationForm) apply(row *database.AIAutomation) {
	row.Title = strings.TrimSpace(f.Title)
	row.Platform = firstNonEmpty(f.Platform, defaultAutomationPlatform)
	row.ShortDescription = f.ShortDescription
	row.DetailedDescription = f.DetailedDescription
	row.BusinessContext = f.BusinessContext
	row.Tags = portfolio.ParseCommaList(f.Tags)
	row.ToolsUsed = portfolio.ParseCommaList(f.ToolsUsed)
	row.ComplexityLevel = firstNonEmpty(f.ComplexityLevel, string(portfolio.ComplexityMedium))
	row.TimeSaved = f.TimeSaved
	row.ROIDescription = f.ROIDescription
	row.Status = firstNonEmpty(f.Status, string(portfolio.AutomationActive))
	row.Featured = f.Featured
	row.OrderIndex = f.OrderIndex
}

type automationResponse struct {
	database.AIAutomation
	ScreenshotURL string `json:"screenshot_url"`
}

func (h *AutomationHandler) toResponse(row database.AIAutomation) automationResponse {
	return automationResponse{AIAutomation: row, ScreenshotURL: h.files.publicURL(storage.BucketAIAutomations, row.ScreenshotPath)}
}

func bindAutomation(c *gin.Context) (automationForm, bool) {
	var form automationForm
	if err := c.ShouldBind(&form); err != nil {
		BadRequest(c, err.Error())
		return form, false
	}
	if strings.TrimSpace(form.Title) == "" {
		BadRequest(c, "title is required")
		return form, false
	}
	if form.ComplexityLevel != "" && !portfolio.ComplexityLevel(form.ComplexityLevel).Valid() {
		BadRequest(c, "invalid complexity_level")
		return form, false
	}
	if form.Status != "" && !portfolio.AutomationStatus(form.Status).Valid() {
		BadRequest(c, "invalid status")
		return form, false
	}
	return form, true
}

// ListAutomations 返回全部案例（含归档）。
func (h *AutomationHandler) ListAutomations(c *gin.Context) {
	var rows []database.AIAutomation
	if err := orderedList(h.db.WithContext(c.Request.Context())).Find(&rows).Error; err != nil {
		Internal(c, "failed to list automations")
		return
	}
	out := make([]automationResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, h.toResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

// CreateAutomation 新增案例，截图可选。
func (h *AutomationHandler) CreateAutomation(c *gin.Context) {
	form, ok := bindAutomation(c)
	if !ok {
		return
	}
	ctx := withCorrelationID(c)
	log := middleware.LoggerFromContext(c)

	var row database.AIAutomation
	form.apply(&row)
	if fh := optionalFile(c, "file"); fh != nil {
		key, err := h.files.upload(ctx, fh, storage.BucketAIAutomations)
		if err != nil {
			respondUploadError(c, err)
			return
		}
		row.ScreenshotPath = key
	}

	if err := h.db.WithContext(ctx).Create(&row).Error; err != nil {
		h.files.compensate(ctx, log, storage.BucketAIAutomations, row.ScreenshotPath)
		respondWriteError(c, err, "automation")
		return
	}
	c.JSON(http.StatusCreated, h.toResponse(row))
}

// UpdateAutomation 覆盖字段，可替换或清除截图。
func (h *AutomationHandler) UpdateAutomation(c *gin.Context) {
	form, ok := bindAutomation(c)
	if !ok {
		return
	}
	ctx := withCorrelationID(c)
	log := middleware.LoggerFromContext(c)

	var newKey string
	if fh := optionalFile(c, "file"); fh != nil {
		key, err := h.files.upload(ctx, fh, storage.BucketAIAutomations)
		if err != nil {
			respondUploadError(c, err)
			return
		}
		newKey = key
	}

	var row database.AIAutomation
	var oldKey string
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", c.Param("id")).Take(&row).Error; err != nil {
			return err
		}
		form.apply(&row)
		switch {
		case newKey != "":
			oldKey, row.ScreenshotPath = row.ScreenshotPath, newKey
		case form.RemoveFile:
			oldKey, row.ScreenshotPath = row.ScreenshotPath, ""
		}
		return tx.Save(&row).Error
	})
	if err != nil {
		h.files.compensate(ctx, log, storage.BucketAIAutomations, newKey)
		respondWriteError(c, err, "automation")
		return
	}
	if oldKey != "" {
		h.files.remove(ctx, log, storage.BucketAIAutomations, oldKey)
	}
	c.JSON(http.StatusOK, h.toResponse(row))
}

// DeleteAutomation 删除案例后删除截图。
func (h *AutomationHandler) DeleteAutomation(c *gin.Context) {
	ctx := withCorrelationID(c)
	var row database.AIAutomation
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", c.Param("id")).Take(&row).Error; err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "automation not found")
			return
		}
		Internal(c, "failed to delete automation")
		return
	}
	cleanup := h.files.remove(ctx, middleware.LoggerFromContext(c), storage.BucketAIAutomations, row.ScreenshotPath)
	deleteResponse(c, row.ID, cleanup)
}
