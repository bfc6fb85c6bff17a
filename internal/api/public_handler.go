package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"portfolio/internal/api/middleware"
	"portfolio/internal/database"
	"portfolio/internal/portfolio"
	"portfolio/internal/storage"
)

// PublicHandler 提供只读的公开数据。
type PublicHandler struct {
	db       *gorm.DB
	files    *fileWorkflow
	settings *SettingsHandler
}

// NewPublicHandler 构造 PublicHandler。
func NewPublicHandler(db *gorm.DB, files *fileWorkflow) *PublicHandler {
	return &PublicHandler{db: db, files: files, settings: NewSettingsHandler(db, files)}
}

func (h *PublicHandler) fail(c *gin.Context, what string, err error) {
	middleware.LoggerFromContext(c).Error("public query failed", slog.String("what", what), slog.Any("error", err))
	Internal(c, "failed to load "+what)
}

// Settings 返回站点配置。
func (h *PublicHandler) Settings(c *gin.Context) {
	h.settings.GetSettings(c)
}

// Resume 返回按分类分组的简历条目和当前激活的 PDF（没有则为 null）。
func (h *PublicHandler) Resume(c *gin.Context) {
	ctx := c.Request.Context()
	var items []database.ResumeItem
	if err := h.db.WithContext(ctx).Find(&items).Error; err != nil {
		h.fail(c, "resume", err)
		return
	}

	var active *resumePDFResponse
	var pdf database.ResumePDFFile
	err := h.db.WithContext(ctx).Where("is_active = ?", true).Order("updated_at DESC").Take(&pdf).Error
	switch {
	case err == nil:
		active = &resumePDFResponse{ResumePDFFile: pdf, FileURL: h.files.publicURL(storage.BucketResume, pdf.FilePath)}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		h.fail(c, "resume", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sections":   portfolio.GroupResumeItems(items),
		"active_pdf": active,
	})
}

// Businesses 按 order_index 返回业务列表。
func (h *PublicHandler) Businesses(c *gin.Context) {
	var rows []database.Business
	if err := orderedList(h.db.WithContext(c.Request.Context())).Find(&rows).Error; err != nil {
		h.fail(c, "businesses", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// BusinessBySlug 返回单个业务及其截图。
func (h *PublicHandler) BusinessBySlug(c *gin.Context) {
	ctx := c.Request.Context()
	var row database.Business
	if err := h.db.WithContext(ctx).Where("slug = ?", c.Param("slug")).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "business not found")
			return
		}
		h.fail(c, "business", err)
		return
	}
	var shots []database.BusinessScreenshot
	if err := orderedList(h.db.WithContext(ctx).Where("business_id = ?", row.ID)).Find(&shots).Error; err != nil {
		h.fail(c, "business", err)
		return
	}
	out := make([]screenshotResponse, 0, len(shots))
	for _, s := range shots {
		out = append(out, screenshotResponse{BusinessScreenshot: s, ImageURL: h.files.publicURL(storage.BucketBusinessScreenshots, s.ImagePath)})
	}
	c.JSON(http.StatusOK, gin.H{"business": row, "screenshots": out})
}

type publicIssuerGroup struct {
	Issuer       string                `json:"issuer"`
	Certificates []certificateResponse `json:"certificates"`
}

// Certificates 按颁发机构分组（字母序），组内按颁发日期倒序。
func (h *PublicHandler) Certificates(c *gin.Context) {
	var rows []database.Certificate
	if err := h.db.WithContext(c.Request.Context()).Order("issue_date DESC").Order("order_index ASC").Find(&rows).Error; err != nil {
		h.fail(c, "certificates", err)
		return
	}
	groups := portfolio.GroupCertificatesByIssuer(rows)
	out := make([]publicIssuerGroup, 0, len(groups))
	for _, g := range groups {
		certs := make([]certificateResponse, 0, len(g.Certificates))
		for _, cert := range g.Certificates {
			certs = append(certs, certificateResponse{Certificate: cert, FileURL: h.files.publicURL(storage.BucketCertificates, cert.FilePath)})
		}
		out = append(out, publicIssuerGroup{Issuer: g.Issuer, Certificates: certs})
	}
	c.JSON(http.StatusOK, gin.H{"groups": out, "total": len(rows)})
}

// Automations 只返回 active 案例，按创建时间倒序。
func (h *PublicHandler) Automations(c *gin.Context) {
	var rows []database.AIAutomation
	if err := h.db.WithContext(c.Request.Context()).
		Where("status = ?", string(portfolio.AutomationActive)).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		h.fail(c, "automations", err)
		return
	}
	out := make([]automationResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, automationResponse{AIAutomation: r, ScreenshotURL: h.files.publicURL(storage.BucketAIAutomations, r.ScreenshotPath)})
	}
	c.JSON(http.StatusOK, out)
}

// Projects 按开始日期倒序返回项目。
func (h *PublicHandler) Projects(c *gin.Context) {
	var rows []database.FreelanceProject
	if err := projectOrder(h.db.WithContext(c.Request.Context())).Find(&rows).Error; err != nil {
		h.fail(c, "projects", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Project 返回项目详情及附件。
func (h *PublicHandler) Project(c *gin.Context) {
	ctx := c.Request.Context()
	var row database.FreelanceProject
	if err := h.db.WithContext(ctx).Where("id = ?", c.Param("id")).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "project not found")
			return
		}
		h.fail(c, "project", err)
		return
	}
	var assets []database.FreelanceAsset
	if err := orderedList(h.db.WithContext(ctx).Where("project_id = ?", row.ID)).Find(&assets).Error; err != nil {
		h.fail(c, "project", err)
		return
	}
	out := make([]assetResponse, 0, len(assets))
	for _, a := range assets {
		out = append(out, assetResponse{FreelanceAsset: a, FileURL: h.files.publicURL(storage.BucketFreelanceAssets, a.FilePath)})
	}
	c.JSON(http.StatusOK, gin.H{"project": row, "assets": out})
}
