package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"portfolio/internal/api/middleware"
	"portfolio/internal/database"
	"portfolio/internal/portfolio"
	"portfolio/internal/storage"
)

// ProjectHandler 管理外包项目与附件。
type ProjectHandler struct {
	db    *gorm.DB
	files *fileWorkflow
}

// NewProjectHandler 构造 ProjectHandler。
func NewProjectHandler(db *gorm.DB, files *fileWorkflow) *ProjectHandler {
	return &ProjectHandler{db: db, files: files}
}

type projectRequest struct {
	ClientName          string  `json:"client_name" binding:"required,max=255"`
	ProjectTitle        string  `json:"project_title" binding:"required,max=255"`
	Status              string  `json:"status"`
	ProjectType         string  `json:"project_type" binding:"max=128"`
	Industry            string  `json:"industry" binding:"max=128"`
	ShortDescription    string  `json:"short_description" binding:"max=512"`
	DetailedDescription string  `json:"detailed_description"`
	StartDate           *string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate             *string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Tags                string  `json:"tags"`
}

func (r projectRequest) apply(row *database.FreelanceProject) {
	row.ClientName = strings.TrimSpace(r.ClientName)
	row.ProjectTitle = strings.TrimSpace(r.ProjectTitle)
	row.Status = firstNonEmpty(r.Status, string(portfolio.ProjectPlanned))
	row.ProjectType = r.ProjectType
	row.Industry = r.Industry
	row.ShortDescription = r.ShortDescription
	row.DetailedDescription = r.DetailedDescription
	row.StartDate = normalizeDate(r.StartDate)
	row.EndDate = normalizeDate(r.EndDate)
	row.Tags = portfolio.ParseCommaList(r.Tags)
}

func bindProject(c *gin.Context) (projectRequest, bool) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return req, false
	}
	if req.Status != "" && !portfolio.ProjectStatus(req.Status).Valid() {
		BadRequest(c, "invalid status")
		return req, false
	}
	return req, true
}

// ListProjects 按开始日期倒序返回项目。
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	var rows []database.FreelanceProject
	if err := projectOrder(h.db.WithContext(c.Request.Context())).Find(&rows).Error; err != nil {
		Internal(c, "failed to list projects")
		return
	}
	c.JSON(http.StatusOK, rows)
}

// projectOrder 开始日期倒序，未填日期的排在最后。
func projectOrder(db *gorm.DB) *gorm.DB {
	return db.Order("CASE WHEN start_date IS NULL THEN 1 ELSE 0 END").Order("start_date DESC").Order("created_at DESC")
}

// CreateProject 新增项目。
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	req, ok := bindProject(c)
	if !ok {
		return
	}
	var row database.FreelanceProject
	req.apply(&row)
	if err := h.db.WithContext(c.Request.Context()).Create(&row).Error; err != nil {
		respondWriteError(c, err, "project")
		return
	}
	c.JSON(http.StatusCreated, row)
}

// UpdateProject 覆盖项目字段。
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	req, ok := bindProject(c)
	if !ok {
		return
	}
	var row database.FreelanceProject
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", c.Param("id")).Take(&row).Error; err != nil {
			return err
		}
		req.apply(&row)
		return tx.Save(&row).Error
	})
	if err != nil {
		respondWriteError(c, err, "project")
		return
	}
	c.JSON(http.StatusOK, row)
}

// DeleteProject 删除项目及附件记录，再删除附件对象。
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	ctx := withCorrelationID(c)
	var assets []database.FreelanceAsset
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row database.FreelanceProject
		if err := tx.Where("id = ?", c.Param("id")).Take(&row).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", row.ID).Find(&assets).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", row.ID).Delete(&database.FreelanceAsset{}).Error; err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "project not found")
			return
		}
		middleware.LoggerFromContext(c).Error("delete project failed", slog.Any("error", err))
		Internal(c, "failed to delete project")
		return
	}

	keys := make([]string, 0, len(assets))
	for _, a := range assets {
		keys = append(keys, a.FilePath)
	}
	cleanup := h.files.remove(ctx, middleware.LoggerFromContext(c), storage.BucketFreelanceAssets, keys...)
	deleteResponse(c, c.Param("id"), cleanup)
}

type assetForm struct {
	AssetType   string `form:"asset_type" binding:"required"`
	Title       string `form:"title" binding:"max=255"`
	Description string `form:"description"`
	OrderIndex  int    `form:"order_index"`
}

type assetResponse struct {
	database.FreelanceAsset
	FileURL string `json:"file_url"`
}

func (h *ProjectHandler) assetResponses(rows []database.FreelanceAsset) []assetResponse {
	out := make([]assetResponse, 0, len(rows))
	for _, a := range rows {
		out = append(out, assetResponse{FreelanceAsset: a, FileURL: h.files.publicURL(storage.BucketFreelanceAssets, a.FilePath)})
	}
	return out
}

// ListAssets 返回项目附件。
func (h *ProjectHandler) ListAssets(c *gin.Context) {
	ctx := c.Request.Context()
	var project database.FreelanceProject
	if err := h.db.WithContext(ctx).Where("id = ?", c.Param("id")).Take(&project).Error; err != nil {
		respondWriteError(c, err, "project")
		return
	}
	var rows []database.FreelanceAsset
	if err := orderedList(h.db.WithContext(ctx).Where("project_id = ?", project.ID)).Find(&rows).Error; err != nil {
		Internal(c, "failed to list assets")
		return
	}
	c.JSON(http.StatusOK, h.assetResponses(rows))
}

// CreateAsset 上传项目附件（必填文件）。
func (h *ProjectHandler) CreateAsset(c *gin.Context) {
	var form assetForm
	if err := c.ShouldBind(&form); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if !portfolio.AssetType(form.AssetType).Valid() {
		BadRequest(c, "invalid asset_type")
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}

	ctx := withCorrelationID(c)
	log := middleware.LoggerFromContext(c)

	var project database.FreelanceProject
	if err := h.db.WithContext(ctx).Where("id = ?", c.Param("id")).Take(&project).Error; err != nil {
		respondWriteError(c, err, "project")
		return
	}

	key, err := h.files.upload(ctx, fh, storage.BucketFreelanceAssets)
	if err != nil {
		respondUploadError(c, err)
		return
	}

	row := database.FreelanceAsset{
		ProjectID:   project.ID,
		AssetType:   form.AssetType,
		Title:       form.Title,
		Description: form.Description,
		FilePath:    key,
		OrderIndex:  form.OrderIndex,
	}
	if err := h.db.WithContext(ctx).Create(&row).Error; err != nil {
		h.files.compensate(ctx, log, storage.BucketFreelanceAssets, key)
		respondWriteError(c, err, "asset")
		return
	}
	c.JSON(http.StatusCreated, h.assetResponses([]database.FreelanceAsset{row})[0])
}

// DeleteAsset 删除附件记录后删除对象。
func (h *ProjectHandler) DeleteAsset(c *gin.Context) {
	ctx := withCorrelationID(c)
	var row database.FreelanceAsset
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND project_id = ?", c.Param("assetId"), c.Param("id")).Take(&row).Error; err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "asset not found")
			return
		}
		Internal(c, "failed to delete asset")
		return
	}
	cleanup := h.files.remove(ctx, middleware.LoggerFromContext(c), storage.BucketFreelanceAssets, row.FilePath)
	deleteResponse(c, row.ID, cleanup)
}
