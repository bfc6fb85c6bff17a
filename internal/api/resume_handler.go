package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"portfolio/internal/api/middleware"
	"portfolio/internal/database"
	"portfolio/internal/portfolio"
	"portfolio/internal/storage"
	"portfolio/internal/tasks"
)

// ResumeHandler 负责简历条目与简历 PDF 登记表。
type ResumeHandler struct {
	db    *gorm.DB
	files *fileWorkflow
	tasks taskEnqueuer
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(db *gorm.DB, files *fileWorkflow, enqueuer taskEnqueuer) *ResumeHandler {
	return &ResumeHandler{db: db, files: files, tasks: enqueuer}
}

type resumeItemRequest struct {
	Category    string  `json:"category" binding:"required"`
	Title       string  `json:"title" binding:"required,max=255"`
	Subtitle    string  `json:"subtitle" binding:"max=255"`
	Location    string  `json:"location" binding:"max=255"`
	StartDate   *string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate     *string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	IsCurrent   bool    `json:"is_current"`
	Description string  `json:"description"`
	OrderIndex  int     `json:"order_index"`
}

func (r resumeItemRequest) apply(item *database.ResumeItem) {
	item.Category = r.Category
	item.Title = strings.TrimSpace(r.Title)
	item.Subtitle = r.Subtitle
	item.Location = r.Location
	item.StartDate = normalizeDate(r.StartDate)
	item.EndDate = normalizeDate(r.EndDate)
	item.IsCurrent = r.IsCurrent
	if r.IsCurrent {
		item.EndDate = nil
	}
	item.Description = r.Description
	item.OrderIndex = r.OrderIndex
}

func bindResumeItem(c *gin.Context) (resumeItemRequest, bool) {
	var req resumeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return req, false
	}
	if !portfolio.ResumeCategory(req.Category).Valid() {
		BadRequest(c, "invalid category")
		return req, false
	}
	if strings.TrimSpace(req.Title) == "" {
		BadRequest(c, "title is required")
		return req, false
	}
	return req, true
}

// ListItems 按分类与 order_index 返回全部条目。
func (h *ResumeHandler) ListItems(c *gin.Context) {
	var items []database.ResumeItem
	q := h.db.WithContext(c.Request.Context())
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if err := orderedList(q.Order("category ASC")).Find(&items).Error; err != nil {
		Internal(c, "failed to list resume items")
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateItem 新增简历条目。
func (h *ResumeHandler) CreateItem(c *gin.Context) {
	req, ok := bindResumeItem(c)
	if !ok {
		return
	}
	var item database.ResumeItem
	req.apply(&item)
	if err := h.db.WithContext(c.Request.Context()).Create(&item).Error; err != nil {
		respondWriteError(c, err, "resume item")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateItem 覆盖指定条目。
func (h *ResumeHandler) UpdateItem(c *gin.Context) {
	req, ok := bindResumeItem(c)
	if !ok {
		return
	}
	var item database.ResumeItem
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", c.Param("id")).Take(&item).Error; err != nil {
			return err
		}
		req.apply(&item)
		return tx.Save(&item).Error
	})
	if err != nil {
		respondWriteError(c, err, "resume item")
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem 删除条目（无关联文件）。
func (h *ResumeHandler) DeleteItem(c *gin.Context) {
	res := h.db.WithContext(c.Request.Context()).Where("id = ?", c.Param("id")).Delete(&database.ResumeItem{})
	if res.Error != nil {
		Internal(c, "failed to delete resume item")
		return
	}
	if res.RowsAffected == 0 {
		NotFound(c, "resume item not found")
		return
	}
	deleteResponse(c, c.Param("id"), storageCleanupDone)
}

type resumePDFResponse struct {
	database.ResumePDFFile
	FileURL string `json:"file_url"`
}

func (h *ResumeHandler) pdfResponse(f database.ResumePDFFile) resumePDFResponse {
	return resumePDFResponse{ResumePDFFile: f, FileURL: h.files.publicURL(storage.BucketResume, f.FilePath)}
}

// ListPDFs 按上传时间倒序返回 PDF 登记表。
func (h *ResumeHandler) ListPDFs(c *gin.Context) {
	var files []database.ResumePDFFile
	if err := h.db.WithContext(c.Request.Context()).Order("created_at DESC").Find(&files).Error; err != nil {
		Internal(c, "failed to list resume pdfs")
		return
	}
	out := make([]resumePDFResponse, 0, len(files))
	for _, f := range files {
		out = append(out, h.pdfResponse(f))
	}
	c.JSON(http.StatusOK, out)
}

// UploadPDF 上传简历 PDF，新记录默认不激活。
func (h *ResumeHandler) UploadPDF(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if portfolio.FileExtension(fh.Filename) != "pdf" {
		BadRequest(c, "only PDF files are accepted")
		return
	}

	ctx := withCorrelationID(c)
	log := middleware.LoggerFromContext(c)

	key, err := h.files.uploadAs(ctx, fh, storage.BucketResume, portfolio.ResumePDFObjectName(h.files.now()))
	if err != nil {
		respondUploadError(c, err)
		return
	}

	row := database.ResumePDFFile{FilePath: key, DisplayName: displayNamePtr(c.PostForm("display_name"))}
	if err := h.db.WithContext(ctx).Create(&row).Error; err != nil {
		h.files.compensate(ctx, log, storage.BucketResume, key)
		respondWriteError(c, err, "resume pdf")
		return
	}
	c.JSON(http.StatusCreated, h.pdfResponse(row))
}

func displayNamePtr(raw string) *string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return nil
	}
	return &name
}

type renamePDFRequest struct {
	DisplayName string `json:"display_name" binding:"max=255"`
}

// RenamePDF 修改展示名称，空字符串清除名称。
func (h *ResumeHandler) RenamePDF(c *gin.Context) {
	var req renamePDFRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	var row database.ResumePDFFile
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", c.Param("id")).Take(&row).Error; err != nil {
			return err
		}
		row.DisplayName = displayNamePtr(req.DisplayName)
		return tx.Model(&row).Update("display_name", row.DisplayName).Error
	})
	if err != nil {
		respondWriteError(c, err, "resume pdf")
		return
	}
	c.JSON(http.StatusOK, h.pdfResponse(row))
}

// TogglePDF 在单个事务内切换激活状态，保证任何提交点至多一条激活记录。
func (h *ResumeHandler) TogglePDF(c *gin.Context) {
	row, err := togglePDF(c.Request.Context(), h.db, c.Param("id"))
	if err != nil {
		respondWriteError(c, err, "resume pdf")
		return
	}
	c.JSON(http.StatusOK, h.pdfResponse(row))
}

func togglePDF(ctx context.Context, db *gorm.DB, id string) (database.ResumePDFFile, error) {
	var row database.ResumePDFFile
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&row).Error; err != nil {
			return err
		}
		if row.IsActive {
			row.IsActive = false
			return tx.Model(&row).Update("is_active", false).Error
		}
		// 单条语句改写全部行：并发的激活会等待行锁并基于最新提交重新求值。
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Model(&database.ResumePDFFile{}).
			Update("is_active", gorm.Expr("(id = ?)", id)).Error; err != nil {
			return fmt.Errorf("activate pdf: %w", err)
		}
		row.IsActive = true
		return nil
	})
	return row, err
}

// DeletePDF 删除记录后移除对象。
func (h *ResumeHandler) DeletePDF(c *gin.Context) {
	ctx := withCorrelationID(c)
	var row database.ResumePDFFile
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", c.Param("id")).Take(&row).Error; err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "resume pdf not found")
			return
		}
		Internal(c, "failed to delete resume pdf")
		return
	}
	cleanup := h.files.remove(ctx, middleware.LoggerFromContext(c), storage.BucketResume, row.FilePath)
	deleteResponse(c, row.ID, cleanup)
}

// RenderPDF 投递 resume:render 任务，由 worker 生成 PDF 并登记为未激活记录。
func (h *ResumeHandler) RenderPDF(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	task, err := tasks.NewResumeRenderTask(userID, middleware.GetCorrelationID(c))
	if err != nil {
		Internal(c, "failed to build render task")
		return
	}
	info, err := h.tasks.EnqueueContext(c.Request.Context(), task)
	if err != nil {
		middleware.LoggerFromContext(c).Error("enqueue resume render failed", slog.Any("error", err))
		Internal(c, "failed to enqueue render task")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"task_id": info.ID, "status": "queued"})
}
