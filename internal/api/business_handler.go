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

// BusinessHandler 管理业务条目及其截图。
type BusinessHandler struct {
	db    *gorm.DB
	files *fileWorkflow
}

// NewBusinessHandler 构造 BusinessHandler。
func NewBusinessHandler(db *gorm.DB, files *fileWorkflow) *BusinessHandler {
	return &BusinessHandler{db: db, files: files}
}

type businessRequest struct {
	Name             string  `json:"name" binding:"required,max=255"`
	Slug             *string `json:"slug" binding:"omitempty,max=255"`
	ShortDescription string  `json:"short_description" binding:"max=512"`
	LongDescription  string  `json:"long_description"`
	WebsiteURL       string  `json:"website_url" binding:"omitempty,url"`
	Status           string  `json:"status"`
	MainModules      string  `json:"main_modules"`
	OrderIndex       int     `json:"order_index"`
}

func (r businessRequest) apply(b *database.Business) {
	b.Name = strings.TrimSpace(r.Name)
	b.ShortDescription = r.ShortDescription
	b.LongDescription = r.LongDescription
	b.WebsiteURL = r.WebsiteURL
	b.Status = firstNonEmpty(r.Status, string(portfolio.BusinessPlanned))
	b.MainModules = portfolio.ParseCommaList(r.MainModules)
	b.OrderIndex = r.OrderIndex
}

func bindBusiness(c *gin.Context) (businessRequest, bool) {
	var req businessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return req, false
	}
	if strings.TrimSpace(req.Name) == "" {
		BadRequest(c, "name is required")
		return req, false
	}
	if req.Status != "" && !portfolio.BusinessStatus(req.Status).Valid() {
		BadRequest(c, "invalid status")
		return req, false
	}
	return req, true
}

// ListBusinesses 按 order_index 返回全部业务。
func (h *BusinessHandler) ListBusinesses(c *gin.Context) {
	var rows []database.Business
	if err := orderedList(h.db.WithContext(c.Request.Context())).Find(&rows).Error; err != nil {
		Internal(c, "failed to list businesses")
		return
	}
	c.JSON(http.StatusOK, rows)
}

// CreateBusiness 新增业务；未提供 slug 时由名称生成。
func (h *BusinessHandler) CreateBusiness(c *gin.Context) {
	req, ok := bindBusiness(c)
	if !ok {
		return
	}
	var row database.Business
	req.apply(&row)
	if req.Slug != nil && strings.TrimSpace(*req.Slug) != "" {
		row.Slug = portfolio.GenerateSlug(*req.Slug)
	} else {
		row.Slug = portfolio.GenerateSlug(row.Name)
	}
	if row.Slug == "" {
		BadRequest(c, "slug cannot be derived from name")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&row).Error; err != nil {
		respondWriteError(c, err, "business")
		return
	}
	c.JSON(http.StatusCreated, row)
}

// UpdateBusiness 覆盖业务字段；slug 仅在请求中提供时修改。
func (h *BusinessHandler) UpdateBusiness(c *gin.Context) {
	req, ok := bindBusiness(c)
	if !ok {
		return
	}
	var row database.Business
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", c.Param("id")).Take(&row).Error; err != nil {
			return err
		}
		req.apply(&row)
		if req.Slug != nil {
			slug := portfolio.GenerateSlug(*req.Slug)
			if slug == "" {
				return errEmptySlug
			}
			row.Slug = slug
		}
		return tx.Save(&row).Error
	})
	if errors.Is(err, errEmptySlug) {
		BadRequest(c, "slug must contain letters or digits")
		return
	}
	if err != nil {
		respondWriteError(c, err, "business")
		return
	}
	c.JSON(http.StatusOK, row)
}

var errEmptySlug = errors.New("empty slug")

// DeleteBusiness 删除业务及其截图记录，再删除截图对象。
func (h *BusinessHandler) DeleteBusiness(c *gin.Context) {
	ctx := withCorrelationID(c)
	var shots []database.BusinessScreenshot
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row database.Business
		if err := tx.Where("id = ?", c.Param("id")).Take(&row).Error; err != nil {
			return err
		}
		if err := tx.Where("business_id = ?", row.ID).Find(&shots).Error; err != nil {
			return err
		}
		if err := tx.Where("business_id = ?", row.ID).Delete(&database.BusinessScreenshot{}).Error; err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "business not found")
			return
		}
		middleware.LoggerFromContext(c).Error("delete business failed", slog.Any("error", err))
		Internal(c, "failed to delete business")
		return
	}

	keys := make([]string, 0, len(shots))
	for _, s := range shots {
		keys = append(keys, s.ImagePath)
	}
	cleanup := h.files.remove(ctx, middleware.LoggerFromContext(c), storage.BucketBusinessScreenshots, keys...)
	deleteResponse(c, c.Param("id"), cleanup)
}

type screenshotForm struct {
	Title       string `form:"title" binding:"max=255"`
	Description string `form:"description"`
	IsMain      bool   `form:"is_main"`
	OrderIndex  int    `form:"order_index"`
}

type screenshotResponse struct {
	database.BusinessScreenshot
	ImageURL string `json:"image_url"`
}

func (h *BusinessHandler) screenshotResponse(s database.BusinessScreenshot) screenshotResponse {
	return screenshotResponse{BusinessScreenshot: s, ImageURL: h.files.publicURL(storage.BucketBusinessScreenshots, s.ImagePath)}
}

func (h *BusinessHandler) screenshotResponses(rows []database.BusinessScreenshot) []screenshotResponse {
	out := make([]screenshotResponse, 0, len(rows))
	for _, s := range rows {
		out = append(out, h.screenshotResponse(s))
	}
	return out
}

// ListScreenshots 返回某业务的截图。
func (h *BusinessHandler) ListScreenshots(c *gin.Context) {
	ctx := c.Request.Context()
	var count int64
	if err := h.db.WithContext(ctx).Model(&database.Business{}).Where("id = ?", c.Param("id")).Count(&count).Error; err != nil {
		Internal(c, "failed to load business")
		return
	}
	if count == 0 {
		NotFound(c, "business not found")
		return
	}
	var rows []database.BusinessScreenshot
	if err := orderedList(h.db.WithContext(ctx).Where("business_id = ?", c.Param("id"))).Find(&rows).Error; err != nil {
		Internal(c, "failed to list screenshots")
		return
	}
	c.JSON(http.StatusOK, h.screenshotResponses(rows))
}

// CreateScreenshot 上传截图（必填文件）。
func (h *BusinessHandler) CreateScreenshot(c *gin.Context) {
	var form screenshotForm
	if err := c.ShouldBind(&form); err != nil {
		BadRequest(c, err.Error())
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}

	ctx := withCorrelationID(c)
	log := middleware.LoggerFromContext(c)

	var business database.Business
	if err := h.db.WithContext(ctx).Where("id = ?", c.Param("id")).Take(&business).Error; err != nil {
		respondWriteError(c, err, "business")
		return
	}

	key, err := h.files.upload(ctx, fh, storage.BucketBusinessScreenshots)
	if err != nil {
		respondUploadError(c, err)
		return
	}

	row := database.BusinessScreenshot{
		BusinessID:  business.ID,
		Title:       form.Title,
		Description: form.Description,
		ImagePath:   key,
		IsMain:      form.IsMain,
		OrderIndex:  form.OrderIndex,
	}
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if row.IsMain {
			if err := clearMainScreenshot(tx, business.ID, ""); err != nil {
				return err
			}
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		h.files.compensate(ctx, log, storage.BucketBusinessScreenshots, key)
		respondWriteError(c, err, "screenshot")
		return
	}
	c.JSON(http.StatusCreated, h.screenshotResponse(row))
}

// UpdateScreenshot 修改截图元数据，可选替换图片。
func (h *BusinessHandler) UpdateScreenshot(c *gin.Context) {
	var form screenshotForm
	if err := c.ShouldBind(&form); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := withCorrelationID(c)
	log := middleware.LoggerFromContext(c)

	var newKey string
	if fh := optionalFile(c, "file"); fh != nil {
		key, err := h.files.upload(ctx, fh, storage.BucketBusinessScreenshots)
		if err != nil {
			respondUploadError(c, err)
			return
		}
		newKey = key
	}

	var row database.BusinessScreenshot
	var oldKey string
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND business_id = ?", c.Param("screenshotId"), c.Param("id")).Take(&row).Error; err != nil {
			return err
		}
		row.Title = form.Title
		row.Description = form.Description
		row.OrderIndex = form.OrderIndex
		row.IsMain = form.IsMain
		if newKey != "" {
			oldKey, row.ImagePath = row.ImagePath, newKey
		}
		if row.IsMain {
			if err := clearMainScreenshot(tx, row.BusinessID, row.ID); err != nil {
				return err
			}
		}
		return tx.Save(&row).Error
	})
	if err != nil {
		h.files.compensate(ctx, log, storage.BucketBusinessScreenshots, newKey)
		respondWriteError(c, err, "screenshot")
		return
	}
	if oldKey != "" {
		h.files.remove(ctx, log, storage.BucketBusinessScreenshots, oldKey)
	}
	c.JSON(http.StatusOK, h.screenshotResponse(row))
}

// DeleteScreenshot 删除截图记录后删除对象。
func (h *BusinessHandler) DeleteScreenshot(c *gin.Context) {
	ctx := withCorrelationID(c)
	var row database.BusinessScreenshot
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND business_id = ?", c.Param("screenshotId"), c.Param("id")).Take(&row).Error; err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "screenshot not found")
			return
		}
		Internal(c, "failed to delete screenshot")
		return
	}
	cleanup := h.files.remove(ctx, middleware.LoggerFromContext(c), storage.BucketBusinessScreenshots, row.ImagePath)
	deleteResponse(c, row.ID, cleanup)
}

// clearMainScreenshot 保证每个业务至多一张主图。
func clearMainScreenshot(tx *gorm.DB, businessID, exceptID string) error {
	q := tx.Model(&database.BusinessScreenshot{}).Where("business_id = ? AND is_main = ?", businessID, true)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	return q.Update("is_main", false).Error
}
