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

// CertificateHandler 管理证书及其附件。
type CertificateHandler struct {
	db    *gorm.DB
	files *fileWorkflow
}

// NewCertificateHandler 构造 CertificateHandler。
func NewCertificateHandler(db *gorm.DB, files *fileWorkflow) *CertificateHandler {
	return &CertificateHandler{db: db, files: files}
}

type certificateForm struct {
	Title         string  `form:"title" binding:"required,max=255"`
	Issuer        string  `form:"issuer" binding:"required,max=255"`
	IssueDate     string  `form:"issue_date" binding:"required,datetime=2006-01-02"`
	ExpiryDate    *string `form:"expiry_date" binding:"omitempty,datetime=2006-01-02"`
	CredentialID  string  `form:"credential_id" binding:"max=255"`
	CredentialURL string  `form:"credential_url" binding:"omitempty,url"`
	Category      string  `form:"category" binding:"max=128"`
	Status        string  `form:"status"`
	OrderIndex    int     `form:"order_index"`
	RemoveFile    bool    `form:"remove_file"`
}

func (f certificateForm) apply(row *database.Certificate) {
	row.Title = strings.TrimSpace(f.Title)
	row.Issuer = strings.TrimSpace(f.Issuer)
	row.IssueDate = f.IssueDate
	row.ExpiryDate = normalizeDate(f.ExpiryDate)
	row.CredentialID = f.CredentialID
	row.CredentialURL = f.CredentialURL
	row.Category = f.Category
	row.Status = firstNonEmpty(f.Status, string(portfolio.CertificateCompleted))
	row.OrderIndex = f.OrderIndex
}

type certificateResponse struct {
	database.Certificate
	FileURL string `json:"file_url"`
}

func (h *CertificateHandler) toResponse(row database.Certificate) certificateResponse {
	return certificateResponse{Certificate: row, FileURL: h.files.publicURL(storage.BucketCertificates, row.FilePath)}
}

func bindCertificate(c *gin.Context) (certificateForm, bool) {
	var form certificateForm
	if err := c.ShouldBind(&form); err != nil {
		BadRequest(c, err.Error())
		return form, false
	}
	if strings.TrimSpace(form.Title) == "" || strings.TrimSpace(form.Issuer) == "" {
		BadRequest(c, "title and issuer are required")
		return form, false
	}
	if form.Status != "" && !portfolio.CertificateStatus(form.Status).Valid() {
		BadRequest(c, "invalid status")
		return form, false
	}
	return form, true
}

// ListCertificates 按 order_index 返回全部证书。
func (h *CertificateHandler) ListCertificates(c *gin.Context) {
	var rows []database.Certificate
	if err := orderedList(h.db.WithContext(c.Request.Context())).Find(&rows).Error; err != nil {
		Internal(c, "failed to list certificates")
		return
	}
	out := make([]certificateResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, h.toResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

// CreateCertificate 新增证书，附件可选。
func (h *CertificateHandler) CreateCertificate(c *gin.Context) {
	form, ok := bindCertificate(c)
	if !ok {
		return
	}
	ctx := withCorrelationID(c)
	log := middleware.LoggerFromContext(c)

	var row database.Certificate
	form.apply(&row)
	if fh := optionalFile(c, "file"); fh != nil {
		key, err := h.files.upload(ctx, fh, storage.BucketCertificates)
		if err != nil {
			respondUploadError(c, err)
			return
		}
		row.FilePath = key
	}

	if err := h.db.WithContext(ctx).Create(&row).Error; err != nil {
		h.files.compensate(ctx, log, storage.BucketCertificates, row.FilePath)
		respondWriteError(c, err, "certificate")
		return
	}
	c.JSON(http.StatusCreated, h.toResponse(row))
}

// UpdateCertificate 覆盖字段；新文件替换旧文件，remove_file=true 清除附件。
func (h *CertificateHandler) UpdateCertificate(c *gin.Context) {
	form, ok := bindCertificate(c)
	if !ok {
		return
	}
	ctx := withCorrelationID(c)
	log := middleware.LoggerFromContext(c)

	var newKey string
	if fh := optionalFile(c, "file"); fh != nil {
		key, err := h.files.upload(ctx, fh, storage.BucketCertificates)
		if err != nil {
			respondUploadError(c, err)
			return
		}
		newKey = key
	}

	var row database.Certificate
	var oldKey string
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", c.Param("id")).Take(&row).Error; err != nil {
			return err
		}
		form.apply(&row)
		switch {
		case newKey != "":
			oldKey, row.FilePath = row.FilePath, newKey
		case form.RemoveFile:
			oldKey, row.FilePath = row.FilePath, ""
		}
		return tx.Save(&row).Error
	})
	if err != nil {
		h.files.compensate(ctx, log, storage.BucketCertificates, newKey)
		respondWriteError(c, err, "certificate")
		return
	}
	if oldKey != "" {
		h.files.remove(ctx, log, storage.BucketCertificates, oldKey)
	}
	c.JSON(http.StatusOK, h.toResponse(row))
}

// DeleteCertificate 删除记录后删除附件。
func (h *CertificateHandler) DeleteCertificate(c *gin.Context) {
	ctx := withCorrelationID(c)
	var row database.Certificate
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", c.Param("id")).Take(&row).Error; err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "certificate not found")
			return
		}
		Internal(c, "failed to delete certificate")
		return
	}
	cleanup := h.files.remove(ctx, middleware.LoggerFromContext(c), storage.BucketCertificates, row.FilePath)
	deleteResponse(c, row.ID, cleanup)
}
