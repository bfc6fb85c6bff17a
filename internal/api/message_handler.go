package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"portfolio/internal/database"
	"portfolio/internal/portfolio"
)

var errInvalidTransition = errors.New("invalid status transition")

// MessageHandler 是后台留言收件箱。
type MessageHandler struct {
	db *gorm.DB
}

// NewMessageHandler 构造 MessageHandler。
func NewMessageHandler(db *gorm.DB) *MessageHandler {
	return &MessageHandler{db: db}
}

// ListMessages 按时间倒序返回留言，可按 status 过滤，并附带待处理数量。
func (h *MessageHandler) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	q := h.db.WithContext(ctx).Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		if !portfolio.MessageStatus(status).Valid() {
			BadRequest(c, "invalid status")
			return
		}
		q = q.Where("status = ?", status)
	}

	var rows []database.ContactMessage
	if err := q.Find(&rows).Error; err != nil {
		Internal(c, "failed to list messages")
		return
	}

	var pending int64
	if err := h.db.WithContext(ctx).Model(&database.ContactMessage{}).
		Where("status = ?", string(portfolio.MessagePending)).
		Count(&pending).Error; err != nil {
		Internal(c, "failed to count messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": rows, "pending_count": pending})
}

// ViewMessage 打开留言；pending 自动转为 read，其余状态不变。
func (h *MessageHandler) ViewMessage(c *gin.Context) {
	var row database.ContactMessage
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", c.Param("id")).Take(&row).Error; err != nil {
			return err
		}
		next := portfolio.StatusAfterView(portfolio.MessageStatus(row.Status))
		if string(next) == row.Status {
			return nil
		}
		row.Status = string(next)
		return tx.Model(&row).Update("status", row.Status).Error
	})
	if err != nil {
		respondWriteError(c, err, "message")
		return
	}
	c.JSON(http.StatusOK, row)
}

type messageStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus 手动修改状态，三种状态之间可任意切换。
func (h *MessageHandler) UpdateStatus(c *gin.Context) {
	var req messageStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	target := portfolio.MessageStatus(req.Status)
	if !target.Valid() {
		BadRequest(c, "invalid status")
		return
	}

	var row database.ContactMessage
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", c.Param("id")).Take(&row).Error; err != nil {
			return err
		}
		if !portfolio.MessageStatus(row.Status).CanTransition(target) {
			return errInvalidTransition
		}
		row.Status = string(target)
		return tx.Model(&row).Update("status", row.Status).Error
	})
	if errors.Is(err, errInvalidTransition) {
		BadRequest(c, "invalid status transition")
		return
	}
	if err != nil {
		respondWriteError(c, err, "message")
		return
	}
	c.JSON(http.StatusOK, row)
}
