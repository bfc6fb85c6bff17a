package api

import (
	"context"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"portfolio/internal/api/middleware"
	"portfolio/internal/database"
	"portfolio/internal/errcode"
	"portfolio/internal/mailer"
	"portfolio/internal/metrics"
	"portfolio/internal/notify"
	"portfolio/internal/portfolio"
)

// ContactHandler 处理公开联系表单。
type ContactHandler struct {
	db        *gorm.DB
	mailer    contactMailer
	notifier  notify.Publisher
	counter   redisRateCounter
	rateLimit int
	policy    *bluemonday.Policy
}

// NewContactHandler 构造 ContactHandler；counter 为 nil 时不限流。
func NewContactHandler(db *gorm.DB, m contactMailer, notifier notify.Publisher, counter redisRateCounter, rateLimitPerHour int) *ContactHandler {
	return &ContactHandler{
		db:        db,
		mailer:    m,
		notifier:  notifier,
		counter:   counter,
		rateLimit: rateLimitPerHour,
		policy:    bluemonday.StrictPolicy(),
	}
}

type contactRequest struct {
	Name    string `json:"name" binding:"required,max=255"`
	Email   string `json:"email" binding:"required,email,max=255"`
	Subject string `json:"subject" binding:"required,max=255"`
	Message string `json:"message" binding:"required,max=10000"`
}

// maxEntityDecodePasses 限制多重实体编码的解码次数。
const maxEntityDecodePasses = 4

// plainTextUnescaper 只还原 StrictPolicy 为纯文本字符引入的转义，&lt; 与 &gt; 保持转义。
var plainTextUnescaper = strings.NewReplacer("&#39;", "'", "&#34;", `"`, "&amp;", "&")

// sanitize 先解码实体再去除所有 HTML，保留纯文本。
func (h *ContactHandler) sanitize(s string) string {
	for i := 0; i < maxEntityDecodePasses; i++ {
		decoded := html.UnescapeString(s)
		if decoded == s {
			break
		}
		s = decoded
	}
	return strings.TrimSpace(plainTextUnescaper.Replace(h.policy.Sanitize(s)))
}

// Submit 保存留言后调用邮件函数。邮件失败返回 502，但留言已持久化。
func (h *ContactHandler) Submit(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c)

	if h.counter != nil && h.rateLimit > 0 {
		key := "rate:contact:" + c.ClientIP() + ":" + time.Now().UTC().Format("2006010215")
		count, err := incrWithTTL(ctx, h.counter, key, time.Hour)
		if err != nil {
			log.Warn("contact rate counter unavailable", slog.Any("error", err))
			count = 0
		}
		if count > int64(h.rateLimit) {
			TooManyRequests(c, "too many messages, please try again later")
			return
		}
	}

	row := database.ContactMessage{
		Name:    h.sanitize(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Subject: h.sanitize(req.Subject),
		Message: h.sanitize(req.Message),
		Status:  string(portfolio.MessagePending),
	}
	if row.Name == "" || row.Subject == "" || row.Message == "" {
		BadRequest(c, "name, subject and message are required")
		return
	}

	if err := h.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.Error("insert contact message failed", slog.Any("error", err))
		Internal(c, "failed to save message")
		return
	}
	log = log.With(slog.String("message_id", row.ID))

	h.publish(ctx, log, notify.Message{
		Type:          notify.TypeContactMessage,
		Status:        string(portfolio.MessagePending),
		ResourceID:    row.ID,
		CorrelationID: middleware.GetCorrelationID(c),
		Summary:       row.Name + ": " + row.Subject,
	})

	if h.mailer == nil || !h.mailer.Enabled() {
		metrics.ContactDelivery("disabled")
		c.JSON(http.StatusCreated, gin.H{"id": row.ID, "message": "Message received"})
		return
	}

	result, err := h.mailer.SendContactEmail(ctx, mailer.ContactEmail{
		Name:    row.Name,
		Email:   row.Email,
		Subject: row.Subject,
		Message: row.Message,
	})
	if err != nil {
		metrics.ContactDelivery("failed")
		log.Warn("email function failed", slog.Any("error", err))
		h.publish(ctx, log, notify.Message{
			Type:          notify.TypeEmailDelivery,
			Status:        "failed",
			ResourceID:    row.ID,
			CorrelationID: middleware.GetCorrelationID(c),
			ErrorCode:     errcode.UpstreamError,
			ErrorMessage:  err.Error(),
		})
		reason := firstNonEmpty(result.Error, "failed to send message")
		c.JSON(http.StatusBadGateway, gin.H{"error": reason, "id": row.ID})
		return
	}

	metrics.ContactDelivery("sent")
	c.JSON(http.StatusCreated, gin.H{"id": row.ID, "message": firstNonEmpty(result.Message, "Message sent successfully")})
}

func (h *ContactHandler) publish(ctx context.Context, log *slog.Logger, msg notify.Message) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Publish(ctx, msg); err != nil {
		log.Warn("publish admin notification failed", slog.Any("error", err))
	}
}
