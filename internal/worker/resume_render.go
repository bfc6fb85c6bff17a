package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"portfolio/internal/database"
	"portfolio/internal/errcode"
	"portfolio/internal/notify"
	"portfolio/internal/pdf"
	"portfolio/internal/portfolio"
	"portfolio/internal/storage"
	"portfolio/internal/tasks"
)

// ResumeRenderHandler 消费 resume:render 任务：渲染简历条目为 PDF 并登记为未激活记录。
type ResumeRenderHandler struct {
	db       *gorm.DB
	store    objectStore
	printer  htmlPrinter
	notifier notify.Publisher
	logger   *slog.Logger
	now      func() time.Time
}

// NewResumeRenderHandler 创建任务处理器。
func NewResumeRenderHandler(db *gorm.DB, store objectStore, printer htmlPrinter, notifier notify.Publisher, logger *slog.Logger) *ResumeRenderHandler {
	return &ResumeRenderHandler{
		db:       db,
		store:    store,
		printer:  printer,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ResumeRenderHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	var payload tasks.ResumeRenderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("requested_by", payload.RequestedBy),
	)
	log.Info("starting resume render task")

	defer func() {
		if retErr == nil || !isFinalAsynqAttempt(ctx) {
			return
		}
		h.publish(ctx, log, notify.Message{
			Type:          notify.TypeResumeRender,
			Status:        "error",
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		})
	}()

	html, err := h.buildHTML(ctx)
	if err != nil {
		log.Error("build resume html failed", slog.Any("error", err))
		return err
	}

	data, err := h.printer.HTMLToPDF(ctx, html)
	if err != nil {
		log.Error("print resume pdf failed", slog.Any("error", err))
		return err
	}

	now := h.now()
	key := portfolio.ResumePDFObjectName(now)
	if _, err := h.store.UploadFile(ctx, storage.BucketResume, key, bytes.NewReader(data), int64(len(data)), "application/pdf"); err != nil {
		log.Error("upload pdf to storage failed", slog.Any("error", err))
		return err
	}

	name := "Generated " + now.UTC().Format("2006-01-02")
	row := database.ResumePDFFile{FilePath: key, DisplayName: &name}
	if err := h.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.Error("insert resume pdf failed", slog.Any("error", err))
		if delErr := h.store.DeleteObject(ctx, storage.BucketResume, key); delErr != nil {
			log.Warn("compensating delete failed", slog.String("key", key), slog.Any("error", delErr))
		}
		return err
	}

	h.publish(ctx, log, notify.Message{
		Type:          notify.TypeResumeRender,
		Status:        "completed",
		ResourceID:    row.ID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
		Summary:       name,
	})
	log.Info("resume render task completed", slog.String("resume_pdf_id", row.ID), slog.Int("bytes", len(data)))
	return nil
}

func (h *ResumeRenderHandler) buildHTML(ctx context.Context) (string, error) {
	var items []database.ResumeItem
	if err := h.db.WithContext(ctx).Find(&items).Error; err != nil {
		return "", fmt.Errorf("load resume items: %w", err)
	}

	var settings database.SiteSettings
	err := h.db.WithContext(ctx).Where("id = ?", database.SiteSettingsID).Limit(1).Find(&settings).Error
	if err != nil {
		return "", fmt.Errorf("load site settings: %w", err)
	}

	doc, err := pdf.BuildDocument(settings, portfolio.GroupResumeItems(items))
	if err != nil {
		return "", err
	}
	return pdf.RenderHTML(doc)
}

func (h *ResumeRenderHandler) publish(ctx context.Context, log *slog.Logger, msg notify.Message) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Publish(ctx, msg); err != nil {
		log.Error("publish admin notification failed", slog.Any("error", err))
	}
}
