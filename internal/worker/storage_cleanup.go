package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"portfolio/internal/errcode"
	"portfolio/internal/notify"
	"portfolio/internal/storage"
	"portfolio/internal/tasks"
)

// StorageCleanupHandler 重试 API 提交后未能删除的对象。
type StorageCleanupHandler struct {
	store    objectStore
	notifier notify.Publisher
	logger   *slog.Logger
}

// NewStorageCleanupHandler 创建任务处理器。
func NewStorageCleanupHandler(store objectStore, notifier notify.Publisher, logger *slog.Logger) *StorageCleanupHandler {
	return &StorageCleanupHandler{store: store, notifier: notifier, logger: logger}
}

// ProcessTask 删除 payload 中的全部对象；有失败时返回错误交给 asynq 重试。
func (h *StorageCleanupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.StorageCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}
	if !storage.KnownBucket(payload.Bucket) {
		return fmt.Errorf("unknown bucket %q: %w", payload.Bucket, asynq.SkipRetry)
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("bucket", payload.Bucket),
	)

	var errs []error
	var failed []string
	for _, key := range payload.Keys {
		if err := h.store.DeleteObject(ctx, payload.Bucket, key); err != nil {
			errs = append(errs, err)
			failed = append(failed, key)
		}
	}
	if len(errs) == 0 {
		log.Info("storage cleanup completed", slog.Int("keys", len(payload.Keys)))
		return nil
	}

	err := errors.Join(errs...)
	log.Warn("storage cleanup incomplete", slog.Any("failed_keys", failed), slog.Any("error", err))
	if isFinalAsynqAttempt(ctx) && h.notifier != nil {
		if pubErr := h.notifier.Publish(ctx, notify.Message{
			Type:          notify.TypeStorageCleanup,
			Status:        "error",
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.StorageError,
			ErrorMessage:  "orphaned objects: " + payload.Bucket + "/" + strings.Join(failed, ", "),
		}); pubErr != nil {
			log.Error("publish admin notification failed", slog.Any("error", pubErr))
		}
	}
	return err
}
