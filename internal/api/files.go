package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"portfolio/internal/api/middleware"
	"portfolio/internal/metrics"
	"portfolio/internal/portfolio"
	"portfolio/internal/storage"
	"portfolio/internal/tasks"
)

const (
	storageCleanupDone     = "done"
	storageCleanupDeferred = "deferred"
)

var errRecordMissing = errors.New("record not found")

// fileWorkflow 实现"上传 -> 事务写库 -> 失败补偿 -> 提交后删除旧对象"的通用流程。
type fileWorkflow struct {
	store   objectStore
	guard   *UploadGuard
	tasks   taskEnqueuer
	baseURL string
	now     func() time.Time
}

func newFileWorkflow(store objectStore, guard *UploadGuard, enqueuer taskEnqueuer, baseURL string) *fileWorkflow {
	return &fileWorkflow{
		store:   store,
		guard:   guard,
		tasks:   enqueuer,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// upload validates fh and stores it under a generated name; it returns the object key.
func (w *fileWorkflow) upload(ctx context.Context, fh *multipart.FileHeader, bucket string) (string, error) {
	return w.uploadAs(ctx, fh, bucket, portfolio.GenerateObjectName(fh.Filename, w.now()))
}

// uploadAs is upload with a caller-chosen key (resume PDFs and logos use fixed prefixes).
func (w *fileWorkflow) uploadAs(ctx context.Context, fh *multipart.FileHeader, bucket, key string) (string, error) {
	accepted, err := w.guard.Check(fh, bucket)
	if err != nil {
		return "", err
	}
	f, err := accepted.header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	if _, err := w.store.UploadFile(ctx, bucket, key, f, accepted.header.Size, accepted.contentType); err != nil {
		return "", err
	}
	return key, nil
}

// compensate removes an object uploaded for a write that did not commit.
func (w *fileWorkflow) compensate(ctx context.Context, log *slog.Logger, bucket, key string) {
	if key == "" {
		return
	}
	if err := w.store.DeleteObject(ctx, bucket, key); err != nil {
		log.Warn("compensating delete failed",
			slog.String("bucket", bucket),
			slog.String("key", key),
			slog.Any("error", err),
		)
		w.scheduleCleanup(ctx, log, bucket, []string{key})
	}
}

// remove deletes objects after a committed write. Failures are logged, handed to the
// worker as a storage:cleanup task, and reported as "deferred".
func (w *fileWorkflow) remove(ctx context.Context, log *slog.Logger, bucket string, keys ...string) string {
	failed := make([]string, 0)
	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			continue
		}
		if err := w.store.DeleteObject(ctx, bucket, key); err != nil {
			log.Warn("delete storage object failed",
				slog.String("bucket", bucket),
				slog.String("key", key),
				slog.Any("error", err),
			)
			failed = append(failed, key)
		}
	}
	if len(failed) == 0 {
		return storageCleanupDone
	}
	w.scheduleCleanup(ctx, log, bucket, failed)
	return storageCleanupDeferred
}

func (w *fileWorkflow) scheduleCleanup(ctx context.Context, log *slog.Logger, bucket string, keys []string) {
	for range keys {
		metrics.StorageCleanupDeferred(bucket)
	}
	if w.tasks == nil {
		return
	}
	task, err := tasks.NewStorageCleanupTask(bucket, keys, correlationIDFrom(ctx))
	if err != nil || task == nil {
		return
	}
	if _, err := w.tasks.EnqueueContext(ctx, task); err != nil {
		log.Error("enqueue storage cleanup failed", slog.String("bucket", bucket), slog.Any("error", err))
	}
}

func (w *fileWorkflow) publicURL(bucket, path string) string {
	return storage.PublicURL(w.baseURL, bucket, path)
}

// respondUploadError maps guard rejections to 400 and storage failures to 502.
func respondUploadError(c *gin.Context, err error) {
	if isUploadRejection(err) {
		BadRequest(c, err.Error())
		return
	}
	middleware.LoggerFromContext(c).Error("upload file failed", slog.Any("error", err))
	BadGateway(c, "failed to upload file")
}

// respondWriteError maps transaction errors from create/update handlers.
func respondWriteError(c *gin.Context, err error, entity string) {
	switch {
	case errors.Is(err, errRecordMissing), errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, entity+" not found")
	case isUniqueViolation(err):
		Conflict(c, entity+" already exists")
	default:
		middleware.LoggerFromContext(c).Error("write "+entity+" failed", slog.Any("error", err))
		Internal(c, "failed to save "+entity)
	}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") || strings.Contains(lower, "duplicate key")
}

// optionalFile returns the multipart file for field, or nil when none was sent.
func optionalFile(c *gin.Context, field string) *multipart.FileHeader {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return fh
}

type correlationKey struct{}

func withCorrelationID(c *gin.Context) context.Context {
	return context.WithValue(c.Request.Context(), correlationKey{}, middleware.GetCorrelationID(c))
}

func correlationIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey{}).(string); ok {
		return id
	}
	return ""
}

// deleteResponse 删除接口统一响应。
func deleteResponse(c *gin.Context, id, cleanup string) {
	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true, "storage_cleanup": cleanup})
}
