package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"portfolio/internal/database"
	"portfolio/internal/storage"
)

const (
	// sweepMinAge 防止删除刚上传、事务尚未提交的对象。
	sweepMinAge    = time.Hour
	sweepListLimit = 10000
)

// pathColumn 是引用某个 Bucket 中对象的列。
type pathColumn struct {
	model  any
	column string
}

// bucketReferences 列出每个 Bucket 中对象的引用来源。
var bucketReferences = map[string][]pathColumn{
	storage.BucketImages: {
		{&database.SiteSettings{}, "logo_path"},
		{&database.SiteSettings{}, "small_logo_path"},
	},
	storage.BucketResume:              {{&database.ResumePDFFile{}, "file_path"}},
	storage.BucketCertificates:        {{&database.Certificate{}, "file_path"}},
	storage.BucketAIAutomations:       {{&database.AIAutomation{}, "screenshot_path"}},
	storage.BucketBusinessScreenshots: {{&database.BusinessScreenshot{}, "image_path"}},
	storage.BucketFreelanceAssets:     {{&database.FreelanceAsset{}, "file_path"}},
}

// StorageSweepHandler 删除不再被任何记录引用的对象。
type StorageSweepHandler struct {
	db     *gorm.DB
	store  objectStore
	logger *slog.Logger
	now    func() time.Time
}

// NewStorageSweepHandler 创建任务处理器。
func NewStorageSweepHandler(db *gorm.DB, store objectStore, logger *slog.Logger) *StorageSweepHandler {
	return &StorageSweepHandler{db: db, store: store, logger: logger, now: time.Now}
}

// ProcessTask 逐个 Bucket 清扫；单个 Bucket 失败不影响其余 Bucket。
func (h *StorageSweepHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	var firstErr error
	total := 0
	for _, bucket := range storage.Buckets {
		removed, err := h.sweepBucket(ctx, bucket)
		total += removed
		if err != nil {
			h.logger.Error("sweep bucket failed", slog.String("bucket", bucket), slog.Any("error", err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	h.logger.Info("storage sweep finished", slog.Int("removed", total))
	return firstErr
}

func (h *StorageSweepHandler) referenced(ctx context.Context, bucket string) (map[string]struct{}, error) {
	refs := make(map[string]struct{})
	for _, src := range bucketReferences[bucket] {
		var paths []string
		if err := h.db.WithContext(ctx).Model(src.model).
			Where(src.column+" <> ?", "").
			Pluck(src.column, &paths).Error; err != nil {
			return nil, fmt.Errorf("load %s references: %w", src.column, err)
		}
		for _, p := range paths {
			refs[p] = struct{}{}
		}
	}
	return refs, nil
}

func (h *StorageSweepHandler) sweepBucket(ctx context.Context, bucket string) (int, error) {
	refs, err := h.referenced(ctx, bucket)
	if err != nil {
		return 0, err
	}
	objects, err := h.store.ListObjects(ctx, bucket, "", sweepListLimit)
	if err != nil {
		return 0, err
	}

	cutoff := h.now().Add(-sweepMinAge)
	removed := 0
	for _, obj := range objects {
		if _, ok := refs[obj.Key]; ok {
			continue
		}
		if obj.LastModified.After(cutoff) {
			continue
		}
		if err := h.store.DeleteObject(ctx, bucket, obj.Key); err != nil {
			return removed, fmt.Errorf("delete orphan %s: %w", obj.Key, err)
		}
		h.logger.Info("removed orphaned object", slog.String("bucket", bucket), slog.String("key", obj.Key))
		removed++
	}
	return removed, nil
}
