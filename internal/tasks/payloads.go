package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeResumeRender   = "resume:render"
	TypeStorageCleanup = "storage:cleanup"
	TypeStorageSweep   = "storage:sweep"
)

// ResumeRenderPayload 描述生成简历 PDF 所需的最小信息。
type ResumeRenderPayload struct {
	RequestedBy   string `json:"requested_by"`
	CorrelationID string `json:"correlation_id"`
}

// StorageCleanupPayload 列出需要重试删除的对象。
type StorageCleanupPayload struct {
	Bucket        string   `json:"bucket"`
	Keys          []string `json:"keys"`
	CorrelationID string   `json:"correlation_id"`
}

// NewResumeRenderTask 构造一个新的简历 PDF 渲染任务。
func NewResumeRenderTask(requestedBy, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ResumeRenderPayload{
		RequestedBy:   requestedBy,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal resume render payload: %w", err)
	}
	return asynq.NewTask(TypeResumeRender, payload, asynq.MaxRetry(3)), nil
}

// NewStorageCleanupTask 构造对象清理任务；没有可删除的 key 时返回 nil。
func NewStorageCleanupTask(bucket string, keys []string, correlationID string) (*asynq.Task, error) {
	filtered := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			filtered = append(filtered, k)
		}
	}
	if len(filtered) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(StorageCleanupPayload{
		Bucket:        bucket,
		Keys:          filtered,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal storage cleanup payload: %w", err)
	}
	return asynq.NewTask(TypeStorageCleanup, payload, asynq.MaxRetry(10)), nil
}

// NewStorageSweepTask 构造孤儿对象清扫任务，由调度器定期投递。
func NewStorageSweepTask() *asynq.Task {
	return asynq.NewTask(TypeStorageSweep, nil, asynq.MaxRetry(1))
}
