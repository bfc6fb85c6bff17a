package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"portfolio/internal/database"
	"portfolio/internal/mailer"
	"portfolio/internal/notify"
	"portfolio/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type storedObject struct {
	data        []byte
	contentType string
}

type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string]storedObject
	uploads   int
	deleted   []string
	deleteErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]storedObject{}}
}

func objectID(bucket, key string) string { return bucket + "/" + key }

func (s *fakeStorage) UploadFile(_ context.Context, bucket, objectName string, reader io.Reader, _ int64, contentType string) (*minio.UploadInfo, error) {
	b, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	s.objects[objectID(bucket, objectName)] = storedObject{data: b, contentType: contentType}
	return &minio.UploadInfo{Bucket: bucket, Key: objectName, Size: int64(len(b))}, nil
}

func (s *fakeStorage) GetObject(_ context.Context, bucket, objectKey string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[objectID(bucket, objectKey)]
	if !ok {
		return nil, minio.ErrorResponse{Code: "NoSuchKey"}
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *fakeStorage) StatObject(_ context.Context, bucket, objectKey string) (storage.ObjectMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[objectID(bucket, objectKey)]
	if !ok {
		return storage.ObjectMeta{}, minio.ErrorResponse{Code: "NoSuchKey"}
	}
	return storage.ObjectMeta{Key: objectKey, Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, bucket, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, objectID(bucket, objectKey))
	delete(s.objects, objectID(bucket, objectKey))
	return nil
}

func (s *fakeStorage) has(bucket, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[objectID(bucket, key)]
	return ok
}

func (s *fakeStorage) uploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (e *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: "task-" + task.Type(), Type: task.Type(), Payload: task.Payload()}, nil
}

func (e *fakeEnqueuer) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.tasks))
	for _, t := range e.tasks {
		out = append(out, t.Type())
	}
	return out
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (n *fakeNotifier) Publish(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

type fakeMailer struct {
	enabled bool
	result  mailer.Result
	err     error
	sent    []mailer.ContactEmail
}

func (m *fakeMailer) Enabled() bool { return m.enabled }

func (m *fakeMailer) SendContactEmail(_ context.Context, email mailer.ContactEmail) (mailer.Result, error) {
	m.sent = append(m.sent, email)
	return m.result, m.err
}

// fakeRedis 是内存版的 authRedis，仅实现测试用到的语义。
type fakeRedis struct {
	mu     sync.Mutex
	values map[string]string
	counts map[string]int64
	ttls   map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (r *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[key]++
	return redis.NewIntResult(r.counts[key], nil)
}

func (r *fakeRedis) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (r *fakeRedis) TTL(_ context.Context, key string) *redis.DurationCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.values[key]; !ok {
		return redis.NewDurationResult(-2*time.Nanosecond, nil)
	}
	return redis.NewDurationResult(r.ttls[key], nil)
}

func (r *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := r.values[k]; ok {
			n++
		}
		delete(r.values, k)
		delete(r.counts, k)
		delete(r.ttls, k)
	}
	return redis.NewIntResult(n, nil)
}

func (r *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (r *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch v := value.(type) {
	case string:
		r.values[key] = v
	default:
		b, _ := json.Marshal(v)
		r.values[key] = string(b)
	}
	r.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

const testBaseURL = "http://localhost:8080"

func newTestFiles(store *fakeStorage, enqueuer *fakeEnqueuer) *fileWorkflow {
	files := newFileWorkflow(store, NewUploadGuard(5*1024*1024, ""), enqueuer, testBaseURL)
	return files
}

var errStorageDown = errors.New("storage unavailable")

// Minimal payloads that content sniffing recognises.
var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
	pdfBytes = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
)

// paddedPDF returns a PDF-looking payload of exactly size bytes.
func paddedPDF(size int) []byte {
	out := make([]byte, size)
	copy(out, pdfBytes)
	for i := len(pdfBytes); i < size; i++ {
		out[i] = ' '
	}
	return out
}

// newMultipartUpload builds a multipart body with an optional file part and text fields.
func newMultipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doRequest(r http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doJSON(t *testing.T, r http.Handler, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return doRequest(r, method, target, body, "application/json")
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
