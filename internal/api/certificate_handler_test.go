package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/database"
	"portfolio/internal/storage"
)

func newCertificateRouter(t *testing.T) (*gin.Engine, *fakeStorage, *fakeEnqueuer) {
	t.Helper()
	db := newTestDB(t)
	store := newFakeStorage()
	enqueuer := &fakeEnqueuer{}
	files := newTestFiles(store, enqueuer)

	h := NewCertificateHandler(db, files)
	pub := NewPublicHandler(db, files)

	r := gin.New()
	r.GET("/certificates", h.ListCertificates)
	r.POST("/certificates", h.CreateCertificate)
	r.PUT("/certificates/:id", h.UpdateCertificate)
	r.DELETE("/certificates/:id", h.DeleteCertificate)
	r.GET("/public/certificates", pub.Certificates)
	return r, store, enqueuer
}

type publicCertificatesBody struct {
	Groups []struct {
		Issuer       string `json:"issuer"`
		Certificates []struct {
			Title string `json:"title"`
		} `json:"certificates"`
	} `json:"groups"`
	Total int `json:"total"`
}

func certificateFields(title, issuer, date string) map[string]string {
	return map[string]string{"title": title, "issuer": issuer, "issue_date": date}
}

func TestCreateCertificate_GroupedByIssuerOnPublicPage(t *testing.T) {
	r, store, _ := newCertificateRouter(t)

	body, ct := newMultipartUpload(t, "", nil, certificateFields("Azure Fundamentals", "Microsoft", "2023-01-10"))
	w := doRequest(r, http.MethodPost, "/certificates", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body, ct = newMultipartUpload(t, "saa.pdf", pdfBytes, certificateFields("Solutions Architect", "AWS", "2024-03-01"))
	w = doRequest(r, http.MethodPost, "/certificates", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decodeJSON[map[string]any](t, w)
	assert.Equal(t, "completed", created["status"])
	path, _ := created["file_path"].(string)
	require.NotEmpty(t, path)
	assert.True(t, store.has(storage.BucketCertificates, path))
	assert.Equal(t, testBaseURL+"/storage/v1/object/public/certificates/"+path, created["file_url"])

	w = doRequest(r, http.MethodGet, "/public/certificates", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeJSON[publicCertificatesBody](t, w)

	require.Len(t, resp.Groups, 2)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "AWS", resp.Groups[0].Issuer)
	assert.Equal(t, "Microsoft", resp.Groups[1].Issuer)
	require.Len(t, resp.Groups[0].Certificates, 1)
	assert.Equal(t, "Solutions Architect", resp.Groups[0].Certificates[0].Title)
}

func TestCreateCertificate_SizeLimitIsInclusive(t *testing.T) {
	r, store, _ := newCertificateRouter(t)

	limit := 5 * 1024 * 1024
	body, ct := newMultipartUpload(t, "exact.pdf", paddedPDF(limit), certificateFields("Exact", "AWS", "2024-01-01"))
	w := doRequest(r, http.MethodPost, "/certificates", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, store.uploadCount())

	body, ct = newMultipartUpload(t, "over.pdf", paddedPDF(limit+1), certificateFields("Over", "AWS", "2024-01-01"))
	w = doRequest(r, http.MethodPost, "/certificates", body, ct)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "5MB")
	assert.Equal(t, 1, store.uploadCount(), "rejected upload must not reach storage")
}

func TestCreateCertificate_RejectsUnsupportedContent(t *testing.T) {
	r, store, _ := newCertificateRouter(t)

	body, ct := newMultipartUpload(t, "notes.pdf", []byte("just some plain text pretending to be a pdf"), certificateFields("Fake", "AWS", "2024-01-01"))
	w := doRequest(r, http.MethodPost, "/certificates", body, ct)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, store.uploadCount())
}

func TestUpdateCertificate_ReplacesFileAfterCommit(t *testing.T) {
	r, store, _ := newCertificateRouter(t)

	body, ct := newMultipartUpload(t, "v1.pdf", pdfBytes, certificateFields("Cert", "AWS", "2024-01-01"))
	w := doRequest(r, http.MethodPost, "/certificates", body, ct)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeJSON[map[string]any](t, w)
	id := created["id"].(string)
	oldPath := created["file_path"].(string)

	body, ct = newMultipartUpload(t, "v2.png", pngBytes, certificateFields("Cert", "AWS", "2024-01-01"))
	w = doRequest(r, http.MethodPut, "/certificates/"+id, body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeJSON[map[string]any](t, w)
	newPath := updated["file_path"].(string)

	assert.NotEqual(t, oldPath, newPath)
	assert.False(t, store.has(storage.BucketCertificates, oldPath))
	assert.True(t, store.has(storage.BucketCertificates, newPath))

	fields := certificateFields("Cert", "AWS", "2024-01-01")
	fields["remove_file"] = "true"
	body, ct = newMultipartUpload(t, "", nil, fields)
	w = doRequest(r, http.MethodPut, "/certificates/"+id, body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cleared := decodeJSON[map[string]any](t, w)
	assert.Equal(t, "", cleared["file_path"])
	assert.Equal(t, "", cleared["file_url"])
	assert.False(t, store.has(storage.BucketCertificates, newPath))
}

func TestDeleteCertificate_DefersCleanupWhenStorageFails(t *testing.T) {
	r, store, enqueuer := newCertificateRouter(t)

	body, ct := newMultipartUpload(t, "c.pdf", pdfBytes, certificateFields("Cert", "AWS", "2024-01-01"))
	w := doRequest(r, http.MethodPost, "/certificates", body, ct)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeJSON[map[string]any](t, w)["id"].(string)

	store.deleteErr = errStorageDown
	w = doRequest(r, http.MethodDelete, "/certificates/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON[map[string]any](t, w)
	assert.Equal(t, true, resp["deleted"])
	assert.Equal(t, storageCleanupDeferred, resp["storage_cleanup"])
	assert.Equal(t, []string{"storage:cleanup"}, enqueuer.types())

	w = doRequest(r, http.MethodGet, "/certificates", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeJSON[[]database.Certificate](t, w))

	w = doRequest(r, http.MethodDelete, "/certificates/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteCertificate_RemainingRowsKeepOrderIndex(t *testing.T) {
	r, _, _ := newCertificateRouter(t)

	ids := map[string]string{}
	for _, c := range []struct{ title, order string }{{"Third", "2"}, {"First", "0"}, {"Second", "1"}} {
		fields := certificateFields(c.title, "AWS", "2024-01-01")
		fields["order_index"] = c.order
		body, ct := newMultipartUpload(t, "", nil, fields)
		w := doRequest(r, http.MethodPost, "/certificates", body, ct)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		ids[c.title] = decodeJSON[map[string]any](t, w)["id"].(string)
	}

	w := doRequest(r, http.MethodDelete, "/certificates/"+ids["Second"], nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(r, http.MethodGet, "/certificates", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	rows := decodeJSON[[]struct {
		ID         string `json:"id"`
		OrderIndex int    `json:"order_index"`
	}](t, w)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{ids["First"], ids["Third"]}, []string{rows[0].ID, rows[1].ID})
	assert.Less(t, rows[0].OrderIndex, rows[1].OrderIndex)
}
