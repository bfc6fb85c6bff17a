package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"portfolio/internal/database"
	"portfolio/internal/storage"
)

func newProjectRouter(t *testing.T) (*gin.Engine, *gorm.DB, *fakeStorage) {
	t.Helper()
	db := newTestDB(t)
	store := newFakeStorage()
	files := newTestFiles(store, &fakeEnqueuer{})

	h := NewProjectHandler(db, files)
	pub := NewPublicHandler(db, files)

	r := gin.New()
	r.GET("/projects", h.ListProjects)
	r.POST("/projects", h.CreateProject)
	r.PUT("/projects/:id", h.UpdateProject)
	r.DELETE("/projects/:id", h.DeleteProject)
	r.GET("/projects/:id/assets", h.ListAssets)
	r.POST("/projects/:id/assets", h.CreateAsset)
	r.DELETE("/projects/:id/assets/:assetId", h.DeleteAsset)
	r.GET("/public/projects", pub.Projects)
	r.GET("/public/projects/:id", pub.Project)
	return r, db, store
}

type projectBody struct {
	ID           string   `json:"id"`
	ProjectTitle string   `json:"project_title"`
	Status       string   `json:"status"`
	StartDate    *string  `json:"start_date"`
	Tags         []string `json:"tags"`
}

type assetBody struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	AssetType string `json:"asset_type"`
	FilePath  string `json:"file_path"`
	FileURL   string `json:"file_url"`
}

func createProject(t *testing.T, r *gin.Engine, payload map[string]any) projectBody {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/projects", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeJSON[projectBody](t, w)
}

func TestProjects_OrderedByStartDateDesc(t *testing.T) {
	r, _, _ := newProjectRouter(t)

	createProject(t, r, map[string]any{"client_name": "A", "project_title": "Undated"})
	createProject(t, r, map[string]any{"client_name": "B", "project_title": "Older", "start_date": "2023-02-01"})
	newer := createProject(t, r, map[string]any{"client_name": "C", "project_title": "Newer", "start_date": "2024-06-01", "tags": "crm, erp"})
	assert.Equal(t, "planned", newer.Status)
	assert.Equal(t, []string{"crm", "erp"}, newer.Tags)

	w := doRequest(r, http.MethodGet, "/public/projects", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeJSON[[]projectBody](t, w)
	require.Len(t, list, 3)
	assert.Equal(t, "Newer", list[0].ProjectTitle)
	assert.Equal(t, "Older", list[1].ProjectTitle)
	assert.Equal(t, "Undated", list[2].ProjectTitle)
}

func TestCreateProject_Validation(t *testing.T) {
	r, _, _ := newProjectRouter(t)

	cases := []map[string]any{
		{"project_title": "No client"},
		{"client_name": "A", "project_title": "Bad status", "status": "paused"},
		{"client_name": "A", "project_title": "Bad date", "start_date": "01/02/2024"},
	}
	for _, payload := range cases {
		w := doJSON(t, r, http.MethodPost, "/projects", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code, payload)
	}

	w := doJSON(t, r, http.MethodPut, "/projects/missing", map[string]any{"client_name": "A", "project_title": "B"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjectAssets_LifecycleAndCascade(t *testing.T) {
	r, db, store := newProjectRouter(t)
	project := createProject(t, r, map[string]any{"client_name": "Acme", "project_title": "Portal", "status": "in-progress"})

	body, ct := newMultipartUpload(t, "brief.pdf", pdfBytes, map[string]string{"asset_type": "document"})
	w := doRequest(r, http.MethodPost, "/projects/"+project.ID+"/assets", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decodeJSON[assetBody](t, w)
	assert.Equal(t, project.ID, doc.ProjectID)
	assert.True(t, store.has(storage.BucketFreelanceAssets, doc.FilePath))
	assert.Equal(t, testBaseURL+"/storage/v1/object/public/freelance-assets/"+doc.FilePath, doc.FileURL)

	body, ct = newMultipartUpload(t, "shot.png", pngBytes, map[string]string{"asset_type": "screenshot"})
	w = doRequest(r, http.MethodPost, "/projects/"+project.ID+"/assets", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	shot := decodeJSON[assetBody](t, w)

	body, ct = newMultipartUpload(t, "shot.png", pngBytes, map[string]string{"asset_type": "video"})
	w = doRequest(r, http.MethodPost, "/projects/"+project.ID+"/assets", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, ct = newMultipartUpload(t, "", nil, map[string]string{"asset_type": "document"})
	w = doRequest(r, http.MethodPost, "/projects/"+project.ID+"/assets", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/public/projects/"+project.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	detail := decodeJSON[struct {
		Project projectBody `json:"project"`
		Assets  []assetBody `json:"assets"`
	}](t, w)
	assert.Equal(t, "Portal", detail.Project.ProjectTitle)
	assert.Len(t, detail.Assets, 2)

	w = doRequest(r, http.MethodDelete, "/projects/"+project.ID+"/assets/"+doc.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, store.has(storage.BucketFreelanceAssets, doc.FilePath))

	w = doRequest(r, http.MethodDelete, "/projects/"+project.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, store.has(storage.BucketFreelanceAssets, shot.FilePath))

	var remaining int64
	require.NoError(t, db.Model(&database.FreelanceAsset{}).Count(&remaining).Error)
	assert.Zero(t, remaining)

	w = doRequest(r, http.MethodGet, "/public/projects/"+project.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doRequest(r, http.MethodGet, "/projects/"+project.ID+"/assets", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
