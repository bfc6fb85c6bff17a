package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/storage"
)

func newAutomationRouter(t *testing.T) (*gin.Engine, *fakeStorage) {
	t.Helper()
	db := newTestDB(t)
	store := newFakeStorage()
	files := newTestFiles(store, &fakeEnqueuer{})

	h := NewAutomationHandler(db, files)
	pub := NewPublicHandler(db, files)

	r := gin.New()
	r.GET("/automations", h.ListAutomations)
	r.POST("/automations", h.CreateAutomation)
	r.PUT("/automations/:id", h.UpdateAutomation)
	r.DELETE("/automations/:id", h.DeleteAutomation)
	r.GET("/public/automations", pub.Automations)
	return r, store
}

type automationBody struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Platform        string   `json:"platform"`
	ComplexityLevel string   `json:"complexity_level"`
	Status          string   `json:"status"`
	Tags            []string `json:"tags"`
	ToolsUsed       []string `json:"tools_used"`
	ScreenshotPath  string   `json:"screenshot_path"`
	ScreenshotURL   string   `json:"screenshot_url"`
}

func TestCreateAutomation_DefaultsAndCommaLists(t *testing.T) {
	r, store := newAutomationRouter(t)

	body, ct := newMultipartUpload(t, "flow.png", pngBytes, map[string]string{
		"title":      "Lead routing",
		"tags":       "sales, crm,,",
		"tools_used": "Make.com, OpenAI ,  Airtable",
	})
	w := doRequest(r, http.MethodPost, "/automations", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	got := decodeJSON[automationBody](t, w)
	assert.Equal(t, "Make.com", got.Platform)
	assert.Equal(t, "medium", got.ComplexityLevel)
	assert.Equal(t, "active", got.Status)
	assert.Equal(t, []string{"sales", "crm"}, got.Tags)
	assert.Equal(t, []string{"Make.com", "OpenAI", "Airtable"}, got.ToolsUsed)
	require.NotEmpty(t, got.ScreenshotPath)
	assert.True(t, store.has(storage.BucketAIAutomations, got.ScreenshotPath))
	assert.Equal(t, testBaseURL+"/storage/v1/object/public/ai-automations/"+got.ScreenshotPath, got.ScreenshotURL)
}

func TestCreateAutomation_RejectsInvalidEnums(t *testing.T) {
	r, _ := newAutomationRouter(t)

	for _, fields := range []map[string]string{
		{"title": "x", "complexity_level": "extreme"},
		{"title": "x", "status": "deleted"},
		{"title": "   "},
	} {
		body, ct := newMultipartUpload(t, "", nil, fields)
		w := doRequest(r, http.MethodPost, "/automations", body, ct)
		assert.Equal(t, http.StatusBadRequest, w.Code, fields)
	}
}

func TestPublicAutomations_OnlyActive(t *testing.T) {
	r, _ := newAutomationRouter(t)

	for _, fields := range []map[string]string{
		{"title": "Live", "status": "active"},
		{"title": "Old", "status": "archived"},
	} {
		body, ct := newMultipartUpload(t, "", nil, fields)
		w := doRequest(r, http.MethodPost, "/automations", body, ct)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := doRequest(r, http.MethodGet, "/automations", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeJSON[[]automationBody](t, w), 2)

	w = doRequest(r, http.MethodGet, "/public/automations", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	public := decodeJSON[[]automationBody](t, w)
	require.Len(t, public, 1)
	assert.Equal(t, "Live", public[0].Title)
}

func TestUpdateAutomation_RemoveScreenshot(t *testing.T) {
	r, store := newAutomationRouter(t)

	body, ct := newMultipartUpload(t, "flow.png", pngBytes, map[string]string{"title": "Lead routing"})
	w := doRequest(r, http.MethodPost, "/automations", body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeJSON[automationBody](t, w)

	body, ct = newMultipartUpload(t, "", nil, map[string]string{"title": "Lead routing v2", "remove_file": "true"})
	w = doRequest(r, http.MethodPut, "/automations/"+created.ID, body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	updated := decodeJSON[automationBody](t, w)
	assert.Equal(t, "Lead routing v2", updated.Title)
	assert.Empty(t, updated.ScreenshotPath)
	assert.Empty(t, updated.ScreenshotURL)
	assert.False(t, store.has(storage.BucketAIAutomations, created.ScreenshotPath))

	body, ct = newMultipartUpload(t, "", nil, map[string]string{"title": "ghost"})
	w = doRequest(r, http.MethodPut, "/automations/missing", body, ct)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodDelete, "/automations/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"deleted":true`))
}

func TestDeleteAutomation_RemainingRowsKeepOrderIndex(t *testing.T) {
	r, _ := newAutomationRouter(t)

	ids := map[string]string{}
	for _, a := range []struct{ title, order string }{{"C", "5"}, {"A", "1"}, {"B", "3"}} {
		body, ct := newMultipartUpload(t, "", nil, map[string]string{"title": a.title, "order_index": a.order})
		w := doRequest(r, http.MethodPost, "/automations", body, ct)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		ids[a.title] = decodeJSON[automationBody](t, w).ID
	}

	w := doRequest(r, http.MethodDelete, "/automations/"+ids["B"], nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(r, http.MethodGet, "/automations", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	rows := decodeJSON[[]automationBody](t, w)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{ids["A"], ids["C"]}, []string{rows[0].ID, rows[1].ID})
}
