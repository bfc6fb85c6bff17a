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

func newBusinessRouter(t *testing.T) (*gin.Engine, *gorm.DB, *fakeStorage) {
	t.Helper()
	db := newTestDB(t)
	store := newFakeStorage()
	files := newTestFiles(store, &fakeEnqueuer{})
	h := NewBusinessHandler(db, files)
	pub := NewPublicHandler(db, files)

	r := gin.New()
	r.GET("/businesses", h.ListBusinesses)
	r.POST("/businesses", h.CreateBusiness)
	r.PUT("/businesses/:id", h.UpdateBusiness)
	r.DELETE("/businesses/:id", h.DeleteBusiness)
	r.GET("/businesses/:id/screenshots", h.ListScreenshots)
	r.POST("/businesses/:id/screenshots", h.CreateScreenshot)
	r.PUT("/businesses/:id/screenshots/:screenshotId", h.UpdateScreenshot)
	r.DELETE("/businesses/:id/screenshots/:screenshotId", h.DeleteScreenshot)
	r.GET("/public/businesses", pub.Businesses)
	r.GET("/public/businesses/:slug", pub.BusinessBySlug)
	return r, db, store
}

func TestCreateBusiness_DerivesSlug(t *testing.T) {
	r, _, _ := newBusinessRouter(t)

	w := doJSON(t, r, http.MethodPost, "/businesses", map[string]any{
		"name":         "  Acme & Co. Studio ",
		"main_modules": "CRM, Billing,, Reports ",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeJSON[database.Business](t, w)
	assert.Equal(t, "acme-co-studio", resp.Slug)
	assert.Equal(t, "Acme & Co. Studio", resp.Name)
	assert.Equal(t, "planned", resp.Status)
	assert.Equal(t, []string{"CRM", "Billing", "Reports"}, []string(resp.MainModules))

	w = doJSON(t, r, http.MethodPost, "/businesses", map[string]any{"name": "Acme & Co Studio"})
	assert.Equal(t, http.StatusConflict, w.Code, "same derived slug must conflict")

	w = doJSON(t, r, http.MethodPost, "/businesses", map[string]any{"name": "Acme", "slug": "Custom Slug!"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "custom-slug", decodeJSON[database.Business](t, w).Slug)

	w = doJSON(t, r, http.MethodPost, "/businesses", map[string]any{"name": "!!!"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/businesses", map[string]any{"name": "Bad", "status": "sunset"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateBusiness_SlugOnlyChangesWhenProvided(t *testing.T) {
	r, _, _ := newBusinessRouter(t)

	w := doJSON(t, r, http.MethodPost, "/businesses", map[string]any{"name": "First Name"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeJSON[database.Business](t, w)

	w = doJSON(t, r, http.MethodPut, "/businesses/"+created.ID, map[string]any{"name": "Renamed", "status": "live"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeJSON[database.Business](t, w)
	assert.Equal(t, "first-name", updated.Slug)
	assert.Equal(t, "live", updated.Status)

	w = doJSON(t, r, http.MethodPut, "/businesses/"+created.ID, map[string]any{"name": "Renamed", "slug": "renamed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "renamed", decodeJSON[database.Business](t, w).Slug)

	w = doJSON(t, r, http.MethodPut, "/businesses/"+created.ID, map[string]any{"name": "Renamed", "slug": "---"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPut, "/businesses/unknown", map[string]any{"name": "Nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScreenshots_SingleMainAndCascadeDelete(t *testing.T) {
	r, db, store := newBusinessRouter(t)

	w := doJSON(t, r, http.MethodPost, "/businesses", map[string]any{"name": "Shop"})
	require.Equal(t, http.StatusCreated, w.Code)
	business := decodeJSON[database.Business](t, w)

	var paths []string
	for _, title := range []string{"Home", "Checkout"} {
		body, ct := newMultipartUpload(t, "shot.png", pngBytes, map[string]string{"title": title, "is_main": "true"})
		w = doRequest(r, http.MethodPost, "/businesses/"+business.ID+"/screenshots", body, ct)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		paths = append(paths, decodeJSON[map[string]any](t, w)["image_path"].(string))
	}

	var mains []string
	require.NoError(t, db.Model(&database.BusinessScreenshot{}).Where("is_main = ?", true).Pluck("title", &mains).Error)
	assert.Equal(t, []string{"Checkout"}, mains)

	w = doRequest(r, http.MethodGet, "/public/businesses/shop", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	detail := decodeJSON[struct {
		Business    database.Business `json:"business"`
		Screenshots []struct {
			ImageURL string `json:"image_url"`
		} `json:"screenshots"`
	}](t, w)
	assert.Equal(t, business.ID, detail.Business.ID)
	require.Len(t, detail.Screenshots, 2)
	assert.Contains(t, detail.Screenshots[0].ImageURL, "/storage/v1/object/public/business-screenshots/")

	w = doRequest(r, http.MethodDelete, "/businesses/"+business.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, storageCleanupDone, decodeJSON[map[string]any](t, w)["storage_cleanup"])

	var remaining int64
	require.NoError(t, db.Model(&database.BusinessScreenshot{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
	for _, p := range paths {
		assert.False(t, store.has(storage.BucketBusinessScreenshots, p))
	}

	w = doRequest(r, http.MethodGet, "/public/businesses/shop", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
