package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"portfolio/internal/database"
	"portfolio/internal/mailer"
	"portfolio/internal/notify"
)

func newContactRouter(t *testing.T, m *fakeMailer, counter redisRateCounter, limit int) (*gin.Engine, *gorm.DB, *fakeNotifier) {
	t.Helper()
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	h := NewContactHandler(db, m, notifier, counter, limit)
	r := gin.New()
	r.POST("/contact", h.Submit)
	return r, db, notifier
}

func contactPayload() map[string]string {
	return map[string]string{
		"name":    "<b>Jane</b> Doe",
		"email":   "jane@example.com",
		"subject": "Project <script>alert(1)</script>inquiry",
		"message": "Let's build something & ship it.",
	}
}

func TestSubmitContact_SendsEmail(t *testing.T) {
	m := &fakeMailer{enabled: true, result: mailer.Result{Message: "Email sent"}}
	r, db, notifier := newContactRouter(t, m, nil, 0)

	w := doJSON(t, r, http.MethodPost, "/contact", contactPayload())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Email sent", decodeJSON[map[string]any](t, w)["message"])

	var stored database.ContactMessage
	require.NoError(t, db.Take(&stored).Error)
	assert.Equal(t, "Jane Doe", stored.Name)
	assert.Equal(t, "Project inquiry", stored.Subject)
	assert.Equal(t, "Let's build something & ship it.", stored.Message)
	assert.Equal(t, "pending", stored.Status)

	require.Len(t, m.sent, 1)
	assert.Equal(t, "Jane Doe", m.sent[0].Name)
	require.Len(t, notifier.messages, 1)
	assert.Equal(t, notify.TypeContactMessage, notifier.messages[0].Type)
	assert.Equal(t, stored.ID, notifier.messages[0].ResourceID)
}

func TestSubmitContact_EntityEncodedMarkupIsStripped(t *testing.T) {
	m := &fakeMailer{enabled: true, result: mailer.Result{Message: "Email sent"}}
	r, db, _ := newContactRouter(t, m, nil, 0)

	payload := contactPayload()
	payload["subject"] = "&amp;lt;img src=x onerror=alert(1)&amp;gt;Hi"
	payload["message"] = "&lt;script&gt;alert(1)&lt;/script&gt;Tom &amp; Jerry&#39;s \"quote\" 1 < 2"
	w := doJSON(t, r, http.MethodPost, "/contact", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var stored database.ContactMessage
	require.NoError(t, db.Take(&stored).Error)
	for _, text := range []string{stored.Subject, stored.Message, m.sent[0].Subject, m.sent[0].Message} {
		assert.NotContains(t, text, "<script")
		assert.NotContains(t, text, "<img")
	}
	assert.Equal(t, "Hi", stored.Subject)
	assert.Contains(t, stored.Message, `Tom & Jerry's "quote"`)
	assert.NotContains(t, stored.Message, "alert(1)</")
}

func TestSubmitContact_EmailFailureKeepsMessage(t *testing.T) {
	m := &fakeMailer{enabled: true, result: mailer.Result{Error: "provider rejected"}, err: errors.New("status 500")}
	r, db, notifier := newContactRouter(t, m, nil, 0)

	w := doJSON(t, r, http.MethodPost, "/contact", contactPayload())
	require.Equal(t, http.StatusBadGateway, w.Code)
	resp := decodeJSON[map[string]any](t, w)
	assert.Equal(t, "provider rejected", resp["error"])

	var stored database.ContactMessage
	require.NoError(t, db.Take(&stored).Error)
	assert.Equal(t, stored.ID, resp["id"])
	assert.Equal(t, "pending", stored.Status)

	require.Len(t, notifier.messages, 2)
	assert.Equal(t, notify.TypeEmailDelivery, notifier.messages[1].Type)
	assert.Equal(t, "failed", notifier.messages[1].Status)
}

func TestSubmitContact_MailerDisabled(t *testing.T) {
	r, db, _ := newContactRouter(t, &fakeMailer{}, nil, 0)

	w := doJSON(t, r, http.MethodPost, "/contact", contactPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	var count int64
	require.NoError(t, db.Model(&database.ContactMessage{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSubmitContact_Validation(t *testing.T) {
	r, db, _ := newContactRouter(t, &fakeMailer{}, nil, 0)

	bad := contactPayload()
	bad["email"] = "not-an-email"
	w := doJSON(t, r, http.MethodPost, "/contact", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	onlyMarkup := contactPayload()
	onlyMarkup["message"] = "<script>x</script>"
	w = doJSON(t, r, http.MethodPost, "/contact", onlyMarkup)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, db.Model(&database.ContactMessage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmitContact_RateLimited(t *testing.T) {
	r, _, _ := newContactRouter(t, &fakeMailer{}, newFakeRedis(), 2)

	for i := 0; i < 2; i++ {
		w := doJSON(t, r, http.MethodPost, "/contact", contactPayload())
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := doJSON(t, r, http.MethodPost, "/contact", contactPayload())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
