package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"portfolio/internal/api/middleware"
	"portfolio/internal/database"
	"portfolio/internal/portfolio"
)

// DashboardHandler 汇总后台首页计数。
type DashboardHandler struct {
	db *gorm.DB
}

// NewDashboardHandler 构造 DashboardHandler。
func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

type dashboardCounts struct {
	Businesses      int64 `json:"businesses"`
	Certificates    int64 `json:"certificates"`
	Automations     int64 `json:"automations"`
	Projects        int64 `json:"projects"`
	PendingMessages int64 `json:"pending_messages"`
}

// GetCounts 并发执行只计数查询，每次请求重新计算。
func (h *DashboardHandler) GetCounts(c *gin.Context) {
	var out dashboardCounts
	g, ctx := errgroup.WithContext(c.Request.Context())

	count := func(model any, dst *int64, where ...any) {
		g.Go(func() error {
			q := h.db.WithContext(ctx).Model(model)
			if len(where) > 0 {
				q = q.Where(where[0], where[1:]...)
			}
			return q.Count(dst).Error
		})
	}
	count(&database.Business{}, &out.Businesses)
	count(&database.Certificate{}, &out.Certificates)
	count(&database.AIAutomation{}, &out.Automations)
	count(&database.FreelanceProject{}, &out.Projects)
	count(&database.ContactMessage{}, &out.PendingMessages, "status = ?", string(portfolio.MessagePending))

	if err := g.Wait(); err != nil {
		middleware.LoggerFromContext(c).Error("dashboard counts failed", slog.Any("error", err))
		Internal(c, "failed to load dashboard")
		return
	}
	c.JSON(http.StatusOK, out)
}
