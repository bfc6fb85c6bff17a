package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"portfolio/internal/database"
)

const adminKey = "admin"

// RequireAdmin 要求当前用户在 admins 表中存在记录，否则返回 403。
func RequireAdmin(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			abortUnauthorized(c)
			return
		}

		var admin database.Admin
		err := db.WithContext(c.Request.Context()).Where("user_id = ?", userID).First(&admin).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		if err != nil {
			LoggerFromContext(c).Error("load admin record failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(adminKey, &admin)
		c.Next()
	}
}

// AdminFromContext returns the record loaded by RequireAdmin.
func AdminFromContext(c *gin.Context) *database.Admin {
	if value, ok := c.Get(adminKey); ok {
		if admin, ok := value.(*database.Admin); ok {
			return admin
		}
	}
	return nil
}
