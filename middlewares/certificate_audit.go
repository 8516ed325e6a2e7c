package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/practice-app/utils"
)

// CertificateAuditLogger records who attempted a certificate decision and how
// it ended.
func CertificateAuditLogger(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := logrus.Fields{
			"action":         action,
			"certificate_id": c.Param("id"),
		}
		if userID, ok := c.Get(ContextUserID); ok {
			fields["user_id"] = userID
		}
		if role, ok := c.Get(ContextRole); ok {
			fields["role"] = role
		}
		utils.InfoLogger.WithFields(fields).Info("Certificate decision requested")

		c.Next()

		fields["status"] = c.Writer.Status()
		if c.Writer.Status() < 300 {
			utils.InfoLogger.WithFields(fields).Info("Certificate decision applied")
		} else {
			utils.ErrorLogger.WithFields(fields).Warn("Certificate decision refused")
		}
	}
}
