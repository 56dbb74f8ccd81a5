package common

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MetricsMiddleware tracks API performance metrics
func MetricsMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Generate request ID for tracing
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		startTime := time.Now()

		c.Next()

		duration := time.Since(startTime)

		// Get rows processed (if set by handler)
		rowsProcessed := 0
		if rows, exists := c.Get("rows_processed"); exists {
			if r, ok := rows.(int); ok {
				rowsProcessed = r
			}
		}

		errors := ""
		if len(c.Errors) > 0 {
			errors = c.Errors.String()
		}

		metric := ApiMetric{
			RequestID:     requestID,
			Endpoint:      c.FullPath(),
			Method:        c.Request.Method,
			StatusCode:    c.Writer.Status(),
			DurationMs:    int(duration.Milliseconds()),
			RowsProcessed: rowsProcessed,
			Errors:        errors,
			Timestamp:     startTime,
		}

		GetLogger().WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     metric.Method,
			"path":       metric.Endpoint,
			"status":     metric.StatusCode,
			"duration":   duration.String(),
		}).Debug("request handled")

		// Save metric asynchronously
		go func() {
			if err := db.Create(&metric).Error; err != nil {
				GetLogger().WithError(err).Warn("failed to save api metric")
			}
		}()
	}
}
