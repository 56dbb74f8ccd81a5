package main

import (
	"context"
	"net/http"
	"time"

	"employee-import/common"
	"employee-import/companies"
	"employee-import/exports"
	"employee-import/imports"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// setupRouter wires middleware and every route group. Idle import sessions
// are swept until ctx is done.
func setupRouter(ctx context.Context, db *gorm.DB, cfg *common.Config) *gin.Engine {
	r := gin.Default()
	r.RedirectTrailingSlash = false
	r.Use(common.MetricsMiddleware(db))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(common.TenantMiddleware([]byte(cfg.JWTSecret)))

	importHandler := imports.NewHandler(db, cfg)
	importHandler.RegisterRoutes(v1.Group("/imports"))
	go importHandler.Sessions.Run(ctx, time.Minute)

	exports.NewHandler(db).RegisterRoutes(v1.Group("/employees"))
	companies.NewHandler(db).RegisterRoutes(v1.Group("/companies"))

	return r
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}

			sqlDB, err := db.DB()
			if err == nil {
				defer sqlDB.Close()
			}

			if cfg.AppEnv == "production" {
				gin.SetMode(gin.ReleaseMode)
			}

			common.GetLogger().WithField("port", cfg.Port).Info("server starting")
			return setupRouter(cmd.Context(), db, cfg).Run(":" + cfg.Port)
		},
	}
}
