package main

import (
	"fmt"
	"os"

	"employee-import/common"
	"employee-import/companies"
	"employee-import/employees"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// Migrate creates every table the service uses
func Migrate(db *gorm.DB) error {
	if err := companies.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate companies: %w", err)
	}
	if err := employees.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate employees: %w", err)
	}
	if err := common.AutoMigrateJobs(db); err != nil {
		return fmt.Errorf("migrate jobs: %w", err)
	}
	return nil
}

// bootstrap loads config, configures logging and opens the migrated database
func bootstrap() (*common.Config, *gorm.DB, error) {
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	common.ConfigureLogger(cfg.LogLevel, cfg.LogFormat)

	db, err := common.Init(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "employee-import",
		Short:         "Bulk employee import service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newImportCmd(),
		newTemplateCmd(),
		newCompanyCmd(),
	)
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, err := bootstrap()
			if err != nil {
				return err
			}
			common.GetLogger().Info("database migrated")
			return nil
		},
	}
}

func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template",
		Short: "Print the sample import file",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(employees.TemplateCSV())
			return err
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		common.GetLogger().WithError(err).Error("command failed")
		os.Exit(1)
	}
}
