package main

import (
	"fmt"

	"employee-import/companies"

	"github.com/spf13/cobra"
)

func newCompanyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Manage tenant companies",
	}

	var name, slugValue string
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap()
			if err != nil {
				return err
			}

			company, err := companies.NewCompany(name, slugValue)
			if err != nil {
				return err
			}
			if err := db.Create(&company).Error; err != nil {
				return fmt.Errorf("create company: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", company.ID, company.Slug, company.Name)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "Company name (required)")
	create.Flags().StringVar(&slugValue, "slug", "", "Slug (derived from the name when empty)")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(create)
	return cmd
}
