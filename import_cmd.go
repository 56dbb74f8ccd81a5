package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"employee-import/common"
	"employee-import/companies"
	"employee-import/imports"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type importOptions struct {
	company     string
	file        string
	apply       bool
	concurrency int
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate an employee file and optionally import it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("concurrency") {
				opts.concurrency = cfg.ImportConcurrency
			}
			return runImport(cmd.Context(), cmd.OutOrStdout(), db, opts)
		},
	}

	cmd.Flags().StringVar(&opts.company, "company", "", "Company id or slug (required)")
	cmd.Flags().StringVar(&opts.file, "file", "", "Import file: .csv, .xlsx or .ndjson (required)")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Insert valid rows (default is dry-run)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 1, "In-flight inserts during --apply")

	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runImport(ctx context.Context, out io.Writer, db *gorm.DB, opts importOptions) error {
	company, err := companies.Resolve(db, opts.company)
	if err != nil {
		return fmt.Errorf("resolve --company %q: %w", opts.company, err)
	}

	content, err := os.ReadFile(opts.file)
	if err != nil {
		return fmt.Errorf("read --file: %w", err)
	}

	session := imports.NewSession(common.TenantContext{
		CompanyID: company.ID,
		Role:      common.RoleAdmin,
	})
	if err := session.Load(filepath.Base(opts.file), content); err != nil {
		return err
	}

	printReview(out, session)

	if !opts.apply {
		fmt.Fprintln(out, "dry-run: re-run with --apply to import the valid rows")
		return nil
	}

	result, err := session.Commit(ctx, imports.NewGormStore(db), imports.CommitOptions{Concurrency: opts.concurrency})
	if errors.Is(err, imports.ErrNothingToImport) {
		fmt.Fprintln(out, err.Error())
		return nil
	}
	if err != nil {
		return err
	}

	for _, f := range result.Failures {
		fmt.Fprintf(out, "row %d: %s\n", f.RowNumber, f.Reason)
	}
	fmt.Fprintln(out, imports.CompletionMessage(result.Outcome))

	if err := imports.RecordJob(db, session, result); err != nil {
		common.GetLogger().WithError(err).WithFields(logrus.Fields{
			"company_id": company.ID,
			"session_id": session.ID,
		}).Warn("failed to record import job")
	}
	return nil
}

func printReview(out io.Writer, session *imports.Session) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tVALID\tNAME\tEMAIL\tEMPLOYEE #\tERRORS")
	for _, r := range session.Rows() {
		valid := "yes"
		if !r.IsValid() {
			valid = "no"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s %s\t%s\t%s\t%s\n",
			r.RowNumber, valid,
			r.Data["first_name"], r.Data["last_name"],
			r.Data["email"], r.Data["employee_number"],
			strings.Join(r.Messages(), "; "))
	}
	_ = tw.Flush()

	s := session.Summary()
	fmt.Fprintf(out, "%d rows: %d valid, %d invalid", s.Total, s.Valid, s.Invalid)
	if s.Malformed > 0 {
		fmt.Fprintf(out, " (%d malformed)", s.Malformed)
	}
	fmt.Fprintln(out)
}
