package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/tradeslip/internal/app"
	"github.com/joseph-ayodele/tradeslip/internal/repository"
)

var jobsLimitFlag int

func newDBCmd() *cobra.Command {
	db := &cobra.Command{
		Use:   "db",
		Short: "Manage the extraction audit database",
		Long: `Manage the extract_jobs audit table.

Examples:
  tradeslip db migrate          # Apply pending migrations
  tradeslip db check            # Ping the database
  tradeslip db jobs --limit 10  # Show the latest runs`,
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// OpenDatabase migrates as part of opening.
			db, err := app.OpenDatabase(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer repository.Close(db, logger)
			pterm.Success.Println("Database is up to date")
			return nil
		},
	}

	check := &cobra.Command{
		Use:   "check",
		Short: "Check database connectivity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := repository.Open(cmd.Context(), repository.Config{
				Driver:      cfg.Database.Driver,
				DSN:         cfg.Database.DSN,
				DialTimeout: cfg.Database.DialTimeout,
			}, logger)
			if err != nil {
				return err
			}
			defer repository.Close(db, logger)
			start := time.Now()
			if err := repository.HealthCheck(cmd.Context(), db, time.Second, logger); err != nil {
				return err
			}
			pterm.Success.Printfln("DB health: OK (%s, %s)", cfg.Database.Driver, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	jobs := &cobra.Command{
		Use:   "jobs",
		Short: "List the most recent extraction runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := app.OpenDatabase(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer repository.Close(db, logger)

			list, err := repository.NewExtractJobRepository(db.DB, logger).ListRecent(cmd.Context(), jobsLimitFlag)
			if err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			data := pterm.TableData{{"Started", "File", "Status", "Method", "Confidence", "Review"}}
			for _, j := range list {
				data = append(data, []string{
					j.StartedAt.Local().Format(time.DateTime),
					j.Filename,
					j.Status,
					deref(j.Method),
					deref(j.Confidence),
					fmt.Sprint(j.NeedsReview),
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
		},
	}
	jobs.Flags().IntVar(&jobsLimitFlag, "limit", 20, "number of runs to show")

	db.AddCommand(migrate, check, jobs)
	return db
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
