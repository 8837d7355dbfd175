package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/movie-tracker/internal/database"
	"github.com/iliyamo/movie-tracker/internal/handler"
	"github.com/iliyamo/movie-tracker/internal/repository"
	"github.com/iliyamo/movie-tracker/internal/utils"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := ctx.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db, cfg.DBDriver); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", cfg.DBDriver)
			return nil
		},
	}
}

func newSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := ctx.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			if cfg.Production() {
				return fmt.Errorf("seeding is disabled in production")
			}
			u, created, err := handler.SeedAdmin(cmd.Context(), repository.NewUserRepo(db), utils.NewPasswordHasher(cfg.BcryptCost))
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (id %d)\n", u.Email, u.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %s already exists (id %d)\n", u.Email, u.ID)
			}
			return nil
		},
	}
}

func newUsersCommand(ctx *commandContext) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect user accounts",
	}
	usersCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := ctx.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			users, err := repository.NewUserRepo(db).List(cmd.Context())
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no users")
				return nil
			}
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				admin := "no"
				if u.IsAdmin {
					admin = "yes"
				}
				rows = append(rows, []string{
					strconv.FormatUint(u.ID, 10), u.Email, u.Name, admin, u.CreatedAt.Format(time.DateTime),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Email", "Name", "Admin", "Created"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	})
	return usersCmd
}

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Maintain stored sessions",
	}
	sessionsCmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete expired and revoked database sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := ctx.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := repository.NewSessionRepo(db).DeleteExpired(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d sessions\n", n)
			return nil
		},
	})
	return sessionsCmd
}
