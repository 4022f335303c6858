package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/satheeshds/invoicing/auth"
	"github.com/satheeshds/invoicing/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(cfg.DBDriver, cfg.DSN)
		if err != nil {
			return err
		}
		defer database.Close()

		if status, _ := cmd.Flags().GetBool("status"); status {
			return db.MigrationStatus(cmd.Context(), database, cfg.DBDriver)
		}
		if err := db.Migrate(cmd.Context(), database, cfg.DBDriver); err != nil {
			return err
		}
		v, err := goose.GetDBVersionContext(cmd.Context(), database)
		if err != nil {
			return err
		}
		fmt.Printf("database at version %d\n", v)
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire payment links past their expiry once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.sweeper.Run(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var recurringCmd = &cobra.Command{
	Use:   "recurring",
	Short: "Generate this cycle's copies of recurring invoices once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ids, err := a.recurring.Run(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"created": ids})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the admin API",
	Example: `  JWT_SECRET=... invoicing token --subject ops --ttl 720h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET environment variable is required")
		}
		subject, _ := cmd.Flags().GetString("subject")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if ttl <= 0 {
			return fmt.Errorf("ttl must be positive")
		}

		tok, err := auth.GenerateToken(subject, []byte(cfg.JWTSecret), ttl)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, sweepCmd, recurringCmd, tokenCmd)

	migrateCmd.Flags().Bool("status", false, "print migration status instead of applying")
	tokenCmd.Flags().String("subject", "admin", "who the token is issued to")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token validity")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
