package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/adnan-tnd/flow-core/internal/api/validation"
	"github.com/adnan-tnd/flow-core/internal/attendance"
	"github.com/adnan-tnd/flow-core/internal/auth"
	"github.com/adnan-tnd/flow-core/internal/database"
	"github.com/adnan-tnd/flow-core/internal/database/models"
	"github.com/adnan-tnd/flow-core/internal/notify"
	"github.com/adnan-tnd/flow-core/pkg/crypto"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := connect()
		if err != nil {
			return err
		}
		defer database.Close(e.db)

		if err := database.AutoMigrate(e.db); err != nil {
			return err
		}
		e.logger.Info("schema migrated")
		return nil
	},
}

var seedCEOCmd = &cobra.Command{
	Use:   "seed-ceo",
	Short: "Create the first CEO account",
	Long:  "seed-ceo creates a CEO user. It is a no-op when the email is already registered.",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		password, _ := cmd.Flags().GetString("password")

		if !validation.IsValidEmail(email) {
			return fmt.Errorf("invalid email %q", email)
		}
		if ok, _ := validation.IsValidPassword(password); !ok {
			return fmt.Errorf("password must be %d to %d characters", validation.MinPasswordLength, validation.MaxPasswordLength)
		}

		e, err := connect()
		if err != nil {
			return err
		}
		defer database.Close(e.db)

		jwtService := auth.NewJWTService(e.cfg.JWT.Secret, e.cfg.JWT.Expiry(), e.cfg.JWT.ResetExpiry())
		mail := notify.NewDispatcher(notify.NewSender(e.cfg.Mail, e.logger), nil, e.logger)
		authService := auth.NewService(e.db, jwtService, mail, notify.Links{BaseURL: e.cfg.App.BaseURL}, e.logger)

		resp, err := authService.Signup(cmd.Context(), auth.SignupInput{
			Name:     name,
			Email:    email,
			Password: password,
			Role:     models.RoleCEO,
		})
		if errors.Is(err, auth.ErrUserExists) {
			fmt.Fprintf(cmd.OutOrStdout(), "User already exists: %s\n", email)
			return nil
		}
		if err != nil {
			return fmt.Errorf("creating CEO: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "CEO created: %s (%s)\n", resp.User.Email, resp.User.ID)
		return nil
	},
}

var genKeyCmd = &cobra.Command{
	Use:   "gen-key",
	Short: "Print a new ENCRYPTION_KEY for salary notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var sweepAbsentCmd = &cobra.Command{
	Use:   "sweep-absent",
	Short: "Mark users without attendance as absent for one day",
	Long:  "sweep-absent runs the nightly absence sweep by hand. --date defaults to today (UTC).",
	RunE: func(cmd *cobra.Command, args []string) error {
		day := time.Now().UTC()
		if raw, _ := cmd.Flags().GetString("date"); raw != "" {
			parsed, ok := validation.ParseDate(raw)
			if !ok {
				return fmt.Errorf("invalid date %q", raw)
			}
			day = parsed
		}

		e, err := connect()
		if err != nil {
			return err
		}
		defer database.Close(e.db)

		marked, err := attendance.NewService(e.db, e.logger).MarkAbsent(cmd.Context(), day)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Marked %d user(s) absent on %s\n", marked, day.Format("2006-01-02"))
		return nil
	},
}

func init() {
	seedCEOCmd.Flags().String("email", "", "CEO email address")
	seedCEOCmd.Flags().String("name", "CEO", "display name")
	seedCEOCmd.Flags().String("password", "", "initial password")
	_ = seedCEOCmd.MarkFlagRequired("email")
	_ = seedCEOCmd.MarkFlagRequired("password")

	sweepAbsentCmd.Flags().String("date", "", "day to sweep, YYYY-MM-DD")
}
