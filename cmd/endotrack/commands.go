package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/endotrack/internal/cli"
	"github.com/terraincognita07/endotrack/internal/i18n"
)

func newSubmitCommand() *cobra.Command {
	var input cli.SubmitInput

	command := &cobra.Command{
		Use:   "submit",
		Short: "Save today's log entry",
		Long: `Save the entry for today's date, replacing any entry already saved today.

Examples:
  endotrack submit --symptom "Cólicas Fortes" --feeling cramps
  endotrack submit --symptom "Escape (Spotting)" --missed --sos Ibuprofeno`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.store.Load(cmd.Context()); err != nil {
				return err
			}
			return cli.RunSubmitCommand(cmd.Context(), rt.store, input, cmd.OutOrStdout())
		},
	}

	flags := command.Flags()
	flags.StringVar(&input.Feeling, "feeling", "", "cramps, low_energy, irritable or comfort")
	flags.StringArrayVar(&input.Symptoms, "symptom", nil, "symptom label, repeatable")
	flags.BoolVar(&input.MissedMedication, "missed", false, "daily medication was not taken")
	flags.StringVar(&input.SOSMedication, "sos", "", "rescue medication taken today")
	return command
}

func newSummaryCommand() *cobra.Command {
	var language string

	command := &cobra.Command{
		Use:   "summary",
		Short: "Print the treatment summary and shareable report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.store.Load(cmd.Context()); err != nil {
				return err
			}

			manager, err := i18n.NewEmbeddedManager(rt.cfg.App.Language)
			if err != nil {
				return fmt.Errorf("init i18n: %w", err)
			}
			if strings.TrimSpace(language) == "" {
				language = manager.DefaultLanguage()
			}
			return cli.RunSummaryCommand(rt.store, manager, rt.profile(), manager.NormalizeLanguage(language), cmd.OutOrStdout())
		},
	}

	command.Flags().StringVar(&language, "lang", "", "report language (pt or en)")
	return command
}

func newTokenCommand() *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)

	command := &cobra.Command{
		Use:   "token",
		Short: "Issue a sign-in token for the remote backend",
		Long: `Issue an HS256 token signed with identity.secret. Set it as identity.token
(or ENDOTRACK_IDENTITY_TOKEN) to scope the NATS backend to that user.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Identity.Secret) == "" {
				return errors.New("identity.secret is not configured")
			}
			return cli.RunTokenCommand(cfg.Identity.Secret, userID, cfg.App.ID, ttl, cmd.OutOrStdout())
		},
	}

	command.Flags().StringVar(&userID, "user", "", "user id placed in the token subject")
	command.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime")
	_ = command.MarkFlagRequired("user")
	return command
}
