package cli

import (
	"context"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewDoctorCmd creates the "doctor" subcommand, which checks that the backend answers.
func NewDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check backend connectivity",
		RunE:  runDoctor,
	}
	cmd.Flags().Duration("ping-timeout", 5*time.Second, "Bound on the backend ping")
	return cmd
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	pingTimeout, _ := cmd.Flags().GetDuration("ping-timeout")
	a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return exitError(exitConfig, "%v", err)
	}
	defer func() { _ = a.close(cmd.Context()) }()

	ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
	defer cancel()
	out := cmd.OutOrStdout()
	if err := a.backend.Ping(ctx); err != nil {
		color.New(color.FgRed).Fprintf(out, "backend %s: %v\n", a.backend.BaseURL(), err) //nolint:errcheck
		return exitError(exitBackend, "backend unreachable")
	}
	color.New(color.FgGreen).Fprintf(out, "backend %s: ok (model %s)\n", a.backend.BaseURL(), cfg.Backend.Model) //nolint:errcheck
	return nil
}
