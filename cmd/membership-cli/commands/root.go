package commands

import (
	"context"
	"fmt"
	"log/slog"
	"membership-workflow/cmd/membership-cli/config"
	"membership-workflow/cmd/membership-cli/globals"
	"membership-workflow/internal/membershipapi"
	"membership-workflow/internal/telemetry"
	"membership-workflow/lib/restyutil"
	libtelemetry "membership-workflow/lib/telemetry"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	baseUrl      string
	mode         string
	verification string
	onFailure    string
	debug        bool
)

var shutdownTelemetry = func(context.Context) error { return nil }

var rootCmd = &cobra.Command{
	Use:           "membership-cli",
	Short:         "membership-cli drives the membership registration workflow against the membership backend.",
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		libtelemetry.InitSlog(debug)
		setupTelemetry(cmd.Context())

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, &cfg)

		var output restyutil.InstrumentOutput
		// dumps are only written at debug level
		if cfg.HttpDump != "" && debug {
			fsOutput, err := restyutil.NewFilesystemOutput(cfg.HttpDump)
			if err != nil {
				return fmt.Errorf("prepare http dump: %w", err)
			}
			slog.Debug("dumping http exchanges", "dir", fsOutput.Dir())
			output = fsOutput
		}

		tel := telemetry.SlogAPI{}
		client, err := membershipapi.NewClient(membershipapi.ClientOptions{
			BaseUrl: cfg.BaseUrl,
			Timeout: cfg.Timeout(),
			Output:  output,
		}, tel)
		if err != nil {
			return err
		}

		cmd.SetContext(globals.Set(cmd.Context(), &globals.Value{
			Config: cfg,
			Client: client,
			Tel:    tel,
		}))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		err := shutdownTelemetry(context.Background())
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "membership.json5", "The config file, bare names are searched for upwards from the working directory.")
	flags.StringVar(&baseUrl, "base-url", "", "The membership backend, overrides base_url.")
	flags.StringVar(&mode, "mode", "", "The workflow preset (strict or demo), overrides mode.")
	flags.StringVar(&verification, "verification", "", "Document verification (remote or bypass), overrides verification.")
	flags.StringVar(&onFailure, "on-failure", "", "What to do when the backend fails (block or fabricate), overrides on_failure.")
	flags.BoolVar(&debug, "debug", false, "Enables debug logging and http dumps.")
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseUrl = baseUrl
	}
	if flags.Changed("mode") {
		cfg.Mode = mode
		cfg.Verification = ""
		cfg.OnFailure = ""
	}
	if flags.Changed("verification") {
		cfg.Verification = verification
	}
	if flags.Changed("on-failure") {
		cfg.OnFailure = onFailure
	}
}

func setupTelemetry(ctx context.Context) {
	tel, err := libtelemetry.SetupFromEnv(ctx, "membership-cli")
	if os.IsNotExist(err) {
		slog.Debug("telemetry.json5 not found, continuing without exporters")
		return
	}
	if err != nil {
		slog.Warn("failed to setup telemetry", "err", err)
		return
	}
	shutdownTelemetry = tel.Shutdown
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// post-run hooks are skipped when a command fails
		if serr := shutdownTelemetry(context.Background()); serr != nil {
			slog.Warn("failed to flush telemetry", "err", serr)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
