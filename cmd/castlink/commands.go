package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/1ureka/castlink/internal/app"
	"github.com/1ureka/castlink/internal/config"
	"github.com/1ureka/castlink/internal/relay"
	"github.com/1ureka/castlink/internal/transport"
	"github.com/1ureka/castlink/internal/util"
)

// newRootCmd builds the command tree. Flags of the executing command are
// bound to v just before it runs, so streamer and viewer can share keys.
func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "castlink",
		Short:         "WebRTC audio/video streaming with WebSocket signaling",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			if v.GetBool(config.KeyDebug) {
				util.EnableDebug()
			}
			pterm.Info.Println(fmt.Sprintf("Castlink v%s", version))
			pterm.Println()
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := runInteractive(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	pf := root.PersistentFlags()
	pf.Bool(config.KeyDebug, false, "Enable debug logging")
	pf.StringSlice(config.KeySTUN, nil, "STUN server URL, repeatable (default: Google STUN)")

	root.AddCommand(
		newRoleCmd(v, config.RoleStreamer, "Stream local IVF/Ogg files to a viewer", func(f *pflag.FlagSet) {
			f.String(config.KeyWSURL, "", "WebSocket signaling URL")
			f.String(config.KeyVideo, "", "IVF (VP8) file to stream")
			f.String(config.KeyAudio, "", "Ogg (Opus) file to stream")
		}),
		newRoleCmd(v, config.RoleViewer, "Receive the stream and optionally record it", func(f *pflag.FlagSet) {
			f.String(config.KeyWSURL, "", "WebSocket signaling URL")
			f.String(config.KeyOut, "", "Directory to record video.ivf and audio.ogg into")
		}),
		newRoleCmd(v, config.RoleRelay, "Run the signaling relay that pairs a streamer with a viewer", func(f *pflag.FlagSet) {
			f.String(config.KeyListen, config.DefaultListen, "HTTP listen address for /ws and /metrics")
		}),
	)

	return root
}

func newRoleCmd(v *viper.Viper, role config.Role, short string, flags func(*pflag.FlagSet)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(role),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, role)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	flags(cmd.Flags())
	return cmd
}

// bindFlags binds every flag of the executing command to its viper key.
// Flags left unset fall through to the environment and defaults.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" || f.Name == "version" {
			return
		}
		err = errors.Join(err, v.BindPFlag(f.Name, f))
	})
	return err
}

// ---------------------------------------------------------------------------
// Run modes
// ---------------------------------------------------------------------------

// run executes the role selected by cfg until ctx is cancelled or the session
// ends.
func run(ctx context.Context, cfg *config.Config) error {
	opts := app.Options{
		WSURL:       cfg.WSURL,
		STUNServers: cfg.STUNServers,
		VideoFile:   cfg.VideoFile,
		AudioFile:   cfg.AudioFile,
		OutDir:      cfg.OutDir,
	}

	var err error
	switch cfg.Role {
	case config.RoleStreamer:
		util.LogInfo("connecting to %s as streamer", cfg.WSURL)
		err = app.RunStreamer(ctx, opts)
	case config.RoleViewer:
		util.LogInfo("connecting to %s as viewer", cfg.WSURL)
		err = app.RunViewer(ctx, opts)
	case config.RoleRelay:
		err = runRelay(ctx, cfg)
	}

	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		return err
	}

	util.LogInfo("successfully closed %s session", cfg.Role)
	return nil
}

// runRelay serves the relay until ctx is cancelled.
func runRelay(ctx context.Context, cfg *config.Config) error {
	server := relay.NewServer(transport.Options{STUNServers: cfg.STUNServers})
	port, err := server.Start(cfg.Listen)
	if err != nil {
		return err
	}
	defer server.Close()
	util.StartStatsReporter(ctx)

	pterm.DefaultBox.WithTitle("Relay").Println(fmt.Sprintf(
		"Signaling : ws://<host>:%d/ws\nMetrics   : http://<host>:%d/metrics", port, port))
	pterm.Println()
	util.LogInfo("waiting for a streamer and a viewer...")

	select {
	case <-ctx.Done():
		return nil
	case <-server.Done():
		return errors.New("relay server stopped unexpectedly")
	}
}

// ---------------------------------------------------------------------------
// Interactive prompts
// ---------------------------------------------------------------------------

// runInteractive asks for a role and its parameters when no subcommand is
// given. Values already set by env variables are used as prompt defaults.
func runInteractive(v *viper.Viper) (*config.Config, error) {
	choice, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{
			"Streamer: send local media files",
			"Viewer:   receive the stream",
			"Relay:    pair a streamer with a viewer",
		}).
		WithDefaultText("Select your role").
		Show()

	pterm.Println()

	cfg := &config.Config{
		STUNServers: config.SplitList(v.GetStringSlice(config.KeySTUN)),
		Debug:       v.GetBool(config.KeyDebug),
	}

	switch {
	case strings.HasPrefix(choice, "Streamer"):
		cfg.Role = config.RoleStreamer
		cfg.WSURL = askURL(v.GetString(config.KeyWSURL))
		cfg.VideoFile = askText("IVF (VP8) video file, empty to skip", v.GetString(config.KeyVideo))
		cfg.AudioFile = askText("Ogg (Opus) audio file, empty to skip", v.GetString(config.KeyAudio))
	case strings.HasPrefix(choice, "Viewer"):
		cfg.Role = config.RoleViewer
		cfg.WSURL = askURL(v.GetString(config.KeyWSURL))
		cfg.OutDir = askText("Recording directory, empty to discard", v.GetString(config.KeyOut))
	default:
		cfg.Role = config.RoleRelay
		cfg.Listen = askText("Listen address", v.GetString(config.KeyListen))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// askText prompts for a free-form value.
func askText(prompt, def string) string {
	raw, _ := pterm.DefaultInteractiveTextInput.
		WithDefaultText(prompt).
		WithDefaultValue(def).
		Show()
	pterm.Println()
	return raw
}

// askURL prompts the user for a valid WebSocket URL until one is entered.
func askURL(def string) string {
	for {
		raw, _ := pterm.DefaultInteractiveTextInput.
			WithDefaultText("WebSocket URL (e.g. wss://***.asse.devtunnels.ms/ws)").
			WithDefaultValue(def).
			Show()

		wsURL, err := config.NormalizeWSURL(raw)
		if err == nil {
			pterm.Println()
			return wsURL
		}

		pterm.Println()
		util.LogWarning("invalid input: please enter a valid host or URL")
	}
}
