package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/BTreeMap/ThoughtWeaver/internal/config"
)

// app carries state shared by the subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	// flagKeys maps a command's flags to viper keys; bound only for the
	// command that runs so subcommands may share a key.
	flagKeys map[*cobra.Command]map[string]string
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), flagKeys: make(map[*cobra.Command]map[string]string)}

	root := &cobra.Command{
		Use:   "thoughtweaver",
		Short: "ThoughtWeaver adaptive ideation workflow engine",
		Long: `ThoughtWeaver watches an ideation conversation, suggests the next
thinking role (frame, ideate, challenge, analyze, refine) and activates the
assistants that fill it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bindFlags(cmd); err != nil {
				return err
			}
			return a.load()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./config.yaml or ./config/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = a.v.BindPFlag(config.KeyLogLevel, root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newRolesCmd())
	root.AddCommand(newTemplatesCmd(a))
	return root
}

// bindKey records that flag name of cmd overrides viper key.
func (a *app) bindKey(cmd *cobra.Command, key, name string) {
	if a.flagKeys[cmd] == nil {
		a.flagKeys[cmd] = make(map[string]string)
	}
	a.flagKeys[cmd][key] = name
}

func (a *app) bindFlags(cmd *cobra.Command) error {
	for key, name := range a.flagKeys[cmd] {
		if err := a.v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// load resolves configuration and installs the default logger.
func (a *app) load() error {
	config.LoadDotEnv()
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return err
	}
	a.cfg = cfg
	initializeLogger(cfg.Log.Level)
	return nil
}

// initializeLogger sets up structured logging at the configured level.
func initializeLogger(level string) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}
