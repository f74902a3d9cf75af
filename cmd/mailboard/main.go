package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/credential"
	"github.com/nhle/mailboard/internal/model"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	configPath string
	jsonOutput bool
	userFlag   string

	cfg     *model.AppConfig
	logger  *logrus.Logger
	logFile *os.File
	client  *api.Client
)

var rootCmd = &cobra.Command{
	Use:   "mailboard",
	Short: "mailboard - terminal dashboard for the email utilities backend",
	Long: "mailboard links mail accounts, browses a unified inbox and manages " +
		"rules, lists, contacts and analytics on an email utilities backend.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "help", "version":
			return nil
		}

		var err error
		cfg, err = model.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if userFlag != "" {
			cfg.API.UserID = userFlag
		}

		logger, logFile, err = newLogger(cfg.Log)
		if err != nil {
			return err
		}

		// login stores the password, so it must not require one.
		if cmd.Name() == "login" {
			return nil
		}
		client, err = newClient(cfg, logger)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			_ = logFile.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mailboard version %s\n", Version)
	},
}

// newLogger builds the JSON file logger. The terminal belongs to the TUI,
// so nothing is logged to stderr.
func newLogger(c model.LogConfig) (*logrus.Logger, *os.File, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log.level %q: %w", c.Level, err)
	}
	l.SetLevel(level)

	if c.File == "" {
		l.SetOutput(io.Discard)
		return l, nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	l.SetOutput(f)
	return l, f, nil
}

// newClient resolves the API password and builds the backend client. A
// missing keyring entry is not fatal: the backend may not need auth.
func newClient(c *model.AppConfig, l *logrus.Logger) (*api.Client, error) {
	password, err := credential.Resolve(c.API.PasswordRef, nil)
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			return nil, fmt.Errorf("resolving api password: %w", err)
		}
		l.WithError(err).Warn("No API password found, continuing without one")
	}

	return api.New(api.Options{
		BaseURL:  c.API.BaseURL,
		Username: c.API.Username,
		Password: password,
		UserID:   c.API.UserID,
		Timeout:  c.API.Timeout(),
		Logger:   l,
	}), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "Config file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "Act as this user ID")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(inboxCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(spamCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(loginCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
