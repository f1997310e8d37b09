package main

import (
	"fmt"
	"os"

	"github.com/burntcarrot/linepad/config"
	"github.com/burntcarrot/linepad/tui"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var logger = logrus.New()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd returns the linepad command. Flags take precedence over
// LINEPAD_* environment variables, which take precedence over the config file.
func newRootCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:          "linepad",
		Short:        "A collaborative plain-text editor for the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.BindClientFlags(v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			return run(cfg.Client)
		},
	}

	flags := cmd.Flags()
	flags.String("server", "localhost:8080", "The network address of the server")
	flags.Bool("secure", false, "Enable a secure WebSocket connection (wss://)")
	flags.Bool("debug", false, "Enable debugging mode to show more verbose logs")
	flags.Bool("login", false, "Enable the login prompt for the server")
	flags.String("file", "", "The file to load the content from, and to save it to")
	flags.String("name", "", "The name shown to other users")
	flags.StringVar(&configFile, "config", "", "Path to a YAML config file")

	return cmd
}

func run(cfg config.ClientConfig) error {
	logFile, debugLogFile, err := setupLogger(logger)
	if err != nil {
		return errors.Wrap(err, "failed to set up logger")
	}
	defer closeLogFiles(logFile, debugLogFile)

	name := cfg.Name
	if cfg.Login {
		if name, err = tui.Login(); err != nil {
			return err
		}
	}
	if name == "" {
		name = "user-" + uuid.NewString()[:4]
	}

	conn, _, err := createConn(cfg)
	if err != nil {
		color.Red("Connection error, exiting: %s\n", err)
		return errors.Wrapf(err, "failed to connect to %s", cfg.Server)
	}
	defer conn.Close()

	transport := newTransport(conn)
	if err := transport.Join(name); err != nil {
		return errors.Wrap(err, "failed to join the session")
	}
	logger.WithFields(logrus.Fields{"server": cfg.Server, "name": name}).Info("connected")

	err = UI(conn, newClient(cfg, transport))
	if err != nil && !errors.Is(err, errExit) {
		fmt.Printf("linepad: %s\n", err)
		return err
	}
	return nil
}
