package cmds

import (
	"dsclient/internal/api"
	"dsclient/internal/app"
	"dsclient/internal/config"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	v           *viper.Viper
	current     *app.App
	stopMetrics chan<- struct{}
	metricsDone <-chan error

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dsctl",
		Short: "access persistent data stores",
		Long: `dsctl reads and writes data stores through the same client library a
game server uses, including version negotiation, capability checks and
store listing.`,
		SilenceUsage:       true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}
)

func init() {
	cobra.OnInitialize(func() { v = config.New() })
	config.SetupFlags(RootCmd)

	RootCmd.AddCommand(getCmd, setCmd, incrCmd, removeCmd, listCmd, legacyGetCmd, flagCmd)
}

// setup loads the configuration, builds the service and starts the metrics
// server when one is configured.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(v, cmd)
	if err != nil {
		return err
	}
	current, err = app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if cfg.MetricsAddr != "" {
		stopMetrics, metricsDone = api.RunServerInterruptible(cfg.MetricsAddr, current.Registry)
	}
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if stopMetrics != nil {
		stopMetrics <- struct{}{}
		if err := <-metricsDone; err != nil {
			log.WithError(err).Warn("metrics server")
		}
	}
	if current != nil {
		return current.Close()
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
