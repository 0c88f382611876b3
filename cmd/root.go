package cmd

import (
	"github.com/spf13/cobra"
)

var (
	configPath  string
	deviceFlag  string
	monitorFlag string
)

var rootCmd = &cobra.Command{
	Use:   "sdi12bridged",
	Short: "SDI-12 wireless sensor bridge daemon",
	Long: `sdi12bridged presents wireless sensor nodes to an SDI-12 data recorder
as directly attached sensors.

It answers the recorder's Measure/Verify/Concurrent commands on behalf of
the configured addresses, raises service requests when node readings
arrive, and streams protocol traces to dashboards over websocket.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML configuration file")
	rootCmd.Flags().StringVarP(&deviceFlag, "device", "d", "", "Serial device (overrides the config file)")
	rootCmd.Flags().StringVarP(&monitorFlag, "monitor", "m", "", "Monitor listen address (overrides the config file)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
