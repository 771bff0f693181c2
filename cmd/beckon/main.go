// Beckon is a voice command assistant: say the wake word, then ask it to
// open an application, a website, or a search on a known platform.
//
// Usage:
//
//	beckon [flags]                 run the voice session and the transports
//	beckon serve                   run the transports only
//	beckon exec open spotify       run one typed command
//	beckon trigger                 push-to-talk trigger for a running daemon
//	beckon vocab                   print the effective vocabulary as YAML
//	beckon say hello there         test the announcement voice
//	beckon test                    check the microphone and each speech engine
//	beckon --config /path/to/beckon.yaml
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nadzzz/beckon/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

var configFile string

// rootCmd runs the daemon.
var rootCmd = &cobra.Command{
	Use:   "beckon",
	Short: "Voice command assistant",
	Long: `Beckon listens for its wake word, then captures one command and acts on it:
launching an application, opening a website, or searching a platform such as
YouTube or Google. Typed commands are also accepted over HTTP, gRPC and MQTT.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDaemon(cmd.Context(), true)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (e.g. configs/beckon.yaml)")
	rootCmd.SetVersionTemplate("beckon {{.Version}}\n")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(triggerCmd)
	rootCmd.AddCommand(vocabCmd)
	rootCmd.AddCommand(sayCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("beckon failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and installs the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	config.SetupLogging(cfg.Logging)
	return cfg, nil
}
