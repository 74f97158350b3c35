package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "sentinel",
	Short:         "Fit support and resistance trendlines over a sliding window",
	SilenceErrors: true,
}

func init() {
	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	rootCmd.PersistentFlags().String("config", defaultCfg, "path to the YAML config (env CONFIG_PATH)")

	scanCmd.Flags().Int("rows", 10, "number of trailing rows to print")
	scanCmd.Flags().Bool("record", true, "record the run to the configured sinks")
	rootCmd.AddCommand(scanCmd, runCmd)
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}
