package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Rezanikmanesh-79/Karamoozi/config"
	"github.com/Rezanikmanesh-79/Karamoozi/logger"
)

const appName = "karamoozi"

// AppFlags holds the persistent flags shared by every command
type AppFlags struct {
	EnvFile string
	Output  string
	Driver  string
}

// Flags are the parsed persistent flags
var Flags AppFlags

var globalConfig *config.Config

var rootCmd = &cobra.Command{
	Use:               appName,
	Short:             "E-commerce catalog crawler",
	Long:              `Crawls every product category of an e-commerce site, writes the products to one JSON corpus file and reads that corpus back for downstream consumers.`,
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&Flags.EnvFile, "env-file", ".env", "dotenv file loaded before the environment")
	rootCmd.PersistentFlags().StringVarP(&Flags.Output, "output", "o", "", "corpus file path (overrides OUTPUT_PATH)")
	rootCmd.PersistentFlags().StringVar(&Flags.Driver, "driver", "", "page driver: chrome or http (overrides DRIVER)")

	rootCmd.AddCommand(crawlCmd, catalogCmd)
}

// initApp loads the configuration and sets up logging before any command runs
func initApp(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(Flags.EnvFile)
	if err != nil {
		return err
	}
	// Logging reads LOG_LEVEL, which the env file may set.
	logger.Init()

	if Flags.Output != "" {
		cfg.OutputPath = Flags.Output
	}
	if Flags.Driver != "" {
		cfg.Driver = Flags.Driver
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	globalConfig = cfg
	return nil
}

// GetConfig returns the configuration loaded for the running command
func GetConfig() *config.Config {
	return globalConfig
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
