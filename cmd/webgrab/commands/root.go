// Package commands implements the CLI commands for webgrab.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "webgrab",
	Short: "Website crawler that archives pages as markdown",
	Long: `Webgrab fetches a page, extracts its links, and persists a cleaned
markdown copy of everything it visits plus a manifest of discovered media.

Examples:
  # Archive a single page and record its links
  webgrab crawl https://example.com

  # Follow links breadth-first up to depth 3
  webgrab crawl https://example.com --deep

  # Deep crawl and download discovered images and files
  webgrab crawl https://example.com --deep --download

  # Keep unwanted hosts out of the crawl
  webgrab crawl https://example.com --deep --exclude-file excluded.txt`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.webgrab.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".webgrab")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("WEBGRAB")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
