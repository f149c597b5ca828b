package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bnema/glint/internal/config"
	"github.com/bnema/glint/internal/logger"
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	configPath string

	rootCmd = &cobra.Command{
		Use:   "glint",
		Short: "Glint - animated Wayland window",
		Long: `Glint opens a toplevel Wayland window and animates its background color.
It talks the protocol directly over the display socket: registry discovery,
the xdg-shell configure handshake, shared-memory buffers and, when the
compositor offers it, server-side decorations.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				config.SetConfigPath(configPath)
			}
			if err := config.Init(); err != nil {
				return err
			}
			logger.SetLevel(config.Get().Logging.LogLevel)
			return nil
		},
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	// Add commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
}
