package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bnema/glint/internal/config"
	"github.com/bnema/glint/internal/logger"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Glint configuration",
	Long:  `Inspect and modify the Glint configuration file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		logger.Info("Current Configuration:")
		logger.Infof("Config file: %s\n", config.GetConfigPath())

		logger.Info("[Window]")
		logger.Infof("  Title: %s", cfg.Window.Title)
		logger.Infof("  App ID: %s", cfg.Window.AppID)
		logger.Infof("  Size: %dx%d", cfg.Window.Width, cfg.Window.Height)
		logger.Infof("  Decorations: %s", cfg.Window.Decorations)

		logger.Info("\n[Render]")
		logger.Infof("  FPS: %d", cfg.Render.FPS)

		logger.Info("\n[Logging]")
		logger.Infof("  Level: %s", cfg.Logging.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and write it back to the config file.
Keys use dotted paths, e.g. window.title or render.fps.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetValue(args[0], args[1]); err != nil {
			return err
		}
		logger.Infof("Set %s = %s", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
