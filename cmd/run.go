package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnema/glint/internal/config"
	"github.com/bnema/glint/internal/logger"
	"github.com/bnema/glint/internal/render"
	"github.com/bnema/glint/internal/wayland"
	"github.com/bnema/glint/internal/window"
)

// configureTimeout bounds the startup wait for the compositor's first
// configure. Past it the compositor is considered unresponsive.
const configureTimeout = 5 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the window and run the frame loop",
	Long: `Open a toplevel window on the Wayland display and animate it until the
compositor asks it to close or the process is interrupted.`,
	RunE: runWindow,
}

func init() {
	runCmd.Flags().StringP("title", "t", "", "Window title")
	runCmd.Flags().String("app-id", "", "Application id")
	runCmd.Flags().IntP("width", "W", 0, "Initial window width")
	runCmd.Flags().IntP("height", "H", 0, "Initial window height")
	runCmd.Flags().Int("fps", 0, "Frame cadence")
	runCmd.Flags().String("decorations", "", "Decoration mode to request (server or client)")

	// Bind flags to viper
	viper.BindPFlag("window.title", runCmd.Flags().Lookup("title"))
	viper.BindPFlag("window.app_id", runCmd.Flags().Lookup("app-id"))
	viper.BindPFlag("window.width", runCmd.Flags().Lookup("width"))
	viper.BindPFlag("window.height", runCmd.Flags().Lookup("height"))
	viper.BindPFlag("render.fps", runCmd.Flags().Lookup("fps"))
	viper.BindPFlag("window.decorations", runCmd.Flags().Lookup("decorations"))
}

func runWindow(cmd *cobra.Command, args []string) error {
	// Root context canceled on interrupt for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	client, err := wayland.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to Wayland display: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Errorf("Failed to close display connection: %v", err)
		}
	}()

	session := window.NewSession(client.Capabilities(), cfg.Window)
	if err := session.Create(); err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer func() {
		if err := session.Destroy(); err != nil {
			logger.Errorf("Failed to destroy window: %v", err)
		}
	}()

	// One roundtrip before the pump takes over the socket, so a protocol
	// error in the window creation batch surfaces here instead of killing
	// the pump silently.
	if err := client.Roundtrip(); err != nil {
		return fmt.Errorf("window creation roundtrip failed: %w", err)
	}
	client.StartPump()

	if err := session.WaitConfigured(configureTimeout); err != nil {
		return fmt.Errorf("window never became ready: %w", err)
	}
	logger.Infof("Window configured at %v, decorations %v", session.Size(), session.DecorationMode())

	caps := client.Capabilities()
	binding, err := render.NewBinding(caps.Shm, session.Surface(), caps.ShmFormats, session.Size())
	if err != nil {
		return fmt.Errorf("failed to create render binding: %w", err)
	}
	defer binding.Destroy()

	return render.NewLoop(session, binding, cfg.Render.FPS).Run(ctx)
}
