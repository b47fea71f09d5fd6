package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"demo-labeler/labeler"
	"demo-labeler/services"
	"demo-labeler/tui"
)

var (
	labelDemo    string
	labelBackend string
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Open the interactive labeler",
	Long: `Label the frames of a demo from the terminal.

Playback labels every frame it passes with the armed mode (GOOD or BAD).

Keys:
  space        play / pause
  left/right   previous / next frame (shift: 10 frames)
  home/end     first / last frame
  g / b        arm GOOD / BAD
  enter / u    label / unset the current frame
  c            next camera
  X            clear every label of the demo
  d            back to the demo list
  q            quit`,
	Args: cobra.NoArgs,
	RunE: runLabel,
}

func init() {
	labelCmd.Flags().StringVar(&labelDemo, "demo", "", "Demo to open right away")
	labelCmd.Flags().StringVar(&labelBackend, "backend", "", "Labeling service URL")
}

func runLabel(cmd *cobra.Command, args []string) error {
	if !isInteractiveTerminal() {
		return fmt.Errorf("label needs an interactive terminal")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if labelBackend != "" {
		cfg.Client.BackendURL = labelBackend
	}
	// the terminal belongs to the UI
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(filepath.Dir(cfg.Client.StateFile), "labeler.log")
	}

	logger, closer, err := newLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	remote, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	state := services.NewStateService(cfg.Client.StateFile, logger)
	saved := state.GetState()

	ctrl := labeler.NewController(remote, labeler.Options{
		Logger:         logger,
		RequestTimeout: cfg.Client.RequestTimeout,
	})
	defer ctrl.Close()

	if mode, err := labeler.ModeFromLabel(saved.Mode); err == nil {
		ctrl.SetMode(mode)
	}
	if saved.Camera != "" {
		ctrl.PreferCamera(saved.Camera)
	}

	initial := labelDemo
	if initial == "" {
		initial = saved.Demo
	}

	logger.Info("starting labeler", "backend", cfg.Client.BackendURL, "demo", initial)
	model := tui.New(ctrl, remote, tui.Options{
		InitialDemo: initial,
		State:       state,
		Logger:      logger,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("labeler failed: %w", err)
	}
	return nil
}

func isTerminalFD(f *os.File) bool {
	if f == nil {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func isInteractiveTerminal() bool {
	if !isTerminalFD(os.Stdin) || !isTerminalFD(os.Stdout) {
		return false
	}
	term := strings.TrimSpace(strings.ToLower(os.Getenv("TERM")))
	return term != "" && term != "dumb"
}
