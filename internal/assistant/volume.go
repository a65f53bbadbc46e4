package assistant

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// ExecVolume adjusts system audio through platform commands. Best effort:
// unsupported platforms report an error and the dispatcher apologizes.
type ExecVolume struct{}

var _ VolumeController = ExecVolume{}

// Up raises the output volume one step.
func (ExecVolume) Up(ctx context.Context) error {
	return volumeCommand(ctx, "+5%", "set volume output volume ((output volume of (get volume settings)) + 10)")
}

// Down lowers the output volume one step.
func (ExecVolume) Down(ctx context.Context) error {
	return volumeCommand(ctx, "-5%", "set volume output volume ((output volume of (get volume settings)) - 10)")
}

// Mute silences output.
func (ExecVolume) Mute(ctx context.Context) error {
	return muteCommand(ctx, "1", "set volume with output muted")
}

// Unmute restores output.
func (ExecVolume) Unmute(ctx context.Context) error {
	return muteCommand(ctx, "0", "set volume without output muted")
}

func volumeCommand(ctx context.Context, pactlDelta, osaScript string) error {
	switch runtime.GOOS {
	case "linux":
		return run(ctx, "pactl", "set-sink-volume", "@DEFAULT_SINK@", pactlDelta)
	case "darwin":
		return run(ctx, "osascript", "-e", osaScript)
	default:
		return fmt.Errorf("assistant: volume control not supported on %s", runtime.GOOS)
	}
}

func muteCommand(ctx context.Context, pactlState, osaScript string) error {
	switch runtime.GOOS {
	case "linux":
		return run(ctx, "pactl", "set-sink-mute", "@DEFAULT_SINK@", pactlState)
	case "darwin":
		return run(ctx, "osascript", "-e", osaScript)
	default:
		return fmt.Errorf("assistant: volume control not supported on %s", runtime.GOOS)
	}
}

func run(ctx context.Context, name string, args ...string) error {
	if err := exec.CommandContext(ctx, name, args...).Run(); err != nil {
		return fmt.Errorf("assistant: %s failed: %w", name, err)
	}
	return nil
}
