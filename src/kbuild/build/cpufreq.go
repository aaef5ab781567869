package build

import (
	"context"
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// isRaspberryPi reports whether the host device-tree model names a
// Raspberry Pi board.
func isRaspberryPi() bool {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "Raspberry Pi")
}

// pinPerformanceGovernor switches the CPU frequency governor to
// performance on Raspberry Pi hosts before a build. Best effort: a
// missing cpupower or a failed switch only warns.
func pinPerformanceGovernor(ctx context.Context, r Runner) {
	if !isRaspberryPi() {
		return
	}
	if _, err := r.LookPath("cpupower"); err != nil {
		log.Warn("cpupower not found, leaving CPU governor unchanged")
		return
	}
	if err := r.Run(ctx, RunOpts{
		Argv: []string{"cpupower", "frequency-set", "-g", "performance"},
	}); err != nil {
		log.Warn("Failed to set performance governor", "error", err)
	}
}
