package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckFFprobe reports the ffprobe binary that pairs with ffmpegCommand.
//
// An explicitly configured ffprobe wins. Otherwise an ffprobe that sits next
// to the resolved ffmpeg binary is preferred, so a static ffmpeg bundle is
// probed with its own ffprobe, and PATH is the fallback.
func CheckFFprobe(ffmpegCommand, ffprobeCommand string, optional bool) Status {
	result := Status{
		Name:        "FFprobe",
		Description: "Measures segment and artifact durations",
		Optional:    optional,
	}

	if explicit := strings.TrimSpace(ffprobeCommand); explicit != "" && explicit != "ffprobe" {
		result.Command = explicit
		resolved, err := exec.LookPath(explicit)
		if err != nil {
			result.Detail = fmt.Sprintf("binary %q not found", explicit)
			return result
		}
		result.Path = resolved
		result.Available = true
		return result
	}

	if ffmpegBinary := strings.TrimSpace(ffmpegCommand); ffmpegBinary != "" {
		if resolved, err := exec.LookPath(ffmpegBinary); err == nil {
			if candidate, ok := sidecarCandidate(resolved, "ffprobe"); ok {
				if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
					result.Command = candidate
					result.Path = candidate
					result.Available = true
					return result
				}
			}
		}
	}

	if ffprobePath, err := exec.LookPath("ffprobe"); err == nil {
		result.Command = ffprobePath
		result.Path = ffprobePath
		result.Available = true
		return result
	}

	result.Command = "ffprobe"
	result.Detail = fmt.Sprintf("binary %q not found", "ffprobe")
	return result
}

func sidecarCandidate(primaryPath, name string) (string, bool) {
	if primaryPath == "" {
		return "", false
	}
	dir := filepath.Dir(primaryPath)
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(dir, name), true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
