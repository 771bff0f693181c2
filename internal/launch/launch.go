// Package launch starts desktop applications and opens URLs in the default
// browser. Launches are fire-and-forget: the child process is started and
// reaped in the background, never supervised.
package launch

import (
	"context"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/pkg/browser"
)

// Launcher performs the two external actions a command can trigger.
// Both report only whether the attempt succeeded.
type Launcher interface {
	LaunchApplication(ctx context.Context, target string) bool
	OpenURL(ctx context.Context, url string) bool
}

// System launches through the host OS.
type System struct {
	goos    string
	openURL func(string) error
}

// NewSystem creates a Launcher for the running OS.
func NewSystem() *System {
	return &System{goos: runtime.GOOS, openURL: browser.OpenURL}
}

// LaunchApplication starts the application named by target: "open -a" on
// macOS, "start" on Windows and a direct exec elsewhere.
func (s *System) LaunchApplication(ctx context.Context, target string) bool {
	name, args := appCommand(s.goos, target)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		slog.ErrorContext(ctx, "failed to launch application", "target", target, "error", err)
		return false
	}
	slog.InfoContext(ctx, "application launched", "target", target, "pid", cmd.Process.Pid)
	go func() {
		if err := cmd.Wait(); err != nil {
			slog.Debug("application exited", "target", target, "error", err)
		}
	}()
	return true
}

// OpenURL opens url in the default browser.
func (s *System) OpenURL(ctx context.Context, url string) bool {
	if err := s.openURL(url); err != nil {
		slog.ErrorContext(ctx, "failed to open url", "url", url, "error", err)
		return false
	}
	slog.InfoContext(ctx, "url opened", "url", url)
	return true
}

func appCommand(goos, target string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{"-a", target}
	case "windows":
		return "cmd", []string{"/c", "start", "", target}
	default:
		return target, nil
	}
}
