package app

import (
	"net"
	"os/exec"
	"runtime"
)

// dashboardURL turns a listen address into a browsable URL.
func dashboardURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func browserCommand(goos, url string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.Command("open", url)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return exec.Command("xdg-open", url)
	}
}

// OpenDashboard opens the dashboard in the default browser.
func (a *App) OpenDashboard() {
	url := a.DashboardURL()
	if err := browserCommand(runtime.GOOS, url).Start(); err != nil {
		a.log.WithError(err).WithField("url", url).Warn("failed to open browser")
	}
}
