package flow

import (
	"errors"
	"os/exec"
	"runtime"
)

// Opener launches an interactive URL in a top-level browsing context.
// Opening is best-effort everywhere: a blocked or failed open is
// reported to the caller through Record.Opened, never as a launch
// failure, and the URL stays retrievable for manual opening.
type Opener interface {
	Open(url string) error
}

// NopOpener never opens anything. It is the default for embedders that
// surface the URL themselves.
type NopOpener struct{}

func (NopOpener) Open(string) error {
	return errors.New("no opener configured")
}

// ExecOpener hands the URL to the host's default browser.
type ExecOpener struct{}

func (ExecOpener) Open(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
