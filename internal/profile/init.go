package profile

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// InitOptions describes the one-off browser launch that lets the browser
// populate a fresh profile before measurement starts.
type InitOptions struct {
	BrowserPath string
	ExtraArgs   []string
	// optional wrapper argv; the browser command follows after "--"
	Controller []string
	InitURL    string
	Env        []string
	Timeout    time.Duration
	PollEvery  time.Duration
}

// InitializeProfile runs the browser against profileDir at InitURL and waits
// for it to exit by itself. The browser is killed when Timeout passes.
func (m *Manager) InitializeProfile(profileDir string, opts InitOptions) error {
	if opts.InitURL == "" {
		return nil
	}
	if opts.PollEvery <= 0 {
		opts.PollEvery = time.Second
	}
	env := opts.Env
	if env == nil {
		env = os.Environ()
	}

	argv := CommandLine(opts.Controller, opts.BrowserPath, opts.ExtraArgs, profileDir, opts.InitURL)
	h, err := m.launcher.Launch(argv, env)
	if err != nil {
		return fmt.Errorf("failed to launch browser for profile initialization: %w", err)
	}

	var waited time.Duration
	for {
		st := m.launcher.Poll(h)
		if st.Exited {
			m.logger.Debug("profile initialized", "dir", profileDir, "exit_code", st.ExitCode)
			return nil
		}
		if opts.Timeout > 0 && waited >= opts.Timeout {
			_ = m.launcher.Terminate(h)
			return fmt.Errorf("browser did not exit within %s while initializing profile", opts.Timeout)
		}
		m.sleep(opts.PollEvery)
		waited += opts.PollEvery
	}
}

// CommandLine builds "[controller... --] browser extraArgs... -profile dir url...".
// The url is split on whitespace so test urls may carry extra arguments.
func CommandLine(controller []string, browserPath string, extraArgs []string, profileDir string, url string) []string {
	var argv []string
	if len(controller) > 0 {
		argv = append(argv, controller...)
		argv = append(argv, "--")
	}
	argv = append(argv, browserPath)
	argv = append(argv, extraArgs...)
	if profileDir != "" {
		argv = append(argv, "-profile", profileDir)
	}
	argv = append(argv, strings.Fields(url)...)
	return argv
}
