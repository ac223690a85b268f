package chromepage

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/playwright-community/playwright-go"
)

// ResolveChromePath resolves the Chrome executable path in the following order:
// 1. If explicitPath is non-empty, use it
// 2. If CHROME_PATH environment variable is set, use it
// 3. Fall back to system defaults (chromium → chrome order per platform)
func ResolveChromePath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if envPath := os.Getenv("CHROME_PATH"); envPath != "" {
		return envPath
	}

	return findSystemChrome()
}

// InstallChromium downloads Playwright's Chromium build into the Playwright
// cache and returns its executable path.
func InstallChromium() (string, error) {
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		return "", fmt.Errorf("install chromium: %w", err)
	}

	pw, err := playwright.Run(&playwright.RunOptions{SkipInstallBrowsers: true})
	if err != nil {
		return "", fmt.Errorf("start playwright: %w", err)
	}
	defer pw.Stop()

	path := pw.Chromium.ExecutablePath()
	if path == "" {
		return "", fmt.Errorf("playwright reported no chromium executable")
	}
	return path, nil
}

// findSystemChrome searches for Chrome/Chromium in system default locations.
func findSystemChrome() string {
	var candidates []string

	switch runtime.GOOS {
	case "darwin":
		candidates = []string{
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		}
	case "linux":
		candidates = []string{
			"chromium",
			"chromium-browser",
			"google-chrome-stable",
			"google-chrome",
		}
	case "windows":
		for _, env := range []string{"PROGRAMFILES", "PROGRAMFILES(X86)", "LOCALAPPDATA"} {
			if dir := os.Getenv(env); dir != "" {
				candidates = append(candidates,
					dir+"\\Chromium\\Application\\chrome.exe",
					dir+"\\Google\\Chrome\\Application\\chrome.exe",
				)
			}
		}
	}

	for _, candidate := range candidates {
		if path := resolveExecutable(candidate); path != "" {
			return path
		}
	}
	return ""
}

// resolveExecutable checks full paths with os.Stat and bare names with
// exec.LookPath.
func resolveExecutable(nameOrPath string) string {
	if len(nameOrPath) > 0 && (nameOrPath[0] == '/' || (len(nameOrPath) > 1 && nameOrPath[1] == ':')) {
		if _, err := os.Stat(nameOrPath); err == nil {
			return nameOrPath
		}
		return ""
	}

	if path, err := exec.LookPath(nameOrPath); err == nil {
		return path
	}
	return ""
}
