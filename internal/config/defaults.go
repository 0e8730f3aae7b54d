// Package config handles configuration loading and validation for forcify.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/forcify/
//   - Linux:   ~/.config/forcify/
//   - Windows: %APPDATA%\forcify\
//
// Falls back to ~/.forcify if platform detection fails.
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSConfigDir()
	case "linux":
		return linuxConfigDir()
	case "windows":
		return windowsConfigDir()
	default:
		return fallbackDir()
	}
}

func macOSConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, "Library", "Application Support", "forcify")
}

// Linux follows the XDG Base Directory Specification.
func linuxConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "forcify")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "forcify")
}

func windowsConfigDir() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "forcify")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "AppData", "Roaming", "forcify")
}

func fallbackDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".forcify")
}

// ForcifyDir returns the base forcify directory. FORCIFY_CONFIG_DIR
// overrides the platform default.
func ForcifyDir() string {
	if envDir := os.Getenv("FORCIFY_CONFIG_DIR"); envDir != "" {
		return envDir
	}
	return PlatformConfigDir()
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(ForcifyDir(), "config.toml")
}
