// Package paths provides the canonical per-user filesystem locations.
//
// All components resolve settings and state locations through this package
// so the directory layout stays consistent with what the UI and the
// OpenClaw CLI expect:
//
//	~/.clawrunner/settings.json             (persisted user settings)
//	~/.openclaw-desktop/openclaw-state/     (private OpenClaw state dir)
//
// Both trees are owner-only (0700 directories, 0600 files): the settings
// file carries API keys and the state dir carries the CLI's credentials.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// Directory and file names under the user's home.
const (
	SettingsDirName  = ".clawrunner"
	SettingsFileName = "settings.json"
	StateBaseName    = ".openclaw-desktop"
	StateDirName     = "openclaw-state"

	// ConfiguredMarker is the file whose presence in the state dir means
	// the OpenClaw CLI has completed onboarding.
	ConfiguredMarker = "openclaw.json"
)

// OwnerOnlyDir is the mode enforced on every directory this backend creates.
const OwnerOnlyDir os.FileMode = 0o700

// OwnerOnlyFile is the mode enforced on every file this backend writes.
const OwnerOnlyFile os.FileMode = 0o600

// Home returns the current user's home directory.
func Home() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return home, nil
}

// SettingsDir returns ~/.clawrunner.
func SettingsDir() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, SettingsDirName), nil
}

// SettingsFile returns ~/.clawrunner/settings.json.
func SettingsFile() (string, error) {
	dir, err := SettingsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// StateBaseDir returns ~/.openclaw-desktop.
func StateBaseDir() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, StateBaseName), nil
}

// StateDir returns ~/.openclaw-desktop/openclaw-state.
func StateDir() (string, error) {
	base, err := StateBaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, StateDirName), nil
}

// EnsureOwnerOnly creates dir if absent and then enforces 0700 on it.
// The chmod runs unconditionally so a pre-existing directory with looser
// permissions is tightened too; chmod failures are ignored (the directory
// may live on a filesystem without POSIX permissions).
func EnsureOwnerOnly(dir string) error {
	if err := os.MkdirAll(dir, OwnerOnlyDir); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	_ = os.Chmod(dir, OwnerOnlyDir)
	return nil
}
