package launch

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/openclaw/desktopd/internal/shared/errs"
	"github.com/openclaw/desktopd/internal/shared/paths"
)

// devEntryEnv names a development override for the CLI entry point.
const devEntryEnv = "DEV_OPENCLAW_PATH"

func nodeName() string {
	if runtime.GOOS == "windows" {
		return "node.exe"
	}
	return "node"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// nodeBinaryPath resolves the Node.js runtime. The bundled copy under
// the resource dir wins; development mode may fall back to the host's
// node. Production with no bundled runtime is a hard error.
func (b *Builder) nodeBinaryPath() (string, error) {
	bundled := ""
	if b.cfg.ResourceDir != "" {
		bundled = filepath.Join(b.cfg.ResourceDir, "resources", nodeName())
		if fileExists(bundled) {
			return bundled, nil
		}
	}

	if b.cfg.Development {
		if node, err := exec.LookPath(nodeName()); err == nil {
			return node, nil
		}
	}

	if bundled == "" {
		return "", errs.NotFoundf("bundled node runtime (resource dir not configured)")
	}
	return "", errs.NotFoundf("bundled node runtime at %s", bundled)
}

// entryPath resolves the OpenClaw CLI entry script. Bundled resources
// win; development mode also honors DEV_OPENCLAW_PATH and a checkout
// next to the working directory.
func (b *Builder) entryPath() (string, error) {
	bundled := ""
	if b.cfg.ResourceDir != "" {
		bundled = filepath.Join(b.cfg.ResourceDir, "resources", "openclaw", "openclaw.mjs")
		if fileExists(bundled) {
			return bundled, nil
		}
	}

	if b.cfg.Development {
		if devPath := os.Getenv(devEntryEnv); devPath != "" && fileExists(devPath) {
			return devPath, nil
		}
		local := filepath.Join("openclaw", "openclaw.mjs")
		if fileExists(local) {
			return local, nil
		}
	}

	if bundled == "" {
		return "", errs.NotFoundf("openclaw entry point (resource dir not configured)")
	}
	return "", errs.NotFoundf("openclaw entry point; checked bundled %s", bundled)
}

// resolveStateDir creates, if needed, the private state directory handed
// to the CLI, and tightens both it and its parent to owner-only. The
// chmod happens every time so a pre-existing directory with looser
// permissions is corrected too.
func resolveStateDir() (string, error) {
	base, err := paths.StateBaseDir()
	if err != nil {
		return "", errs.OSResource("resolve state dir", err)
	}
	state, err := paths.StateDir()
	if err != nil {
		return "", errs.OSResource("resolve state dir", err)
	}
	if err := paths.EnsureOwnerOnly(base); err != nil {
		return "", errs.OSResource("create state dir", err)
	}
	if err := paths.EnsureOwnerOnly(state); err != nil {
		return "", errs.OSResource("create state dir", err)
	}
	return state, nil
}

// Configured reports whether the OpenClaw CLI has completed onboarding,
// which it marks by writing openclaw.json into its state directory.
func Configured() bool {
	state, err := resolveStateDir()
	if err != nil {
		return false
	}
	return fileExists(filepath.Join(state, paths.ConfiguredMarker))
}
