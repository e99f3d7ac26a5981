// Package launch builds the OpenClaw CLI invocation under a strict
// environment policy: the child starts from an empty environment, only
// allowlisted parent variables pass through, and user-supplied secrets
// are injected only when their names satisfy the API-key predicate.
package launch

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/openclaw/desktopd/internal/config"
	"github.com/openclaw/desktopd/internal/settings"
	"github.com/openclaw/desktopd/internal/shared/errs"
	"github.com/openclaw/desktopd/internal/shared/paths"
	"github.com/openclaw/desktopd/internal/terminal"
)

// termType is the terminal type advertised to the child.
const termType = "xterm-256color"

// nodeDisableWarning silences Node's experimental-feature banner, which
// would otherwise pollute the terminal stream on every launch.
const nodeDisableWarning = "--disable-warning=ExperimentalWarning"

// secretKeySuffix is the required suffix for injectable secret names.
const secretKeySuffix = "_API_KEY"

// maxSecretKeyLen bounds injectable secret names.
const maxSecretKeyLen = 64

// allowedArgs is the fixed set of CLI subcommand tokens the UI may pass.
var allowedArgs = map[string]struct{}{
	"onboard":       {},
	"--skip-daemon": {},
	"gateway":       {},
	"tui":           {},
}

// passthroughEnv lists the parent variables that are safe to hand to the
// child. Nothing else is inherited, so host credentials (cloud keys,
// tokens, connection strings) never reach the CLI.
var passthroughEnv = []string{
	// System identity
	"HOME", "USER", "LOGNAME", "SHELL",
	// Locale
	"LANG", "LC_ALL", "LC_CTYPE", "LC_MESSAGES", "LC_COLLATE",
	"LC_MONETARY", "LC_NUMERIC", "LC_TIME", "LANGUAGE",
	// Temp directories
	"TMPDIR", "TMP", "TEMP",
	// Display and session bus, needed if the CLI spawns GUI tools
	"DISPLAY", "WAYLAND_DISPLAY", "XDG_RUNTIME_DIR",
	// macOS text encoding
	"__CF_USER_TEXT_ENCODING",
	// SSH agent, needed for git operations inside the CLI
	"SSH_AUTH_SOCK", "SSH_AGENT_PID",
	// Proxy settings
	"HTTP_PROXY", "HTTPS_PROXY", "NO_PROXY",
	"http_proxy", "https_proxy", "no_proxy",
	// Node.js TLS
	"NODE_EXTRA_CA_CERTS",
}

// Builder resolves OpenClaw CLI invocations from settings and arguments.
type Builder struct {
	cfg config.LaunchConfig
}

// NewBuilder creates a builder bound to the daemon's launch configuration.
func NewBuilder(cfg config.LaunchConfig) *Builder {
	return &Builder{cfg: cfg}
}

// AllowedArgs returns the accepted subcommand tokens, sorted.
func AllowedArgs() []string {
	out := make([]string, 0, len(allowedArgs))
	for arg := range allowedArgs {
		out = append(out, arg)
	}
	sort.Strings(out)
	return out
}

// ValidateArgs rejects any token outside the fixed allowlist. It runs
// before any filesystem or process work so a bad request has no side
// effects.
func ValidateArgs(args []string) error {
	for _, arg := range args {
		if _, ok := allowedArgs[arg]; !ok {
			return errs.InvalidArgumentf("disallowed argument: %q", arg)
		}
	}
	return nil
}

// isAllowedSecretKey reports whether a settings key may become a child
// environment variable. Only names of at most 64 ASCII letters, digits,
// and underscores carrying the _API_KEY suffix qualify; anything else —
// PATH, LD_PRELOAD, arbitrary names — is dropped without error.
func isAllowedSecretKey(key string) bool {
	if len(key) > maxSecretKeyLen || !strings.HasSuffix(key, secretKeySuffix) {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return false
		}
	}
	return true
}

// Build resolves a complete, immutable child invocation: validated
// arguments, resolved binaries, a private state directory, and an
// explicitly constructed environment. Any resolution failure aborts
// before a spec is produced.
func (b *Builder) Build(s settings.Settings, args []string) (terminal.Spec, error) {
	if err := ValidateArgs(args); err != nil {
		return terminal.Spec{}, err
	}

	nodePath, err := b.nodeBinaryPath()
	if err != nil {
		return terminal.Spec{}, err
	}
	entryPath, err := b.entryPath()
	if err != nil {
		return terminal.Spec{}, err
	}
	stateDir, err := resolveStateDir()
	if err != nil {
		return terminal.Spec{}, err
	}

	env := make(map[string]string, len(passthroughEnv)+len(s.APIKeys)+4)

	// The environment starts empty; only allowlisted parent variables
	// survive into the child.
	for _, name := range passthroughEnv {
		if val, ok := os.LookupEnv(name); ok {
			env[name] = val
		}
	}

	env["TERM"] = termType

	// PATH is assembled here and only here. The secret filter below can
	// never introduce or override it.
	path := os.Getenv("PATH")
	if dir := filepath.Dir(nodePath); dir != "" && dir != "." {
		if path == "" {
			path = dir
		} else {
			path = dir + string(filepath.ListSeparator) + path
		}
	}
	if path != "" {
		env["PATH"] = path
	}

	env["OPENCLAW_NO_RESPAWN"] = "1"
	env["OPENCLAW_STATE_DIR"] = stateDir

	// User-supplied secrets: silently drop anything that fails the name
	// predicate or has an empty value.
	for key, value := range s.APIKeys {
		if value != "" && isAllowedSecretKey(key) {
			env[key] = value
		}
	}

	cmdArgs := make([]string, 0, len(args)+2)
	cmdArgs = append(cmdArgs, nodeDisableWarning, entryPath)
	cmdArgs = append(cmdArgs, args...)

	spec := terminal.Spec{
		Command: nodePath,
		Args:    cmdArgs,
		Env:     env,
	}
	if home, err := paths.Home(); err == nil {
		spec.Dir = home
	}
	return spec, nil
}
