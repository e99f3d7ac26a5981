package settings

import (
	"maps"
	"os"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/openclaw/desktopd/internal/shared/errs"
	"github.com/openclaw/desktopd/internal/shared/paths"
)

// Settings holds user-editable configuration persisted to disk.
type Settings struct {
	APIKeys map[string]string `json:"apiKeys"`
}

// Default returns empty settings.
func Default() Settings {
	return Settings{APIKeys: map[string]string{}}
}

// clone returns a deep copy so callers never share the key map.
func (s Settings) clone() Settings {
	out := Settings{APIKeys: make(map[string]string, len(s.APIKeys))}
	maps.Copy(out.APIKeys, s.APIKeys)
	return out
}

// Load reads settings from disk. Any failure (missing file, unreadable
// file, malformed JSON) yields defaults rather than an error so a
// corrupted settings file never blocks startup.
func Load() Settings {
	path, err := paths.SettingsFile()
	if err != nil {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Default()
	}

	var s Settings
	if err := sonic.Unmarshal(data, &s); err != nil {
		return Default()
	}
	if s.APIKeys == nil {
		s.APIKeys = map[string]string{}
	}
	return s
}

// Save writes settings to disk atomically: the payload goes to a temp
// file opened with owner-only permissions, is fsynced, renamed over the
// live file, and the parent directory is fsynced so the rename survives
// a crash. The settings directory is created (and tightened to 0700)
// first.
func Save(s Settings) error {
	dir, err := paths.SettingsDir()
	if err != nil {
		return errs.OSResource("resolve settings dir", err)
	}
	if err := paths.EnsureOwnerOnly(dir); err != nil {
		return errs.OSResource("create settings dir", err)
	}

	path, err := paths.SettingsFile()
	if err != nil {
		return errs.OSResource("resolve settings file", err)
	}

	content, err := sonic.MarshalIndent(s, "", "  ")
	if err != nil {
		return errs.IO("encode settings", err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, paths.OwnerOnlyFile)
	if err != nil {
		return errs.IO("open temp settings file", err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(tmp)
		return errs.IO("write settings", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errs.IO("sync settings", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errs.IO("close settings", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errs.IO("replace settings", err)
	}

	// Sync the parent directory so the rename is durable on ext4.
	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}

	return nil
}

// Store is the in-memory view of settings shared across handlers.
// Reads and writes are guarded; Get hands out copies so no caller can
// mutate the shared map.
type Store struct {
	mu      sync.RWMutex
	current Settings
}

// NewStore seeds a store, normally with Load().
func NewStore(initial Settings) *Store {
	if initial.APIKeys == nil {
		initial.APIKeys = map[string]string{}
	}
	return &Store{current: initial}
}

// Get returns a copy of the current settings.
func (st *Store) Get() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current.clone()
}

// Set replaces the current settings.
func (st *Store) Set(s Settings) {
	if s.APIKeys == nil {
		s.APIKeys = map[string]string{}
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.current = s.clone()
}
