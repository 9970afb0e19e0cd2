// Package prefs persists small user preferences next to the config file.
package prefs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jask/jaskbills/internal/selection"
)

// selectionFile stores a cleared selection as "provider": null so that a
// deliberate "none" survives restarts.
type selectionFile struct {
	Provider *string `json:"provider"`
}

// Saved is a persisted selection. OK is false when the selection was cleared.
type Saved struct {
	Provider string
	OK       bool
}

// Load reads the persisted provider selection. found is false when nothing
// was ever saved at path.
func Load(path string) (s Saved, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Saved{}, false, nil
		}
		return Saved{}, false, err
	}
	var f selectionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return Saved{}, false, fmt.Errorf("parse %s: %w", path, err)
	}
	if f.Provider == nil || strings.TrimSpace(*f.Provider) == "" {
		return Saved{}, true, nil
	}
	return Saved{Provider: *f.Provider, OK: true}, true, nil
}

// Save writes the selection atomically. Saving with ok=false records a cleared selection.
func Save(path, id string, ok bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var f selectionFile
	if ok {
		f.Provider = &id
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Bind restores the saved selection into sel, falling back to def only when
// nothing was ever saved, and then keeps the file in step with every later
// write or clear.
func Bind(sel *selection.Selection, path, def string) (func(), error) {
	saved, found, err := Load(path)
	if err != nil {
		return nil, err
	}
	if !found && strings.TrimSpace(def) != "" {
		saved = Saved{Provider: strings.TrimSpace(def), OK: true}
	}
	if saved.OK {
		sel.Write(saved.Provider)
	}
	return sel.Subscribe(func(id string, ok bool) {
		if err := Save(path, id, ok); err != nil {
			slog.Warn("prefs: save selection", "path", path, "err", err)
		}
	}), nil
}
