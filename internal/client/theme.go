package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Theme is the persisted terminal palette preference.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// Icon is the indicator shown for the theme.
func (t Theme) Icon() string {
	if t == ThemeLight {
		return "☀️"
	}
	return "🌙"
}

// Prefs is the on-disk preference file.
type Prefs struct {
	Theme Theme `json:"theme"`
}

// LoadPrefs reads prefs from path. A missing file yields the dark theme.
func LoadPrefs(path string) (Prefs, error) {
	p := Prefs{Theme: ThemeDark}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read prefs: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Prefs{Theme: ThemeDark}, fmt.Errorf("parse prefs: %w", err)
	}
	if p.Theme != ThemeLight {
		p.Theme = ThemeDark
	}
	return p, nil
}

// SavePrefs writes prefs to path, creating parent directories.
func SavePrefs(path string, p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// ToggleTheme flips the stored theme and returns the new one.
func ToggleTheme(path string) (Theme, error) {
	p, err := LoadPrefs(path)
	if err != nil {
		return "", err
	}
	p.Theme = p.Theme.Toggle()
	if err := SavePrefs(path, p); err != nil {
		return "", err
	}
	return p.Theme, nil
}
