package service

import (
	_ "embed"

	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"crop-catch/internal/kv"
	"crop-catch/internal/session"

	"gopkg.in/yaml.v3"
)

//go:embed settings_defaults.yaml
var defaultSettingsYAML []byte

const settingsKey = "crop-catch-settings"

// Settings is grouped by section (general, business, ...).
type Settings map[string]map[string]any

// DefaultSettings returns a fresh copy of the built-in defaults.
func DefaultSettings() Settings {
	var s Settings
	if err := yaml.Unmarshal(defaultSettingsYAML, &s); err != nil {
		panic(fmt.Sprintf("default settings: %v", err))
	}
	return s
}

// mergeOver overlays stored values on the defaults section by section.
// Sections unknown to the defaults are kept as stored.
func mergeOver(defaults, stored Settings) Settings {
	out := Settings{}
	for name, section := range defaults {
		merged := map[string]any{}
		for k, v := range section {
			merged[k] = v
		}
		for k, v := range stored[name] {
			merged[k] = v
		}
		out[name] = merged
	}
	for name, section := range stored {
		if _, ok := out[name]; !ok {
			out[name] = section
		}
	}
	return out
}

type SettingsService struct {
	store kv.Store
	admin Admin
	audit Audit
	now   func() time.Time
}

func NewSettingsService(store kv.Store, admin Admin, audit Audit) *SettingsService {
	return &SettingsService{store: store, admin: admin, audit: audit, now: time.Now}
}

func (s *SettingsService) Get(ctx context.Context, admin *session.Identity) (Settings, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return nil, err
	}
	stored, err := s.stored(ctx)
	if err != nil {
		return nil, err
	}
	return mergeOver(DefaultSettings(), stored), nil
}

func (s *SettingsService) Update(ctx context.Context, admin *session.Identity, in Settings) (Settings, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return nil, err
	}
	if len(in) == 0 {
		return nil, invalid("settings are empty")
	}
	defaults := DefaultSettings()
	for name := range in {
		if _, ok := defaults[name]; !ok {
			return nil, invalid("unknown settings section %q", name)
		}
	}

	raw, err := json.Marshal(in)
	if err != nil {
		return nil, invalid("settings cannot be encoded: %v", err)
	}
	if err := s.store.Put(ctx, settingsKey, raw); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	s.audit.Record(ctx, admin.ID, "settings", settingsKey, "update", "")
	return mergeOver(defaults, in), nil
}

func (s *SettingsService) Reset(ctx context.Context, admin *session.Identity) (Settings, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, settingsKey); err != nil {
		return nil, fmt.Errorf("reset settings: %w", err)
	}

	s.audit.Record(ctx, admin.ID, "settings", settingsKey, "reset", "")
	return DefaultSettings(), nil
}

// Export returns the stored settings (or the defaults when none are
// stored) as indented JSON, with a dated download file name.
func (s *SettingsService) Export(ctx context.Context, admin *session.Identity) (string, []byte, error) {
	if err := s.admin.RequireAdmin(ctx, admin); err != nil {
		return "", nil, err
	}
	stored, err := s.stored(ctx)
	if err != nil {
		return "", nil, err
	}
	if stored == nil {
		stored = DefaultSettings()
	}

	body, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("encode settings: %w", err)
	}
	name := fmt.Sprintf("crop-catch-settings-%s.json", s.now().UTC().Format("2006-01-02"))
	return name, body, nil
}

// stored returns nil when nothing usable is stored.
func (s *SettingsService) stored(ctx context.Context) (Settings, error) {
	raw, err := s.store.Get(ctx, settingsKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	var st Settings
	if err := json.Unmarshal(raw, &st); err != nil {
		log.Printf("[settings] stored settings unreadable, using defaults: %v", err)
		return nil, nil
	}
	return st, nil
}
