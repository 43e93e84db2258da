package service

import (
	"context"
	"encoding/json"
	"fmt"

	"jobtrack/internal/logs"
	"jobtrack/internal/records/models"
	"jobtrack/internal/store/fs"
)

const pageConfigsKey = "page_configs"

// GetSettings returns the stored settings laid over the defaults
func (s *Service) GetSettings(ctx context.Context) (models.Settings, error) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	return s.loadSettingsLocked()
}

// UpdateSettings replaces the settings document. Top level keys are taken
// from the incoming document; page fragments are merged one by one so a
// stale save cannot revert a newer fragment.
func (s *Service) UpdateSettings(ctx context.Context, incoming models.Settings) (models.Settings, error) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	current, err := fs.ReadDocument(s.settingsPath)
	if err != nil {
		return models.Settings{}, err
	}
	var incomingDoc map[string]json.RawMessage
	if err := json.Unmarshal(marshalRaw(incoming), &incomingDoc); err != nil {
		return models.Settings{}, err
	}

	next := make(map[string]json.RawMessage, len(current)+len(incomingDoc))
	for k, v := range current {
		next[k] = v
	}
	for k, v := range incomingDoc {
		if k != pageConfigsKey {
			next[k] = v
		}
	}

	stored, broken := decodePages(current[pageConfigsKey])
	pages := make(map[string]json.RawMessage, len(broken)+len(stored))
	for id, raw := range broken {
		// an undecodable fragment survives until a save replaces it
		if _, replaced := incoming.PageConfigs[id]; !replaced {
			pages[id] = raw
		}
	}
	for id, p := range mergeStoredPages(stored, incoming.PageConfigs) {
		pages[id] = marshalRaw(p)
	}
	next[pageConfigsKey] = marshalRaw(pages)

	if err := fs.WriteDocument(s.settingsPath, next); err != nil {
		return models.Settings{}, err
	}
	return s.loadSettingsLocked()
}

func (s *Service) loadSettingsLocked() (models.Settings, error) {
	stored, err := fs.ReadDocument(s.settingsPath)
	if err != nil {
		return models.Settings{}, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(marshalRaw(models.DefaultSettings()), &doc); err != nil {
		return models.Settings{}, err
	}
	for k, v := range stored {
		doc[k] = v
	}
	if raw, ok := stored[pageConfigsKey]; ok {
		pages, _ := decodePages(raw)
		doc[pageConfigsKey] = marshalRaw(pages)
	}

	var settings models.Settings
	if err := json.Unmarshal(marshalRaw(doc), &settings); err != nil {
		return models.Settings{}, err
	}
	return settings, nil
}

// decodePages splits a stored page_configs value into the fragments that
// decode and the ones that do not. Neither map is nil.
func decodePages(raw json.RawMessage) (map[string]models.PageConfig, map[string]json.RawMessage) {
	pages := make(map[string]models.PageConfig)
	broken := make(map[string]json.RawMessage)
	if len(raw) == 0 || string(raw) == "null" {
		return pages, broken
	}
	var fragments map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fragments); err != nil {
		logs.Logger.Printf("Ignoring page_configs, not an object: %v", err)
		return pages, broken
	}
	for id, fragment := range fragments {
		var p models.PageConfig
		err := json.Unmarshal(fragment, &p)
		if err == nil && p == nil {
			err = fmt.Errorf("null fragment")
		}
		if err != nil {
			logs.Logger.Printf("Keeping undecodable page config %q: %v", id, err)
			broken[id] = fragment
			continue
		}
		pages[id] = p
	}
	return pages, broken
}

// mergeStoredPages keeps, per fragment, the version with the later
// updated_at. On a tie the stored version stays. A timestamped fragment beats
// one without, and between two unstamped fragments the incoming one wins.
func mergeStoredPages(stored, incoming map[string]models.PageConfig) map[string]models.PageConfig {
	merged := make(map[string]models.PageConfig, len(stored)+len(incoming))
	for id, p := range stored {
		merged[id] = p
	}
	for id, next := range incoming {
		prev, ok := merged[id]
		if !ok {
			merged[id] = next
			continue
		}
		prevTS, prevOK := prev.UpdatedAt()
		nextTS, nextOK := next.UpdatedAt()
		switch {
		case prevOK && nextOK:
			if nextTS.After(prevTS) {
				merged[id] = next
			}
		case nextOK:
			merged[id] = next
		case prevOK:
		default:
			merged[id] = next
		}
	}
	return merged
}

func marshalRaw(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}
