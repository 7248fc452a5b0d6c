package utils

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// Section is one table of a loosely decoded TOML document.
type Section map[string]any

// LoadTOMLFile decodes a TOML file into v and returns the keys it did not
// recognise.
func LoadTOMLFile(path string, v any) ([]string, error) {
	meta, err := toml.DecodeFile(path, v)
	if err != nil {
		log.Warnf("TOML parsing error in %s: %v. Attempting partial recovery...", path, err)
		return nil, err
	}
	var unknown []string
	for _, key := range meta.Undecoded() {
		unknown = append(unknown, key.String())
	}
	return unknown, nil
}

// ParseTOMLWithRecovery decodes a TOML file into a generic map so callers
// can salvage the sections whose values have the wrong type.
func ParseTOMLWithRecovery(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc := make(map[string]any)
	if _, err := toml.Decode(string(data), &doc); err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v", path, err)
		return nil, err
	}
	return doc, nil
}

// ExtractSection returns the named table of doc.
func ExtractSection(doc map[string]any, name string) (Section, bool) {
	s, ok := doc[name].(map[string]any)
	return s, ok
}

// Int returns an integer key. TOML integers decode as int64.
func (s Section) Int(key string) (int, bool) {
	if v, ok := s[key].(int64); ok {
		return int(v), true
	}
	return 0, false
}

// Bool returns a boolean key.
func (s Section) Bool(key string) (bool, bool) {
	v, ok := s[key].(bool)
	return v, ok
}

// String returns a string key.
func (s Section) String(key string) (string, bool) {
	v, ok := s[key].(string)
	return v, ok
}

// Strings returns an array of strings, skipping elements of other types.
func (s Section) Strings(key string) ([]string, bool) {
	raw, ok := s[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out, true
}
