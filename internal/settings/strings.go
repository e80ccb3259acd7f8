package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// StringTable resolves display strings by key. The document maps BCP 47 tags to
// key -> string tables:
//
//	{"en": {"popup.title": "Discard changes?"}, "fr": {...}}
//
// The table closest to the requested locale is chosen at load time. Unknown keys, and
// every key before a successful Initialize, resolve to the key itself.
type StringTable struct {
	loader
	locale  string
	matched language.Tag
	strings map[string]string
}

// NewStringTable returns an uninitialized table for locale (e.g. "en-GB").
func NewStringTable(location, locale string, client *http.Client, log *zap.Logger) *StringTable {
	return &StringTable{loader: newLoader(location, client, log, "strings"), locale: locale}
}

// Initialize loads the document and picks the best table for the locale.
func (s *StringTable) Initialize(ctx context.Context) error {
	return s.initialize(ctx, func(data []byte) error {
		var doc map[string]map[string]string
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("strings: %w", err)
		}
		if len(doc) == 0 {
			return fmt.Errorf("strings: no tables")
		}
		tag, table, err := pickTable(doc, s.locale)
		if err != nil {
			return err
		}
		s.matched, s.strings = tag, table
		return nil
	})
}

func pickTable(doc map[string]map[string]string, locale string) (language.Tag, map[string]string, error) {
	// Sorted so the fallback table does not depend on map order.
	keys := slices.Sorted(maps.Keys(doc))
	tags := make([]language.Tag, 0, len(doc))
	for _, k := range keys {
		tag, err := language.Parse(k)
		if err != nil {
			return language.Und, nil, fmt.Errorf("strings: table %q: %w", k, err)
		}
		tags = append(tags, tag)
	}
	// English first so it is the matcher's fallback when present.
	for i, tag := range tags {
		if base, _ := tag.Base(); base.String() == "en" && i != 0 {
			tags[0], tags[i] = tags[i], tags[0]
			keys[0], keys[i] = keys[i], keys[0]
			break
		}
	}
	want := language.Make(locale)
	_, idx, _ := language.NewMatcher(tags).Match(want)
	return tags[idx], doc[keys[idx]], nil
}

// Initialized reports whether a table has been loaded.
func (s *StringTable) Initialized() bool {
	return s.isInitialized()
}

// Language returns the tag of the loaded table, or language.Und.
func (s *StringTable) Language() language.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matched
}

// Get returns the string for key, or key itself when there is none.
func (s *StringTable) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.strings[key]; ok {
		return v
	}
	return key
}

// Lookup is Get that also reports whether key was found.
func (s *StringTable) Lookup(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.strings[key]
	if !ok {
		return key, false
	}
	return v, true
}
