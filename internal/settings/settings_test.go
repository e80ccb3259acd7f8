package settings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestConfiguration_FromFile(t *testing.T) {
	path := writeFile(t, "configuration.json", `{"server":{"url":"http://localhost:5000","timeout":30},"flags":["a"]}`)
	c := NewConfiguration(path, nil, zap.NewNop())

	require.NoError(t, c.Initialize(context.Background()))
	assert.True(t, c.Initialized())

	var server struct {
		URL     string `json:"url"`
		Timeout int    `json:"timeout"`
	}
	ok, err := c.Decode("server", &server)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:5000", server.URL)
	assert.Equal(t, 30, server.Timeout)

	ok, err = c.Decode("missing", &server)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"flags", "server"}, c.Keys())
}

func TestConfiguration_FailureStaysUninitialized(t *testing.T) {
	path := writeFile(t, "bad.json", `{not json`)
	c := NewConfiguration(path, nil, nil)

	assert.Error(t, c.Initialize(context.Background()))
	assert.False(t, c.Initialized())

	var v int
	_, err := c.Decode("x", &v)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestConfiguration_InitializeIsIdempotent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"a":1}`))
	}))
	defer srv.Close()

	c := NewConfiguration(srv.URL, srv.Client(), nil)
	require.NoError(t, c.Initialize(context.Background()))
	require.NoError(t, c.Initialize(context.Background()))
	assert.Equal(t, int32(1), hits.Load())
}

func TestConfiguration_RetriesAfterFailure(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"a":1}`))
	}))
	defer srv.Close()

	c := NewConfiguration(srv.URL, srv.Client(), nil)
	assert.Error(t, c.Initialize(context.Background()))
	fail.Store(false)
	assert.NoError(t, c.Initialize(context.Background()))
	assert.True(t, c.Initialized())
}

func TestStringTable_FallsBackToKey(t *testing.T) {
	s := NewStringTable(filepath.Join(t.TempDir(), "missing.json"), "en", nil, nil)
	assert.Error(t, s.Initialize(context.Background()))
	assert.Equal(t, "popup.title", s.Get("popup.title"))
}

func TestStringTable_MatchesLocale(t *testing.T) {
	path := writeFile(t, "strings.json", `{
		"fr": {"popup.title": "Abandonner les modifications ?"},
		"en": {"popup.title": "Discard changes?", "popup.continue": "Continue"}
	}`)

	fr := NewStringTable(path, "fr-CA", nil, nil)
	require.NoError(t, fr.Initialize(context.Background()))
	assert.Equal(t, "Abandonner les modifications ?", fr.Get("popup.title"))
	assert.Equal(t, "popup.continue", fr.Get("popup.continue"))

	de := NewStringTable(path, "de", nil, nil)
	require.NoError(t, de.Initialize(context.Background()))
	v, ok := de.Lookup("popup.continue")
	assert.True(t, ok)
	assert.Equal(t, "Continue", v)
	base, _ := de.Language().Base()
	assert.Equal(t, "en", base.String())
}

func TestStringTable_UnmatchedLocaleWithoutEnglishIsStable(t *testing.T) {
	path := writeFile(t, "strings.json", `{
		"fr": {"popup.title": "Abandonner ?"},
		"it": {"popup.title": "Scartare?"},
		"es": {"popup.title": "¿Descartar?"},
		"de": {"popup.title": "Verwerfen?"}
	}`)

	for i := 0; i < 50; i++ {
		s := NewStringTable(path, "ja", nil, nil)
		require.NoError(t, s.Initialize(context.Background()))
		require.Equal(t, "Verwerfen?", s.Get("popup.title"))
		base, _ := s.Language().Base()
		require.Equal(t, "de", base.String())
	}
}

func TestNamingConvention_DefaultsAndOverlay(t *testing.T) {
	path := writeFile(t, "naming.json", `{"ParameterTypePosition":"loc","Custom":"custom-name"}`)
	n := NewNamingConvention(path, nil, nil)

	assert.Equal(t, "coordinates", n.Name(ParameterTypePosition))
	require.NoError(t, n.Initialize(context.Background()))
	assert.Equal(t, "loc", n.Name(ParameterTypePosition))
	assert.Equal(t, "orientation", n.Name(ParameterTypeRotation))
	assert.Equal(t, "custom-name", n.Name("Custom"))
	assert.Equal(t, "Unknown", n.Name("Unknown"))
}

func TestFetch_EmptyLocation(t *testing.T) {
	_, err := Fetch(context.Background(), nil, "")
	assert.Error(t, err)
}
