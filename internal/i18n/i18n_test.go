package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Embedded(t *testing.T) {
	manager, err := Load()
	require.NoError(t, err)

	tr := manager.Translator("")
	assert.Equal(t, DefaultLang, tr.Lang())
	assert.Equal(t, "El historial está vacío", tr.T("history.empty"))
	assert.Equal(t, "Recuperado: 42", tr.Tf("history.recalled", map[string]any{"Value": "42"}))
	assert.Equal(t, "missing.key", tr.T("missing.key"))
	assert.Contains(t, tr.T("help"), "/clearhistory")
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"catalog/base.yaml":  {Data: []byte("es:\n  greeting: Hola\n  nested:\n    deep: Profundo\nen:\n  greeting: Hello\n")},
		"catalog/extra.yml":  {Data: []byte("es:\n  extra: Más\n")},
		"catalog/readme.txt": {Data: []byte("ignored")},
	}

	manager, err := LoadFS(fsys, "catalog", "es")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"es", "en"}, manager.Languages())

	testCases := []struct {
		name string
		lang string
		key  string
		want string
	}{
		{name: "default language", lang: "es", key: "greeting", want: "Hola"},
		{name: "nested key", lang: "es", key: "nested.deep", want: "Profundo"},
		{name: "second file", lang: "es", key: "extra", want: "Más"},
		{name: "other language", lang: "EN", key: "greeting", want: "Hello"},
		{name: "fallback to default", lang: "en", key: "extra", want: "Más"},
		{name: "unknown language", lang: "fr", key: "greeting", want: "Hola"},
		{name: "unknown key", lang: "es", key: "nope", want: "nope"},
		{name: "empty key", lang: "es", key: "  ", want: ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, manager.Translator(tc.lang).T(tc.key))
		})
	}
}

func TestLoadFS_Errors(t *testing.T) {
	testCases := []struct {
		name string
		fsys fstest.MapFS
	}{
		{name: "no yaml files", fsys: fstest.MapFS{"catalog/a.txt": {Data: []byte("x")}}},
		{name: "missing default language", fsys: fstest.MapFS{"catalog/a.yaml": {Data: []byte("en:\n  a: b\n")}}},
		{name: "invalid yaml", fsys: fstest.MapFS{"catalog/a.yaml": {Data: []byte("es: [")}}},
		{name: "missing dir", fsys: fstest.MapFS{}},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFS(tc.fsys, "catalog", "es")
			assert.Error(t, err)
		})
	}
}

func TestTf(t *testing.T) {
	fsys := fstest.MapFS{
		"c/es.yaml": {Data: []byte("es:\n  page: \"{{.Page}}/{{.Total}}\"\n  broken: \"{{.Page\"\n")},
	}

	manager, err := LoadFS(fsys, "c", "es")
	require.NoError(t, err)
	tr := manager.Translator("es")

	assert.Equal(t, "2/5", tr.Tf("page", map[string]any{"Page": 2, "Total": 5}))
	assert.Equal(t, "{{.Page", tr.Tf("broken", nil))

	var nilManager *Manager
	assert.Equal(t, "page", nilManager.Translator("es").T("page"))
}
