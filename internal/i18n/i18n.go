// Package i18n resolves user-facing strings from YAML catalogs.
//
// The bot ships with a single embedded Spanish catalog. Catalog files map a
// language code to nested keys, which are flattened to dot-separated names:
//
//	es:
//	  history:
//	    empty: "El historial está vacío"
//
// is looked up as T("history.empty").
package i18n

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// DefaultLang is the language of the embedded catalog.
const DefaultLang = "es"

//go:embed locales/*.yaml
var embedded embed.FS

// Translator resolves localized strings using dot-separated keys.
type Translator interface {
	// T returns the string for key, or key itself when it is unknown.
	T(key string) string
	// Tf renders the string for key as a text/template with data.
	Tf(key string, data map[string]any) string
	Lang() string
}

// message is a catalog entry. Entries containing template actions are parsed
// once at load time; tmpl stays nil for plain text or malformed templates.
type message struct {
	text string
	tmpl *template.Template
}

// catalog maps flattened keys of one language to their messages.
type catalog map[string]*message

// Manager stores all available translations.
type Manager struct {
	catalogs    map[string]catalog
	defaultLang string
}

// Load loads the embedded catalog.
func Load() (*Manager, error) {
	return LoadFS(embedded, "locales", DefaultLang)
}

// LoadFromDir loads translations from a directory containing YAML files.
func LoadFromDir(dir, defaultLang string) (*Manager, error) {
	return LoadFS(os.DirFS(dir), ".", defaultLang)
}

// LoadFS loads translations from the YAML files in dir of fsys. Later files
// override keys of earlier ones.
func LoadFS(fsys fs.FS, dir, defaultLang string) (*Manager, error) {
	if defaultLang == "" {
		defaultLang = DefaultLang
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("i18n: read dir %s: %w", dir, err)
	}

	m := &Manager{catalogs: make(map[string]catalog), defaultLang: defaultLang}
	files := 0
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		files++

		if err := m.loadFile(fsys, path.Join(dir, entry.Name())); err != nil {
			return nil, err
		}
	}

	if files == 0 {
		return nil, fmt.Errorf("i18n: no yaml files found in %s", dir)
	}
	if _, ok := m.catalogs[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", defaultLang)
	}

	return m, nil
}

func (m *Manager) loadFile(fsys fs.FS, name string) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("i18n: read file %s: %w", name, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("i18n: parse file %s: %w", name, err)
	}
	if len(doc.Content) == 0 {
		return nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("i18n: %s: top level must map languages to keys", name)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		lang := strings.ToLower(strings.TrimSpace(root.Content[i].Value))
		if lang == "" {
			continue
		}

		c, ok := m.catalogs[lang]
		if !ok {
			c = make(catalog)
			m.catalogs[lang] = c
		}
		c.add("", root.Content[i+1])
	}

	return nil
}

// add flattens node into dot-separated keys under prefix. Sequences and
// aliases are ignored.
func (c catalog) add(prefix string, node *yaml.Node) {
	switch node.Kind {
	case yaml.ScalarNode:
		if prefix != "" {
			c[prefix] = newMessage(prefix, node.Value)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if key == "" {
				continue
			}
			if prefix != "" {
				key = prefix + "." + key
			}
			c.add(key, node.Content[i+1])
		}
	}
}

func newMessage(key, text string) *message {
	msg := &message{text: text}
	if strings.Contains(text, "{{") {
		if tmpl, err := template.New(key).Option("missingkey=zero").Parse(text); err == nil {
			msg.tmpl = tmpl
		}
	}
	return msg
}

// Translator returns a translator for the requested language, falling back
// to the default language.
func (m *Manager) Translator(lang string) Translator {
	if m == nil {
		return translator{}
	}

	lang = strings.ToLower(strings.TrimSpace(lang))
	if _, ok := m.catalogs[lang]; !ok {
		lang = m.defaultLang
	}

	return translator{
		lang:     lang,
		primary:  m.catalogs[lang],
		fallback: m.catalogs[m.defaultLang],
	}
}

// Languages returns all loaded languages, sorted.
func (m *Manager) Languages() []string {
	if m == nil {
		return nil
	}

	languages := make([]string, 0, len(m.catalogs))
	for lang := range m.catalogs {
		languages = append(languages, lang)
	}
	sort.Strings(languages)
	return languages
}

type translator struct {
	lang     string
	primary  catalog
	fallback catalog
}

func (t translator) Lang() string {
	return t.lang
}

func (t translator) message(key string) *message {
	if msg, ok := t.primary[key]; ok {
		return msg
	}
	return t.fallback[key]
}

func (t translator) T(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	if msg := t.message(key); msg != nil {
		return msg.text
	}
	return key
}

func (t translator) Tf(key string, data map[string]any) string {
	msg := t.message(strings.TrimSpace(key))
	if msg == nil {
		return t.T(key)
	}
	if msg.tmpl == nil {
		return msg.text
	}

	var buf bytes.Buffer
	if err := msg.tmpl.Execute(&buf, data); err != nil {
		return msg.text
	}
	return buf.String()
}

func isYAML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
