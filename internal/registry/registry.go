// Package registry is the static directory of synthesis engines and their
// capabilities. The catalog is loaded once and never mutated.
package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/advancedtts/advtts/internal/ttypes"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed engines.yaml
var catalog []byte

// ErrNotFound is returned for engine ids the catalog does not declare
var ErrNotFound = errors.New("engine not found")

// ErrInvalidCatalog wraps every catalog invariant violation
var ErrInvalidCatalog = errors.New("invalid engine catalog")

// Registry holds the immutable engine catalog
type Registry struct {
	engines []ttypes.EngineDescriptor
	byID    map[string]int
}

type catalogFile struct {
	Engines []ttypes.EngineDescriptor `yaml:"engines"`
}

var defaultRegistry = sync.OnceValues(func() (*Registry, error) {
	return Parse(catalog)
})

// Default returns the registry built from the embedded catalog
func Default() (*Registry, error) {
	return defaultRegistry()
}

// Load reads a catalog from r
func Load(r io.Reader) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog
func Parse(data []byte) (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return New(file.Engines)
}

// New builds a registry from descriptors, enforcing catalog invariants
func New(engines []ttypes.EngineDescriptor) (*Registry, error) {
	r := &Registry{
		engines: make([]ttypes.EngineDescriptor, 0, len(engines)),
		byID:    make(map[string]int, len(engines)),
	}

	var errs []error
	for _, e := range engines {
		if err := validate(e); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := r.byID[e.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate engine id %q", e.ID))
			continue
		}
		r.byID[e.ID] = len(r.engines)
		r.engines = append(r.engines, e)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
	}
	return r, nil
}

func validate(e ttypes.EngineDescriptor) error {
	if e.ID == "" {
		return errors.New("engine with empty id")
	}
	if e.Executable.Command == "" {
		return fmt.Errorf("engine %q: no executable", e.ID)
	}
	if _, ok := ttypes.ParseFormat(string(e.NativeFormat)); !ok {
		return fmt.Errorf("engine %q: unknown native format %q", e.ID, e.NativeFormat)
	}
	if len(e.Languages) == 0 {
		return fmt.Errorf("engine %q: no languages", e.ID)
	}
	for _, l := range e.Languages {
		if len(l.Variants) == 0 {
			return fmt.Errorf("engine %q: language %q has no variants", e.ID, l.Code)
		}
		if e.Capabilities.Models && len(l.Models) == 0 {
			return fmt.Errorf("engine %q: language %q has no models", e.ID, l.Code)
		}
		seen := make(map[string]bool, len(l.Models))
		for _, m := range l.Models {
			if seen[m.ID] {
				return fmt.Errorf("engine %q: duplicate model %q in %q", e.ID, m.ID, l.Code)
			}
			seen[m.ID] = true
			if m.DefaultSpeaker != "" && !m.HasSpeaker(m.DefaultSpeaker) {
				return fmt.Errorf("engine %q: model %q default speaker %q not in speaker set", e.ID, m.ID, m.DefaultSpeaker)
			}
		}
	}
	return nil
}

// Get returns the descriptor for id
func (r *Registry) Get(id string) (ttypes.EngineDescriptor, error) {
	i, ok := r.byID[id]
	if !ok {
		return ttypes.EngineDescriptor{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.engines[i], nil
}

// List returns every descriptor in catalog order
func (r *Registry) List() []ttypes.EngineDescriptor {
	out := make([]ttypes.EngineDescriptor, len(r.engines))
	copy(out, r.engines)
	return out
}

// IDs returns every engine id in catalog order
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.engines))
	for i, e := range r.engines {
		ids[i] = e.ID
	}
	return ids
}

// LanguageSummary aggregates one language across all engines
type LanguageSummary struct {
	Code             string   `json:"code"`
	Name             string   `json:"name"`
	Variants         []string `json:"variants"`
	SupportedEngines []string `json:"supportedEngines"`
}

// Languages aggregates every language across engines, sorted by name
func (r *Registry) Languages() []LanguageSummary {
	index := make(map[string]*LanguageSummary)
	for _, e := range r.engines {
		for _, l := range e.Languages {
			s, ok := index[l.Code]
			if !ok {
				s = &LanguageSummary{Code: l.Code, Name: l.Name}
				index[l.Code] = s
			}
			s.SupportedEngines = append(s.SupportedEngines, e.ID)
			for _, v := range l.Variants {
				if !contains(s.Variants, v) {
					s.Variants = append(s.Variants, v)
				}
			}
		}
	}

	out := make([]LanguageSummary, 0, len(index))
	for _, s := range index {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ModelListing is the answer to a model query for one engine
type ModelListing struct {
	Engine          string         `json:"engine"`
	Language        string         `json:"language,omitempty"`
	ModelsSupported bool           `json:"modelsSupported"`
	Models          []ModelSummary `json:"models"`
}

// ModelSummary is a model annotated with the language it belongs to
type ModelSummary struct {
	ttypes.ModelDescriptor
	LanguageCode string `json:"languageCode"`
	LanguageName string `json:"languageName"`
}

// Models lists models for one language, or for all languages when lang is empty.
// lang may be a language code or a variant tag.
func (r *Registry) Models(engineID, lang string) (ModelListing, error) {
	e, err := r.Get(engineID)
	if err != nil {
		return ModelListing{}, err
	}

	listing := ModelListing{Engine: e.ID, Language: lang, Models: []ModelSummary{}}
	if !e.Capabilities.Models {
		return listing, nil
	}
	listing.ModelsSupported = true

	for _, l := range e.Languages {
		if lang != "" && l.Code != lang && !contains(l.Variants, Normalize(lang)) {
			continue
		}
		for _, m := range l.Models {
			listing.Models = append(listing.Models, ModelSummary{
				ModelDescriptor: m,
				LanguageCode:    l.Code,
				LanguageName:    l.Name,
			})
		}
	}
	return listing, nil
}

// Normalize lowercases a tag and converts underscores to hyphens
func Normalize(tag string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
}

// baseCode extracts the primary language subtag of tag
func baseCode(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		code, _, _ := strings.Cut(tag, "-")
		return code
	}
	base, _ := t.Base()
	return base.String()
}

// ResolveLanguage maps a requested language or variant to the engine's profile
// and a concrete variant. An exact variant match wins, then a base code match,
// which selects the profile's first variant.
func ResolveLanguage(e ttypes.EngineDescriptor, tag string) (ttypes.LanguageProfile, string, bool) {
	want := Normalize(tag)
	if want == "" {
		return ttypes.LanguageProfile{}, "", false
	}

	for _, l := range e.Languages {
		for _, v := range l.Variants {
			if v == want {
				return l, v, true
			}
		}
	}

	base := baseCode(want)
	prefix, _, _ := strings.Cut(want, "-")
	for _, l := range e.Languages {
		if l.Code == want || l.Code == base || l.Code == prefix {
			return l, l.Variants[0], true
		}
	}
	return ttypes.LanguageProfile{}, "", false
}

// ResolveModel returns the requested model when the profile declares it,
// otherwise the first model declared for the language. Unknown ids are not
// an error.
func ResolveModel(l ttypes.LanguageProfile, id string) (ttypes.ModelDescriptor, bool) {
	if len(l.Models) == 0 {
		return ttypes.ModelDescriptor{}, false
	}
	for _, m := range l.Models {
		if id != "" && m.ID == id {
			return m, true
		}
	}
	return l.Models[0], true
}

// ResolveSpeaker returns speaker if the model declares it, otherwise the
// model's default speaker, which may be empty.
func ResolveSpeaker(m ttypes.ModelDescriptor, speaker string) string {
	if speaker != "" && m.HasSpeaker(speaker) {
		return speaker
	}
	return m.DefaultSpeaker
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
