package tts

import (
	"sync"

	"github.com/advancedtts/advtts/internal/registry"
	"github.com/advancedtts/advtts/internal/ttypes"
	"golang.org/x/sync/errgroup"
)

// Prober reports which engines are installed. Results are never cached;
// every call inspects the filesystem again.
type Prober struct {
	registry *registry.Registry
	resolver *Resolver
}

// NewProber creates a prober over the registry's engines
func NewProber(reg *registry.Registry, resolver *Resolver) *Prober {
	return &Prober{registry: reg, resolver: resolver}
}

// Availability is the probe result for one engine
type Availability struct {
	Engine    string `json:"engine"`
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Guidance  string `json:"guidance,omitempty"`
}

// CheckAvailability reports whether id's executable can be found.
// Unknown ids and missing executables both report false.
func (p *Prober) CheckAvailability(id string) bool {
	_, ok := p.Path(id)
	return ok
}

// Path returns the resolved executable for id
func (p *Prober) Path(id string) (string, bool) {
	e, err := p.registry.Get(id)
	if err != nil {
		return "", false
	}
	return p.resolver.Resolve(e)
}

// Status returns availability with install guidance for missing engines
func (p *Prober) Status(id string) Availability {
	path, ok := p.Path(id)
	a := Availability{Engine: id, Available: ok, Path: path}
	if !ok {
		a.Path = ""
		a.Guidance = InstallGuidance(id)
	}
	return a
}

// GetAvailableEngines probes every catalog engine concurrently and returns
// the available ones keyed by id
func (p *Prober) GetAvailableEngines() map[string]ttypes.EngineDescriptor {
	var (
		g   errgroup.Group
		mu  sync.Mutex
		out = make(map[string]ttypes.EngineDescriptor)
	)

	for _, e := range p.registry.List() {
		e := e
		g.Go(func() error {
			if _, ok := p.resolver.Resolve(e); !ok {
				return nil
			}
			mu.Lock()
			out[e.ID] = e
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// StatusAll probes every catalog engine concurrently, in catalog order
func (p *Prober) StatusAll() []Availability {
	engines := p.registry.List()
	out := make([]Availability, len(engines))

	var g errgroup.Group
	for i, e := range engines {
		i, e := i, e
		g.Go(func() error {
			out[i] = p.Status(e.ID)
			return nil
		})
	}
	_ = g.Wait()

	return out
}
