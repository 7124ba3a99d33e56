// Package equipment resolves PV module and inverter parameter sets by library
// and model name.
package equipment

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/chrissnell/pvforecast/pkg/inverter"
	"github.com/chrissnell/pvforecast/pkg/pvsystem"
)

// ErrNotFound is returned when no parameter set exists for a key
var ErrNotFound = errors.New("equipment not found")

// SAM library names
const (
	SandiaModules   = "SandiaMod"
	CECModules      = "CECMod"
	SandiaInverters = "sandiainverter"
	CECInverters    = "cecinverter"
)

var libraries = []string{SandiaModules, CECModules, SandiaInverters, CECInverters}

// Key identifies one parameter set
type Key struct {
	Library string `json:"library"`
	Name    string `json:"name"`
}

// NewKey canonicalises the library spelling and normalises the model name
func NewKey(library, name string) Key {
	return Key{Library: CanonicalLibrary(library), Name: NormalizeName(name)}
}

func (k Key) String() string {
	return k.Library + "/" + k.Name
}

// CanonicalLibrary maps a case-insensitive library name to its canonical
// spelling. Unknown names are returned trimmed and unchanged.
func CanonicalLibrary(library string) string {
	library = strings.TrimSpace(library)
	for _, l := range libraries {
		if strings.EqualFold(l, library) {
			return l
		}
	}
	return library
}

var nameReplacer = strings.NewReplacer(
	" ", "_", "-", "_", ".", "_", "(", "_", ")", "_", "[", "_", "]", "_",
	":", "_", "+", "_", "/", "_", `"`, "_", ",", "_",
)

// NormalizeName converts a manufacturer model name to the identifier form
// the SAM libraries are keyed by. Normalised names are left unchanged.
func NormalizeName(name string) string {
	return nameReplacer.Replace(strings.TrimSpace(name))
}

// Database resolves parameter sets. Both lookups fail with an error
// wrapping ErrNotFound when the key is unknown.
type Database interface {
	LookupModule(library, name string) (pvsystem.ModuleParameters, error)
	LookupInverter(library, name string) (inverter.Parameters, error)
}

func notFound(kind string, k Key) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, k)
}

// Catalog is an in-memory Database
type Catalog struct {
	mu        sync.RWMutex
	modules   map[Key]pvsystem.ModuleParameters
	inverters map[Key]inverter.Parameters
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		modules:   make(map[Key]pvsystem.ModuleParameters),
		inverters: make(map[Key]inverter.Parameters),
	}
}

// AddModule stores m under its normalised name, replacing any previous entry
func (c *Catalog) AddModule(library string, m pvsystem.ModuleParameters) {
	k := NewKey(library, m.Name)
	m.Name = k.Name
	c.mu.Lock()
	c.modules[k] = m
	c.mu.Unlock()
}

// AddInverter stores p under its normalised name, replacing any previous entry
func (c *Catalog) AddInverter(library string, p inverter.Parameters) {
	k := NewKey(library, p.Name)
	p.Name = k.Name
	c.mu.Lock()
	c.inverters[k] = p
	c.mu.Unlock()
}

func (c *Catalog) LookupModule(library, name string) (pvsystem.ModuleParameters, error) {
	k := NewKey(library, name)
	c.mu.RLock()
	m, ok := c.modules[k]
	c.mu.RUnlock()
	if !ok {
		return pvsystem.ModuleParameters{}, notFound("module", k)
	}
	return m, nil
}

func (c *Catalog) LookupInverter(library, name string) (inverter.Parameters, error) {
	k := NewKey(library, name)
	c.mu.RLock()
	p, ok := c.inverters[k]
	c.mu.RUnlock()
	if !ok {
		return inverter.Parameters{}, notFound("inverter", k)
	}
	return p, nil
}

// Modules lists the module keys in sorted order
func (c *Catalog) Modules() []Key {
	c.mu.RLock()
	keys := make([]Key, 0, len(c.modules))
	for k := range c.modules {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sortKeys(keys)
	return keys
}

// Inverters lists the inverter keys in sorted order
func (c *Catalog) Inverters() []Key {
	c.mu.RLock()
	keys := make([]Key, 0, len(c.inverters))
	for k := range c.inverters {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sortKeys(keys)
	return keys
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Library != keys[j].Library {
			return keys[i].Library < keys[j].Library
		}
		return keys[i].Name < keys[j].Name
	})
}

type chain []Database

// Chain returns a Database that asks each database in turn. The first one
// that resolves the key wins; errors other than ErrNotFound stop the search.
func Chain(dbs ...Database) Database {
	return chain(dbs)
}

func (c chain) LookupModule(library, name string) (pvsystem.ModuleParameters, error) {
	for _, db := range c {
		m, err := db.LookupModule(library, name)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return pvsystem.ModuleParameters{}, err
		}
	}
	return pvsystem.ModuleParameters{}, notFound("module", NewKey(library, name))
}

func (c chain) LookupInverter(library, name string) (inverter.Parameters, error) {
	for _, db := range c {
		p, err := db.LookupInverter(library, name)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return inverter.Parameters{}, err
		}
	}
	return inverter.Parameters{}, notFound("inverter", NewKey(library, name))
}

var (
	_ Database = (*Catalog)(nil)
	_ Database = chain(nil)
)
