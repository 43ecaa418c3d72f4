// Package contracts is the in-memory index of published modules kept
// alongside the execution core's account state: what StateStore
// already tracks (an address published a module by this name) enriched
// with the descriptive metadata and ABI a client asks for by
// kanari_getContract/kanari_listContracts. It is derived state, never
// consulted for consensus: a Registry rebuilt from scratch by replaying
// every committed PublishModule would come out identical, and losing
// it loses nothing StateStore itself needs.
package contracts

import (
	"sync"

	"github.com/jamesatomc/kanari-sdk-V2/kanari"
)

// Metadata is the descriptive information a publisher may attach to a
// module at publish time: none of it participates in execution or in
// the transaction hash, it exists purely for discovery.
type Metadata struct {
	Author      string
	Description string
	SourceURL   string
	License     string
	Tags        []string
}

// Parameter names one function argument or return value; Type is a
// Move type tag rendered as a string ("u64", "address", "vector<u8>").
type Parameter struct {
	Name string
	Type string
}

// FunctionSignature describes one entry point a module exposes. Move
// bytecode introspection is out of scope for this execution core (no
// VM adapter is loaded by default — see vmboundary), so Functions is
// populated only when a caller supplies it explicitly at publish time;
// a module published without one simply has an empty ABI.
type FunctionSignature struct {
	Name       string
	IsEntry    bool
	TypeParams []string
	Parameters []Parameter
	Returns    []Parameter
	Doc        string
}

// ABI is the set of a module's function signatures. The zero value is
// an empty ABI, matching a module about which nothing further than its
// name and bytecode is known.
type ABI struct {
	Functions []FunctionSignature
}

// Info is one published module's full registry record.
type Info struct {
	Address      kanari.Address
	Name         string
	Bytecode     []byte
	DeploymentTx kanari.Hash
	DeployedAt   uint64
	ABI          ABI
	Metadata     Metadata
}

// Registry indexes Info by (address, name) and by address alone, and
// is safe for concurrent use. Engine holds exactly one, populated as
// PublishModule transactions commit.
type Registry struct {
	mu      sync.RWMutex
	byKey   map[key]*Info
	byOwner map[kanari.Address][]string
}

type key struct {
	addr kanari.Address
	name string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		byKey:   make(map[key]*Info),
		byOwner: make(map[kanari.Address][]string),
	}
}

// Register adds info under (info.Address, info.Name). It never
// overwrites an existing entry: StateStore.Apply is the single source
// of truth for module-name uniqueness, so a duplicate call here means
// a bug in the caller, not a legitimate republish, and is reported
// rather than silently accepted.
func (r *Registry) Register(info Info) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{info.Address, info.Name}
	if _, exists := r.byKey[k]; exists {
		return false
	}
	stored := info
	r.byKey[k] = &stored
	r.byOwner[info.Address] = append(r.byOwner[info.Address], info.Name)
	return true
}

// Get returns the registered Info for (addr, name), if any.
func (r *Registry) Get(addr kanari.Address, name string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byKey[key{addr, name}]
	if !ok {
		return Info{}, false
	}
	return *info, true
}

// ByAddress returns every contract addr has published, in publish
// order.
func (r *Registry) ByAddress(addr kanari.Address) []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := r.byOwner[addr]
	out := make([]Info, 0, len(names))
	for _, name := range names {
		if info, ok := r.byKey[key{addr, name}]; ok {
			out = append(out, *info)
		}
	}
	return out
}

// ListAll returns every registered contract, in no particular order.
func (r *Registry) ListAll() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.byKey))
	for _, info := range r.byKey {
		out = append(out, *info)
	}
	return out
}

// SearchByTag returns every registered contract whose Metadata.Tags
// includes tag.
func (r *Registry) SearchByTag(tag string) []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Info
	for _, info := range r.byKey {
		for _, t := range info.Metadata.Tags {
			if t == tag {
				out = append(out, *info)
				break
			}
		}
	}
	return out
}

// Count returns the number of registered contracts.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}
