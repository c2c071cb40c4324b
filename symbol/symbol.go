// Package symbol manages symbols. Symbols are deduped strings represented as
// small integers.
package symbol

import (
	"sync"
	"sync/atomic"

	"github.com/Tobias-Kohn/PyPPLCompiler/hash"
	"github.com/grailbio/base/log"
)

// ID represents an interned symbol.
type ID int32

const (
	// Invalid is a sentinel.
	Invalid = ID(0)
)

type idInfo struct {
	name string
	hash hash.Hash
}

// Singleton symbol intern table.
//
// Readers access the id->info slice through an atomic pointer; writers
// serialize through the mutex and publish a grown copy of the slice.
type table struct {
	sync.Mutex
	syms map[string]ID
	ids  atomic.Value // []idInfo
}

var symbols = newTable()

func newTable() *table {
	t := &table{syms: map[string]ID{"(invalid)": Invalid}}
	t.ids.Store([]idInfo{{"(invalid)", hash.String("(invalid)")}})
	return t
}

func (t *table) infos() []idInfo {
	return t.ids.Load().([]idInfo)
}

// Hash returns the hash of the symbol name.
func (id ID) Hash() hash.Hash {
	return symbols.infos()[id].hash
}

// Str returns a human-readable string.
//
// Note: we don't call it String() since it makes the code deadlock prone.
func (id ID) Str() string {
	name := symbols.infos()[id].name
	if name == "" {
		log.Panicf("symboltable: id %d not found", id)
	}
	return name
}

// Intern finds or creates an ID for the given string.
func Intern(v string) ID {
	if v == "" {
		log.Panicf("Empty symbol")
	}
	symbols.Lock()
	defer symbols.Unlock()
	if id, ok := symbols.syms[v]; ok {
		return id
	}
	old := symbols.infos()
	id := ID(len(old))
	ids := make([]idInfo, len(old)+1)
	copy(ids, old)
	ids[id] = idInfo{v, hash.String(v)}
	symbols.ids.Store(ids)
	symbols.syms[v] = id
	return id
}
