// Package fast provides convenient top-level wrappers around a FAST
// (FIX Adapted for STreaming) binary protocol codec engine: compiling a
// template catalog from a flattened event stream, persisting that catalog
// to its own compact binary form, and driving a Reactor/DynamicWriter pair
// against a wire byte stream through a lock-free SPSC fragment ring.
//
// # Core Features
//
//   - Catalog compilation from a schema-agnostic event stream, with a
//     deterministic binary serialization (FASTCAT0) for reuse across
//     process restarts without re-walking any schema source
//   - Single-threaded decode (Reactor) and encode (DynamicWriter) state
//     machines sharing one dictionary store and one ring of field
//     fragments
//   - Pluggable byte Source/Sink and ring Config, all via functional
//     options
//
// # Basic Usage
//
// Compiling a catalog and running one decode pass:
//
//	cat, err := fast.LoadCatalog(eventStream)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := cat.NewDictionaryStore()
//	dec := varint.NewDecoder(varint.NewSliceSource(wireBytes))
//	out, err := fast.NewRing()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r := fast.NewReactor(cat, store, dec, out)
//	if err := r.DecodeMessage(); err != nil && err != io.EOF {
//	    log.Fatal(err)
//	}
//
// # Package Structure
//
// This package is a thin convenience layer over catalog, reactor, ring,
// and varint. For fine-grained control over encoding strategies,
// compression, or ring sizing, use those packages directly.
package fast

import (
	"github.com/fastcodec/fast/catalog"
	"github.com/fastcodec/fast/dict"
	"github.com/fastcodec/fast/reactor"
	"github.com/fastcodec/fast/ring"
	"github.com/fastcodec/fast/varint"
)

// LoadCatalog compiles events into a Catalog, walking them strictly in
// declaration order so repeated compiles of the same stream produce
// byte-identical catalogs.
//
// This is a direct pass-through to catalog.Load, kept here so a host that
// only needs the common path never has to import the catalog package by
// name.
func LoadCatalog(events catalog.TokenEventStream) (*catalog.Catalog, error) {
	return catalog.Load(events)
}

// DecodeCatalog parses a previously-encoded FASTCAT0 catalog back into a
// usable Catalog, without re-walking any schema source.
func DecodeCatalog(data []byte) (*catalog.Catalog, error) {
	return catalog.DecodeCatalog(data)
}

// NewRing creates a fragment ring with the given options (or the package
// defaults if none are given).
//
// A ring is single-producer/single-consumer: exactly one Reactor or
// DynamicWriter may drive each end at a time.
func NewRing(opts ...ring.Option) (*ring.Ring, error) {
	cfg, err := ring.NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	return ring.New(cfg), nil
}

// NewReactor creates a Reactor decoding messages from dec per cat's
// compiled templates, tracking dictionary state in store and publishing
// one fragment per decoded scope (message root, group, or sequence
// iteration) into out.
//
// Use cat.NewDictionaryStore() for store unless the caller needs to share
// or pre-seed dictionary state across multiple Reactor instances.
func NewReactor(cat *catalog.Catalog, store *dict.Store, dec *varint.Decoder, out *ring.Ring) *reactor.Reactor {
	return reactor.New(cat, store, dec, out)
}

// NewWriter creates a DynamicWriter encoding messages into enc per cat's
// compiled templates, pulling field values from in and tracking
// dictionary state in store.
func NewWriter(cat *catalog.Catalog, store *dict.Store, enc *varint.Encoder, in *ring.Ring) *reactor.DynamicWriter {
	return reactor.NewWriter(cat, store, enc, in)
}
