package index

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"

	"cardsight/internal/fingerprint"
)

// ANN defaults.
const (
	DefaultTables  = 8
	DefaultKeyBits = 16
	maxKeyBits     = 24
	descriptorBits = fingerprint.DescriptorWords * 64
)

// Fixed seed for the sampled bit positions.
var annSeed = [2]uint64{0x6c73685f63617264, 0x7369676874}

// ANNConfig controls the locality-sensitive hash tables.
type ANNConfig struct {
	Tables  int `json:"tables"`
	KeyBits int `json:"key_bits"`
	// MaxBucket skips buckets larger than this during lookup; 0 disables.
	MaxBucket int `json:"max_bucket"`
}

// DefaultANNConfig returns the tuned table layout.
func DefaultANNConfig() ANNConfig {
	return ANNConfig{Tables: DefaultTables, KeyBits: DefaultKeyBits}
}

func (c ANNConfig) normalized() ANNConfig {
	def := DefaultANNConfig()
	if c.Tables <= 0 {
		c.Tables = def.Tables
	}
	if c.KeyBits <= 0 || c.KeyBits > maxKeyBits {
		c.KeyBits = def.KeyBits
	}
	if c.MaxBucket < 0 {
		c.MaxBucket = 0
	}
	return c
}

// DescriptorIndex maps descriptors to candidate ordinals through several
// bit-sampling hash tables. Buckets are stored in compressed sparse row form.
type DescriptorIndex struct {
	cfg    ANNConfig
	tables []lshTable
}

type lshTable struct {
	Bits     []uint8
	Keys     []uint32 // sorted distinct bucket keys
	Offsets  []uint32 // len(Keys)+1
	Postings []uint32
}

func samplePositions(cfg ANNConfig) [][]uint8 {
	rng := rand.New(rand.NewPCG(annSeed[0], annSeed[1]))
	out := make([][]uint8, cfg.Tables)
	for t := range out {
		perm := rng.Perm(descriptorBits)[:cfg.KeyBits]
		bits := make([]uint8, cfg.KeyBits)
		for i, p := range perm {
			bits[i] = uint8(p)
		}
		out[t] = bits
	}
	return out
}

func keyOf(bits []uint8, d fingerprint.Descriptor) uint32 {
	var key uint32
	for _, p := range bits {
		key = key<<1 | uint32(d[p>>6]>>(p&63)&1)
	}
	return key
}

func buildANN(cfg ANNConfig, descs []fingerprint.Descriptor) *DescriptorIndex {
	cfg = cfg.normalized()
	positions := samplePositions(cfg)
	d := &DescriptorIndex{cfg: cfg, tables: make([]lshTable, cfg.Tables)}

	type posting struct {
		key uint32
		ord uint32
	}
	scratch := make([]posting, len(descs))
	for t, bits := range positions {
		for i, desc := range descs {
			scratch[i] = posting{key: keyOf(bits, desc), ord: uint32(i)}
		}
		slices.SortFunc(scratch, func(a, b posting) int {
			if c := cmp.Compare(a.key, b.key); c != 0 {
				return c
			}
			return cmp.Compare(a.ord, b.ord)
		})

		tbl := lshTable{Bits: bits, Postings: make([]uint32, len(scratch))}
		for i, p := range scratch {
			if i == 0 || p.key != scratch[i-1].key {
				tbl.Keys = append(tbl.Keys, p.key)
				tbl.Offsets = append(tbl.Offsets, uint32(i))
			}
			tbl.Postings[i] = p.ord
		}
		tbl.Offsets = append(tbl.Offsets, uint32(len(scratch)))
		d.tables[t] = tbl
	}
	return d
}

// Config returns the table layout.
func (d *DescriptorIndex) Config() ANNConfig {
	return d.cfg
}

// Candidates appends the distinct ordinals sharing at least one bucket with
// desc to buf[:0] and returns them in ascending order.
func (d *DescriptorIndex) Candidates(desc fingerprint.Descriptor, buf []uint32) []uint32 {
	buf = buf[:0]
	for i := range d.tables {
		tbl := &d.tables[i]
		key := keyOf(tbl.Bits, desc)
		pos, ok := slices.BinarySearch(tbl.Keys, key)
		if !ok {
			continue
		}
		lo, hi := tbl.Offsets[pos], tbl.Offsets[pos+1]
		if d.cfg.MaxBucket > 0 && int(hi-lo) > d.cfg.MaxBucket {
			continue
		}
		buf = append(buf, tbl.Postings[lo:hi]...)
	}
	slices.Sort(buf)
	return slices.Compact(buf)
}

// Neighbors calls visit for each distinct candidate ordinal until visit
// returns false.
func (d *DescriptorIndex) Neighbors(desc fingerprint.Descriptor, visit func(ord uint32) bool) {
	for _, ord := range d.Candidates(desc, nil) {
		if !visit(ord) {
			return
		}
	}
}

func (d *DescriptorIndex) validate(total int) error {
	if len(d.tables) != d.cfg.Tables {
		return fmt.Errorf("ann: %d tables, config says %d", len(d.tables), d.cfg.Tables)
	}
	for t, tbl := range d.tables {
		if len(tbl.Bits) != d.cfg.KeyBits {
			return fmt.Errorf("ann table %d: %d key bits, want %d", t, len(tbl.Bits), d.cfg.KeyBits)
		}
		if len(tbl.Offsets) != len(tbl.Keys)+1 {
			return fmt.Errorf("ann table %d: offsets do not match keys", t)
		}
		if len(tbl.Postings) != total {
			return fmt.Errorf("ann table %d: %d postings, want %d", t, len(tbl.Postings), total)
		}
		if tbl.Offsets[0] != 0 || int(tbl.Offsets[len(tbl.Offsets)-1]) != total {
			return fmt.Errorf("ann table %d: offsets out of range", t)
		}
		for i := 1; i < len(tbl.Offsets); i++ {
			if tbl.Offsets[i] < tbl.Offsets[i-1] {
				return fmt.Errorf("ann table %d: offsets not monotonic", t)
			}
		}
		for i := 1; i < len(tbl.Keys); i++ {
			if tbl.Keys[i] <= tbl.Keys[i-1] {
				return fmt.Errorf("ann table %d: keys not sorted", t)
			}
		}
		for _, ord := range tbl.Postings {
			if int(ord) >= total {
				return fmt.Errorf("ann table %d: posting %d out of range", t, ord)
			}
		}
	}
	return nil
}
