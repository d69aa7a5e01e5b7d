// Package decompmgr tracks which decompressor codecs a rewrite run has
// actually selected, resolves each one against symbols already present in
// the target binary, and lays out the embedded decompressor images that
// still need a home.
package decompmgr

import (
	"github.com/xyproto/fwcomp/internal/arch"
	"github.com/xyproto/fwcomp/internal/codec"
	"github.com/xyproto/fwcomp/internal/diag"
)

type embedded struct {
	name  string
	image []byte
	align uint32
}

// Manager is a unique-by-name registry of codecs chosen during one rewrite
// run. It is not safe for concurrent use; the rewrite engine drives it
// single-threaded, matching the rest of the tool.
type Manager struct {
	arch        arch.Name
	resourceDir string
	lookup      func(symbol string) (uint32, bool)

	registered map[string]bool
	packerOf   map[string]codec.Packer
	addresses  map[string]uint32
	imageCache map[string][]byte
	embedded   []embedded
}

// New creates a manager targeting the given architecture, loading
// decompressor blobs from resourceDir. lookup resolves a symbol name to its
// value in the target binary, used to detect decompressors already linked
// in.
func New(a arch.Name, resourceDir string, lookup func(symbol string) (uint32, bool)) *Manager {
	return &Manager{
		arch:        a,
		resourceDir: resourceDir,
		lookup:      lookup,
		registered:  make(map[string]bool),
		packerOf:    make(map[string]codec.Packer),
		addresses:   make(map[string]uint32),
		imageCache:  make(map[string][]byte),
	}
}

// MarginalCost reports the additional code bytes registering c would cost:
// 0 if c is already registered, 0 if any of c's aliases resolves to a
// symbol already present in the binary, else the size of c's decompressor
// image. The loaded image is cached so a later Register for the same codec
// does not re-read it from disk.
func (m *Manager) MarginalCost(c codec.Codec) (int, error) {
	if m.registered[c.Name()] {
		return 0, nil
	}
	for _, al := range c.Aliases() {
		if _, ok := m.lookup(al.Symbol); ok {
			return 0, nil
		}
	}
	img, ok := m.imageCache[c.Name()]
	if !ok {
		var err error
		img, err = c.DecompressorImage(m.resourceDir, m.arch)
		if err != nil {
			return 0, err
		}
		m.imageCache[c.Name()] = img
	}
	return len(img), nil
}

// Register records c as chosen, a no-op if already registered. Aliases are
// scanned in declaration order; the first one matching a symbol in the
// binary fixes the decompressor's address and packer immediately. If none
// match, the codec's image (already cached by a prior MarginalCost call, or
// loaded now) is queued for placement by a later Build call.
func (m *Manager) Register(c codec.Codec) error {
	if m.registered[c.Name()] {
		return nil
	}
	m.registered[c.Name()] = true

	for _, al := range c.Aliases() {
		if addr, ok := m.lookup(al.Symbol); ok {
			m.addresses[c.Name()] = addr
			m.packerOf[c.Name()] = al.Packer
			diag.Debugf("decompmgr: %s resolved to existing symbol %s at 0x%08x", c.Name(), al.Symbol, addr)
			return nil
		}
	}

	img, ok := m.imageCache[c.Name()]
	if !ok {
		var err error
		img, err = c.DecompressorImage(m.resourceDir, m.arch)
		if err != nil {
			return err
		}
		m.imageCache[c.Name()] = img
	}
	m.packerOf[c.Name()] = c.DefaultPacker()
	m.embedded = append(m.embedded, embedded{name: c.Name(), image: img, align: c.Align()})
	diag.Debugf("decompmgr: %s queued for embedding (%d bytes)", c.Name(), len(img))
	return nil
}

// Build lays out every embedded (non-aliased) decompressor in registration
// order starting at baseAddress, padding each one up to its required
// alignment, and returns the assembled code block. Pre-resolved aliased
// decompressors are skipped since they already live in the binary.
func (m *Manager) Build(baseAddress uint32) []byte {
	var out []byte
	addr := baseAddress
	for _, e := range m.embedded {
		if pad := alignPadding(addr, e.align); pad > 0 {
			out = append(out, make([]byte, pad)...)
			addr += pad
		}
		m.addresses[e.name] = addr
		out = append(out, e.image...)
		addr += uint32(len(e.image))
	}
	return out
}

func alignPadding(addr, align uint32) uint32 {
	if align <= 1 {
		return 0
	}
	rem := addr % align
	if rem == 0 {
		return 0
	}
	return align - rem
}

// AddressOf returns the resolved decompressor address for a registered
// codec. Valid only after Register (for aliased codecs) or Build (for
// embedded ones).
func (m *Manager) AddressOf(name string) (uint32, bool) {
	addr, ok := m.addresses[name]
	return addr, ok
}

// MakeTableEntry packs the 16-byte per-entry descriptor: the codec's packer
// applied to (src, dst, size), followed by the little-endian decompressor
// address.
func (m *Manager) MakeTableEntry(name string, src, dst, size uint32) [16]byte {
	var entry [16]byte
	packer := m.packerOf[name]
	params := packer.Pack(src, dst, size)
	copy(entry[:12], params[:])
	addr, _ := m.AddressOf(name)
	entry[12] = byte(addr)
	entry[13] = byte(addr >> 8)
	entry[14] = byte(addr >> 16)
	entry[15] = byte(addr >> 24)
	return entry
}
