package decompmgr

import (
	"testing"

	"github.com/xyproto/fwcomp/internal/arch"
	"github.com/xyproto/fwcomp/internal/codec"
)

type stubCodec struct {
	name    string
	aliases []codec.Alias
	align   uint32
	image   []byte
}

func (s stubCodec) Name() string               { return s.name }
func (s stubCodec) Aliases() []codec.Alias      { return s.aliases }
func (s stubCodec) DefaultPacker() codec.Packer { return codec.SrcDstSize }
func (s stubCodec) Align() uint32               { return s.align }
func (s stubCodec) DecompressorImage(resourceDir string, a arch.Name) ([]byte, error) {
	return s.image, nil
}
func (s stubCodec) Encode(src []byte) codec.Output { return codec.Unsupported() }

func noSymbols(string) (uint32, bool) { return 0, false }

func TestMarginalCostFirstRegistration(t *testing.T) {
	m := New(arch.ARM, "/resources", noSymbols)
	c := stubCodec{name: "x", image: []byte{1, 2, 3, 4}, align: 2}

	cost, err := m.MarginalCost(c)
	if err != nil {
		t.Fatal(err)
	}
	if cost != 4 {
		t.Fatalf("cost = %d, want 4", cost)
	}

	if err := m.Register(c); err != nil {
		t.Fatal(err)
	}

	cost, err = m.MarginalCost(c)
	if err != nil {
		t.Fatal(err)
	}
	if cost != 0 {
		t.Fatalf("cost after registration = %d, want 0", cost)
	}
}

func TestMarginalCostZeroWhenAliasResolves(t *testing.T) {
	lookup := func(sym string) (uint32, bool) {
		if sym == "memset" {
			return 0x1000, true
		}
		return 0, false
	}
	m := New(arch.ARM, "/resources", lookup)
	c := stubCodec{
		name:    "fill",
		aliases: []codec.Alias{{Symbol: "memset", Packer: codec.DstSrcSize}},
		image:   []byte{1, 2, 3, 4, 5, 6},
		align:   2,
	}

	cost, err := m.MarginalCost(c)
	if err != nil {
		t.Fatal(err)
	}
	if cost != 0 {
		t.Fatalf("cost = %d, want 0", cost)
	}

	if err := m.Register(c); err != nil {
		t.Fatal(err)
	}
	addr, ok := m.AddressOf("fill")
	if !ok || addr != 0x1000 {
		t.Fatalf("AddressOf(fill) = %d,%v, want 0x1000,true", addr, ok)
	}

	entry := m.MakeTableEntry("fill", 0xAA, 0xBB, 16)
	if entry[12] != 0x00 || entry[13] != 0x10 {
		t.Fatalf("entry address bytes wrong: %v", entry)
	}
}

func TestBuildPlacesEmbeddedDecompressorsWithAlignment(t *testing.T) {
	m := New(arch.ARM, "/resources", noSymbols)
	a := stubCodec{name: "a", image: []byte{1, 2, 3}, align: 4}
	b := stubCodec{name: "b", image: []byte{9, 9}, align: 2}

	if err := m.Register(a); err != nil {
		t.Fatal(err)
	}
	if err := m.Register(b); err != nil {
		t.Fatal(err)
	}

	code := m.Build(0x2000)
	addrA, _ := m.AddressOf("a")
	addrB, _ := m.AddressOf("b")
	if addrA != 0x2000 {
		t.Fatalf("addrA = 0x%x, want 0x2000", addrA)
	}
	// b's image (2 bytes) starts at 0x2003, padded up to its 2-byte alignment -> 0x2004.
	if addrB != 0x2004 {
		t.Fatalf("addrB = 0x%x, want 0x2004", addrB)
	}
	if len(code) != 6 {
		t.Fatalf("len(code) = %d, want 6", len(code))
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	m := New(arch.ARM, "/resources", noSymbols)
	c := stubCodec{name: "x", image: []byte{1}, align: 1}
	if err := m.Register(c); err != nil {
		t.Fatal(err)
	}
	if err := m.Register(c); err != nil {
		t.Fatal(err)
	}
	if len(m.embedded) != 1 {
		t.Fatalf("embedded has %d entries after double register, want 1", len(m.embedded))
	}
}
