// Package codec implements the fixed registry of data-compression codecs a
// rewrite run selects from: fill, packbits, and lz77rle. The rewrite only
// ever encodes; packbits and lz77rle also carry reference decoders used by
// tests — the wire formats here are contracts with externally supplied
// assembly decompressors, not merely an internal detail.
package codec

import "github.com/xyproto/fwcomp/internal/arch"

// Packer names the parameter-packing pattern a decompressor alias expects:
// the order its three arguments (src, dst, size) are laid out in the
// packed 12-byte closure. Modeled as data, not code, per the registry
// design: every alias just picks one of these two orderings.
type Packer int

const (
	// SrcDstSize packs (src, dst, size) as three little-endian u32s — the
	// default expected by packbits and lz77rle decompressors.
	SrcDstSize Packer = iota
	// DstSrcSize packs (dst, src, size) — the C memset argument order,
	// used by fill's memset/__aeabi_memset aliases.
	DstSrcSize
)

// Pack produces the 12-byte parameter block a decompressor call expects.
func (p Packer) Pack(src, dst, size uint32) [12]byte {
	var b [12]byte
	putU32 := func(off int, v uint32) {
		b[off] = byte(v)
		b[off+1] = byte(v >> 8)
		b[off+2] = byte(v >> 16)
		b[off+3] = byte(v >> 24)
	}
	switch p {
	case DstSrcSize:
		putU32(0, dst)
		putU32(4, src)
		putU32(8, size)
	default:
		putU32(0, src)
		putU32(4, dst)
		putU32(8, size)
	}
	return b
}

// Alias is a symbol name an application may already provide, pre-linked,
// that implements a codec's decompression — in which case no decompressor
// image needs to be embedded at all.
type Alias struct {
	Symbol string
	Packer Packer
}

// Kind discriminates an Output's variant.
type Kind int

const (
	KindUnsupported Kind = iota
	KindBytes
	KindInline
)

// Output is the result of encoding one input buffer under a codec: either
// an explicit byte stream (Bytes), a single u32 that becomes the
// descriptor's src field directly with no payload at all (Inline), or
// Unsupported when the codec cannot represent the input. Collapsing Inline
// into Bytes(empty) would lose the fact that inline entries contribute
// nothing to the payload block and carry their value, not an address, in
// src.
type Output struct {
	Kind  Kind
	Bytes []byte
	Value uint32
}

func Unsupported() Output        { return Output{Kind: KindUnsupported} }
func Bytes(b []byte) Output      { return Output{Kind: KindBytes, Bytes: b} }
func Inline(v uint32) Output     { return Output{Kind: KindInline, Value: v} }
func (o Output) IsUnsupported() bool { return o.Kind == KindUnsupported }

// Size is the number of payload bytes this output contributes: 0 for
// Inline and Unsupported, len(Bytes) for Bytes.
func (o Output) Size() int {
	if o.Kind == KindBytes {
		return len(o.Bytes)
	}
	return 0
}

// Codec is a named compression algorithm: a set of aliases that may
// already be present in the target application, a default parameter
// packer, a decompressor image loader, a required code alignment, and the
// encoder itself.
type Codec interface {
	Name() string
	Aliases() []Alias
	DefaultPacker() Packer
	Align() uint32
	// DecompressorImage returns the opaque decompressor machine code for
	// the given architecture, consumed as bytes with no further
	// interpretation. resourceDir is the root under which
	// "<algo>/decompress/d_<arch>.bin" is discovered.
	DecompressorImage(resourceDir string, a arch.Name) ([]byte, error)
	Encode(src []byte) Output
}

// Registry lists every codec in a fixed declaration order; selection ties
// are broken by this order (first registered wins).
var Registry = []Codec{
	&Fill{},
	&PackBits{},
	&LZ77RLE{},
}
