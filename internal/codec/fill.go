package codec

import (
	"github.com/xyproto/fwcomp/internal/arch"
)

// Fill is the constant-fill codec: input that is a single repeated byte
// value needs no payload at all, just the fill byte itself, passed to a
// memset-shaped decompressor.
type Fill struct{}

func (Fill) Name() string { return "fill" }

func (Fill) Aliases() []Alias {
	return []Alias{
		{Symbol: "memset", Packer: DstSrcSize},
		{Symbol: "__aeabi_memset", Packer: DstSrcSize},
	}
}

func (Fill) DefaultPacker() Packer { return DstSrcSize }

func (Fill) Align() uint32 { return 2 }

func (Fill) DecompressorImage(resourceDir string, a arch.Name) ([]byte, error) {
	return loadBlob(resourceDir, "fill", a)
}

// Encode returns Inline(b0) if every byte of src equals b0, empty bytes if
// src is empty, and Unsupported otherwise.
func (Fill) Encode(src []byte) Output {
	if len(src) == 0 {
		return Bytes(nil)
	}
	b0 := src[0]
	for _, b := range src[1:] {
		if b != b0 {
			return Unsupported()
		}
	}
	return Inline(uint32(b0))
}
