package codec

import "github.com/xyproto/fwcomp/internal/arch"

const (
	packbitsMinRun = 2
	// The wire formula is header = (-run) & 0xFF, which maps run=128 to
	// header 128 — the value reserved as "never emitted" (see
	// DESIGN.md's Open Question resolution). Capping the encoder's
	// maximum run at 127 keeps every emitted run header in [129,254].
	packbitsMaxRun     = 127
	packbitsMaxLiteral = 128
)

// PackBits implements the Apple-PackBits-style byte run-length codec.
// Like lz77rle it also carries a reference decoder, used only by tests to
// check round trips without an external decompressor.
type PackBits struct{}

func (PackBits) Name() string { return "packbits" }

func (PackBits) Aliases() []Alias {
	return []Alias{{Symbol: "__scatterload_packbits", Packer: SrcDstSize}}
}

func (PackBits) DefaultPacker() Packer { return SrcDstSize }

func (PackBits) Align() uint32 { return 2 }

func (PackBits) DecompressorImage(resourceDir string, a arch.Name) ([]byte, error) {
	return loadBlob(resourceDir, "packbits", a)
}

// Encode scans left to right. At each position it measures the run of the
// current byte, capped at packbitsMaxRun. A run of at least packbitsMinRun
// flushes any pending literal buffer and emits a run packet; otherwise the
// byte joins the literal buffer, which flushes once it reaches
// packbitsMaxLiteral bytes. Any residual literal buffer flushes at the end
// of input.
func (PackBits) Encode(src []byte) Output {
	var dst []byte
	size := len(src)
	litStart := 0
	litLen := 0

	flushLiteral := func() {
		if litLen == 0 {
			return
		}
		dst = append(dst, byte(litLen-1))
		dst = append(dst, src[litStart:litStart+litLen]...)
		litLen = 0
	}

	si := 0
	for si < size {
		b := src[si]
		runEnd := si + 1
		for runEnd < size && runEnd < si+packbitsMaxRun && src[runEnd] == b {
			runEnd++
		}
		run := runEnd - si

		if run >= packbitsMinRun {
			flushLiteral()
			dst = append(dst, byte((-run)&0xFF), b)
			si += run
			litStart = si
			continue
		}

		litLen++
		si++
		if litLen == packbitsMaxLiteral {
			flushLiteral()
			litStart = si
		}
	}
	flushLiteral()

	if len(dst) == 0 {
		return Bytes(nil)
	}
	return Bytes(dst)
}

// Decode is the reference decoder used by tests: h<128 copies h+1 literal
// bytes; h>=128 repeats the next byte 256-h times. This is intentionally
// more permissive than the encoder (it accepts h=128 too) since nothing
// requires a decoder to reject a header value the encoder merely never
// produces.
func (PackBits) Decode(src []byte) []byte {
	var dst []byte
	si := 0
	for si < len(src) {
		h := src[si]
		si++
		if h < 128 {
			n := int(h) + 1
			dst = append(dst, src[si:si+n]...)
			si += n
		} else {
			n := 256 - int(h)
			b := src[si]
			si++
			for i := 0; i < n; i++ {
				dst = append(dst, b)
			}
		}
	}
	return dst
}
