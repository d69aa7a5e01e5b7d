package codec

import "github.com/xyproto/fwcomp/internal/arch"

const (
	lz77MinCopy = 3
	// Backward-search window. The Python reference's
	// range(max(si-1,0), max(si-255,0), -1) excludes its stop value, so the
	// lowest offset actually visited is max(si-255,0)+1: a 254-byte window,
	// not 255 (see DESIGN.md's Open Question resolution).
	lz77MaxDistance = 254
	lz77MaxRun      = 255 // cap on a single zero-run or match scan
	lz77MaxLiteral  = 254
)

// LZ77RLE implements the custom LZ77+RLE hybrid: each record is a literal
// prefix followed by either a run of zero bytes or a backward copy,
// whichever is more valuable, packed into a bit-fielded header byte with
// optional extension bytes for large counts.
type LZ77RLE struct{}

func (LZ77RLE) Name() string { return "lz77rle" }

func (LZ77RLE) Aliases() []Alias {
	return []Alias{{Symbol: "__scatterload_lz77rle", Packer: SrcDstSize}}
}

func (LZ77RLE) DefaultPacker() Packer { return SrcDstSize }

func (LZ77RLE) Align() uint32 { return 2 }

func (LZ77RLE) DecompressorImage(resourceDir string, a arch.Name) ([]byte, error) {
	return loadBlob(resourceDir, "lz77rle", a)
}

func (LZ77RLE) Encode(src []byte) Output {
	var dst []byte
	size := len(src)
	si := 0
	litStart := 0
	litLen := 0

	for si < size {
		// 1. count the zero-run from si, capped at lz77MaxRun and at the
		// remaining input.
		zeroCap := size - si
		if zeroCap > lz77MaxRun {
			zeroCap = lz77MaxRun
		}
		nzero := 0
		for nzero < zeroCap && src[si+nzero] == 0 {
			nzero++
		}

		ncopy := 0
		copyOfs := 0
		if nzero != zeroCap {
			// 3. search backward for the longest match.
			stop := si - lz77MaxDistance
			if stop < 0 {
				stop = 0
			}
			for ofs := si - 1; ofs >= stop; ofs-- {
				limit := ofs + lz77MaxRun
				if limit > size {
					limit = size
				}
				l := 0
				for i := ofs; i < limit; i++ {
					if si+(i-ofs) >= size {
						break
					}
					if src[i] != src[si+(i-ofs)] {
						break
					}
					l++
				}
				if l > ncopy {
					ncopy = l
					copyOfs = ofs
				}
			}
			if ncopy < lz77MinCopy {
				ncopy = 0
			}
		}

		if nzero == 0 && ncopy == 0 {
			litLen++
			si++
			if litLen < lz77MaxLiteral && si < size {
				continue
			}
		}

		var hdr byte
		var extra []byte
		if litLen <= 6 {
			hdr |= byte(litLen + 1)
		} else {
			extra = append(extra, byte(litLen+1))
		}

		var tail []byte
		if nzero+1 > ncopy {
			si += nzero
			if nzero > 0 && nzero <= 15 {
				hdr |= byte(nzero) << 4
			} else {
				extra = append(extra, byte(nzero))
			}
		} else {
			dist := si - copyOfs
			si += ncopy
			hdr |= 0x08 // DISTCOPY
			ncopy -= 2
			if ncopy <= 15 {
				hdr |= byte(ncopy) << 4
			} else {
				extra = append(extra, byte(ncopy))
			}
			tail = []byte{byte(dist)}
		}

		dst = append(dst, hdr)
		dst = append(dst, extra...)
		dst = append(dst, src[litStart:litStart+litLen]...)
		dst = append(dst, tail...)

		litStart = si
		litLen = 0
	}

	if len(dst) == 0 {
		return Bytes(nil)
	}
	return Bytes(dst)
}

// Decode is the reference decoder used by tests. A header's 3-bit literal
// field and 4-bit tail field each use 0 to mean "see the following
// extension byte for the real count", matching the encoder's emission
// rule exactly.
func (LZ77RLE) Decode(src []byte) []byte {
	var out []byte
	si := 0
	for si < len(src) {
		hdr := src[si]
		si++
		isDist := hdr&0x08 != 0
		litField := int(hdr & 0x07)
		tailField := int((hdr >> 4) & 0x0F)

		var litLen int
		if litField == 0 {
			litLen = int(src[si]) - 1
			si++
		} else {
			litLen = litField - 1
		}

		var count int
		if tailField == 0 {
			count = int(src[si])
			si++
		} else {
			count = tailField
		}
		if isDist {
			count += 2
		}

		out = append(out, src[si:si+litLen]...)
		si += litLen

		if isDist {
			dist := int(src[si])
			si++
			start := len(out) - dist
			for i := 0; i < count; i++ {
				out = append(out, out[start+i])
			}
		} else {
			for i := 0; i < count; i++ {
				out = append(out, 0)
			}
		}
	}
	return out
}
