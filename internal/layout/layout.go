// Package layout implements the per-section codec selection and the
// rewrite of a data-init table into its compressed, self-decompressing
// form.
package layout

import (
	"encoding/binary"

	"github.com/xyproto/fwcomp/internal/arch"
	"github.com/xyproto/fwcomp/internal/codec"
	"github.com/xyproto/fwcomp/internal/decompmgr"
	"github.com/xyproto/fwcomp/internal/diag"
	"github.com/xyproto/fwcomp/internal/elfimage"
	"github.com/xyproto/fwcomp/internal/fwerr"
)

const (
	tableEntrySize  = 16
	outEntrySize    = 16
	dataInitTableSymbol = "__data_init_table"
)

type inEntry struct {
	src, dst, size, pfn uint32
}

type selected struct {
	codecName string
	payload   codec.Output
	dst       uint32
	size      uint32
}

// Rewrite locates __data_init_table in img, recompresses every non-empty
// entry's backing data with the codec that minimizes payload-plus-code
// cost, and replaces the table's section contents with the rebuilt header,
// descriptors, decompressor code, and payloads. img is mutated in place; on
// any error img may be left partially mutated and must not be packed.
func Rewrite(img *elfimage.Image, a arch.Name, resourceDir string) error {
	name := dataInitTableSymbol
	sym := img.FindSymbol(elfimage.SymbolFilter{Name: &name})
	if sym == nil {
		return fwerr.New(fwerr.Contract, "symbol %s not found", dataInitTableSymbol)
	}
	tableVA := sym.Value
	if uint32(tableVA)&3 != 0 {
		return fwerr.New(fwerr.Contract, "%s value %s is not 4-byte aligned", dataInitTableSymbol, tableVA)
	}

	idata := findSectionStartingAt(img, tableVA)
	if idata == nil {
		return fwerr.New(fwerr.Contract, "no section begins at %s", tableVA)
	}
	originalSize := idata.Size
	diag.Debugf("layout: %s at %s, section %q size %d", dataInitTableSymbol, tableVA, idata.Name, originalSize)

	countBytes, err := img.ReadFromVA(tableVA, 4)
	if err != nil {
		return fwerr.Wrap(fwerr.OutOfRange, err)
	}
	nEntries := binary.LittleEndian.Uint32(countBytes)

	entries := make([]inEntry, nEntries)
	for i := uint32(0); i < nEntries; i++ {
		off := tableVA + 4 + elfimage.VA(i*tableEntrySize)
		b, err := img.ReadFromVA(off, tableEntrySize)
		if err != nil {
			return fwerr.Wrap(fwerr.OutOfRange, err)
		}
		le := binary.LittleEndian
		entries[i] = inEntry{
			src:  le.Uint32(b[0:4]),
			dst:  le.Uint32(b[4:8]),
			size: le.Uint32(b[8:12]),
			pfn:  le.Uint32(b[12:16]),
		}
	}

	mgr := decompmgr.New(a, resourceDir, func(symbol string) (uint32, bool) {
		s := img.FindSymbol(elfimage.SymbolFilter{Name: &symbol})
		if s == nil {
			return 0, false
		}
		return uint32(s.Value), true
	})

	var selections []selected
	for i, e := range entries {
		if e.size == 0 {
			continue
		}
		raw, err := img.ReadFromVA(elfimage.VA(e.dst), e.size)
		if err != nil {
			return fwerr.Wrap(fwerr.OutOfRange, err)
		}

		bestTotal := -1
		var bestCodec codec.Codec
		var bestOut codec.Output
		for _, c := range codec.Registry {
			out := c.Encode(raw)
			if out.IsUnsupported() {
				continue
			}
			dcCost, err := mgr.MarginalCost(c)
			if err != nil {
				diag.Debugf("layout: %s unavailable for entry %d: %v", c.Name(), i, err)
				continue
			}
			total := out.Size() + dcCost
			if bestTotal < 0 || total < bestTotal {
				bestTotal = total
				bestCodec = c
				bestOut = out
			}
			if total == 0 {
				break
			}
		}
		if bestCodec == nil {
			return fwerr.New(fwerr.Incompressible, "entry %d (dst=%#x, size=%d) has no usable codec", i, e.dst, e.size)
		}

		if err := mgr.Register(bestCodec); err != nil {
			return err
		}
		diag.Debugf("layout: entry %d dst=%#x size=%d -> %s (cost %d)", i, e.dst, e.size, bestCodec.Name(), bestTotal)
		selections = append(selections, selected{codecName: bestCodec.Name(), payload: bestOut, dst: e.dst, size: e.size})

		if sec := img.FindSectionByVA(elfimage.VA(e.dst)); sec != nil && sec.Type == elfimage.SHT_PROGBITS {
			sec.Type = elfimage.SHT_NOBITS
		}
	}

	outN := uint32(len(selections))
	headerBytes := uint32(4)
	tableBytes := outEntrySize * outN
	fnAddr := uint32(tableVA) + 4 + tableBytes
	decompCode := mgr.Build(fnAddr)
	dataAddr := fnAddr + uint32(len(decompCode))

	descriptors := make([][16]byte, outN)
	var payloads []byte
	for i, s := range selections {
		switch s.payload.Kind {
		case codec.KindInline:
			descriptors[i] = mgr.MakeTableEntry(s.codecName, s.payload.Value, s.dst, s.size)
		default:
			descriptors[i] = mgr.MakeTableEntry(s.codecName, dataAddr, s.dst, s.size)
			payloads = append(payloads, s.payload.Bytes...)
			dataAddr += uint32(len(s.payload.Bytes))
		}
	}

	image := make([]byte, 0, headerBytes+tableBytes+uint32(len(decompCode))+uint32(len(payloads)))
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], outN)
	image = append(image, countBuf[:]...)
	for _, d := range descriptors {
		image = append(image, d[:]...)
	}
	image = append(image, decompCode...)
	image = append(image, payloads...)

	if uint32(len(image)) > originalSize {
		return fwerr.New(fwerr.CapacityExceeded, "rebuilt %s image is %d bytes, original section was %d", dataInitTableSymbol, len(image), originalSize)
	}

	if err := img.WriteToVA(tableVA, image); err != nil {
		return fwerr.Wrap(fwerr.OutOfRange, err)
	}
	idata.Payload = idata.Payload[:len(image)]
	idata.Size = uint32(len(image))
	diag.Debugf("layout: rebuilt %s image is %d of %d original bytes", dataInitTableSymbol, len(image), originalSize)

	return nil
}

func findSectionStartingAt(img *elfimage.Image, va elfimage.VA) *elfimage.Section {
	for i := range img.Sections {
		if img.Sections[i].Addr == va {
			return &img.Sections[i]
		}
	}
	return nil
}
