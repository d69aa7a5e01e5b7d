// Package elfimage parses and repacks a 32-bit little-endian ELF image,
// with virtual-address-indexed read/write and symbol lookup. It covers only
// what a post-link data-section rewrite needs: it does not process
// relocations, dynamic linking structures, or build an ELF from scratch.
package elfimage

import (
	"fmt"
)

// Image is a parsed, mutable ELF32 file.
type Image struct {
	Header   Header
	Segments []Segment
	Sections []Section
	Symbols  []Symbol
}

// Parse reads a 32-bit little-endian ELF from data. It always runs in
// writable mode: the program header table must immediately follow the ELF
// header, and the section header table must be the last structure in the
// file. Both are required because Pack rewrites the file in place under
// that assumption.
func Parse(data []byte) (*Image, error) {
	hdr, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	if uint32(hdr.Phoff) != headerSize {
		return nil, fmt.Errorf("elfimage: incompatible writable layout: program header table is not immediately after the ELF header")
	}
	if hdr.Shoff != 0 && hdr.Shnum != 0 {
		want := uint32(hdr.Shoff) + uint32(hdr.Shnum)*sectEntSize
		if want != uint32(len(data)) {
			return nil, fmt.Errorf("elfimage: incompatible writable layout: section header table is not at the end of the file")
		}
	}

	img := &Image{Header: hdr}

	for i := 0; i < int(hdr.Phnum); i++ {
		off := int(hdr.Phoff) + i*segEntSize
		if off+segEntSize > len(data) {
			return nil, fmt.Errorf("elfimage: program header %d out of range", i)
		}
		seg := parseSegment(data[off : off+segEntSize])
		end := int(seg.Offset) + int(seg.Filesz)
		if end > len(data) || int(seg.Offset) < 0 {
			return nil, fmt.Errorf("elfimage: segment %d file range out of range", i)
		}
		seg.Payload = append([]byte(nil), data[seg.Offset:end]...)
		img.Segments = append(img.Segments, seg)
	}

	for i := 0; i < int(hdr.Shnum); i++ {
		off := int(hdr.Shoff) + i*sectEntSize
		if off+sectEntSize > len(data) {
			return nil, fmt.Errorf("elfimage: section header %d out of range", i)
		}
		sec := parseSectionHeader(data[off : off+sectEntSize])
		if sec.HasData() {
			end := int(sec.Offset) + int(sec.Size)
			if end > len(data) {
				return nil, fmt.Errorf("elfimage: section %d file range out of range", i)
			}
			sec.Payload = append([]byte(nil), data[sec.Offset:end]...)
		}
		img.Sections = append(img.Sections, sec)
	}

	if int(hdr.Shstrndx) < len(img.Sections) && hdr.Shstrndx != 0 {
		shstrtab := img.Sections[hdr.Shstrndx].Payload
		for i := range img.Sections {
			name, err := resolveString(shstrtab, img.Sections[i].NameIdx)
			if err != nil {
				return nil, fmt.Errorf("elfimage: resolving section %d name: %w", i, err)
			}
			img.Sections[i].Name = name
		}
	}

	strtabIdx := img.findSectionIndexByName(".strtab")
	symtabIdx := img.findSectionIndexByName(".symtab")
	if symtabIdx >= 0 {
		if strtabIdx < 0 {
			return nil, fmt.Errorf("elfimage: found symbol table without string table")
		}
		symtab := img.Sections[symtabIdx]
		strtab := img.Sections[strtabIdx].Payload
		n := len(symtab.Payload) / symEntSize
		for i := 0; i < n; i++ {
			off := i * symEntSize
			sym := parseSymbol(symtab.Payload[off : off+symEntSize])
			name, err := resolveString(strtab, sym.NameIdx)
			if err != nil {
				return nil, fmt.Errorf("elfimage: resolving symbol %d name: %w", i, err)
			}
			sym.Name = name
			img.Symbols = append(img.Symbols, sym)
		}
	}

	return img, nil
}

func (img *Image) findSectionIndexByName(name string) int {
	for i, s := range img.Sections {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// FindSectionByName returns the first section with the given name, or nil.
func (img *Image) FindSectionByName(name string) *Section {
	if i := img.findSectionIndexByName(name); i >= 0 {
		return &img.Sections[i]
	}
	return nil
}

// FindSectionByVA returns the first section containing va, or nil.
func (img *Image) FindSectionByVA(va VA) *Section {
	for i := range img.Sections {
		if img.Sections[i].ContainsVA(va) {
			return &img.Sections[i]
		}
	}
	return nil
}

// FindSectionByOffset returns the first section containing off, or nil.
func (img *Image) FindSectionByOffset(off FileOff) *Section {
	for i := range img.Sections {
		if img.Sections[i].ContainsOffset(off) {
			return &img.Sections[i]
		}
	}
	return nil
}

// FindSegmentByVA returns the first segment containing va, or nil.
func (img *Image) FindSegmentByVA(va VA) *Segment {
	for i := range img.Segments {
		if img.Segments[i].ContainsVA(va) {
			return &img.Segments[i]
		}
	}
	return nil
}

// FindSegmentByPA returns the first segment containing pa, or nil.
func (img *Image) FindSegmentByPA(pa uint32) *Segment {
	for i := range img.Segments {
		if img.Segments[i].ContainsPA(pa) {
			return &img.Segments[i]
		}
	}
	return nil
}

// FindSegmentByOffset returns the first segment containing off, or nil.
func (img *Image) FindSegmentByOffset(off FileOff) *Segment {
	for i := range img.Segments {
		if img.Segments[i].ContainsOffset(off) {
			return &img.Segments[i]
		}
	}
	return nil
}

// FindSymbol runs a conjunctive filter across the symbol table and returns
// the first match, or nil.
func (img *Image) FindSymbol(f SymbolFilter) *Symbol {
	for i := range img.Symbols {
		if f.matches(img.Symbols[i]) {
			return &img.Symbols[i]
		}
	}
	return nil
}

// OffsetForVA maps a virtual address to a file offset, preferring a
// covering segment over a covering section, matching the read/write
// address-resolution precedence. Returns ok=false if va belongs to
// neither.
func (img *Image) OffsetForVA(va VA) (off FileOff, ok bool) {
	if seg := img.FindSegmentByVA(va); seg != nil {
		return seg.Offset + FileOff(va-seg.Vaddr), true
	}
	if sec := img.FindSectionByVA(va); sec != nil {
		return sec.Offset + FileOff(va-sec.Addr), true
	}
	return 0, false
}

// ReadFromVA reads n bytes starting at va. It looks in the first covering
// segment first; if the read's end falls inside a segment's
// [Filesz, Memsz) tail, the bytes beyond Filesz are returned as zero. If no
// segment covers va, the first covering section is tried. A read crossing
// out of the covering region's bounds, or covered by neither, is an error.
func (img *Image) ReadFromVA(va VA, n uint32) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	if seg := img.FindSegmentByVA(va); seg != nil {
		if uint64(va)+uint64(n) > uint64(seg.Vaddr)+uint64(seg.Memsz) {
			return nil, fmt.Errorf("elfimage: read @%s[%#x] is out of bounds or crosses segment boundaries", va, n)
		}
		start := uint32(va - seg.Vaddr)
		end := start + n
		switch {
		case start >= seg.Filesz:
			return make([]byte, n), nil
		case end > seg.Filesz:
			out := make([]byte, n)
			copy(out, seg.Payload[start:seg.Filesz])
			return out, nil
		default:
			out := make([]byte, n)
			copy(out, seg.Payload[start:end])
			return out, nil
		}
	}
	if sec := img.FindSectionByVA(va); sec != nil {
		if uint64(va)+uint64(n) > uint64(sec.Addr)+uint64(sec.Size) {
			return nil, fmt.Errorf("elfimage: read @%s[%#x] is out of bounds or crosses section boundaries", va, n)
		}
		start := uint32(va - sec.Addr)
		out := make([]byte, n)
		copy(out, sec.Payload[start:start+n])
		return out, nil
	}
	return nil, fmt.Errorf("elfimage: read @%s[%#x] does not belong to any segment/section", va, n)
}

// WriteToVA writes data starting at va into every segment AND section that
// contains va — ELFs commonly map the same VA through both a LOAD segment
// and a section, and both copies must stay consistent since Pack only
// consults the section/segment payloads, never cross-checks them. It is an
// error if neither a segment nor a section covers va, or if the write
// crosses out of a covering region's bounds.
func (img *Image) WriteToVA(va VA, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	n := uint32(len(data))
	wrote := false

	for i := range img.Segments {
		seg := &img.Segments[i]
		if !seg.ContainsVA(va) {
			continue
		}
		if uint64(va)+uint64(n) > uint64(seg.Vaddr)+uint64(seg.Filesz) {
			return fmt.Errorf("elfimage: write @%s[%#x] is out of bounds or crosses segment boundaries", va, n)
		}
		start := uint32(va - seg.Vaddr)
		copy(seg.Payload[start:start+n], data)
		wrote = true
	}
	for i := range img.Sections {
		sec := &img.Sections[i]
		if !sec.ContainsVA(va) {
			continue
		}
		if uint64(va)+uint64(n) > uint64(sec.Addr)+uint64(sec.Size) {
			return fmt.Errorf("elfimage: write @%s[%#x] is out of bounds or crosses section boundaries", va, n)
		}
		start := uint32(va - sec.Addr)
		copy(sec.Payload[start:start+n], data)
		wrote = true
	}
	if !wrote {
		return fmt.Errorf("elfimage: write @%s[%#x] does not belong to any segment/section", va, n)
	}
	return nil
}

func (img *Image) findSegmentByVAMut(va VA) *Segment {
	for i := range img.Segments {
		if img.Segments[i].ContainsVA(va) {
			return &img.Segments[i]
		}
	}
	return nil
}

func (img *Image) findSectionByVAMut(va VA) *Section {
	for i := range img.Sections {
		if img.Sections[i].ContainsVA(va) {
			return &img.Sections[i]
		}
	}
	return nil
}

// Pack reassembles the image into a byte slice: segment payloads and
// section payloads are written at their (possibly just-updated) offsets,
// the section header table is placed 4-byte-aligned after the highest
// offset in use, and the ELF header is rewritten with the new
// shoff/shnum/phnum. Sections of type NULL or NOBITS contribute no file
// bytes.
func (img *Image) Pack() ([]byte, error) {
	var imageSize uint32
	for _, s := range img.Segments {
		if s.Filesz != 0 {
			if end := uint32(s.Offset) + s.Filesz; end > imageSize {
				imageSize = end
			}
		}
	}
	for _, s := range img.Sections {
		if s.HasData() {
			if end := uint32(s.Offset) + s.Size; end > imageSize {
				imageSize = end
			}
		}
	}

	if len(img.Sections) > 0 {
		imageSize = ((imageSize - 1) | 3) + 1
		img.Header.Shoff = FileOff(imageSize)
		imageSize += sectEntSize * uint32(len(img.Sections))
	}

	img.Header.Phnum = uint16(len(img.Segments))
	img.Header.Shnum = uint16(len(img.Sections))

	out := make([]byte, imageSize)

	for _, s := range img.Segments {
		copy(out[s.Offset:uint32(s.Offset)+s.Filesz], s.Payload[:s.Filesz])
	}
	for _, s := range img.Sections {
		if s.HasData() {
			copy(out[s.Offset:uint32(s.Offset)+s.Size], s.Payload[:s.Size])
		}
	}

	hdr := img.Header.pack()
	copy(out[0:len(hdr)], hdr)
	for i, s := range img.Segments {
		off := int(img.Header.Phoff) + i*segEntSize
		copy(out[off:off+segEntSize], s.pack())
	}
	for i, s := range img.Sections {
		off := int(img.Header.Shoff) + i*sectEntSize
		copy(out[off:off+sectEntSize], s.pack())
	}

	return out, nil
}
