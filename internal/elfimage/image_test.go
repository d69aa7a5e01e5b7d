package elfimage

import (
	"bytes"
	"debug/elf"
	"testing"
)

// buildFixture assembles a minimal but complete ELF32 image by hand: one
// PT_LOAD segment backing a writable .data section, plus .shstrtab,
// .symtab and .strtab so symbol lookup has something to resolve. Mirrors
// the shape of a real linker-produced data-initialization image without
// pulling in any actual toolchain.
func buildFixture(t *testing.T) *Image {
	t.Helper()

	type strent struct {
		name string
		idx  uint32
	}
	mkstrtab := func(names ...string) ([]byte, map[string]uint32) {
		buf := []byte{0}
		idx := map[string]uint32{"": 0}
		for _, n := range names {
			idx[n] = uint32(len(buf))
			buf = append(buf, append([]byte(n), 0)...)
		}
		return buf, idx
	}

	shstrtabPayload, shidx := mkstrtab(".data", ".shstrtab", ".symtab", ".strtab")
	strtabPayload, stridx := mkstrtab("__data_init_table")

	dataPayload := []byte{0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA}

	sym := Symbol{
		NameIdx: stridx["__data_init_table"],
		Name:    "__data_init_table",
		Value:   0x20000000,
		Size:    0,
		Info:    (STB_GLOBAL << 4) | STT_OBJECT,
		Shndx:   1,
	}
	symtabPayload := sym.pack()

	off := FileOff(headerSize)
	segTableOff := off
	off += segEntSize // one segment entry

	dataOff := off
	off += FileOff(len(dataPayload))

	shstrtabOff := off
	off += FileOff(len(shstrtabPayload))

	symtabOff := off
	off += FileOff(len(symtabPayload))

	strtabOff := off
	off += FileOff(len(strtabPayload))

	_ = segTableOff

	img := &Image{
		Header: Header{
			Type:      2, // ET_EXEC
			Machine:   40, // EM_ARM
			Version:   1,
			Entry:     0,
			Phoff:     headerSize,
			Flags:     0,
			Ehsize:    headerSize,
			Phentsize: segEntSize,
			Shentsize: sectEntSize,
			Shstrndx:  2,
		},
		Segments: []Segment{
			{
				Type:   PT_LOAD,
				Offset: dataOff,
				Vaddr:  0x20000000,
				Paddr:  0x20000000,
				Filesz: uint32(len(dataPayload)),
				Memsz:  uint32(len(dataPayload)),
				Flags:  PF_R | PF_W,
				Align:  4,
				Payload: append([]byte(nil), dataPayload...),
			},
		},
		Sections: []Section{
			{Type: SHT_NULL},
			{
				NameIdx: shidx[".data"], Name: ".data", Type: SHT_PROGBITS,
				Flags: SHF_ALLOC | SHF_WRITE, Addr: 0x20000000, Offset: dataOff,
				Size: uint32(len(dataPayload)), Addralign: 4,
				Payload: append([]byte(nil), dataPayload...),
			},
			{
				NameIdx: shidx[".shstrtab"], Name: ".shstrtab", Type: SHT_STRTAB,
				Offset: shstrtabOff, Size: uint32(len(shstrtabPayload)), Addralign: 1,
				Payload: shstrtabPayload,
			},
			{
				NameIdx: shidx[".symtab"], Name: ".symtab", Type: SHT_SYMTAB,
				Offset: symtabOff, Size: uint32(len(symtabPayload)), Addralign: 4,
				Entsize: symEntSize, Link: 4,
				Payload: symtabPayload,
			},
			{
				NameIdx: shidx[".strtab"], Name: ".strtab", Type: SHT_STRTAB,
				Offset: strtabOff, Size: uint32(len(strtabPayload)), Addralign: 1,
				Payload: strtabPayload,
			},
		},
	}
	return img
}

func TestPackThenParseRoundTrip(t *testing.T) {
	orig := buildFixture(t)
	packed, err := orig.Pack()
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	reparsed, err := Parse(packed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(reparsed.Sections) != len(orig.Sections) {
		t.Fatalf("section count: got %d, want %d", len(reparsed.Sections), len(orig.Sections))
	}
	data := reparsed.FindSectionByName(".data")
	if data == nil {
		t.Fatal("missing .data section after round trip")
	}
	if !bytes.Equal(data.Payload, orig.Sections[1].Payload) {
		t.Fatalf(".data payload mismatch after round trip")
	}

	sym := reparsed.FindSymbol(SymbolFilter{Name: strPtr("__data_init_table")})
	if sym == nil {
		t.Fatal("symbol not found after round trip")
	}
	if sym.Value != 0x20000000 {
		t.Fatalf("symbol value: got %s, want 0x20000000", sym.Value)
	}
}

func TestPackIsValidToStdlibDebugELF(t *testing.T) {
	img := buildFixture(t)
	packed, err := img.Pack()
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	f, err := elf.NewFile(bytes.NewReader(packed))
	if err != nil {
		t.Fatalf("debug/elf rejected packed image: %v", err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 {
		t.Fatalf("class: got %v, want ELFCLASS32", f.Class)
	}
	sec := f.Section(".data")
	if sec == nil {
		t.Fatal("debug/elf could not find .data section")
	}
	if sec.Addr != 0x20000000 {
		t.Fatalf(".data addr: got %#x, want 0x20000000", sec.Addr)
	}
}

func TestReadWriteFromVA(t *testing.T) {
	img := buildFixture(t)

	got, err := img.ReadFromVA(0x20000000, 16)
	if err != nil {
		t.Fatalf("ReadFromVA: %v", err)
	}
	want := bytes.Repeat([]byte{0xAA}, 16)
	if !bytes.Equal(got, want) {
		t.Fatalf("ReadFromVA: got %v, want %v", got, want)
	}

	newData := bytes.Repeat([]byte{0x55}, 16)
	if err := img.WriteToVA(0x20000000, newData); err != nil {
		t.Fatalf("WriteToVA: %v", err)
	}
	// the segment and the overlapping section must both be updated.
	if !bytes.Equal(img.Segments[0].Payload, newData) {
		t.Fatalf("segment payload not updated by WriteToVA")
	}
	if !bytes.Equal(img.Sections[1].Payload, newData) {
		t.Fatalf("section payload not updated by WriteToVA")
	}

	// idempotence: writing the same bytes twice yields the same buffer.
	if err := img.WriteToVA(0x20000000, newData); err != nil {
		t.Fatalf("WriteToVA (second write): %v", err)
	}
	if !bytes.Equal(img.Segments[0].Payload, newData) {
		t.Fatalf("segment payload changed on repeated identical write")
	}

	got2, err := img.ReadFromVA(0x20000000, 16)
	if err != nil {
		t.Fatalf("ReadFromVA after write: %v", err)
	}
	if !bytes.Equal(got2, newData) {
		t.Fatalf("read-after-write mismatch: got %v, want %v", got2, newData)
	}
}

func TestReadFromVAOutOfRange(t *testing.T) {
	img := buildFixture(t)
	if _, err := img.ReadFromVA(0x20000000, 17); err == nil {
		t.Fatal("expected an error reading past the section/segment end")
	}
	if _, err := img.ReadFromVA(0xDEADBEEF, 4); err == nil {
		t.Fatal("expected an error reading an unmapped address")
	}
}

func TestReadFromVASegmentTail(t *testing.T) {
	img := buildFixture(t)
	// extend the segment's memsz beyond its filesz to exercise the
	// zero-padded tail path; drop the sections so the read can only
	// resolve via the segment.
	img.Segments[0].Memsz = 20
	img.Sections = nil // force segment-only resolution

	got, err := img.ReadFromVA(0x20000000, 20)
	if err != nil {
		t.Fatalf("ReadFromVA: %v", err)
	}
	want := append(bytes.Repeat([]byte{0xAA}, 16), 0, 0, 0, 0)
	if !bytes.Equal(got, want) {
		t.Fatalf("tail read: got %v, want %v", got, want)
	}
}

func TestOffsetForVA(t *testing.T) {
	img := buildFixture(t)
	off, ok := img.OffsetForVA(0x20000000)
	if !ok {
		t.Fatal("OffsetForVA: expected ok")
	}
	if off != img.Segments[0].Offset {
		t.Fatalf("OffsetForVA: got %s, want %s", off, img.Segments[0].Offset)
	}
	if _, ok := img.OffsetForVA(0xDEADBEEF); ok {
		t.Fatal("OffsetForVA: expected not ok for unmapped address")
	}
}

func strPtr(s string) *string { return &s }
