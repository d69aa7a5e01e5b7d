package elfimage

import "encoding/binary"

// Section types (sh_type), the subset this package recognizes. Values
// match the ELF specification exactly (they are wire format, not a
// stylistic choice).
const (
	SHT_NULL     = 0
	SHT_PROGBITS = 1
	SHT_SYMTAB   = 2
	SHT_STRTAB   = 3
	SHT_RELA     = 4
	SHT_HASH     = 5
	SHT_DYNAMIC  = 6
	SHT_NOTE     = 7
	SHT_NOBITS   = 8
	SHT_REL      = 9
	SHT_DYNSYM   = 11
)

// Section flags (sh_flags).
const (
	SHF_WRITE     = 0x1
	SHF_ALLOC     = 0x2
	SHF_EXECINSTR = 0x4
)

// Section is an ELF32 section header entry plus the payload bytes it owns
// (empty for NULL/NOBITS sections).
type Section struct {
	NameIdx   uint32
	Name      string
	Type      uint32
	Flags     uint32
	Addr      VA
	Offset    FileOff
	Size      uint32
	Link      uint32
	Info      uint32
	Addralign uint32
	Entsize   uint32

	Payload []byte
}

func parseSectionHeader(b []byte) Section {
	le := binary.LittleEndian
	return Section{
		NameIdx:   le.Uint32(b[0:4]),
		Type:      le.Uint32(b[4:8]),
		Flags:     le.Uint32(b[8:12]),
		Addr:      VA(le.Uint32(b[12:16])),
		Offset:    FileOff(le.Uint32(b[16:20])),
		Size:      le.Uint32(b[20:24]),
		Link:      le.Uint32(b[24:28]),
		Info:      le.Uint32(b[28:32]),
		Addralign: le.Uint32(b[32:36]),
		Entsize:   le.Uint32(b[36:40]),
	}
}

func (s Section) pack() []byte {
	b := make([]byte, sectEntSize)
	le := binary.LittleEndian
	le.PutUint32(b[0:4], s.NameIdx)
	le.PutUint32(b[4:8], s.Type)
	le.PutUint32(b[8:12], s.Flags)
	le.PutUint32(b[12:16], uint32(s.Addr))
	le.PutUint32(b[16:20], uint32(s.Offset))
	le.PutUint32(b[20:24], s.Size)
	le.PutUint32(b[24:28], s.Link)
	le.PutUint32(b[28:32], s.Info)
	le.PutUint32(b[32:36], s.Addralign)
	le.PutUint32(b[36:40], s.Entsize)
	return b
}

// HasData reports whether the section contributes file bytes to the image.
// NULL and NOBITS sections never do.
func (s Section) HasData() bool {
	return s.Type != SHT_NULL && s.Type != SHT_NOBITS
}

// ContainsVA reports whether va falls within this section's load image.
func (s Section) ContainsVA(va VA) bool {
	return containsVA(s.Addr, s.Size, va)
}

// ContainsOffset reports whether off falls within this section's on-disk
// image.
func (s Section) ContainsOffset(off FileOff) bool {
	return containsOffset(s.Offset, s.Size, off)
}
