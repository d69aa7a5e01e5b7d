package elfimage

import "encoding/binary"

// Segment types (p_type), the subset this package recognizes.
const (
	PT_NULL    = 0
	PT_LOAD    = 1
	PT_DYNAMIC = 2
	PT_INTERP  = 3
	PT_NOTE    = 4
	PT_PHDR    = 6
)

// Segment flags (p_flags).
const (
	PF_X = 1
	PF_W = 2
	PF_R = 4
)

// Segment is an ELF32 program header entry. Field order on the wire is
// {Type,Offset,Vaddr,Paddr,Filesz,Memsz,Flags,Align}, the 32-bit layout —
// the 64-bit ELF layout reorders Flags next to Type and widens everything
// to 64 bits, so this struct is not interchangeable with an Elf64_Phdr.
type Segment struct {
	Type   uint32
	Offset FileOff
	Vaddr  VA
	Paddr  uint32
	Filesz uint32
	Memsz  uint32
	Flags  uint32
	Align  uint32

	// Payload holds Filesz bytes read from [Offset, Offset+Filesz) at parse
	// time. The [Filesz, Memsz) tail has no file representation and reads
	// as zero.
	Payload []byte
}

func parseSegment(b []byte) Segment {
	le := binary.LittleEndian
	return Segment{
		Type:   le.Uint32(b[0:4]),
		Offset: FileOff(le.Uint32(b[4:8])),
		Vaddr:  VA(le.Uint32(b[8:12])),
		Paddr:  le.Uint32(b[12:16]),
		Filesz: le.Uint32(b[16:20]),
		Memsz:  le.Uint32(b[20:24]),
		Flags:  le.Uint32(b[24:28]),
		Align:  le.Uint32(b[28:32]),
	}
}

func (s Segment) pack() []byte {
	b := make([]byte, segEntSize)
	le := binary.LittleEndian
	le.PutUint32(b[0:4], s.Type)
	le.PutUint32(b[4:8], uint32(s.Offset))
	le.PutUint32(b[8:12], uint32(s.Vaddr))
	le.PutUint32(b[12:16], s.Paddr)
	le.PutUint32(b[16:20], s.Filesz)
	le.PutUint32(b[20:24], s.Memsz)
	le.PutUint32(b[24:28], s.Flags)
	le.PutUint32(b[28:32], s.Align)
	return b
}

// ContainsVA reports whether va falls within this segment's memory image,
// including the zero-filled [Filesz, Memsz) tail.
func (s Segment) ContainsVA(va VA) bool {
	return containsVA(s.Vaddr, s.Memsz, va)
}

// ContainsPA is the physical-address analogue of ContainsVA.
func (s Segment) ContainsPA(pa uint32) bool {
	return uint64(pa) >= uint64(s.Paddr) && uint64(pa) < uint64(s.Paddr)+uint64(s.Memsz)
}

// ContainsOffset reports whether off falls within the segment's on-disk
// image, i.e. [Offset, Offset+Filesz) — the tail beyond Filesz has no file
// representation.
func (s Segment) ContainsOffset(off FileOff) bool {
	return containsOffset(s.Offset, s.Filesz, off)
}
