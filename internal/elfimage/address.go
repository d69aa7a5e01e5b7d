package elfimage

import "fmt"

// VA is a virtual (load-time) address as used by sections, segments, and
// symbols inside the image.
type VA uint32

// FileOff is a byte offset within the ELF file on disk.
type FileOff uint32

func (v VA) String() string      { return fmt.Sprintf("0x%08x", uint32(v)) }
func (f FileOff) String() string { return fmt.Sprintf("file:0x%08x", uint32(f)) }

// containsVA reports whether q falls in the half-open range [addr, addr+size).
func containsVA(addr VA, size uint32, q VA) bool {
	return q >= addr && uint64(q) < uint64(addr)+uint64(size)
}

// containsOffset reports whether q falls in the half-open range
// [off, off+size).
func containsOffset(off FileOff, size uint32, q FileOff) bool {
	return q >= off && uint64(q) < uint64(off)+uint64(size)
}
