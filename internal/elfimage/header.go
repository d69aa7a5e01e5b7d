package elfimage

import (
	"encoding/binary"
	"fmt"
)

// Sizes of the fixed-layout ELF32 structures this package reads and writes.
const (
	headerSize  = 52
	segEntSize  = 32
	sectEntSize = 40
	symEntSize  = 16
)

const (
	classELF32 = 1
	dataLSB    = 1 // ELFDATA2LSB, little-endian
)

var magic = [4]byte{0x7F, 'E', 'L', 'F'}

// Header is the fixed ELF32 header (Elf32_Ehdr).
type Header struct {
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     VA
	Phoff     FileOff
	Shoff     FileOff
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

func parseHeader(b []byte) (Header, error) {
	var h Header
	if len(b) < headerSize {
		return h, fmt.Errorf("elfimage: file too short for an ELF header (%d bytes)", len(b))
	}
	if [4]byte(b[0:4]) != magic {
		return h, fmt.Errorf("elfimage: bad magic %x", b[0:4])
	}
	class := b[4]
	if class != classELF32 {
		return h, fmt.Errorf("elfimage: unsupported bitness (ELF class %d, only ELF32 supported)", class)
	}
	if b[5] != dataLSB {
		return h, fmt.Errorf("elfimage: unsupported byte order (ELF data %d, only little-endian supported)", b[5])
	}

	le := binary.LittleEndian
	r := b[16:]
	h.Type = le.Uint16(r[0:2])
	h.Machine = le.Uint16(r[2:4])
	h.Version = le.Uint32(r[4:8])
	h.Entry = VA(le.Uint32(r[8:12]))
	h.Phoff = FileOff(le.Uint32(r[12:16]))
	h.Shoff = FileOff(le.Uint32(r[16:20]))
	h.Flags = le.Uint32(r[20:24])
	h.Ehsize = le.Uint16(r[24:26])
	h.Phentsize = le.Uint16(r[26:28])
	h.Phnum = le.Uint16(r[28:30])
	h.Shentsize = le.Uint16(r[30:32])
	h.Shnum = le.Uint16(r[32:34])
	h.Shstrndx = le.Uint16(r[34:36])

	if h.Ehsize != headerSize {
		return h, fmt.Errorf("elfimage: unexpected e_ehsize %d (want %d)", h.Ehsize, headerSize)
	}
	if h.Phnum > 0 && h.Phentsize != segEntSize {
		return h, fmt.Errorf("elfimage: unexpected e_phentsize %d (want %d)", h.Phentsize, segEntSize)
	}
	if h.Shnum > 0 && h.Shentsize != sectEntSize {
		return h, fmt.Errorf("elfimage: unexpected e_shentsize %d (want %d)", h.Shentsize, sectEntSize)
	}
	return h, nil
}

func (h Header) pack() []byte {
	b := make([]byte, headerSize)
	copy(b[0:4], magic[:])
	b[4] = classELF32
	b[5] = dataLSB
	b[6] = 1 // EV_CURRENT
	// b[7] EI_OSABI, b[8] EI_ABIVERSION, b[9:16] padding left zero

	le := binary.LittleEndian
	r := b[16:]
	le.PutUint16(r[0:2], h.Type)
	le.PutUint16(r[2:4], h.Machine)
	le.PutUint32(r[4:8], h.Version)
	le.PutUint32(r[8:12], uint32(h.Entry))
	le.PutUint32(r[12:16], uint32(h.Phoff))
	le.PutUint32(r[16:20], uint32(h.Shoff))
	le.PutUint32(r[20:24], h.Flags)
	le.PutUint16(r[24:26], h.Ehsize)
	le.PutUint16(r[26:28], h.Phentsize)
	le.PutUint16(r[28:30], h.Phnum)
	le.PutUint16(r[30:32], h.Shentsize)
	le.PutUint16(r[32:34], h.Shnum)
	le.PutUint16(r[34:36], h.Shstrndx)
	return b
}
