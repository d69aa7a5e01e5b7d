package elfimage

import (
	"bytes"
	"fmt"
)

// resolveString reads a NUL-terminated ASCII string out of a string-table
// section's payload at idx. Index 0 or an out-of-range index resolves to
// the empty string (matching ELFStringTable.__getitem__ in the reference
// implementation); any other index with no NUL terminator before the end
// of the section is a format error.
func resolveString(strtab []byte, idx uint32) (string, error) {
	if idx == 0 || int(idx) >= len(strtab) {
		return "", nil
	}
	end := bytes.IndexByte(strtab[idx:], 0)
	if end < 0 {
		return "", fmt.Errorf("elfimage: unterminated string at strtab index %d", idx)
	}
	return string(strtab[idx : int(idx)+end]), nil
}
