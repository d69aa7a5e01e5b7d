// Package arch names the target architecture a rewrite run is for. The
// string selects which decompressor blob file gets loaded; a codec's
// reported decompressor alignment does not depend on it.
package arch

import (
	"fmt"
	"strings"
)

// Name is a canonicalized architecture identifier, e.g. "arm", "x86_64".
type Name string

const (
	Unknown Name = ""
	ARM     Name = "arm"
	ARM64   Name = "arm64"
	X86_64  Name = "x86_64"
	RISCV64 Name = "riscv64"
)

// Parse canonicalizes a user-supplied architecture string. Unknown strings
// are not rejected here: the blob loader (internal/codec) is what
// eventually fails if no decompressor blobs exist for the name.
func Parse(s string) (Name, error) {
	switch strings.ToLower(s) {
	case "arm", "cortex-m", "cortex-m0", "cortex-m3", "cortex-m4":
		return ARM, nil
	case "arm64", "aarch64":
		return ARM64, nil
	case "x86_64", "amd64", "x86-64":
		return X86_64, nil
	case "riscv64", "riscv", "rv64":
		return RISCV64, nil
	case "":
		return Unknown, fmt.Errorf("arch: empty architecture string")
	default:
		return Name(s), nil
	}
}

func (n Name) String() string {
	if n == Unknown {
		return "unknown"
	}
	return string(n)
}
