package codec

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xyproto/fwcomp/internal/arch"
)

// loadBlob reads an opaque decompressor image from
// "<resourceDir>/<algo>/decompress/d_<arch>.bin". The content is consumed
// verbatim with no interpretation — authoring these blobs is out of scope
// for this tool.
func loadBlob(resourceDir, algo string, a arch.Name) ([]byte, error) {
	path := filepath.Join(resourceDir, algo, "decompress", "d_"+a.String()+".bin")
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("codec: loading %s decompressor for %s: %w", algo, a, err)
	}
	return b, nil
}
