// Command fwcomp rewrites a 32-bit ELF executable's data-init table so its
// RAM-initialized sections are stored compressed and decompressed at boot.
package main

import (
	"fmt"
	"os"

	"github.com/xyproto/env/v2"

	"github.com/xyproto/fwcomp/internal/arch"
	"github.com/xyproto/fwcomp/internal/diag"
	"github.com/xyproto/fwcomp/internal/elfimage"
	"github.com/xyproto/fwcomp/internal/fwerr"
	"github.com/xyproto/fwcomp/internal/layout"
)

const versionString = "fwcomp 1.0.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	diag.Verbose = env.Bool("FWCOMP_VERBOSE")
	resourceDir := env.Str("FWCOMP_RESOURCE_DIR", "compression")

	if len(args) != 3 {
		fmt.Fprintf(os.Stderr, "%s\nusage: fwcomp <arch> <in.elf> <out.elf>\n", versionString)
		return fwerr.Usage.ExitCode()
	}
	archName, inPath, outPath := args[0], args[1], args[2]

	a, err := arch.Parse(archName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return fwerr.Usage.ExitCode()
	}
	diag.Debugf("fwcomp: arch=%s in=%s out=%s resourceDir=%s", a, inPath, outPath, resourceDir)

	data, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return fwerr.Format.ExitCode()
	}

	img, err := elfimage.Parse(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return fwerr.KindOf(err).ExitCode()
	}

	if err := layout.Rewrite(img, a, resourceDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return fwerr.KindOf(err).ExitCode()
	}

	out, err := img.Pack()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return fwerr.KindOf(err).ExitCode()
	}

	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return fwerr.Format.ExitCode()
	}

	diag.Infof("fwcomp: wrote %s (%d bytes)", outPath, len(out))
	return 0
}
