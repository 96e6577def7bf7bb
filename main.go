package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/foreverWIP/NEID/neid"
)

type config struct {
	input   string
	offset  uint32
	opts    neid.Options
	rawPath string
	imgPath string
	scale   int
	attr    bool
	vram    string
	scratch string
	verbose bool
}

type result struct {
	size    neid.Size
	rawPath string
	images  []string
}

func printUsage() {
	fmt.Println("NEID (Nights Ending Image Decompressor)")
	fmt.Println("Usage:")
	fmt.Println("  neid [options] <input file> <offset>")
	fmt.Println("  neid -scan <input file>")
	fmt.Println()
	fmt.Println("Offsets are decimal, or hex with a leading 0x.")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
}

// parseOffset accepts "0x"-prefixed hex or plain decimal.
func parseOffset(s string) (uint32, error) {
	var v uint64
	var err error
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = strconv.ParseUint(s[2:], 16, 32)
	} else {
		v, err = strconv.ParseUint(s, 10, 32)
	}
	if err != nil {
		return 0, fmt.Errorf("unable to parse offset %q", s)
	}
	return uint32(v), nil
}

// outputBase is the input file name without directory and extension.
func outputBase(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func decodeFile(cfg config) (result, error) {
	var res result

	data, err := os.ReadFile(cfg.input)
	if err != nil {
		return res, fmt.Errorf("could not read input file %s: %w", cfg.input, err)
	}
	if int64(cfg.offset) >= int64(len(data)) {
		return res, fmt.Errorf("offset %X is at or past the end of %s (%d bytes)", cfg.offset, cfg.input, len(data))
	}

	mem := neid.NewAddressSpace(data)
	if cfg.vram != "" {
		seed, err := readDump(cfg.vram, neid.FramebufferSize)
		if err != nil {
			return res, err
		}
		copy(mem.Framebuffer, seed)
	}

	dec := neid.NewDecoder(mem)
	if cfg.verbose {
		dec.Log = log.New(os.Stderr, "neid: ", 0)
	}

	res.size, err = dec.Decode(cfg.offset, cfg.opts)
	if err != nil {
		var ae *neid.AddressError
		switch {
		case errors.Is(err, neid.ErrInvalidHeader):
			return res, fmt.Errorf("no image at %08X: %w", cfg.offset, err)
		case errors.As(err, &ae):
			return res, fmt.Errorf("decompressor attempted to access invalid memory: %w", err)
		}
		return res, err
	}

	base := fmt.Sprintf("%s_%08X", outputBase(cfg.input), cfg.offset)
	res.rawPath = cfg.rawPath
	if res.rawPath == "" {
		res.rawPath = base + "_raw.bin"
	}
	if err := writeDump(res.rawPath, mem.Framebuffer); err != nil {
		return res, err
	}

	imgPath := cfg.imgPath
	if imgPath == "" {
		imgPath = base + ".png"
	}
	planes := []neid.Plane{neid.PlaneLuma}
	if cfg.attr {
		planes = append(planes, neid.PlaneAttr)
	}
	for _, plane := range planes {
		out, err := exportImage(mem, cfg.opts, res.size, plane, imgPath, cfg.scale)
		if err != nil {
			return res, err
		}
		res.images = append(res.images, out)
	}

	if cfg.scratch != "" {
		if err := writeDump(cfg.scratch, mem.Scratch); err != nil {
			return res, err
		}
	}
	return res, nil
}

type found struct {
	offset int
	size   neid.Size
}

// confirmCandidates decodes every header Scan finds and keeps the ones
// that decode cleanly. One address space is reused, cleared before each try.
func confirmCandidates(data []byte) []found {
	mem := neid.NewAddressSpace(data)
	dec := neid.NewDecoder(mem)

	var res []found
	for _, c := range neid.Scan(data) {
		mem.ClearFramebuffer()
		size, err := dec.Decode(uint32(c.Offset), neid.Options{Mode: neid.ModeClear})
		if err != nil {
			continue
		}
		res = append(res, found{offset: c.Offset, size: size})
	}
	return res
}

func scanFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read input file %s: %w", path, err)
	}

	hits := confirmCandidates(data)
	for _, f := range hits {
		fmt.Printf("0x%08X  %3d x %3d\n", f.offset, f.size.Width, f.size.Height)
	}
	fmt.Printf("%d image(s) found in %s\n", len(hits), filepath.Base(path))
	return nil
}

func main() {
	log.SetFlags(0)

	x := flag.Uint("x", 0, "destination x offset in pixels")
	y := flag.Uint("y", 0, "destination y offset in pixels")
	mode := flag.String("mode", "1", "mode bits: 1 clear, 2 set attribute, 4 set attribute on non-zero, 8 bank B")
	rawPath := flag.String("raw", "", "raw framebuffer dump (default <name>_<OFFSET>_raw.bin, .zst compresses)")
	imgPath := flag.String("o", "", "image output, .png .bmp or .jpg (default <name>_<OFFSET>.png)")
	scale := flag.Int("scale", 1, "integer upscale factor for the image")
	attr := flag.Bool("attr", false, "also export the attribute byte as <image>_attr")
	vram := flag.String("vram", "", "raw dump to load into the framebuffer before decoding")
	scratch := flag.String("scratch", "", "write the work RAM table to this file after decoding")
	scan := flag.Bool("scan", false, "list the image offsets found in the input file")
	verbose := flag.Bool("v", false, "verbose output")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if *scan {
		if len(args) != 1 {
			printUsage()
			os.Exit(1)
		}
		if err := scanFile(args[0]); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	if len(args) != 2 {
		printUsage()
		os.Exit(1)
	}

	offset, err := parseOffset(args[1])
	if err != nil {
		log.Fatalf("Error: %v. Offset can be decimal (0-9) or hex with a leading 0x.", err)
	}
	modeBits, err := strconv.ParseUint(*mode, 0, 16)
	if err != nil {
		log.Fatalf("Error: invalid mode %q", *mode)
	}
	if *scale < 1 {
		log.Fatalf("Error: scale must be at least 1")
	}

	cfg := config{
		input:  args[0],
		offset: offset,
		opts: neid.Options{
			XOffset: uint32(*x),
			YOffset: uint32(*y),
			Mode:    neid.Mode(modeBits),
		},
		rawPath: *rawPath,
		imgPath: *imgPath,
		scale:   *scale,
		attr:    *attr,
		vram:    *vram,
		scratch: *scratch,
		verbose: *verbose,
	}

	fmt.Printf("Decompressing %s at 0x%08X...\n", filepath.Base(cfg.input), cfg.offset)
	res, err := decodeFile(cfg)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	fmt.Printf("Image:  %d x %d\n", res.size.Width, res.size.Height)
	fmt.Printf("Raw:    %s\n", res.rawPath)
	for _, img := range res.images {
		fmt.Printf("Output: %s\n", img)
	}
}
