package main

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"

	"github.com/foreverWIP/NEID/neid"
)

// encoderFor picks the image encoder from the file extension.
func encoderFor(path string) (imgio.Encoder, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return imgio.PNGEncoder(), nil
	case ".bmp":
		return imgio.BMPEncoder(), nil
	case ".jpg", ".jpeg":
		return imgio.JPEGEncoder(95), nil
	default:
		return nil, fmt.Errorf("unsupported image format %q", ext)
	}
}

// scaleImage enlarges img by an integer factor without smoothing, so every
// framebuffer word stays a solid block.
func scaleImage(img image.Image, scale int) image.Image {
	if scale <= 1 {
		return img
	}
	b := img.Bounds()
	return transform.Resize(img, b.Dx()*scale, b.Dy()*scale, transform.NearestNeighbor)
}

// planePath derives the file name used for a non-luma plane.
func planePath(path string, plane neid.Plane) string {
	if plane == neid.PlaneLuma {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + plane.String() + ext
}

// exportImage writes one plane of the decoded rectangle to path.
func exportImage(mem *neid.AddressSpace, opts neid.Options, size neid.Size, plane neid.Plane, path string, scale int) (string, error) {
	enc, err := encoderFor(path)
	if err != nil {
		return "", err
	}
	img, err := mem.Image(opts, size, plane)
	if err != nil {
		return "", err
	}

	out := planePath(path, plane)
	if err := imgio.Save(out, scaleImage(img, scale), enc); err != nil {
		return "", fmt.Errorf("could not write %s: %w", out, err)
	}
	return out, nil
}
