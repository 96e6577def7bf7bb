package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Raw dumps are plain memory images. A .zst suffix stores them zstd
// compressed; a 1MB framebuffer with one small image in it shrinks a lot.

func isZstd(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zst")
}

func newZstdEncoder() (*zstd.Encoder, error) {
	return zstd.NewWriter(
		nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithLowerEncoderMem(true),
	)
}

func newZstdDecoder() (*zstd.Decoder, error) {
	return zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
}

// writeDump writes data to path, compressing it for .zst paths.
func writeDump(path string, data []byte) error {
	if isZstd(path) {
		enc, err := newZstdEncoder()
		if err != nil {
			return err
		}
		data = enc.EncodeAll(data, nil)
		enc.Close()
	}
	return os.WriteFile(path, data, 0644)
}

// readDump loads a dump written by writeDump and checks it is exactly size bytes.
func readDump(path string, size int) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isZstd(path) {
		dec, err := newZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		if data, err = dec.DecodeAll(data, nil); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if len(data) != size {
		return nil, fmt.Errorf("%s: dump is %d bytes, expected %d", path, len(data), size)
	}
	return data, nil
}
