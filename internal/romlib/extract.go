package romlib

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/nwaples/rardecode/v2"

	"github.com/retroplay/gbagent/backend/internal/shared/ident"
)

// extract pulls the first ROM image out of an archive. The archive
// format comes from content sniffing, not the file extension, so a
// renamed archive still extracts.
func extract(path string) ([]byte, string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("cannot read archive %s: %w", filepath.Base(path), err)
	}

	switch {
	case mt.Is("application/zip"):
		return extractZip(path)
	case mt.Is("application/x-7z-compressed"):
		return extract7z(path)
	case mt.Is("application/gzip"):
		return extractGzip(path)
	case mt.Is("application/x-rar-compressed") || mt.Is("application/x-rar"):
		return extractRAR(path)
	default:
		return nil, "", fmt.Errorf("unrecognized archive format for %s (detected %s). Supported: zip, 7z, gzip, rar.", filepath.Base(path), mt.String())
	}
}

func isROMName(name string) bool {
	_, ok := romExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

func noROMIn(path string) error {
	return fmt.Errorf("no .gb or .gbc file found inside archive %s.", filepath.Base(path))
}

func extractZip(path string) ([]byte, string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("cannot open zip archive %s: %w", filepath.Base(path), err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !isROMName(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, "", fmt.Errorf("cannot read %s from zip archive: %w", f.Name, err)
		}
		defer rc.Close()

		data, err := readCapped(rc, f.Name)
		if err != nil {
			return nil, "", err
		}
		return data, filepath.Base(f.Name), nil
	}
	return nil, "", noROMIn(path)
}

func extract7z(path string) ([]byte, string, error) {
	sz, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("cannot open 7z archive %s: %w", filepath.Base(path), err)
	}
	defer sz.Close()

	for _, f := range sz.File {
		if f.FileInfo().IsDir() || !isROMName(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, "", fmt.Errorf("cannot read %s from 7z archive: %w", f.Name, err)
		}
		defer rc.Close()

		data, err := readCapped(rc, f.Name)
		if err != nil {
			return nil, "", err
		}
		return data, filepath.Base(f.Name), nil
	}
	return nil, "", noROMIn(path)
}

func extractGzip(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("cannot open gzip archive %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, "", fmt.Errorf("cannot read gzip archive %s: %w", filepath.Base(path), err)
	}
	defer gr.Close()

	// Prefer the original name from the gzip header; fall back to the
	// archive name with .gz stripped.
	name := gr.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if !isROMName(name) {
		return nil, "", noROMIn(path)
	}

	data, err := readCapped(gr, name)
	if err != nil {
		return nil, "", err
	}
	return data, filepath.Base(name), nil
}

func extractRAR(path string) ([]byte, string, error) {
	rr, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("cannot open rar archive %s: %w", filepath.Base(path), err)
	}
	defer rr.Close()

	for {
		hdr, err := rr.Next()
		if err == io.EOF {
			return nil, "", noROMIn(path)
		}
		if err != nil {
			return nil, "", fmt.Errorf("cannot read rar archive %s: %w", filepath.Base(path), err)
		}
		if hdr.IsDir || !isROMName(hdr.Name) {
			continue
		}

		data, err := readCapped(rr, hdr.Name)
		if err != nil {
			return nil, "", err
		}
		return data, filepath.Base(hdr.Name), nil
	}
}

func readCapped(r io.Reader, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxROMSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", name, err)
	}
	if len(data) > MaxROMSize {
		return nil, fmt.Errorf("ROM %s exceeds the %d MiB size limit and cannot be a Game Boy image.", name, MaxROMSize/(1024*1024))
	}
	return data, nil
}

// cacheName keys extracted images by content so the same archive never
// extracts twice and different archives with the same inner name do
// not collide.
func cacheName(name string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	return ident.Fingerprint(data) + ext
}
