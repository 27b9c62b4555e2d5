package romlib

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/retroplay/gbagent/backend/internal/infrastructure/logging"
)

// MaxROMSize caps extracted ROM images. Real cartridges top out at
// 8 MiB; anything larger is not a Game Boy ROM.
const MaxROMSize = 8 * 1024 * 1024

var romExtensions = map[string]struct{}{
	".gb":  {},
	".gbc": {},
}

var archiveExtensions = map[string]struct{}{
	".zip": {},
	".7z":  {},
	".gz":  {},
	".rar": {},
}

// Entry describes one ROM or ROM archive in the library directory.
type Entry struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Extension string `json:"extension"`
	Archive   bool   `json:"is_archive"`
}

// Library indexes a directory of ROM files and archives and
// materializes archived images into loadable files.
type Library struct {
	dir      string
	log      *logging.Logger
	cacheDir string
	cacheMu  sync.Mutex
}

// New creates a library over the given directory.
func New(dir string, log *logging.Logger) *Library {
	if log == nil {
		log = logging.NewNop()
	}
	return &Library{
		dir:      dir,
		log:      log,
		cacheDir: filepath.Join(os.TempDir(), "gbagent-roms"),
	}
}

// Dir returns the library directory.
func (l *Library) Dir() string { return l.dir }

// Scan walks the library directory and returns all ROM files and
// archives, sorted by name. Unreadable entries are skipped.
func (l *Library) Scan() ([]Entry, error) {
	if _, err := os.Stat(l.dir); err != nil {
		return nil, fmt.Errorf("ROM directory not accessible: %s. Create it or point ROM_DIR elsewhere.", l.dir)
	}

	var (
		mu      sync.Mutex
		entries []Entry
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		_, isROM := romExtensions[ext]
		_, isArchive := archiveExtensions[ext]
		if !isROM && !isArchive {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		mu.Lock()
		entries = append(entries, Entry{
			Name:      d.Name(),
			Path:      path,
			Size:      info.Size(),
			Extension: ext,
			Archive:   isArchive,
		})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan ROM directory %s: %w", l.dir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Resolve maps a bare file name to its path inside the library
// directory, rejecting anything that would escape it.
func (l *Library) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid ROM name: %q. Use a plain file name from the library listing.", name)
	}

	path := filepath.Join(l.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("ROM not found in library: %s. Use the library listing to see available ROMs.", name)
	}
	return path, nil
}

// Materialize returns a directly loadable ROM path. Plain ROM files
// pass through unchanged; archives are extracted into a cache
// directory keyed by content, so repeated loads reuse the same file.
func (l *Library) Materialize(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := romExtensions[ext]; ok {
		return path, nil
	}
	if _, ok := archiveExtensions[ext]; !ok {
		return "", fmt.Errorf("unsupported file type: %s. Supported: .gb, .gbc, and .zip/.7z/.gz/.rar archives.", filepath.Ext(path))
	}

	data, name, err := extract(path)
	if err != nil {
		return "", err
	}

	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()

	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create extraction cache: %w", err)
	}

	cached := filepath.Join(l.cacheDir, cacheName(name, data))
	if _, err := os.Stat(cached); err == nil {
		return cached, nil
	}

	if err := os.WriteFile(cached, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write extracted ROM: %w", err)
	}
	l.log.Info("extracted ROM from archive",
		zap.String("archive", filepath.Base(path)),
		zap.String("rom", name))
	return cached, nil
}
