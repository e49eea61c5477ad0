// Package assets locates versioned release assets on disk. Text assets
// (JSON and scripts) are returned with the version placeholder rewritten;
// everything else is streamed as opaque bytes in bounded chunks.
package assets

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	DefaultRootSegment = "Streamables/assets"
	DefaultPlaceholder = "{version}"
	DefaultChunkSize   = 64 * 1024

	binaryMediaType = "application/octet-stream"
)

var ErrNotFound = errors.New("asset not found")

var textMediaTypes = map[string]string{
	".json": "application/json",
	".js":   "application/javascript",
	".mjs":  "application/javascript",
}

type Options struct {
	RootSegment string
	Placeholder string
	ChunkSize   int
}

// Resolver is stateless apart from its configuration; it never caches a
// resolution, so on-disk changes are visible to the next request.
type Resolver struct {
	root        string
	rootSegment string
	placeholder string
	chunkSize   int
}

// Location is a resolved asset.
type Location struct {
	BaseDir   string
	FullPath  string
	Templated bool
	MediaType string
	Size      int64
}

func NewResolver(root string, opts Options) *Resolver {
	if opts.RootSegment == "" {
		opts.RootSegment = DefaultRootSegment
	}
	if opts.Placeholder == "" {
		opts.Placeholder = DefaultPlaceholder
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if root == "" {
		root = "."
	}
	return &Resolver{
		root:        root,
		rootSegment: filepath.FromSlash(strings.Trim(opts.RootSegment, "/")),
		placeholder: opts.Placeholder,
		chunkSize:   opts.ChunkSize,
	}
}

// Candidates lists the base directories searched for version, in order:
// the canonical Build/Release tree, the Release_<version> naming and a flat
// <version> directory.
func (r *Resolver) Candidates(version string) []string {
	if !validVersion(version) {
		return nil
	}
	return []string{
		filepath.Join(r.root, "Build", "Release", version),
		filepath.Join(r.root, "Release_"+version),
		filepath.Join(r.root, version),
	}
}

// BaseDir returns the first candidate directory that exists.
func (r *Resolver) BaseDir(version string) (string, error) {
	for _, candidate := range r.Candidates(version) {
		info, err := os.Stat(candidate)
		if err == nil && info.IsDir() {
			return candidate, nil
		}
	}
	return "", ErrNotFound
}

// Resolve maps a slash separated path relative to the asset root of version
// onto a regular file. Paths escaping the asset root, lexically or through
// symlinks, are reported as ErrNotFound.
func (r *Resolver) Resolve(version, rel string) (*Location, error) {
	base, err := r.BaseDir(version)
	if err != nil {
		return nil, err
	}

	cleaned := path.Clean("/" + rel)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" {
		return nil, ErrNotFound
	}

	assetRoot := filepath.Join(base, r.rootSegment)
	fullPath := filepath.Join(assetRoot, filepath.FromSlash(cleaned))
	if !within(assetRoot, fullPath) {
		return nil, ErrNotFound
	}

	realRoot, err := filepath.EvalSymlinks(assetRoot)
	if err != nil {
		return nil, ErrNotFound
	}
	realPath, err := filepath.EvalSymlinks(fullPath)
	if err != nil {
		return nil, ErrNotFound
	}
	if !within(realRoot, realPath) {
		return nil, ErrNotFound
	}

	info, err := os.Stat(realPath)
	if err != nil || !info.Mode().IsRegular() {
		return nil, ErrNotFound
	}

	loc := &Location{
		BaseDir:  base,
		FullPath: fullPath,
		Size:     info.Size(),
	}
	ext := strings.ToLower(filepath.Ext(fullPath))
	if mediaType, ok := textMediaTypes[ext]; ok {
		loc.Templated = true
		loc.MediaType = mediaType
	} else {
		loc.MediaType = mime.TypeByExtension(ext)
		if loc.MediaType == "" {
			loc.MediaType = binaryMediaType
		}
	}
	return loc, nil
}

// ReadText reads a templated asset and replaces every placeholder with
// version.
func (r *Resolver) ReadText(loc *Location, version string) (string, error) {
	raw, err := os.ReadFile(loc.FullPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", loc.FullPath, err)
	}
	return strings.ReplaceAll(string(raw), r.placeholder, version), nil
}

// Open starts a chunked read of loc.
func (r *Resolver) Open(loc *Location) (*Chunks, error) {
	file, err := os.Open(loc.FullPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", loc.FullPath, err)
	}
	return newChunks(file, r.chunkSize), nil
}

func validVersion(version string) bool {
	if version == "" || version == "." || version == ".." {
		return false
	}
	return !strings.ContainsAny(version, `/\`) && !strings.ContainsRune(version, 0)
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
