// Package workspace keeps the resolved documents of a directory tree up to
// date. Content digests avoid re-parsing files that did not change.
package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/snek/markup"
	"github.com/dhamidi/snek/markup/parser"
	"github.com/dhamidi/snek/resolve"
)

var log = commonlog.GetLogger("snek.workspace")

// Extensions lists the file extensions treated as documents.
var Extensions = []string{".md", ".snek"}

// IsDocument reports whether path has a document extension.
func IsDocument(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

type Workspace struct {
	mu      sync.RWMutex
	rootDir string
	options []resolve.Option
	files   map[string]*FileInfo
}

// FileInfo is the latest resolution of one document.
type FileInfo struct {
	Path        string
	Content     []byte
	Digest      resolve.Digest
	Document    *markup.Document
	Diagnostics []parser.Diagnostic
	Err         error

	// Imports holds the digest of every file read during resolution,
	// including the document itself.
	Imports map[string]resolve.Digest
}

// New returns an empty workspace. The options are used for every
// resolution.
func New(rootDir string, opts ...resolve.Option) *Workspace {
	return &Workspace{
		rootDir: rootDir,
		options: opts,
		files:   make(map[string]*FileInfo),
	}
}

func (w *Workspace) RootDir() string {
	return w.rootDir
}

// ScanAll resolves every document below the root directory. Hidden
// directories are skipped.
func (w *Workspace) ScanAll() error {
	return filepath.Walk(w.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != w.rootDir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsDocument(path) {
			if err := w.ScanFile(path); err != nil {
				log.Warningf("scan %s: %s", path, err)
			}
		}
		return nil
	})
}

func (w *Workspace) ScanFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = w.UpdateFile(path, content)
	return err
}

// UpdateFile resolves path with the given content. It reports whether the
// document was resolved again; unchanged content whose imports are
// unchanged too is kept as is. The returned error is only set when the
// document could not be parsed at all; import problems are recorded in the
// FileInfo.
func (w *Workspace) UpdateFile(path string, content []byte) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	digest := resolve.Sum(content)
	if f := w.files[path]; f != nil && f.Digest == digest && !stale(f) {
		log.Debugf("%s unchanged (%s)", path, digest)
		return false, nil
	}
	return true, w.updateFileLocked(path, content, digest)
}

func (w *Workspace) updateFileLocked(path string, content []byte, digest resolve.Digest) error {
	r := resolve.New(w.options...)
	doc, err := r.ResolveContent(path, content)

	f := &FileInfo{
		Path:        path,
		Content:     content,
		Digest:      digest,
		Document:    doc,
		Diagnostics: r.Diagnostics(),
		Err:         err,
		Imports:     r.Files(),
	}
	w.files[path] = f
	log.Infof("resolved %s (%s, %d diagnostics)", path, digest, len(f.Diagnostics))

	if doc == nil {
		return err
	}
	return nil
}

// stale reports whether a file read while resolving f changed on disk.
func stale(f *FileInfo) bool {
	self, err := filepath.Abs(f.Path)
	if err != nil {
		self = f.Path
	}
	for path, digest := range f.Imports {
		if path == self {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if digest != (resolve.Digest{}) {
				return true
			}
			continue
		}
		if resolve.Sum(data) != digest {
			return true
		}
	}
	return false
}

// Refresh resolves path again if one of its imports changed.
func (w *Workspace) Refresh(path string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f := w.files[path]
	if f == nil || !stale(f) {
		return false, nil
	}
	return true, w.updateFileLocked(path, f.Content, f.Digest)
}

func (w *Workspace) RemoveFile(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.files, path)
}

func (w *Workspace) GetFile(path string) *FileInfo {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.files[path]
}

// Files returns the paths of all known documents in sorted order.
func (w *Workspace) Files() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	paths := make([]string, 0, len(w.files))
	for p := range w.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Dependents returns the documents that import path, directly or
// indirectly.
func (w *Workspace) Dependents(path string) []string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []string
	for p, f := range w.files {
		if p == path {
			continue
		}
		if _, ok := f.Imports[abs]; ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
