// Package resolve loads a document together with every file it imports.
// Each import is parsed on its own goroutine and spliced into the importing
// tree through its anchor. A file imported from several places is parsed
// once per import, so its content appears at every position.
package resolve

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/zeebo/blake3"

	"github.com/dhamidi/snek/config"
	"github.com/dhamidi/snek/markup"
	"github.com/dhamidi/snek/markup/parser"
)

var log = commonlog.GetLogger("snek.resolve")

// ErrImportCycle is wrapped by the ImportError of a file that imports one of
// its own ancestors.
var ErrImportCycle = errors.New("import cycle")

// ImportError reports an import that could not be resolved.
type ImportError struct {
	Path string
	From string
	Line int
	Err  error
}

func (e *ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: import %s: %v", e.From, e.Line, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: import %s: %v", e.From, e.Path, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Digest identifies file content.
type Digest [32]byte

// Sum returns the digest of data.
func Sum(data []byte) Digest {
	return blake3.Sum256(data)
}

func (d Digest) String() string {
	return fmt.Sprintf("%x", d[:8])
}

type Option func(*Resolver)

// WithConfig sets the configuration handed to every parsed file. Without
// it, Resolve loads the configuration found next to the root file.
func WithConfig(c *config.Configuration) Option {
	return func(r *Resolver) {
		r.config = c
	}
}

func WithMathParser(m parser.MathParser) Option {
	return func(r *Resolver) {
		r.math = m
	}
}

func WithStrict() Option {
	return func(r *Resolver) {
		r.strict = true
	}
}

// Resolver parses a root document and its imports. It implements
// parser.ImportHandler.
type Resolver struct {
	config *config.Configuration
	math   parser.MathParser
	strict bool

	wg          sync.WaitGroup
	mu          sync.Mutex
	files       map[string]Digest
	errs        []error
	diagnostics []parser.Diagnostic
}

func New(opts ...Option) *Resolver {
	r := &Resolver{
		files: make(map[string]Digest),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve parses the file at path as a root document, waits for every
// import task and finalizes the document. Import failures do not stop the
// resolution: the document is returned together with the joined errors and
// the failed imports are left in the tree.
func (r *Resolver) Resolve(path string) (*markup.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return r.resolve(path, abs, data)
}

// ResolveContent is Resolve for a root document whose content is already
// in memory, such as an unsaved editor buffer. Imports are read from disk
// relative to path.
func (r *Resolver) ResolveContent(path string, data []byte) (*markup.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	return r.resolve(path, abs, data)
}

func (r *Resolver) resolve(path, abs string, data []byte) (*markup.Document, error) {
	r.mu.Lock()
	r.files = map[string]Digest{abs: Sum(data)}
	r.errs = nil
	r.diagnostics = nil
	r.mu.Unlock()

	if r.config == nil {
		c, err := config.LoadDir(filepath.Dir(abs))
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
		r.config = c
	}

	p := parser.New(bytes.NewReader(data), r.parserOptions(path, []string{abs}, parser.WithRoot())...)
	doc, err := p.Finish()
	r.addDiagnostics(p.Diagnostics())
	r.wg.Wait()
	if err != nil {
		return nil, err
	}

	for _, imp := range doc.Postprocess() {
		log.Warningf("unresolved import %s in %s", imp.Path, path)
	}
	for _, ref := range doc.Bibliography.References {
		if ref.Entry == nil {
			log.Debugf("no bibliography entry for %s", ref.Key)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return doc, errors.Join(r.errs...)
}

// Import schedules the import for resolution. Only from itself counts as
// an ancestor for cycle detection; imports found while resolving carry
// their full ancestor chain.
func (r *Resolver) Import(imp *markup.Import, from string) {
	abs, err := filepath.Abs(from)
	if err != nil {
		abs = from
	}
	r.schedule(imp, from, []string{abs})
}

// Files returns the digest of every file read by the last resolution.
func (r *Resolver) Files() map[string]Digest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Digest, len(r.files))
	for k, v := range r.files {
		out[k] = v
	}
	return out
}

// Diagnostics returns the parse diagnostics of every file, ordered by file
// and position.
func (r *Resolver) Diagnostics() []parser.Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]parser.Diagnostic(nil), r.diagnostics...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Index < out[j].Index
	})
	// a file imported from several places reports its problems once
	return slices.Compact(out)
}

func (r *Resolver) parserOptions(file string, chain []string, extra ...parser.Option) []parser.Option {
	opts := []parser.Option{
		parser.WithFile(file),
		parser.WithImportHandler(&importer{resolver: r, chain: chain}),
		parser.WithConfig(r.config),
	}
	if r.math != nil {
		opts = append(opts, parser.WithMathParser(r.math))
	}
	if r.strict {
		opts = append(opts, parser.WithStrict())
	}
	return append(opts, extra...)
}

// importer is the import handler of one file; chain lists the absolute
// paths of the file and its ancestors.
type importer struct {
	resolver *Resolver
	chain    []string
}

func (i *importer) Import(imp *markup.Import, from string) {
	i.resolver.schedule(imp, from, i.chain)
}

// locate returns the absolute path of target relative to the file from.
func locate(target, from string) (string, error) {
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(from), target)
	}
	return filepath.Abs(target)
}

func (r *Resolver) schedule(imp *markup.Import, from string, chain []string) {
	path, err := locate(imp.Path, from)
	if err != nil {
		r.fail(importError(imp, from, err))
		return
	}
	for _, ancestor := range chain {
		if ancestor == path {
			r.fail(importError(imp, from, ErrImportCycle))
			return
		}
	}

	next := make([]string, len(chain), len(chain)+1)
	copy(next, chain)
	next = append(next, path)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.load(imp, path, from, next)
	}()
}

func (r *Resolver) load(imp *markup.Import, path, from string, chain []string) {
	log.Debugf("loading %s", path)
	data, err := os.ReadFile(path)
	r.mu.Lock()
	if err == nil {
		r.files[path] = Sum(data)
	} else if _, ok := r.files[path]; !ok {
		// a missing import is tracked so that creating it makes the
		// document stale
		r.files[path] = Digest{}
	}
	r.mu.Unlock()
	if err != nil {
		r.fail(importError(imp, from, err))
		return
	}

	p := parser.New(bytes.NewReader(data), r.parserOptions(path, chain)...)
	doc, err := p.Finish()
	r.addDiagnostics(p.Diagnostics())
	if err != nil {
		r.fail(importError(imp, from, err))
		return
	}

	doc.BuildHierarchy()
	if err := imp.Anchor.Resolve(doc); err != nil {
		r.fail(importError(imp, from, err))
	}
}

func importError(imp *markup.Import, from string, err error) *ImportError {
	return &ImportError{Path: imp.Path, From: from, Line: imp.Line, Err: err}
}

func (r *Resolver) fail(err *ImportError) {
	log.Errorf("%s", err)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *Resolver) addDiagnostics(diags []parser.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagnostics = append(r.diagnostics, diags...)
}

// Resolve parses the document at path with a fresh Resolver.
func Resolve(path string, opts ...Option) (*markup.Document, error) {
	return New(opts...).Resolve(path)
}
