package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileWatcher polls the workspace root for changed documents. A change to
// an imported file resolves its importers again.
type FileWatcher struct {
	workspace    *Workspace
	stopCh       chan struct{}
	pollInterval time.Duration
	modTimes     map[string]time.Time

	// OnUpdate is called with every document that was resolved again or
	// removed (then with a nil FileInfo).
	OnUpdate func(path string, f *FileInfo)
}

func NewFileWatcher(w *Workspace) *FileWatcher {
	return &FileWatcher{
		workspace:    w,
		stopCh:       make(chan struct{}),
		pollInterval: 1 * time.Second,
		modTimes:     make(map[string]time.Time),
	}
}

func (w *FileWatcher) SetPollInterval(d time.Duration) {
	w.pollInterval = d
}

func (w *FileWatcher) Start() {
	go w.run()
}

func (w *FileWatcher) Stop() {
	close(w.stopCh)
}

func (w *FileWatcher) run() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.scan()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *FileWatcher) scan() {
	currentFiles := make(map[string]bool)
	var changed []string

	filepath.Walk(w.workspace.RootDir(), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != w.workspace.RootDir() && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsDocument(path) {
			return nil
		}

		currentFiles[path] = true

		lastMod, known := w.modTimes[path]
		if !known || info.ModTime().After(lastMod) {
			w.modTimes[path] = info.ModTime()
			changed = append(changed, path)
		}
		return nil
	})

	var removed []string
	for path := range w.modTimes {
		if !currentFiles[path] {
			delete(w.modTimes, path)
			w.workspace.RemoveFile(path)
			removed = append(removed, path)
			w.notify(path, nil)
		}
	}

	for _, path := range changed {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Errorf("%s: %s", path, err)
			continue
		}
		updated, err := w.workspace.UpdateFile(path, content)
		if err != nil {
			log.Errorf("%s: %s", path, err)
		}
		if updated {
			w.notify(path, w.workspace.GetFile(path))
		}
	}

	seen := make(map[string]bool)
	for _, path := range append(changed, removed...) {
		for _, dep := range w.workspace.Dependents(path) {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			updated, err := w.workspace.Refresh(dep)
			if err != nil {
				log.Errorf("%s: %s", dep, err)
			}
			if updated {
				w.notify(dep, w.workspace.GetFile(dep))
			}
		}
	}
}

func (w *FileWatcher) notify(path string, f *FileInfo) {
	if w.OnUpdate != nil {
		w.OnUpdate(path, f)
	}
}
