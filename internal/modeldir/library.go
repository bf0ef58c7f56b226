package modeldir

import (
	"sync"

	"go.uber.org/zap"
)

// Library owns the latest Catalog for one model root. Each Refresh rescans the
// tree and swaps in a new snapshot; snapshots already handed out never change.
type Library struct {
	root   string
	logger *zap.Logger

	mu      sync.RWMutex
	current *Catalog
}

func NewLibrary(root string, logger *zap.Logger) *Library {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Library{
		root:    root,
		logger:  logger,
		current: &Catalog{Root: root},
	}
}

// Root returns the directory holding the model tree.
func (l *Library) Root() string {
	return l.root
}

// Refresh rescans the model tree and returns the new snapshot. On error the
// previous snapshot stays current.
func (l *Library) Refresh() (*Catalog, error) {
	cat, err := Scan(l.root)
	if err != nil {
		l.logger.Warn("model scan failed", zap.String("root", l.root), zap.Error(err))
		return nil, err
	}

	l.mu.Lock()
	l.current = cat
	l.mu.Unlock()

	l.logger.Info("model scan finished",
		zap.String("root", l.root),
		zap.Int("vocabs", len(cat.Vocabs)),
		zap.Int("base", len(cat.Base)),
		zap.Int("standalone", len(cat.Standalone)),
		zap.Int("lora", len(cat.Lora)),
		zap.Strings("skipped", cat.Skipped),
	)
	return cat, nil
}

// Snapshot returns the current catalog without rescanning.
func (l *Library) Snapshot() *Catalog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}
