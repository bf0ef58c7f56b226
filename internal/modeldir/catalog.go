package modeldir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Vocab is a vocabulary file, named after the file without ".txt".
type Vocab struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// BaseModel is a bare weight file in base_model/.
type BaseModel struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Adapter is a standalone model or LoRA folder with a config.json.
type Adapter struct {
	Name          string   `json:"name"`
	Dir           string   `json:"dir"`
	Label         []string `json:"label"`
	PaddingLength int      `json:"padding_length"`
}

// adapterConfigFile mirrors config.json written next to the weights.
type adapterConfigFile struct {
	Name          string   `json:"name"`
	Label         []string `json:"label"`
	PaddingLength int      `json:"padding_length"`
}

// Kind tells base weights from standalone models.
type Kind string

const (
	KindBase       Kind = "base"
	KindStandalone Kind = "standalone"
)

// Catalog is an immutable snapshot of the model tree.
type Catalog struct {
	Root       string
	Vocabs     []Vocab
	Base       []BaseModel
	Standalone []Adapter
	Lora       []Adapter
	ScannedAt  time.Time

	// Skipped holds adapter folders whose config.json is missing or unreadable.
	Skipped []string
}

// Scan lists the model tree under root. A missing tree gives an empty catalog.
// Adapter folders without a readable config.json are skipped and reported in
// Catalog.Skipped.
func Scan(root string) (*Catalog, error) {
	md := Path(root)
	cat := &Catalog{Root: root}

	var skippedStandalone, skippedLora []string
	var g errgroup.Group
	g.Go(func() (err error) {
		cat.Vocabs, err = scanVocabs(filepath.Join(md, VocabDir))
		return err
	})
	g.Go(func() (err error) {
		cat.Base, err = scanBase(filepath.Join(md, BaseDir))
		return err
	})
	g.Go(func() (err error) {
		cat.Standalone, skippedStandalone, err = scanAdapters(filepath.Join(md, StandaloneDir), weightsModel)
		return err
	})
	g.Go(func() (err error) {
		cat.Lora, skippedLora, err = scanAdapters(filepath.Join(md, LoraDir), weightsLora)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	cat.Skipped = append(skippedStandalone, skippedLora...)

	cat.ScannedAt = time.Now()
	return cat, nil
}

func scanVocabs(dir string) ([]Vocab, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+vocabExtension))
	if err != nil {
		return nil, err
	}
	vocabs := []Vocab{}
	for _, m := range matches {
		base := filepath.Base(m)
		if base == vocabSentinel {
			continue
		}
		vocabs = append(vocabs, Vocab{Name: strings.TrimSuffix(base, vocabExtension), Path: m})
	}
	return vocabs, nil
}

func scanBase(dir string) ([]BaseModel, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+weightsBase))
	if err != nil {
		return nil, err
	}
	models := []BaseModel{}
	for _, m := range matches {
		models = append(models, BaseModel{Name: filepath.Base(m), Path: m})
	}
	return models, nil
}

func scanAdapters(dir, weights string) ([]Adapter, []string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*", weights))
	if err != nil {
		return nil, nil, err
	}
	adapters := []Adapter{}
	var skipped []string
	for _, m := range matches {
		adir := filepath.Dir(m)
		cfg, err := loadAdapterConfig(filepath.Join(adir, adapterConfig))
		if err != nil {
			skipped = append(skipped, adir)
			continue
		}
		name := cfg.Name
		if name == "" {
			name = filepath.Base(adir)
		}
		adapters = append(adapters, Adapter{
			Name:          name,
			Dir:           adir,
			Label:         cfg.Label,
			PaddingLength: cfg.PaddingLength,
		})
	}
	sort.Slice(adapters, func(i, j int) bool { return adapters[i].Name < adapters[j].Name })
	return adapters, skipped, nil
}

func loadAdapterConfig(path string) (*adapterConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg adapterConfigFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &cfg, nil
}

// FindVocab returns the vocabulary with the given name.
func (c *Catalog) FindVocab(name string) *Vocab {
	for i := range c.Vocabs {
		if c.Vocabs[i].Name == name {
			return &c.Vocabs[i]
		}
	}
	return nil
}

// ModelRef points at the weights a generation run loads.
type ModelRef struct {
	Name          string
	Kind          Kind
	Path          string
	PaddingLength int
}

// FindModel looks a model up among base weights, then standalone models.
func (c *Catalog) FindModel(name string) *ModelRef {
	for _, b := range c.Base {
		if b.Name == name {
			return &ModelRef{Name: b.Name, Kind: KindBase, Path: b.Path}
		}
	}
	for _, s := range c.Standalone {
		if s.Name == name {
			return &ModelRef{Name: s.Name, Kind: KindStandalone, Path: s.Dir, PaddingLength: s.PaddingLength}
		}
	}
	return nil
}

// FindLora returns the LoRA adapter with the given name.
func (c *Catalog) FindLora(name string) *Adapter {
	for i := range c.Lora {
		if c.Lora[i].Name == name {
			return &c.Lora[i]
		}
	}
	return nil
}

// ModelNames lists base then standalone model names, as the model picker shows them.
func (c *Catalog) ModelNames() []string {
	names := make([]string, 0, len(c.Base)+len(c.Standalone))
	for _, b := range c.Base {
		names = append(names, b.Name)
	}
	for _, s := range c.Standalone {
		names = append(names, s.Name)
	}
	return names
}

// VocabNames lists vocabulary names.
func (c *Catalog) VocabNames() []string {
	names := make([]string, len(c.Vocabs))
	for i, v := range c.Vocabs {
		names[i] = v.Name
	}
	return names
}

// Count returns the total number of entries.
func (c *Catalog) Count() int {
	if c == nil {
		return 0
	}
	return len(c.Vocabs) + len(c.Base) + len(c.Standalone) + len(c.Lora)
}
