// Package catalog holds the fixed list of tradable asset symbols.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed assets.yaml
var defaultAssets []byte

var (
	ErrUnknownAsset     = errors.New("unknown asset")
	ErrIndexOutOfRange  = errors.New("asset number out of range")
	errEmptyAssetsBlock = errors.New("asset catalog is empty")
)

type file struct {
	Assets []string `yaml:"assets"`
}

type Catalog struct {
	assets []string
	index  map[string]struct{}
}

// Load reads a catalog from path, or the built-in list when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultAssets)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset catalog '%s': %w", path, err)
	}
	return Parse(b)
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultAssets)
	if err != nil {
		panic(err)
	}
	return c
}

func Parse(b []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to parse asset catalog: %w", err)
	}
	if len(f.Assets) == 0 {
		return nil, errEmptyAssetsBlock
	}
	return New(f.Assets)
}

// New builds a catalog from symbols, rejecting blanks and duplicates.
func New(symbols []string) (*Catalog, error) {
	c := &Catalog{
		assets: make([]string, 0, len(symbols)),
		index:  make(map[string]struct{}, len(symbols)),
	}
	for i, s := range symbols {
		if s == "" {
			return nil, fmt.Errorf("asset %d has an empty symbol", i+1)
		}
		if _, dup := c.index[s]; dup {
			return nil, fmt.Errorf("asset '%s' listed twice", s)
		}
		c.index[s] = struct{}{}
		c.assets = append(c.assets, s)
	}
	return c, nil
}

func (c *Catalog) List() []string {
	out := make([]string, len(c.assets))
	copy(out, c.assets)
	return out
}

func (c *Catalog) Len() int { return len(c.assets) }

// At returns the n-th asset, counting from 1 as the picker displays them.
func (c *Catalog) At(n int) (string, error) {
	if n < 1 || n > len(c.assets) {
		return "", fmt.Errorf("%w: %d (1-%d)", ErrIndexOutOfRange, n, len(c.assets))
	}
	return c.assets[n-1], nil
}

func (c *Catalog) Contains(symbol string) bool {
	_, ok := c.index[symbol]
	return ok
}
