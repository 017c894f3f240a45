package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// DefaultSeed returns the built-in catalogue.
func DefaultSeed() []Product {
	var products []Product
	if err := yaml.Unmarshal(defaultSeed, &products); err != nil {
		panic(fmt.Sprintf("catalog: invalid embedded seed: %v", err))
	}
	return products
}

// ReadSeed decodes a YAML list of products.
func ReadSeed(r io.Reader) ([]Product, error) {
	var products []Product
	if err := yaml.NewDecoder(r).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	seen := make(map[int64]bool, len(products))
	for _, p := range products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("seed product %q has no id", p.Name)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate seed product id %d", p.ID)
		}
		seen[p.ID] = true
	}
	return products, nil
}

// LoadSeedFile reads a seed catalogue from fname.
func LoadSeedFile(fname string) ([]Product, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSeed(f)
}
