package neat

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
)

// Save writes the genome to filePath as gzip-compressed gob.
func (g *Genome) Save(filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create genome file '%s': %w", filePath, err)
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	if err := gob.NewEncoder(gzWriter).Encode(g); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode genome %d: %w", g.Key, err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush genome file '%s': %w", filePath, err)
	}
	return file.Close()
}

// LoadGenome reads a genome written by Save.
func LoadGenome(filePath string) (*Genome, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open genome file '%s': %w", filePath, err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for '%s': %w", filePath, err)
	}
	defer gzReader.Close()

	g := &Genome{}
	if err := gob.NewDecoder(gzReader).Decode(g); err != nil {
		return nil, fmt.Errorf("failed to decode genome from '%s': %w", filePath, err)
	}
	if g.Nodes == nil {
		g.Nodes = make(map[int]*NodeGene)
	}
	if g.Connections == nil {
		g.Connections = make(map[ConnectionKey]*ConnectionGene)
	}
	return g, nil
}
