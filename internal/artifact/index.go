package artifact

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LoadAll parses every *.json build artifact in dir into a BuildRecord.
// Records are returned in filename order, so FindContaining's first-match
// behavior is stable across runs.
func LoadAll(dir string, logger *slog.Logger) ([]*BuildRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading artifact directory: %w", err)
	}

	var records []*BuildRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		record, err := Load(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded build record",
			"path", path,
			"sources", len(record.Sources),
			"compiler", record.Compiler.Version)
		records = append(records, record)
	}

	return records, nil
}

// Load parses a single build artifact file.
func Load(path string) (*BuildRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", path, err)
	}

	var record BuildRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactParse, path, err)
	}
	record.Path = path

	return &record, nil
}

// FindContaining returns the first record whose compiled output contains a
// contract with the given name. First match wins; multiple historical
// builds of the same contract name are assumed disjoint in practice.
func FindContaining(records []*BuildRecord, contractName string) (*BuildRecord, error) {
	for _, record := range records {
		if record.HasContract(contractName) {
			return record, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrContractNotFound, contractName)
}
