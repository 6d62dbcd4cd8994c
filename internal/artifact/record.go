// Package artifact loads compiler build records and locates the record
// that produced a given contract.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BuildRecord is the complete output of one compiler invocation. It may
// cover many source files and many contracts. Records are immutable once
// loaded and safe for concurrent reads.
type BuildRecord struct {
	// Path is the artifact file this record was loaded from (empty for
	// derived records).
	Path string `json:"-"`

	Compiler  CompilerInfo `json:"compiler"`
	Settings  Settings     `json:"settings"`
	Sources   SourceList   `json:"sources"`
	Contracts ContractMap  `json:"contracts"`
}

// CompilerInfo identifies the compiler that produced a record.
type CompilerInfo struct {
	Version string `json:"version"` // e.g. "0.8.18+commit.87f61d96"
}

// Settings holds the compiler settings recorded at build time.
type Settings struct {
	Optimizer OptimizerSettings `json:"optimizer"`
}

// OptimizerSettings holds optimizer configuration.
type OptimizerSettings struct {
	Enabled bool `json:"enabled"`
	Runs    int  `json:"runs"`
}

// ContractMap maps source path -> contract name -> compiled output.
type ContractMap map[string]map[string]ContractOutput

// ContractOutput is the compiled output for a single contract.
type ContractOutput struct {
	ABI              json.RawMessage `json:"abi"`
	Bytecode         string          `json:"bytecode"`
	DeployedBytecode string          `json:"deployedBytecode"`
	MetadataHash     string          `json:"metadataHash,omitempty"`
	LinkReferences   LinkReferences  `json:"linkReferences,omitempty"`
}

// LinkReferences maps source path -> library name -> byte offsets of the
// library-link placeholders in the deployed bytecode.
type LinkReferences map[string]map[string][]LinkSlot

// LinkSlot is a single placeholder region within bytecode.
type LinkSlot struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// SourceEntry is one source file in a build record.
type SourceEntry struct {
	Path    string
	Content string
}

// SourceList is an ordered source-path -> content mapping. The compiler
// treats file order as significant, so the JSON object key order from the
// artifact file is preserved on decode and reproduced on encode.
type SourceList []SourceEntry

// sourceContent is the JSON shape of a single source value.
type sourceContent struct {
	Content string `json:"content"`
}

// UnmarshalJSON decodes a JSON object into the list, preserving key order.
func (s *SourceList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("sources: expected JSON object, got %v", tok)
	}

	var list SourceList
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("sources: expected string key, got %v", keyTok)
		}

		var val sourceContent
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("sources[%s]: %w", key, err)
		}
		list = append(list, SourceEntry{Path: key, Content: val.Content})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = list
	return nil
}

// MarshalJSON encodes the list as a JSON object in list order.
func (s SourceList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Path)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(sourceContent{Content: entry.Content})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the content for a source path.
func (s SourceList) Get(path string) (string, bool) {
	for _, entry := range s {
		if entry.Path == path {
			return entry.Content, true
		}
	}
	return "", false
}

// Has reports whether the list contains a source path.
func (s SourceList) Has(path string) bool {
	_, ok := s.Get(path)
	return ok
}

// Paths returns all source paths in list order.
func (s SourceList) Paths() []string {
	paths := make([]string, len(s))
	for i, entry := range s {
		paths[i] = entry.Path
	}
	return paths
}

// HasContract reports whether the record compiled a contract with the
// given name in any source file.
func (r *BuildRecord) HasContract(name string) bool {
	for _, contracts := range r.Contracts {
		if _, ok := contracts[name]; ok {
			return true
		}
	}
	return false
}

// Contract returns the compiled output for (sourcePath, name).
func (r *BuildRecord) Contract(sourcePath, name string) (ContractOutput, bool) {
	contracts, ok := r.Contracts[sourcePath]
	if !ok {
		return ContractOutput{}, false
	}
	out, ok := contracts[name]
	return out, ok
}
