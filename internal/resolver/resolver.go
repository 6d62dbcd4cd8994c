// Package resolver computes the transitive import closure of a source
// file within a build record and trims the record down to that closure.
package resolver

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/veriforge/veriforge/internal/artifact"
)

// Errors returned by source resolution. Both are permanent.
var (
	ErrSourceNotFound  = errors.New("source file not found in build record")
	ErrAmbiguousSource = errors.New("source file name matches multiple paths")
)

// importRe matches Solidity import directives in both plain and from-style
// form: `import "./A.sol";`, `import {X} from "../B.sol";`,
// `import "C.sol" as C;`. Single and double quotes are accepted.
var importRe = regexp.MustCompile(`(?m)^\s*import\s+(?:[^'";]*?\bfrom\s+)?['"]([^'"]+)['"]`)

// ResolveSourcePath finds the unique source path in the record whose file
// name is <contractName>.sol.
func ResolveSourcePath(contractName string, record *artifact.BuildRecord) (string, error) {
	return findByFileName(contractName+".sol", record)
}

// findByFileName locates the record source path whose last path element
// equals fileName. Exactly one source must match.
func findByFileName(fileName string, record *artifact.BuildRecord) (string, error) {
	var matches []string
	for _, entry := range record.Sources {
		if entry.Path == fileName || strings.HasSuffix(entry.Path, "/"+fileName) {
			matches = append(matches, entry.Path)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrSourceNotFound, fileName)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s matches %v", ErrAmbiguousSource, fileName, matches)
	}
}

// Closure returns the set of source paths transitively reachable from
// root via import directives, inclusive of root. Traversal uses an
// explicit worklist with a visited set, so cyclic imports terminate and
// stack depth stays bounded on deep graphs.
func Closure(root string, record *artifact.BuildRecord) (map[string]bool, error) {
	if !record.Sources.Has(root) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, root)
	}

	visited := map[string]bool{root: true}
	worklist := []string{root}

	for len(worklist) > 0 {
		current := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		content, _ := record.Sources.Get(current)
		for _, imported := range parseImports(content) {
			resolved, err := resolveImport(current, imported, record)
			if err != nil {
				return nil, fmt.Errorf("resolving import %q in %s: %w", imported, current, err)
			}
			if !visited[resolved] {
				visited[resolved] = true
				worklist = append(worklist, resolved)
			}
		}
	}

	return visited, nil
}

// parseImports extracts all imported paths from source content.
func parseImports(content string) []string {
	var imports []string
	for _, m := range importRe.FindAllStringSubmatch(content, -1) {
		imports = append(imports, m[1])
	}
	return imports
}

// resolveImport converts a possibly relative import path into a source
// path present in the record. Relative imports are joined against the
// importing file's directory first; anything that still misses falls back
// to the same file-name lookup used for contract resolution.
func resolveImport(from, imported string, record *artifact.BuildRecord) (string, error) {
	if strings.HasPrefix(imported, "./") || strings.HasPrefix(imported, "../") {
		joined := path.Join(path.Dir(from), imported)
		if record.Sources.Has(joined) {
			return joined, nil
		}
	}
	if record.Sources.Has(imported) {
		return imported, nil
	}
	return findByFileName(path.Base(imported), record)
}

// Trim returns a new record containing only the sources in the closure
// set, preserving the original key order from the untrimmed record rather
// than the traversal order. Compiled outputs for excluded sources are
// dropped as well. The input record is not modified.
func Trim(record *artifact.BuildRecord, closure map[string]bool) *artifact.BuildRecord {
	trimmed := &artifact.BuildRecord{
		Compiler:  record.Compiler,
		Settings:  record.Settings,
		Contracts: make(artifact.ContractMap),
	}

	for _, entry := range record.Sources {
		if !closure[entry.Path] {
			continue
		}
		trimmed.Sources = append(trimmed.Sources, entry)
		if contracts, ok := record.Contracts[entry.Path]; ok {
			trimmed.Contracts[entry.Path] = contracts
		}
	}

	return trimmed
}
