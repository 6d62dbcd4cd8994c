package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriforge/veriforge/internal/artifact"
)

func record(sources ...artifact.SourceEntry) *artifact.BuildRecord {
	return &artifact.BuildRecord{
		Compiler:  artifact.CompilerInfo{Version: "0.8.18+commit.87f61d96"},
		Sources:   sources,
		Contracts: make(artifact.ContractMap),
	}
}

func TestResolveSourcePath(t *testing.T) {
	rec := record(
		artifact.SourceEntry{Path: "contracts/Token.sol"},
		artifact.SourceEntry{Path: "contracts/lib/SafeMath.sol"},
	)

	path, err := ResolveSourcePath("Token", rec)
	require.NoError(t, err)
	assert.Equal(t, "contracts/Token.sol", path)
}

func TestResolveSourcePath_NotFound(t *testing.T) {
	rec := record(artifact.SourceEntry{Path: "contracts/Token.sol"})

	_, err := ResolveSourcePath("Vault", rec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceNotFound))
}

func TestResolveSourcePath_Ambiguous(t *testing.T) {
	rec := record(
		artifact.SourceEntry{Path: "contracts/Token.sol"},
		artifact.SourceEntry{Path: "legacy/Token.sol"},
	)

	_, err := ResolveSourcePath("Token", rec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmbiguousSource))
}

func TestParseImports(t *testing.T) {
	content := `// SPDX-License-Identifier: MIT
pragma solidity ^0.8.0;

import "./SafeMath.sol";
import {IERC20} from "../interfaces/IERC20.sol";
import 'legacy/Old.sol';
import "aliased/Thing.sol" as Thing;

contract Token {}
`
	imports := parseImports(content)
	assert.Equal(t, []string{
		"./SafeMath.sol",
		"../interfaces/IERC20.sol",
		"legacy/Old.sol",
		"aliased/Thing.sol",
	}, imports)
}

func TestParseImports_IgnoresNonImportLines(t *testing.T) {
	content := `contract Token {
	string public note = "import \"fake.sol\";";
}`
	// The directive matcher is line-anchored; string literals inside
	// contract bodies do not start a line with the import keyword.
	assert.Empty(t, parseImports(content))
}

func TestClosure_IncludesRoot(t *testing.T) {
	rec := record(artifact.SourceEntry{Path: "contracts/Token.sol", Content: "contract Token {}"})

	closure, err := Closure("contracts/Token.sol", rec)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"contracts/Token.sol": true}, closure)
}

func TestClosure_RootMissing(t *testing.T) {
	rec := record(artifact.SourceEntry{Path: "contracts/Token.sol"})

	_, err := Closure("contracts/Missing.sol", rec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceNotFound))
}

func TestClosure_CyclicImports(t *testing.T) {
	rec := record(
		artifact.SourceEntry{Path: "contracts/A.sol", Content: `import "./B.sol";`},
		artifact.SourceEntry{Path: "contracts/B.sol", Content: `import "./A.sol";`},
	)

	closure, err := Closure("contracts/A.sol", rec)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{
		"contracts/A.sol": true,
		"contracts/B.sol": true,
	}, closure)
}

func TestClosure_TransitiveAndUnrelated(t *testing.T) {
	rec := record(
		artifact.SourceEntry{Path: "contracts/A.sol", Content: `import "./B.sol";`},
		artifact.SourceEntry{Path: "contracts/B.sol", Content: "contract B {}"},
		artifact.SourceEntry{Path: "contracts/C.sol", Content: "contract C {}"},
	)

	closure, err := Closure("contracts/A.sol", rec)
	require.NoError(t, err)
	assert.True(t, closure["contracts/A.sol"])
	assert.True(t, closure["contracts/B.sol"])
	assert.False(t, closure["contracts/C.sol"])
}

func TestClosure_IdempotentWithinComponent(t *testing.T) {
	rec := record(
		artifact.SourceEntry{Path: "contracts/A.sol", Content: `import "./B.sol";`},
		artifact.SourceEntry{Path: "contracts/B.sol", Content: `import "./A.sol";`},
	)

	fromA, err := Closure("contracts/A.sol", rec)
	require.NoError(t, err)
	fromB, err := Closure("contracts/B.sol", rec)
	require.NoError(t, err)
	assert.Equal(t, fromA, fromB)
}

func TestClosure_SuffixFallback(t *testing.T) {
	// Import path that is neither relative nor a record key verbatim:
	// resolved by file name.
	rec := record(
		artifact.SourceEntry{Path: "contracts/Token.sol", Content: `import "@lib/math/SafeMath.sol";`},
		artifact.SourceEntry{Path: "node_modules/math/SafeMath.sol", Content: "library SafeMath {}"},
	)

	closure, err := Closure("contracts/Token.sol", rec)
	require.NoError(t, err)
	assert.True(t, closure["node_modules/math/SafeMath.sol"])
}

func TestClosure_UnresolvableImport(t *testing.T) {
	rec := record(
		artifact.SourceEntry{Path: "contracts/Token.sol", Content: `import "./Missing.sol";`},
	)

	_, err := Closure("contracts/Token.sol", rec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceNotFound))
}

func TestTrim_PreservesOriginalOrder(t *testing.T) {
	rec := record(
		artifact.SourceEntry{Path: "contracts/Z.sol", Content: "z"},
		artifact.SourceEntry{Path: "contracts/A.sol", Content: "a"},
		artifact.SourceEntry{Path: "contracts/M.sol", Content: "m"},
	)

	// Closure set covers Z and M; traversal order would differ.
	trimmed := Trim(rec, map[string]bool{
		"contracts/M.sol": true,
		"contracts/Z.sol": true,
	})

	assert.Equal(t, []string{"contracts/Z.sol", "contracts/M.sol"}, trimmed.Sources.Paths())
	assert.Equal(t, rec.Compiler, trimmed.Compiler)

	// Original untouched.
	assert.Len(t, rec.Sources, 3)
}

func TestTrim_DropsExcludedContracts(t *testing.T) {
	rec := record(
		artifact.SourceEntry{Path: "contracts/A.sol", Content: "a"},
		artifact.SourceEntry{Path: "contracts/C.sol", Content: "c"},
	)
	rec.Contracts = artifact.ContractMap{
		"contracts/A.sol": {"A": {Bytecode: "0x01"}},
		"contracts/C.sol": {"C": {Bytecode: "0x02"}},
	}

	trimmed := Trim(rec, map[string]bool{"contracts/A.sol": true})

	_, ok := trimmed.Contracts["contracts/A.sol"]
	assert.True(t, ok)
	_, ok = trimmed.Contracts["contracts/C.sol"]
	assert.False(t, ok)
}

func TestEndToEnd_TrimToImportClosure(t *testing.T) {
	rec := record(
		artifact.SourceEntry{Path: "contracts/A.sol", Content: `import "./B.sol";` + "\ncontract A {}"},
		artifact.SourceEntry{Path: "contracts/B.sol", Content: "contract B {}"},
		artifact.SourceEntry{Path: "contracts/C.sol", Content: "contract C {}"},
	)
	rec.Contracts = artifact.ContractMap{
		"contracts/A.sol": {"A": {}},
		"contracts/B.sol": {"B": {}},
		"contracts/C.sol": {"C": {}},
	}

	root, err := ResolveSourcePath("A", rec)
	require.NoError(t, err)

	closure, err := Closure(root, rec)
	require.NoError(t, err)

	trimmed := Trim(rec, closure)
	assert.Equal(t, []string{"contracts/A.sol", "contracts/B.sol"}, trimmed.Sources.Paths())
}
