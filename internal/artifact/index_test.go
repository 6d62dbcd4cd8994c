package artifact

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeArtifact(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

const tokenArtifact = `{
	"compiler": {"version": "0.8.18+commit.87f61d96"},
	"settings": {"optimizer": {"enabled": true, "runs": 200}},
	"sources": {
		"contracts/Token.sol": {"content": "contract Token {}"}
	},
	"contracts": {
		"contracts/Token.sol": {
			"Token": {"abi": [], "bytecode": "0x6080", "deployedBytecode": "0x6080"}
		}
	}
}`

const vaultArtifact = `{
	"compiler": {"version": "0.8.19+commit.7dd6d404"},
	"settings": {"optimizer": {"enabled": false, "runs": 0}},
	"sources": {
		"contracts/Vault.sol": {"content": "contract Vault {}"}
	},
	"contracts": {
		"contracts/Vault.sol": {
			"Vault": {"abi": [], "bytecode": "0x6001", "deployedBytecode": "0x6001"}
		}
	}
}`

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "token.json", tokenArtifact)
	writeArtifact(t, dir, "vault.json", vaultArtifact)
	writeArtifact(t, dir, "notes.txt", "not an artifact")

	records, err := LoadAll(dir, testLogger())
	require.NoError(t, err)
	require.Len(t, records, 2)

	for _, record := range records {
		assert.NotEmpty(t, record.Path)
		assert.NotEmpty(t, record.Compiler.Version)
	}
}

func TestLoadAll_MalformedArtifact(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "broken.json", `{"sources": [1, 2]}`)

	_, err := LoadAll(dir, testLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrArtifactParse))
}

func TestLoadAll_MissingDirectory(t *testing.T) {
	_, err := LoadAll(filepath.Join(t.TempDir(), "nope"), testLogger())
	assert.Error(t, err)
}

func TestFindContaining(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "a_token.json", tokenArtifact)
	writeArtifact(t, dir, "b_vault.json", vaultArtifact)

	records, err := LoadAll(dir, testLogger())
	require.NoError(t, err)

	record, err := FindContaining(records, "Vault")
	require.NoError(t, err)
	assert.True(t, record.HasContract("Vault"))

	_, err = FindContaining(records, "Missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContractNotFound))
}

func TestFindContaining_FirstMatchWins(t *testing.T) {
	first := &BuildRecord{
		Path: "first.json",
		Contracts: ContractMap{
			"contracts/Token.sol": {"Token": {}},
		},
	}
	second := &BuildRecord{
		Path: "second.json",
		Contracts: ContractMap{
			"contracts/Token.sol": {"Token": {}},
		},
	}

	record, err := FindContaining([]*BuildRecord{first, second}, "Token")
	require.NoError(t, err)
	assert.Equal(t, "first.json", record.Path)
}
