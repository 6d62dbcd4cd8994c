package bytecode

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriforge/veriforge/internal/artifact"
)

// withMetadata appends a CBOR-style metadata trailer (containing the ipfs
// marker) plus the two-byte big-endian length suffix solc emits.
func withMetadata(code []byte, hashFill byte) []byte {
	trailer := append([]byte{0xa2, 0x64}, []byte("ipfs")...)
	for i := 0; i < 34; i++ {
		trailer = append(trailer, hashFill)
	}
	out := append(append([]byte{}, code...), trailer...)
	return append(out, byte(len(trailer)>>8), byte(len(trailer)))
}

func trimmedRecord(sourcePath, name, deployedHex string, refs artifact.LinkReferences) *artifact.BuildRecord {
	return &artifact.BuildRecord{
		Compiler: artifact.CompilerInfo{Version: "0.8.18+commit.87f61d96"},
		Settings: artifact.Settings{Optimizer: artifact.OptimizerSettings{Enabled: true, Runs: 200}},
		Sources:  artifact.SourceList{{Path: sourcePath, Content: "contract " + name + " {}"}},
		Contracts: artifact.ContractMap{
			sourcePath: {
				name: {
					ABI:              []byte(`[]`),
					DeployedBytecode: deployedHex,
					LinkReferences:   refs,
				},
			},
		},
	}
}

func TestStripMetadata(t *testing.T) {
	code := []byte{0x60, 0x80, 0x60, 0x40}
	full := withMetadata(code, 0xaa)

	assert.Equal(t, code, StripMetadata(full))
}

func TestStripMetadata_NoTrailer(t *testing.T) {
	code := []byte{0x60, 0x80, 0x60, 0x40, 0x00, 0x02}
	// Last two bytes suggest a length but the trailer has no marker.
	assert.Equal(t, code, StripMetadata(code))
}

func TestStripMetadata_Short(t *testing.T) {
	assert.Equal(t, []byte{0x60}, StripMetadata([]byte{0x60}))
}

func TestMatch_ExactBytecode(t *testing.T) {
	deployed := withMetadata([]byte{0x60, 0x80, 0x60, 0x40}, 0xaa)
	rec := trimmedRecord("contracts/Token.sol", "Token", "0x"+hex.EncodeToString(deployed), nil)

	info, err := Match(deployed, rec)
	require.NoError(t, err)
	assert.Equal(t, "Token", info.ContractName)
	assert.Equal(t, "contracts/Token.sol", info.SourcePath)
	assert.Equal(t, "0.8.18+commit.87f61d96", info.CompilerVersion)
}

func TestMatch_MetadataDiffers(t *testing.T) {
	// Same executable code, different embedded metadata hash.
	code := []byte{0x60, 0x80, 0x60, 0x40}
	deployed := withMetadata(code, 0xaa)
	candidate := withMetadata(code, 0xbb)
	rec := trimmedRecord("contracts/Token.sol", "Token", "0x"+hex.EncodeToString(candidate), nil)

	info, err := Match(deployed, rec)
	require.NoError(t, err)
	assert.Equal(t, "Token", info.ContractName)
}

func TestMatch_NoCandidate(t *testing.T) {
	deployed := withMetadata([]byte{0x60, 0x80}, 0xaa)
	rec := trimmedRecord("contracts/Token.sol", "Token", "0x600160016001600160016001", nil)

	_, err := Match(deployed, rec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoBytecodeMatch))
}

func TestMatch_LibraryPlaceholder(t *testing.T) {
	libAddr := "00112233445566778899aabbccddeeff00112233"
	deployedHex := "6080" + "73" + libAddr + "6040"
	deployed, err := hex.DecodeString(deployedHex)
	require.NoError(t, err)

	placeholder := "__$" + strings.Repeat("a", 34) + "$__"
	require.Len(t, placeholder, 40)
	candidateHex := "0x6080" + "73" + placeholder + "6040"

	refs := artifact.LinkReferences{
		"contracts/lib/Math.sol": {
			"Math": {{Start: 3, Length: 20}},
		},
	}
	rec := trimmedRecord("contracts/Token.sol", "Token", candidateHex, refs)

	info, err := Match(deployed, rec)
	require.NoError(t, err)
	assert.Equal(t, "Token", info.ContractName)
	assert.Equal(t, map[string]string{"Math": "0x" + libAddr}, info.Libraries)
}

func TestMatch_LegacyPlaceholder(t *testing.T) {
	libAddr := "00112233445566778899aabbccddeeff00112233"
	deployedHex := "6080" + "73" + libAddr + "6040"
	deployed, err := hex.DecodeString(deployedHex)
	require.NoError(t, err)

	name := "contracts/lib/Math.sol:Math"
	placeholder := "__" + name + strings.Repeat("_", 38-len(name))
	require.Len(t, placeholder, 40)
	candidateHex := "0x6080" + "73" + placeholder + "6040"

	rec := trimmedRecord("contracts/Token.sol", "Token", candidateHex, nil)

	info, err := Match(deployed, rec)
	require.NoError(t, err)
	assert.Equal(t, "Token", info.ContractName)
}

func TestMatch_SkipsEmptyBytecode(t *testing.T) {
	deployed := []byte{0x60, 0x80}
	rec := &artifact.BuildRecord{
		Sources: artifact.SourceList{
			{Path: "contracts/IToken.sol"},
			{Path: "contracts/Token.sol"},
		},
		Contracts: artifact.ContractMap{
			"contracts/IToken.sol": {"IToken": {DeployedBytecode: "0x"}},
			"contracts/Token.sol":  {"Token": {DeployedBytecode: "0x6080"}},
		},
	}

	info, err := Match(deployed, rec)
	require.NoError(t, err)
	assert.Equal(t, "Token", info.ContractName)
}
