// Package bytecode matches deployed on-chain code against the compiled
// candidates in a build record.
package bytecode

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/veriforge/veriforge/internal/artifact"
)

// ErrNoBytecodeMatch means no compiled candidate in the trimmed record
// produces the deployed code. Permanent: retrying cannot change either
// side of the comparison.
var ErrNoBytecodeMatch = errors.New("deployed bytecode matches no compiled contract")

// CBOR metadata markers solc appends to runtime bytecode.
var metadataMarkers = [][]byte{
	[]byte("ipfs"),
	[]byte("bzzr0"),
	[]byte("bzzr1"),
}

// Library placeholder patterns in hex-encoded bytecode. Modern solc emits
// __$<34 hex>$__; pre-0.5 emits __<fully qualified name> padded with
// underscores to 40 characters.
var (
	placeholderRe       = regexp.MustCompile(`__\$[a-f0-9]{34}\$__`)
	legacyPlaceholderRe = regexp.MustCompile(`__[A-Za-z0-9_.:/]{36}__`)
)

// ContractInformation is the result of a successful match: the identity
// of the compiled contract that produced the deployed code, plus the
// settings needed to reproduce and verify it.
type ContractInformation struct {
	SourcePath      string
	ContractName    string
	CompilerVersion string
	ABI             json.RawMessage

	// Libraries maps library name to the concrete deployed address
	// resolved from the link-reference slots in the deployed code.
	Libraries map[string]string

	// Record is the trimmed build record the match was made against.
	Record *artifact.BuildRecord
}

// StripMetadata removes the CBOR metadata trailer from runtime bytecode.
// The last two bytes encode the trailer length big-endian; the cut is
// only taken when the trailer actually contains a known metadata marker,
// so bytecode without a trailer passes through unchanged.
func StripMetadata(code []byte) []byte {
	if len(code) < 2 {
		return code
	}
	trailerLen := int(code[len(code)-2])<<8 | int(code[len(code)-1])
	cut := len(code) - trailerLen - 2
	if cut < 0 {
		return code
	}
	trailer := code[cut:]
	for _, marker := range metadataMarkers {
		if bytes.Contains(trailer, marker) {
			return code[:cut]
		}
	}
	return code
}

// Match compares deployed code against every candidate contract in the
// trimmed record and returns the one whose structural pattern equals it,
// ignoring the embedded metadata hash and library-link placeholder slots.
// Candidates are scanned in source order; the first structural match wins.
func Match(deployed []byte, trimmed *artifact.BuildRecord) (*ContractInformation, error) {
	for _, entry := range trimmed.Sources {
		contracts, ok := trimmed.Contracts[entry.Path]
		if !ok {
			continue
		}
		for _, name := range sortedNames(contracts) {
			out := contracts[name]
			if out.DeployedBytecode == "" || out.DeployedBytecode == "0x" {
				continue
			}
			candidate, err := maskPlaceholders(out.DeployedBytecode, deployed)
			if err != nil {
				continue
			}
			if !codeEqual(deployed, candidate) {
				continue
			}
			return &ContractInformation{
				SourcePath:      entry.Path,
				ContractName:    name,
				CompilerVersion: trimmed.Compiler.Version,
				ABI:             out.ABI,
				Libraries:       resolveLibraries(out.LinkReferences, deployed),
				Record:          trimmed,
			}, nil
		}
	}
	return nil, ErrNoBytecodeMatch
}

// codeEqual compares two runtime bytecodes with metadata trailers removed.
func codeEqual(a, b []byte) bool {
	if bytes.Equal(a, b) {
		return true
	}
	return bytes.Equal(StripMetadata(a), StripMetadata(b))
}

// maskPlaceholders substitutes every library placeholder in the candidate
// hex with the bytes the deployed code carries at the same offsets. The
// deployed code is authoritative for those regions; equality of the
// remainder is what the structural comparison checks.
func maskPlaceholders(candidateHex string, deployed []byte) ([]byte, error) {
	h := strings.TrimPrefix(strings.ToLower(candidateHex), "0x")
	deployedHex := hex.EncodeToString(deployed)

	for _, re := range []*regexp.Regexp{placeholderRe, legacyPlaceholderRe} {
		for _, loc := range re.FindAllStringIndex(h, -1) {
			if loc[1] > len(deployedHex) {
				return nil, fmt.Errorf("placeholder at %d beyond deployed code", loc[0])
			}
			h = h[:loc[0]] + deployedHex[loc[0]:loc[1]] + h[loc[1]:]
		}
	}

	decoded, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("decoding candidate bytecode: %w", err)
	}
	return decoded, nil
}

// resolveLibraries reads concrete library addresses out of the deployed
// code at the recorded link-reference slots.
func resolveLibraries(refs artifact.LinkReferences, deployed []byte) map[string]string {
	if len(refs) == 0 {
		return nil
	}
	libraries := make(map[string]string)
	for _, libs := range refs {
		for name, slots := range libs {
			for _, slot := range slots {
				if slot.Start+slot.Length > len(deployed) {
					continue
				}
				libraries[name] = "0x" + hex.EncodeToString(deployed[slot.Start:slot.Start+slot.Length])
				break
			}
		}
	}
	return libraries
}

func sortedNames(contracts map[string]artifact.ContractOutput) []string {
	names := make([]string, 0, len(contracts))
	for name := range contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
