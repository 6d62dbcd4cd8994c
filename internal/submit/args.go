package submit

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// EncodeConstructorArgs produces the hex-encoded ABI representation of
// the constructor arguments. Input is either already-encoded hex (with or
// without 0x prefix) passed through unchanged, or a comma-separated list
// of raw values encoded against the constructor's input types.
func EncodeConstructorArgs(abiJSON json.RawMessage, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	if hexArgs, ok := preEncoded(raw); ok {
		return hexArgs, nil
	}

	parsed, err := abi.JSON(strings.NewReader(string(abiJSON)))
	if err != nil {
		return "", fmt.Errorf("parsing contract ABI: %w", err)
	}

	inputs := parsed.Constructor.Inputs
	values := splitArgs(raw)
	if len(values) != len(inputs) {
		return "", fmt.Errorf("constructor takes %d arguments, got %d", len(inputs), len(values))
	}

	converted := make([]any, len(values))
	for i, input := range inputs {
		v, err := convertArg(values[i], input.Type)
		if err != nil {
			return "", fmt.Errorf("argument %d (%s %s): %w", i, input.Type, input.Name, err)
		}
		converted[i] = v
	}

	packed, err := inputs.Pack(converted...)
	if err != nil {
		return "", fmt.Errorf("encoding constructor arguments: %w", err)
	}
	return hex.EncodeToString(packed), nil
}

// preEncoded reports whether raw is already ABI-encoded hex and returns
// it normalized without the 0x prefix.
func preEncoded(raw string) (string, bool) {
	h := strings.TrimPrefix(raw, "0x")
	if h == "" || len(h)%2 != 0 {
		return "", false
	}
	if _, err := hex.DecodeString(h); err != nil {
		return "", false
	}
	// Bare decimal numbers are valid hex too; require the explicit
	// prefix or a typical encoded-args length to treat them as such.
	if !strings.HasPrefix(raw, "0x") && len(h)%64 != 0 {
		return "", false
	}
	return h, true
}

func splitArgs(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, len(parts))
	for i, p := range parts {
		values[i] = strings.TrimSpace(p)
	}
	return values
}

// convertArg turns a string value into the Go representation the abi
// package expects for the given Solidity type.
func convertArg(value string, t abi.Type) (any, error) {
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(value) {
			return nil, fmt.Errorf("invalid address %q", value)
		}
		return common.HexToAddress(value), nil
	case abi.UintTy:
		n, ok := new(big.Int).SetString(value, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", value)
		}
		// The abi package wants native Go kinds for small widths.
		switch t.Size {
		case 8:
			return uint8(n.Uint64()), nil
		case 16:
			return uint16(n.Uint64()), nil
		case 32:
			return uint32(n.Uint64()), nil
		case 64:
			return n.Uint64(), nil
		}
		return n, nil
	case abi.IntTy:
		n, ok := new(big.Int).SetString(value, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", value)
		}
		switch t.Size {
		case 8:
			return int8(n.Int64()), nil
		case 16:
			return int16(n.Int64()), nil
		case 32:
			return int32(n.Int64()), nil
		case 64:
			return n.Int64(), nil
		}
		return n, nil
	case abi.BoolTy:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q", value)
		}
		return b, nil
	case abi.StringTy:
		return strings.Trim(value, `"`), nil
	case abi.BytesTy:
		b, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid bytes %q", value)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported constructor argument type %s", t)
	}
}
