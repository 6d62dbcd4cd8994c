package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"valid lowercase", "0x00112233445566778899aabbccddeeff00112233", false},
		{"valid checksummed", "0x00112233445566778899aAbBcCdDeEfF00112233", false},
		{"too short", "0x0011", true},
		{"too long", "0x00112233445566778899aabbccddeeff0011223344", true},
		{"missing prefix", "0000112233445566778899aabbccddeeff00112233", true},
		{"non-hex characters", "0x00112233445566778899aabbccddeeff0011223g", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeCompilerVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.8.18+commit.87f61d96", "0.8.18"},
		{"v0.8.18", "0.8.18"},
		{"v0.8.18+commit.87f61d96", "0.8.18"},
		{"0.8.18-nightly.2023.1.1", "0.8.18"},
		{"0.8.18", "0.8.18"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCompilerVersion(tt.in), "input %q", tt.in)
	}
}

func TestValidateCompilerVersion(t *testing.T) {
	assert.NoError(t, ValidateCompilerVersion("0.8.18+commit.87f61d96"))
	assert.NoError(t, ValidateCompilerVersion("v0.4.26"))

	assert.Error(t, ValidateCompilerVersion(""))
	assert.Error(t, ValidateCompilerVersion("0.8"))
	assert.Error(t, ValidateCompilerVersion("latest"))
}
