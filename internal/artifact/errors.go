package artifact

import "errors"

// Errors returned by the artifact index. All are permanent: retrying
// cannot fix a malformed artifact or a contract that was never compiled.
var (
	ErrArtifactParse    = errors.New("malformed build artifact")
	ErrContractNotFound = errors.New("contract not found in any build record")
)
