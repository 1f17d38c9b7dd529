package flows

import "github.com/MrEthical07/tokenauth/jwt"

// ValidateFailureKind classifies access-token validation failures.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureMissing
	ValidateFailureExpired
	ValidateFailureInvalid
)

// ValidateResult returns either claims or a classified failure.
type ValidateResult struct {
	Failure ValidateFailureKind
	Claims  *jwt.Claims
}

// ValidateDeps captures access validation dependencies. No store is involved.
type ValidateDeps struct {
	VerifyAccess func(string) (*jwt.Claims, jwt.Outcome)
}

// RunValidate verifies an access token by signature and expiry alone.
func RunValidate(tokenStr string, deps ValidateDeps) ValidateResult {
	if tokenStr == "" {
		return ValidateResult{Failure: ValidateFailureMissing}
	}

	claims, outcome := deps.VerifyAccess(tokenStr)
	switch outcome {
	case jwt.OutcomeValid:
		return ValidateResult{Claims: claims}
	case jwt.OutcomeExpired:
		return ValidateResult{Failure: ValidateFailureExpired}
	default:
		return ValidateResult{Failure: ValidateFailureInvalid}
	}
}
