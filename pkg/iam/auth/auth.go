package auth

import (
	"net/http"

	"github.com/Abraxas-365/keystone/pkg/errx"
)

// TokenPair is the credential pair issued at sign-in, sign-up via a
// federated identity, and on every refresh rotation.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	// CodeInvalidCredentials merges "unknown email" and "wrong password"
	// so callers cannot tell which one failed.
	CodeInvalidCredentials = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid credentials")

	// CodeRefreshReuseDetected marks the presentation of a superseded
	// refresh token: a possible token-theft signal, kept distinct from a
	// generic invalid token so it can be logged and alerted on.
	CodeRefreshReuseDetected = ErrRegistry.Register("REFRESH_REUSE_DETECTED", errx.TypeAuthorization, http.StatusUnauthorized, "Access Denied")

	CodeInvalidOTPCode = ErrRegistry.Register("INVALID_OTP_CODE", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid one-time code")
)

func ErrInvalidCredentials() *errx.Error {
	return ErrRegistry.New(CodeInvalidCredentials)
}

func ErrRefreshReuseDetected() *errx.Error {
	return ErrRegistry.New(CodeRefreshReuseDetected)
}

func ErrInvalidOTPCode() *errx.Error {
	return ErrRegistry.New(CodeInvalidOTPCode)
}
