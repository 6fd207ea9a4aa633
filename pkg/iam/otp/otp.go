// Package otp implements TOTP-based two-factor authentication:
// enrollment secrets, provisioning QR codes and code verification.
package otp

import (
	"bytes"
	"context"
	"image/png"
	"net/http"

	"github.com/Abraxas-365/keystone/pkg/config"
	"github.com/Abraxas-365/keystone/pkg/errx"
	"github.com/Abraxas-365/keystone/pkg/iam/user"
	otplib "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var ErrRegistry = errx.NewRegistry("OTP")

var (
	CodeGenerationFailed = ErrRegistry.Register("GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to generate one-time password secret")
	CodeInvalidCode      = ErrRegistry.Register("INVALID_CODE", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid one-time code")
)

// Enrollment is a freshly generated TOTP secret plus the provisioning
// data an authenticator app needs to adopt it. The secret is persisted
// only after the user proves possession via Enable.
type Enrollment struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
}

// Service manages TOTP enrollment and verification.
type Service struct {
	appName string
	users   user.Repository
}

func NewService(cfg config.OTPConfig, users user.Repository) *Service {
	return &Service{appName: cfg.AppName, users: users}
}

// GenerateSecret creates a new TOTP secret for the given account.
func (s *Service) GenerateSecret(email string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.appName,
		AccountName: email,
	})
	if err != nil {
		return nil, ErrRegistry.NewWithCause(CodeGenerationFailed, err)
	}

	return &Enrollment{
		Secret: key.Secret(),
		URI:    key.URL(),
	}, nil
}

// QRCode renders the provisioning URI of an enrollment as a PNG for
// authenticator apps to scan.
func (s *Service) QRCode(e *Enrollment) ([]byte, error) {
	key, err := otplib.NewKeyFromURL(e.URI)
	if err != nil {
		return nil, ErrRegistry.NewWithCause(CodeGenerationFailed, err)
	}

	img, err := key.Image(256, 256)
	if err != nil {
		return nil, ErrRegistry.NewWithCause(CodeGenerationFailed, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, ErrRegistry.NewWithCause(CodeGenerationFailed, err)
	}
	return buf.Bytes(), nil
}

// Enroll generates a secret for the user and turns two-factor auth on
// in the same step. The provisioning QR code in the response is the
// only time the secret leaves the server.
func (s *Service) Enroll(ctx context.Context, userID int64, email string) (*Enrollment, error) {
	e, err := s.GenerateSecret(email)
	if err != nil {
		return nil, err
	}
	if err := s.users.EnableTFA(ctx, userID, e.Secret); err != nil {
		return nil, err
	}
	return e, nil
}

// VerifyCode checks a submitted code against an enrolled secret.
func (s *Service) VerifyCode(code, secret string) bool {
	return totp.Validate(code, secret)
}

// Enable turns two-factor auth on for a user once they prove possession
// of the secret with a valid code.
func (s *Service) Enable(ctx context.Context, userID int64, secret, code string) error {
	if !s.VerifyCode(code, secret) {
		return ErrRegistry.New(CodeInvalidCode)
	}
	return s.users.EnableTFA(ctx, userID, secret)
}
