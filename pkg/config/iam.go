package config

import "time"

// JWTConfig configures token signing and verification.
type JWTConfig struct {
	Secret          string
	Issuer          string
	Audience        string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func loadJWTConfig() JWTConfig {
	return JWTConfig{
		Secret:          getEnv("JWT_SECRET", ""),
		Issuer:          getEnv("JWT_ISSUER", "keystone"),
		Audience:        getEnv("JWT_AUDIENCE", "keystone-api"),
		AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TOKEN_TTL", 7*24*time.Hour),
	}
}

// OTPConfig configures two-factor authentication.
type OTPConfig struct {
	// AppName is shown in the authenticator app next to the account.
	AppName string
}

func loadOTPConfig() OTPConfig {
	return OTPConfig{
		AppName: getEnv("TFA_APP_NAME", "Keystone"),
	}
}

// GoogleConfig configures federated (Google) authentication.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
}

func loadGoogleConfig() GoogleConfig {
	return GoogleConfig{
		ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
	}
}
