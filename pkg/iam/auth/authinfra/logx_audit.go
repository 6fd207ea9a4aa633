package authinfra

import (
	"context"

	"github.com/Abraxas-365/keystone/pkg/logx"
)

// LogxAuditService records authentication events as structured log
// entries.
type LogxAuditService struct {
	logger *logx.Logger
}

func NewLogxAuditService(logger *logx.Logger) *LogxAuditService {
	return &LogxAuditService{logger: logger}
}

func (a *LogxAuditService) LogSignUp(_ context.Context, userID int64, email string) {
	a.logger.WithFields(logx.Fields{
		"event":   "sign_up",
		"user_id": userID,
		"email":   email,
	}).Info("user signed up")
}

func (a *LogxAuditService) LogSignIn(_ context.Context, email string, success bool) {
	entry := a.logger.WithFields(logx.Fields{
		"event":   "sign_in",
		"email":   email,
		"success": success,
	})
	if success {
		entry.Info("user signed in")
	} else {
		entry.Warn("sign in failed")
	}
}

func (a *LogxAuditService) LogTokenRefresh(_ context.Context, userID int64) {
	a.logger.WithFields(logx.Fields{
		"event":   "token_refresh",
		"user_id": userID,
	}).Info("refresh token rotated")
}

func (a *LogxAuditService) LogReuseDetected(_ context.Context, userID int64, email string) {
	a.logger.WithFields(logx.Fields{
		"event":   "refresh_reuse_detected",
		"user_id": userID,
		"email":   email,
	}).Warn("refresh token reuse detected, sessions invalidated")
}

func (a *LogxAuditService) LogFederatedSignIn(_ context.Context, userID int64, email, provider string) {
	a.logger.WithFields(logx.Fields{
		"event":    "federated_sign_in",
		"user_id":  userID,
		"email":    email,
		"provider": provider,
	}).Info("user signed in via identity provider")
}
