package authinfra

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/keystone/pkg/asyncx"
	"github.com/Abraxas-365/keystone/pkg/iam/user"
	"github.com/Abraxas-365/keystone/pkg/logx"
	"github.com/Abraxas-365/keystone/pkg/notifx"
)

// EmailSecurityNotifier emails the security alert address when a refresh
// token replay is detected. Sending happens in the background so the
// failing refresh request is not held up by the mail provider.
type EmailSecurityNotifier struct {
	mailer  *notifx.Client
	alertTo string
}

func NewEmailSecurityNotifier(mailer *notifx.Client, alertTo string) *EmailSecurityNotifier {
	return &EmailSecurityNotifier{mailer: mailer, alertTo: alertTo}
}

func (n *EmailSecurityNotifier) NotifyReuseDetected(ctx context.Context, u *user.User) {
	if n.alertTo == "" {
		return
	}

	msg := notifx.EmailMessage{
		To:      []string{n.alertTo},
		Subject: fmt.Sprintf("Refresh token reuse detected for user %d", u.ID),
		TextBody: fmt.Sprintf(
			"A refresh token for user %d (%s) was presented after it had already been rotated. "+
				"All refresh tokens for the account have been invalidated and the user must sign in again.",
			u.ID, u.Email,
		),
	}

	bg := context.WithoutCancel(ctx)
	asyncx.Do(func() {
		if err := n.mailer.SendEmail(bg, msg); err != nil {
			logx.WithFields(logx.Fields{
				"user_id": u.ID,
				"error":   err.Error(),
			}).Warn("failed to send reuse alert email")
		}
	})
}
