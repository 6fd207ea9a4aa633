package config

// NotifxConfig configures the security notification system.
type NotifxConfig struct {
	Provider     string
	FromAddress  string
	AlertAddress string
	AWSRegion    string
}

func loadNotifxConfig() NotifxConfig {
	return NotifxConfig{
		Provider:     getEnv("NOTIFX_PROVIDER", "console"),
		FromAddress:  getEnv("NOTIFX_FROM_ADDRESS", "security@keystone.local"),
		AlertAddress: getEnv("NOTIFX_ALERT_ADDRESS", ""),
		AWSRegion:    getEnv("NOTIFX_AWS_REGION", getEnv("AWS_REGION", "us-east-1")),
	}
}
