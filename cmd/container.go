// cmd/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, mail) and wires
// the identity services together. This is the only place that knows
// about ALL modules.
package main

import (
	"context"
	"os"

	"github.com/Abraxas-365/keystone/pkg/config"
	"github.com/Abraxas-365/keystone/pkg/iam"
	"github.com/Abraxas-365/keystone/pkg/iam/apikey"
	"github.com/Abraxas-365/keystone/pkg/iam/apikey/apikeyinfra"
	"github.com/Abraxas-365/keystone/pkg/iam/apikey/apikeysrv"
	"github.com/Abraxas-365/keystone/pkg/iam/auth"
	"github.com/Abraxas-365/keystone/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/keystone/pkg/iam/guard"
	"github.com/Abraxas-365/keystone/pkg/iam/hashing"
	"github.com/Abraxas-365/keystone/pkg/iam/iamhttp"
	"github.com/Abraxas-365/keystone/pkg/iam/otp"
	"github.com/Abraxas-365/keystone/pkg/iam/policy"
	"github.com/Abraxas-365/keystone/pkg/iam/session"
	"github.com/Abraxas-365/keystone/pkg/iam/session/sessioninfra"
	"github.com/Abraxas-365/keystone/pkg/iam/social"
	"github.com/Abraxas-365/keystone/pkg/iam/user"
	"github.com/Abraxas-365/keystone/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/keystone/pkg/logx"
	"github.com/Abraxas-365/keystone/pkg/notifx"
	"github.com/Abraxas-365/keystone/pkg/notifx/notifxconsole"
	"github.com/Abraxas-365/keystone/pkg/notifx/notifxses"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and the composed services.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB     *sqlx.DB
	Redis  *redis.Client
	Mailer *notifx.Client

	// Repositories
	Users   user.Repository
	APIKeys apikey.Repository

	// Services
	AuthService    *auth.Service
	GoogleService  *social.GoogleService
	OTPService     *otp.Service
	SessionService *session.Service
	APIKeyService  *apikeysrv.Service

	// HTTP
	Guard    *guard.Guard
	Policies *policy.Registry
	Handlers *iamhttp.Handlers
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure: DB, Redis, mail
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database
	db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("  ✅ Database connected")

	// 2. Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (Redis is required)", err)
	}
	logx.Info("  ✅ Redis connected")

	// 3. Mail
	c.initMailer()

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initMailer() {
	switch c.Config.Notifx.Provider {
	case "ses":
		awsCfg, err := awsConfig.LoadDefaultConfig(context.Background(),
			awsConfig.WithRegion(c.Config.Notifx.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		provider := notifxses.NewSESProvider(ses.NewFromConfig(awsCfg), c.Config.Notifx.FromAddress)
		c.Mailer = notifx.NewClient(provider, c.Config.Notifx.FromAddress)
		logx.Infof("  ✅ SES mailer configured (region: %s)", c.Config.Notifx.AWSRegion)

	case "console":
		c.Mailer = notifx.NewClient(notifxconsole.NewConsoleProvider(), c.Config.Notifx.FromAddress)
		logx.Info("  ✅ Console mailer configured")

	default:
		logx.Fatalf("Unknown NOTIFX_PROVIDER: %s (use 'console' or 'ses')", c.Config.Notifx.Provider)
	}
}

// ---------------------------------------------------------------------------
// Module composition
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	// Repositories
	c.Users = userinfra.NewPostgresUserRepository(c.DB)
	c.APIKeys = apikeyinfra.NewPostgresAPIKeyRepository(c.DB)

	// Core auth
	hasher := hashing.NewBcryptHasher(0)
	tokens := auth.NewJWTService(c.Config.JWT)
	refreshStore := authinfra.NewRedisRefreshTokenStore(c.Redis, c.Config.JWT.RefreshTokenTTL)
	audit := authinfra.NewLogxAuditService(logx.GetDefaultLogger())
	notifier := authinfra.NewEmailSecurityNotifier(c.Mailer, c.Config.Notifx.AlertAddress)

	c.OTPService = otp.NewService(c.Config.OTP, c.Users)
	c.AuthService = auth.NewService(c.Users, hasher, tokens, refreshStore, audit, notifier, c.OTPService, c.Config.JWT)

	// Federated sign-in
	validator := social.NewGoogleTokenValidator(c.Config.Google)
	c.GoogleService = social.NewGoogleService(validator, c.Users, c.AuthService, audit)

	// Sessions and API keys
	sessionStore := sessioninfra.NewRedisSessionStore(c.Redis, c.Config.App.SessionTTL)
	c.SessionService = session.NewService(sessionStore, c.Users, hasher)
	c.APIKeyService = apikeysrv.New(c.APIKeys, c.Users)

	// Authorization policies. Handlers self-register; resolving here
	// makes a missing handler fail at boot instead of on a request.
	c.Policies = policy.NewRegistry()
	policy.NewValidUserPolicyHandler(c.Policies)
	for _, p := range []iam.Policy{policy.ValidUserPolicy{}} {
		if _, err := c.Policies.Resolve(p.PolicyName()); err != nil {
			logx.Fatalf("Policy %q has no registered handler: %v", p.PolicyName(), err)
		}
	}

	// Guard
	c.Guard = guard.New(c.Policies)
	c.Guard.RegisterStrategy(iam.AuthBearer, guard.NewBearerStrategy(tokens))
	c.Guard.RegisterStrategy(iam.AuthAPIKey, guard.NewAPIKeyStrategy(c.APIKeyService))
	c.Guard.RegisterStrategy(iam.AuthSession, guard.NewSessionStrategy(c.SessionService))

	c.Handlers = iamhttp.NewHandlers(c.AuthService, c.GoogleService, c.OTPService, c.SessionService, c.APIKeyService)

	logx.Info("✅ Modules initialized")
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
