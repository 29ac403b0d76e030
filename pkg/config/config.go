package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	DB       DBConfig
	Redis    RedisConfig
	Razorpay RazorpayConfig
	Policy   PolicyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KIRAYA_APP_ENV" required:"true"`
	Port         string `envconfig:"KIRAYA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KIRAYA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KIRAYA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"KIRAYA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"KIRAYA_DB_DSN"`
	Driver string `envconfig:"KIRAYA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KIRAYA_DB_HOST"`
	LegacyPort     int    `envconfig:"KIRAYA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KIRAYA_DB_USER"`
	LegacyPassword string `envconfig:"KIRAYA_DB_PASSWORD"`
	LegacyName     string `envconfig:"KIRAYA_DB_NAME"`
	LegacySSLMode  string `envconfig:"KIRAYA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KIRAYA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KIRAYA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KIRAYA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KIRAYA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KIRAYA_REDIS_URL" required:"true"`
	Password     string        `envconfig:"KIRAYA_REDIS_PASSWORD"`
	DB           int           `envconfig:"KIRAYA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KIRAYA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KIRAYA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KIRAYA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KIRAYA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KIRAYA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type RazorpayConfig struct {
	KeyID     string `envconfig:"KIRAYA_RAZORPAY_KEY_ID" required:"true"`
	KeySecret string `envconfig:"KIRAYA_RAZORPAY_KEY_SECRET" required:"true"`
	Env       string `envconfig:"KIRAYA_RAZORPAY_ENV" default:"test"`
}

// Environment returns the normalized Razorpay environment (test/live).
func (r RazorpayConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(r.Env))
	if env == "" {
		return "test"
	}
	return env
}

// PolicyConfig carries operator-tunable marketplace policy. The approval
// timeout and late-fee values are deliberately configuration rather than
// hard-coded constants.
type PolicyConfig struct {
	ApprovalReminderHours  int   `envconfig:"KIRAYA_POLICY_APPROVAL_REMINDER_HOURS" default:"24"`
	ApprovalAutoCancel     bool  `envconfig:"KIRAYA_POLICY_APPROVAL_AUTO_CANCEL" default:"true"`
	ApprovalCancelHours    int   `envconfig:"KIRAYA_POLICY_APPROVAL_CANCEL_HOURS" default:"72"`
	LateFeePaisePerDay     int64 `envconfig:"KIRAYA_POLICY_LATE_FEE_PAISE_PER_DAY" default:"5000"`
	OrderNumberMaxAttempts int   `envconfig:"KIRAYA_POLICY_ORDER_NUMBER_MAX_ATTEMPTS" default:"10"`
	TaxRateBasisPoints     int64 `envconfig:"KIRAYA_POLICY_TAX_RATE_BASIS_POINTS" default:"1800"`

	// AdminRecipientID is the notification inbox for failures that need a
	// human (refund initiation failures land here).
	AdminRecipientID string `envconfig:"KIRAYA_POLICY_ADMIN_RECIPIENT_ID"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
