package config

// EnvPrefix is the prefix envconfig uses when resolving variables.
const EnvPrefix = "KIRAYA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "KIRAYA_DB_DSN"
	EnvDBHost = "KIRAYA_DB_HOST"
	EnvDBUser = "KIRAYA_DB_USER"
	EnvDBName = "KIRAYA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
