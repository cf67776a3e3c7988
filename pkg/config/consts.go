package config

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "PAYABLES"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "PAYABLES_APP_ENV"
	EnvDBDSN  = "PAYABLES_DB_DSN"
	EnvDBHost = "PAYABLES_DB_HOST"
	EnvDBUser = "PAYABLES_DB_USER"
	EnvDBName = "PAYABLES_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
