package config

const (
	// EnvPrefix namespaces every environment variable read by envconfig.
	EnvPrefix = "PRECIOUS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvDBDSN          = "PRECIOUS_DB_DSN"
	EnvSchedulerTimes = "PRECIOUS_SCHEDULER_TIMES"
)
