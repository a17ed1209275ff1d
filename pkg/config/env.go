package config

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"
	EnvLogFmt   = "STOREFRONT_LOG_FORMAT"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBPort = "STOREFRONT_DB_PORT"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBPass = "STOREFRONT_DB_PASSWORD"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvCartMaxAddAttempts = "STOREFRONT_CART_MAX_ADD_ATTEMPTS"

	EnvAnalyticsAbandonAfter   = "STOREFRONT_ANALYTICS_ABANDON_AFTER"
	EnvAnalyticsReportInterval = "STOREFRONT_ANALYTICS_REPORT_INTERVAL"
	EnvAnalyticsReportLookback = "STOREFRONT_ANALYTICS_REPORT_LOOKBACK"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
