package constants

// Application Information
const (
	AppName    = "Accounts Service"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Default Application Settings
const (
	DefaultPort        = "8080"
	DefaultEnvironment = EnvDevelopment
)

// Role Names
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Cache Key Prefixes
const (
	CacheKeyPrefix = "accounts:"
	CacheKeyToken  = CacheKeyPrefix + "token:"
)

// Log Levels
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
	LogLevelFatal = "fatal"
)
