package constants

const (
	AppName            = "habitthemes"
	DefaultKeyringUser = "database-connection"
	DefaultDBName      = "habitthemes.db"
	ConfigFileName     = "config.yaml"
	Version            = "v0.3.0"

	// DateFormat is the on-disk and CLI format for calendar dates (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "habitthemes-"
	BackupFileSuffix = ".db"

	// Environment variables
	EnvDatabase = "HABITTHEMES_DB"
	EnvDebug    = "HABITTHEMES_DEBUG"
	EnvTimezone = "HABITTHEMES_TIMEZONE"

	// DefaultLogDays is how many trailing days the list command renders per habit
	DefaultLogDays = 7
)
