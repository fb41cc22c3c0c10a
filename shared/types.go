package shared

const (
	GCS_BACKUP_PROVIDER = "gcs"
	S3_BACKUP_PROVIDER  = "s3"
)

type ServerConfig struct {
	Sqlite SqliteConfig `mapstructure:"sqlite" validate:"required"`
	Agenda AgendaConfig `mapstructure:"agenda" validate:"required"`
	Backup BackupConfig `mapstructure:"backup"`
	Google GoogleConfig `mapstructure:"google"`
	AWS    AWSConfig    `mapstructure:"aws"`
	Log    LogConfig    `mapstructure:"log"`
}

type SqliteConfig struct {
	PassPhrase string `mapstructure:"passPhrase" validate:"required"`
}

type AgendaConfig struct {
	PrivateKeyPem   string         `mapstructure:"privateKeyPem" validate:"required"`
	SessionKey      string         `mapstructure:"sessionKey" validate:"required,min=32"`
	TokenTTLMinutes int            `mapstructure:"tokenTTLMinutes" validate:"omitempty,min=1"`
	DataDir         string         `mapstructure:"dataDir"`
	Cron            CronConfig     `mapstructure:"cron" validate:"required"`
	Listener        ListenerConfig `mapstructure:"listener" validate:"required"`
}

type CronConfig struct {
	TimeZone string `mapstructure:"timeZone" validate:"required"`
}

type ListenerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

type BackupConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Provider string `mapstructure:"provider" validate:"required_with=Enabled,omitempty,oneof=gcs s3"`
	Bucket   string `mapstructure:"bucket" validate:"required_with=Enabled"`
	Prefix   string `mapstructure:"prefix"`
	Schedule string `mapstructure:"schedule" validate:"required_with=Enabled"`
}

type GoogleConfig struct {
	ApplicationCredentials string `mapstructure:"applicationCredentials"`
}

type AWSConfig struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"accessKeyID"`
	SecretAccessKey string `mapstructure:"secretAccessKey" validate:"required_with=AccessKeyID"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAgeDays"`
}
