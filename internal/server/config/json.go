package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/flagx"
	"github.com/dmitrijs2005/gophaccounts/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	DatabaseDSN           *string        `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`

	BaseURL     string `json:"base_url"`
	FrontendURL string `json:"frontend_url"`

	GoogleClientID        string         `json:"google_client_id"`
	GoogleClientSecret    string         `json:"google_client_secret"`
	GoogleAuthURL         string         `json:"google_auth_url"`
	GoogleTokenURL        string         `json:"google_token_url"`
	GoogleUserInfoURL     string         `json:"google_userinfo_url"`
	ProviderTimeout       timex.Duration `json:"provider_timeout"`
	StateValidityDuration timex.Duration `json:"state_validity_duration"`

	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`

	AvatarStorage  string `json:"avatar_storage"`
	UploadDir      string `json:"upload_dir"`
	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`

	LogFormat string `json:"log_format"`
	LogLevel  string `json:"log_level"`
}

// parseJson overlays config with the file named by -c/-config (or
// ACCOUNTS_CONFIG). Keys absent from the file leave the current value
// untouched; database_dsn may be set to "" explicitly to select the
// in-memory store. Unreadable or invalid files panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.TokenValidityDuration, c.TokenValidityDuration)

	setString(&config.BaseURL, c.BaseURL)
	setString(&config.FrontendURL, c.FrontendURL)

	setString(&config.GoogleClientID, c.GoogleClientID)
	setString(&config.GoogleClientSecret, c.GoogleClientSecret)
	setString(&config.GoogleAuthURL, c.GoogleAuthURL)
	setString(&config.GoogleTokenURL, c.GoogleTokenURL)
	setString(&config.GoogleUserInfoURL, c.GoogleUserInfoURL)
	setDuration(&config.ProviderTimeout, c.ProviderTimeout)
	setDuration(&config.StateValidityDuration, c.StateValidityDuration)

	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)

	setString(&config.AvatarStorage, c.AvatarStorage)
	setString(&config.UploadDir, c.UploadDir)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
