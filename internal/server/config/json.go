package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/tradehub/internal/flagx"
	"github.com/dmitrijs2005/tradehub/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations may be
// written as strings ("15m") or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	AdminAddr                    string         `json:"admin_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	DocumentStore                string         `json:"document_store"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	BlobBackend                  string         `json:"blob_backend"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	PresignTTL                   timex.Duration `json:"presign_ttl"`
	RateLimit                    float64        `json:"rate_limit"`
	RateBurst                    int            `json:"rate_burst"`
	LogLevel                     string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config, if any. Keys missing from
// the file leave the current values alone. Unreadable or invalid files panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.AdminAddr, c.AdminAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.DocumentStore, c.DocumentStore)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setString(&config.BlobBackend, c.BlobBackend)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.PresignTTL, c.PresignTTL)
	if c.RateLimit > 0 {
		config.RateLimit = c.RateLimit
	}
	if c.RateBurst > 0 {
		config.RateBurst = c.RateBurst
	}
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = time.Duration(v.Duration)
	}
}
