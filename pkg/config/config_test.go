package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 8081
database:
  driver: MySQL
  host: db
  username: root
  password: secret
  database: videos
transcription:
  base_url: http://asr:9000
  timeout: 90s
minio:
  endpoint: minio:9000
  access_key: ak
  secret_key: sk
  bucket_name: videos
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, 90*time.Second, cfg.Transcription.Timeout)
	assert.Equal(t, 180*time.Second, cfg.Transcription.StaleAfter)
	assert.Equal(t, "ak", cfg.Minio.AccessKeyID)
	assert.Equal(t, "sk", cfg.Minio.SecretAccessKey)
	assert.Equal(t, "video.events", cfg.Kafka.Topics.VideoEvents)
	assert.Equal(t, "videos", cfg.Upload.KeyPrefix)
	assert.Equal(t, 9092, cfg.GRPCServer.Port)
}

func TestNormalizeClampsStaleAfter(t *testing.T) {
	cases := []struct {
		name       string
		in         TranscriptionConfig
		staleAfter time.Duration
	}{
		{"below timeout plus grace", TranscriptionConfig{Timeout: 90 * time.Second, StaleAfter: 60 * time.Second, Lock: TranscriptionLockConfig{Grace: 20 * time.Second}}, 110 * time.Second},
		{"default grace counted", TranscriptionConfig{Timeout: 5 * time.Minute, StaleAfter: time.Minute}, 5*time.Minute + 30*time.Second},
		{"already long enough", TranscriptionConfig{Timeout: time.Minute, StaleAfter: 10 * time.Minute, Lock: TranscriptionLockConfig{Grace: time.Second}}, 10 * time.Minute},
		{"defaults", TranscriptionConfig{}, 10 * time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Config{Transcription: tc.in}
			c.normalize()
			assert.Equal(t, tc.staleAfter, c.Transcription.StaleAfter)
			assert.GreaterOrEqual(t, c.Transcription.StaleAfter, c.Transcription.Timeout+c.Transcription.Lock.Grace)
		})
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GO_VIDEO_SERVER_PORT", "9999")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetDSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "h", Port: 5432, Username: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable TimeZone=UTC", pg.GetDSN())

	my := DatabaseConfig{Driver: "mysql", Host: "h", Port: 3306, Username: "u", Password: "p", Database: "d", Charset: "utf8mb4"}
	assert.Equal(t, "u:p@tcp(h:3306)/d?charset=utf8mb4&parseTime=True&loc=UTC", my.GetDSN())
}
