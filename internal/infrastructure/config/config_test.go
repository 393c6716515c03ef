package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 14, cfg.Library.LoanPeriodDays)
	assert.Zero(t, cfg.Library.MaxLoansPerUser)
	assert.Equal(t, time.Hour, cfg.Notifier.Interval)

	policy, err := cfg.Library.Policy()
	require.NoError(t, err)
	assert.Equal(t, "1", policy.FinePerDay.String())
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: sqlite\n")
	t.Setenv("LIBRARY_DATABASE_DRIVER", "memory")
	t.Setenv("LIBRARY_LIBRARY_LOAN_PERIOD_DAYS", "21")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 21, cfg.Library.LoanPeriodDays)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"非法端口", "server:\n  port: 70000\n"},
		{"未知驱动", "database:\n  driver: oracle\n"},
		{"借期为0", "library:\n  loan_period_days: 0\n"},
		{"负罚金", "library:\n  fine_per_day: \"-1\"\n"},
		{"罚金格式错误", "library:\n  fine_per_day: abc\n"},
		{"未知时区", "library:\n  timezone: Mars/Olympus\n"},
		{"生产环境默认密钥", "server:\n  mode: release\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		User: "root", Password: "pw", Host: "db", Port: 3306,
		DBName: "library", Charset: "utf8mb4", ParseTime: true, Loc: "Asia/Shanghai",
	}
	assert.Equal(t, "root:pw@tcp(db:3306)/library?charset=utf8mb4&parseTime=true&loc=Asia%2FShanghai", d.DSN())
}

func TestLibraryConfig_Clock(t *testing.T) {
	clock, err := LibraryConfig{Timezone: "UTC"}.Clock()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, clock().Location())
}
