package config

import (
	"os"
	"testing"
	"time"
)

var allEnvVars = []string{
	"HOST", "PORT", "READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT", "ENVIRONMENT", "API_PREFIX",
	"DB_DRIVER", "DB_PATH", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME",
	"REDIS_ENABLED", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
	"REDIS_MIN_IDLE_CONNS", "REDIS_MAX_RETRIES", "REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT",
	"WORKER_CONCURRENCY", "WORKER_POLL_INTERVAL", "WORKER_QUEUE",
	"JWT_SECRET", "JWT_ISSUER", "ACCESS_TOKEN_TTL", "BCRYPT_COST",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_RPM", "RATE_LIMIT_BURST", "RATE_LIMIT_CLEANUP",
	"CORS_ALLOWED_ORIGINS",
}

func setEnvVars(vars map[string]string) {
	for k, v := range vars {
		os.Setenv(k, v)
	}
}

func clearEnvVars(vars []string) {
	for _, k := range vars {
		os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnvVars(allEnvVars)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with default config, got: %v", err)
	}

	if config.Server.Port != "5000" {
		t.Errorf("Expected default port '5000', got %s", config.Server.Port)
	}

	if config.Server.Environment != "development" {
		t.Errorf("Expected default environment 'development', got %s", config.Server.Environment)
	}

	if config.Server.APIPrefix != "/api" {
		t.Errorf("Expected default API prefix '/api', got %s", config.Server.APIPrefix)
	}

	if config.Database.Driver != "sqlite" {
		t.Errorf("Expected default DB driver 'sqlite', got %s", config.Database.Driver)
	}

	if config.Database.Path != "app.db" {
		t.Errorf("Expected default DB path 'app.db', got %s", config.Database.Path)
	}

	if config.Database.MaxOpenConns != 25 {
		t.Errorf("Expected default max open conns 25, got %d", config.Database.MaxOpenConns)
	}

	if config.Redis.Enabled {
		t.Error("Expected Redis to be disabled by default")
	}

	if config.Worker.Queue != "notifications" {
		t.Errorf("Expected default worker queue 'notifications', got %s", config.Worker.Queue)
	}

	if config.Auth.BCryptCost != 10 {
		t.Errorf("Expected default bcrypt cost 10, got %d", config.Auth.BCryptCost)
	}

	if config.Auth.AccessTokenTTL != time.Hour {
		t.Errorf("Expected default access token TTL 1h, got %v", config.Auth.AccessTokenTTL)
	}

	if !config.RateLimit.Enabled {
		t.Error("Expected rate limiting to be enabled by default")
	}

	if len(config.CORS.AllowedOrigins) != 1 || config.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("Expected default CORS origins [*], got %v", config.CORS.AllowedOrigins)
	}
}

func TestLoadConfig_CustomEnvironment(t *testing.T) {
	envVars := map[string]string{
		"PORT":                 "9000",
		"ENVIRONMENT":          "production",
		"DB_DRIVER":            "postgres",
		"DB_HOST":              "db.example.com",
		"DB_PASSWORD":          "secure_password",
		"DB_MAX_OPEN_CONNS":    "50",
		"REDIS_ENABLED":        "true",
		"REDIS_HOST":           "redis.example.com",
		"REDIS_DB":             "1",
		"WORKER_CONCURRENCY":   "8",
		"JWT_SECRET":           "super-secret-key",
		"RATE_LIMIT_ENABLED":   "false",
		"READ_TIMEOUT":         "45s",
		"ACCESS_TOKEN_TTL":     "30m",
		"CORS_ALLOWED_ORIGINS": "https://a.example.com, https://b.example.com",
	}

	clearEnvVars(allEnvVars)
	setEnvVars(envVars)
	defer clearEnvVars(allEnvVars)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with custom config, got: %v", err)
	}

	if config.Server.Port != "9000" {
		t.Errorf("Expected port '9000', got %s", config.Server.Port)
	}

	if config.Database.Driver != "postgres" {
		t.Errorf("Expected DB driver 'postgres', got %s", config.Database.Driver)
	}

	if config.Database.MaxOpenConns != 50 {
		t.Errorf("Expected max open conns 50, got %d", config.Database.MaxOpenConns)
	}

	if !config.Redis.Enabled {
		t.Error("Expected Redis to be enabled")
	}

	if config.Redis.DB != 1 {
		t.Errorf("Expected Redis DB 1, got %d", config.Redis.DB)
	}

	if config.Worker.Concurrency != 8 {
		t.Errorf("Expected worker concurrency 8, got %d", config.Worker.Concurrency)
	}

	if config.RateLimit.Enabled {
		t.Error("Expected rate limiting to be disabled")
	}

	if config.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Expected read timeout 45s, got %v", config.Server.ReadTimeout)
	}

	if config.Auth.AccessTokenTTL != 30*time.Minute {
		t.Errorf("Expected access token TTL 30m, got %v", config.Auth.AccessTokenTTL)
	}

	if len(config.CORS.AllowedOrigins) != 2 || config.CORS.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("Expected two trimmed CORS origins, got %v", config.CORS.AllowedOrigins)
	}
}

func TestLoadConfig_UnsupportedDriver(t *testing.T) {
	clearEnvVars(allEnvVars)
	os.Setenv("DB_DRIVER", "mysql")
	defer os.Unsetenv("DB_DRIVER")

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("Expected error for unsupported driver")
	}
}

func TestLoadConfig_RateLimitCleanupInterval(t *testing.T) {
	defer clearEnvVars(allEnvVars)

	for _, value := range []string{"0s", "-1m"} {
		clearEnvVars(allEnvVars)
		os.Setenv("RATE_LIMIT_CLEANUP", value)
		if _, err := LoadConfig(); err == nil {
			t.Errorf("Expected error for cleanup interval %s", value)
		}
	}

	clearEnvVars(allEnvVars)
	setEnvVars(map[string]string{"RATE_LIMIT_ENABLED": "false", "RATE_LIMIT_CLEANUP": "0s"})
	if _, err := LoadConfig(); err != nil {
		t.Errorf("Expected disabled rate limiting to ignore the cleanup interval, got %v", err)
	}
}

func TestConfigValidation_Production(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		hasError bool
		errorMsg string
	}{
		{
			name: "Postgres without password",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
				"DB_DRIVER":   "postgres",
				"JWT_SECRET":  "secure-jwt-secret",
			},
			hasError: true,
			errorMsg: "database password is required in production",
		},
		{
			name: "Default JWT secret",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
				"DB_PASSWORD": "secure-db-password",
			},
			hasError: true,
			errorMsg: "JWT secret must be set in production",
		},
		{
			name: "Sqlite with custom secret",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
				"JWT_SECRET":  "secure-jwt-secret",
			},
			hasError: false,
		},
		{
			name: "Development with default JWT secret",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
			},
			hasError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(allEnvVars)
			setEnvVars(tt.envVars)
			defer clearEnvVars(allEnvVars)

			config, err := LoadConfig()

			if tt.hasError {
				if err == nil {
					t.Errorf("Expected error, but got none")
				} else if err.Error() != tt.errorMsg {
					t.Errorf("Expected error '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				if config == nil {
					t.Error("Expected config to be loaded")
				}
			}
		})
	}
}

func TestConfig_GetDatabaseDSN(t *testing.T) {
	config := &Config{
		Database: DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     "5432",
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
			SSLMode:  "require",
		},
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require"
	if actual := config.GetDatabaseDSN(); actual != expected {
		t.Errorf("Expected DSN '%s', got '%s'", expected, actual)
	}

	config.Database.Driver = "sqlite"
	config.Database.Path = "data/app.db"
	if actual := config.GetDatabaseDSN(); actual != "data/app.db?_foreign_keys=on" {
		t.Errorf("Expected sqlite DSN with foreign keys enabled, got '%s'", actual)
	}
}

func TestConfig_Addrs(t *testing.T) {
	config := &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: "9000"},
		Redis:  RedisConfig{Host: "redis.example.com", Port: "6380"},
	}

	if actual := config.GetServerAddr(); actual != "0.0.0.0:9000" {
		t.Errorf("Expected server addr '0.0.0.0:9000', got '%s'", actual)
	}

	if actual := config.GetRedisAddr(); actual != "redis.example.com:6380" {
		t.Errorf("Expected Redis addr 'redis.example.com:6380', got '%s'", actual)
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		environment string
		expected    bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, test := range tests {
		config := &Config{Server: ServerConfig{Environment: test.environment}}

		if actual := config.IsProduction(); actual != test.expected {
			t.Errorf("For environment '%s', expected IsProduction() = %v, got %v",
				test.environment, test.expected, actual)
		}
	}
}

func TestGetEnvAsInt(t *testing.T) {
	key := "TEST_INT_VAR"
	defaultValue := 42

	os.Unsetenv(key)
	if result := getEnvAsInt(key, defaultValue); result != defaultValue {
		t.Errorf("Expected default value %d, got %d", defaultValue, result)
	}

	os.Setenv(key, "100")
	defer os.Unsetenv(key)

	if result := getEnvAsInt(key, defaultValue); result != 100 {
		t.Errorf("Expected env value 100, got %d", result)
	}

	os.Setenv(key, "not-a-number")
	if result := getEnvAsInt(key, defaultValue); result != defaultValue {
		t.Errorf("Expected default value %d for invalid int, got %d", defaultValue, result)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	key := "TEST_BOOL_VAR"
	defaultValue := true

	testCases := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"false", false},
		{"1", true},
		{"0", false},
		{"invalid", defaultValue},
	}

	for _, tc := range testCases {
		os.Setenv(key, tc.value)
		if result := getEnvAsBool(key, defaultValue); result != tc.expected {
			t.Errorf("For value '%s', expected %v, got %v", tc.value, tc.expected, result)
		}
	}

	os.Unsetenv(key)
}

func TestGetEnvAsDuration(t *testing.T) {
	key := "TEST_DURATION_VAR"
	defaultValue := 30 * time.Second

	os.Setenv(key, "5m")
	defer os.Unsetenv(key)

	if result := getEnvAsDuration(key, defaultValue); result != 5*time.Minute {
		t.Errorf("Expected env value 5m, got %v", result)
	}

	os.Setenv(key, "not-a-duration")
	if result := getEnvAsDuration(key, defaultValue); result != defaultValue {
		t.Errorf("Expected default value %v for invalid duration, got %v", defaultValue, result)
	}
}

func TestGetEnvAsList(t *testing.T) {
	key := "TEST_LIST_VAR"
	defaultValue := []string{"x"}

	os.Setenv(key, " , ")
	defer os.Unsetenv(key)

	if result := getEnvAsList(key, defaultValue); len(result) != 1 || result[0] != "x" {
		t.Errorf("Expected default list for blank items, got %v", result)
	}

	os.Setenv(key, "a,b")
	if result := getEnvAsList(key, defaultValue); len(result) != 2 || result[0] != "a" || result[1] != "b" {
		t.Errorf("Expected [a b], got %v", result)
	}
}

func BenchmarkLoadConfig(b *testing.B) {
	clearEnvVars(allEnvVars)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := LoadConfig(); err != nil {
			b.Fatalf("Failed to load config: %v", err)
		}
	}
}
