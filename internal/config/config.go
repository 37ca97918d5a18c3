package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	PostgresAddress  string
	PostgresPort     string
	PostgresDB       string
	PostgresUsername string
	PostgresPassword string
	HTTPPort         string
	LockTimeout      time.Duration
	NotifyWorkers    int
}

func ProcessEnvironmentVariables() (*Config, error) {
	// In all cases the default behavior should be for the docker compose setup
	env := Config{
		PostgresAddress:  "localhost",
		PostgresPort:     "5433",
		PostgresDB:       "postgres",
		PostgresUsername: "postgres",
		PostgresPassword: "testpassword",
		HTTPPort:         "9446",
		LockTimeout:      5 * time.Second,
		NotifyWorkers:    4,
	}

	envPostgresAddress := os.Getenv("POSTGRES_ADDRESS")
	envPostgresPort := os.Getenv("POSTGRES_PORT")
	envPostgresDB := os.Getenv("POSTGRES_DB")
	envPostgresUsername := os.Getenv("POSTGRES_USERNAME")
	envPostgresPassword := os.Getenv("POSTGRES_PASSWORD")
	envHTTPPort := os.Getenv("HTTP_PORT")
	envLockTimeoutMS := os.Getenv("LOCK_TIMEOUT_MS")
	envNotifyWorkers := os.Getenv("NOTIFY_WORKERS")

	if len(envPostgresAddress) != 0 {
		env.PostgresAddress = envPostgresAddress
	}

	if len(envPostgresPort) != 0 {
		env.PostgresPort = envPostgresPort
	}

	if len(envPostgresDB) != 0 {
		env.PostgresDB = envPostgresDB
	}

	if len(envPostgresUsername) != 0 {
		env.PostgresUsername = envPostgresUsername
	}

	if len(envPostgresPassword) != 0 {
		env.PostgresPassword = envPostgresPassword
	}

	if len(envHTTPPort) != 0 {
		env.HTTPPort = envHTTPPort
	}

	if len(envLockTimeoutMS) != 0 {
		ms, err := strconv.Atoi(envLockTimeoutMS)
		if err != nil {
			return nil, err
		}
		env.LockTimeout = time.Duration(ms) * time.Millisecond
	}

	if len(envNotifyWorkers) != 0 {
		workers, err := strconv.Atoi(envNotifyWorkers)
		if err != nil {
			return nil, err
		}
		env.NotifyWorkers = workers
	}

	return &env, nil
}
