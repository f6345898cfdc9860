package database_test

import (
	"strings"
	"testing"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/database"
)

var testEnv = &database.Env{
	Host:     "TEST_DB_HOST",
	Port:     "TEST_DB_PORT",
	Name:     "TEST_DB_NAME",
	User:     "TEST_DB_USER",
	Password: "TEST_DB_PASSWORD",
}

func TestConfig_Finalize(t *testing.T) {
	t.Setenv("TEST_DB_NAME", "tosguard")
	t.Setenv("TEST_DB_USER", "guard")
	t.Setenv("TEST_DB_PORT", "6543")

	var cfg database.Config
	if err := cfg.Finalize(testEnv); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	if cfg.Host != "localhost" {
		t.Errorf("host = %q, want localhost", cfg.Host)
	}
	if cfg.Port != 6543 {
		t.Errorf("port = %d, want 6543", cfg.Port)
	}
	if cfg.SSLMode != "disable" {
		t.Errorf("ssl mode = %q, want disable", cfg.SSLMode)
	}
	if cfg.ConnTimeoutDuration().Seconds() != 5 {
		t.Errorf("conn timeout = %v, want 5s", cfg.ConnTimeoutDuration())
	}
}

func TestConfig_FinalizeValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  database.Config
		want string
	}{
		{"missing name", database.Config{User: "u"}, "name required"},
		{"missing user", database.Config{Name: "n"}, "user required"},
		{"bad timeout", database.Config{Name: "n", User: "u", ConnTimeout: "soon"}, "conn_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(&database.Env{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Finalize() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestConfig_URL(t *testing.T) {
	cfg := database.Config{
		Host:     "db",
		Port:     5432,
		Name:     "tosguard",
		User:     "guard",
		Password: "p@ss word",
		SSLMode:  "require",
	}

	got := cfg.URL()
	want := "postgres://guard:p%40ss%20word@db:5432/tosguard?sslmode=require"
	if got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestConfig_Dsn(t *testing.T) {
	cfg := database.Config{Host: "db", Port: 5432, Name: "n", User: "u", Password: "p", SSLMode: "disable"}

	want := "host=db port=5432 dbname=n user=u password=p sslmode=disable"
	if got := cfg.Dsn(); got != want {
		t.Errorf("Dsn() = %q, want %q", got, want)
	}
}
