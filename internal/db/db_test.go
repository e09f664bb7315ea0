package db

import (
	"testing"

	"encrypted-notes/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "db",
		DBPort:     "5433",
		DBUser:     "notes",
		DBPassword: "secret",
		DBName:     "encrypted_notes",
	}

	assert.Equal(t,
		"host=db user=notes password=secret dbname=encrypted_notes port=5433 sslmode=disable",
		DSN(cfg))
}
