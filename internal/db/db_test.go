package db

import (
	"net/url"
	"testing"

	"github.com/recipebox/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "recipebox",
		Password: "p@ss word",
		DBName:   "recipes",
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "/recipes", u.Path)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	password, _ := u.User.Password()
	assert.Equal(t, "p@ss word", password)
}

func TestDSNRequiresSSL(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, UseSSL: true})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
}
