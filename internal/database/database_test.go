package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillfolio-api/internal/models"
)

func TestConnectSQLiteAndMigrate(t *testing.T) {
	db, err := Connect(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.True(t, db.Migrator().HasTable(&models.Activity{}))
	require.True(t, db.Migrator().HasTable(&models.AuditLog{}))
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect("oracle", "dsn")
	require.Error(t, err)

	_, err = ConnectPostgres("")
	require.Error(t, err)
}

func TestConnectRedis(t *testing.T) {
	server := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), "redis://"+server.Addr())
	require.NoError(t, err)
	defer client.Close()

	_, err = ConnectRedis(context.Background(), "")
	require.Error(t, err)
}

func TestConnectNATSRequiresURL(t *testing.T) {
	_, err := ConnectNATS("", "test")
	require.Error(t, err)
}
