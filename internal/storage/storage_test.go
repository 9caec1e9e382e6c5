package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dart-digest/pkg/config"
	"github.com/wonny/dart-digest/pkg/logger"
)

func TestOpen_Badger(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "badger", Path: t.TempDir()}}

	ledger, err := Open(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	defer ledger.Close()

	ok, err := ledger.IsProcessed(context.Background(), "20260227000001")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "sqlite"}}

	_, err := Open(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
}
