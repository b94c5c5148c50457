package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"pingmon/internal/config"
)

// An unreachable database must disable the optional store and inventory
// source, never take the process down with it.
func TestNewResultStore_UnreachableDatabaseDisablesStore(t *testing.T) {
	appConfig := config.AppConfig{}
	appConfig.Store.Enabled = true
	appConfig.Store.Host = "127.0.0.1"
	appConfig.Store.Port = 1
	appConfig.Store.Name = "pingmon"
	appConfig.Store.User = "postgres"

	resultStore := newResultStore(appConfig, zap.NewNop())
	assert.Nil(t, resultStore)
}

func TestNewInventoryDB_UnreachableDatabaseReturnsNil(t *testing.T) {
	appConfig := config.AppConfig{}
	appConfig.Source.Enabled = true
	appConfig.Source.Host = "127.0.0.1"
	appConfig.Source.Port = 1
	appConfig.Source.Name = "pingmon"
	appConfig.Source.User = "postgres"

	db := newInventoryDB(appConfig, zap.NewNop())
	assert.Nil(t, db)
}

func TestNewResultStore_DisabledReturnsNil(t *testing.T) {
	resultStore := newResultStore(config.AppConfig{}, zap.NewNop())
	assert.Nil(t, resultStore)
}
