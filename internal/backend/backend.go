// Package backend wires a data backend from configuration: the repository,
// the contribution write service with its optional AMQP leg, and a cleanup
// hook for whatever was opened.
package backend

import (
	"fmt"

	"harambee/internal/config"
	"harambee/internal/repo"
	"harambee/internal/services"
)

// Type identifies a data backend.
type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result is a fully wired backend.
type Result struct {
	Ledger        repo.Ledger
	Contributions *services.ContributionService
	Cleanup       CleanupFunc
}

// Config holds what backend creation needs, lifted out of the app config.
type Config struct {
	Type Type

	SQLiteDBPath string
	SnapshotFile string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	backendType := Type(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		SnapshotFile: appConfig.LedgerSnapshotFile,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}
