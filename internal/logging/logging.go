// Package logging builds the process logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a logger for the given environment: JSON in production,
// console encoding in development.
func New(environment string) (*zap.Logger, error) {
	switch environment {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	default:
		return nil, fmt.Errorf("unknown environment %q", environment)
	}
}

// Nop returns a no-op logger for tests and optional collaborators.
func Nop() *zap.Logger {
	return zap.NewNop()
}
