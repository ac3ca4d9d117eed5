package backend

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/config"
	"github.com/elifred2022/bokadillo/internal/database"
)

// Module provides the configured Backend, wrapped with the resilience policy.
var Module = fx.Provide(New, AsBackend, AsDescriber)

// Params defines dependencies for constructing the backend.
type Params struct {
	fx.In

	Config      config.Config
	Logger      *zap.Logger
	Connections *database.Connections
}

// New selects the driver named by BACKEND_DRIVER.
func New(p Params) (*Resilient, error) {
	var (
		driver Backend
		err    error
	)
	switch p.Config.Backend.Driver {
	case "sheets":
		driver, err = NewSheets(context.Background(), SheetsConfig{
			SpreadsheetID:   p.Config.Backend.SpreadsheetID,
			CredentialsFile: p.Config.Backend.CredentialsFile,
			CredentialsJSON: p.Config.Backend.CredentialsJSON,
		}, p.Logger)
	case "sql":
		if !p.Connections.Enabled() {
			return nil, fmt.Errorf("sql backend requires database connections")
		}
		driver, err = NewSQL(p.Connections.Writer, p.Connections.Reader)
	case "memory":
		p.Logger.Warn("using in-memory backend; data is lost on restart")
		driver = NewMemory()
	default:
		return nil, fmt.Errorf("unsupported backend driver: %s", p.Config.Backend.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s backend: %w", p.Config.Backend.Driver, err)
	}

	p.Logger.Info("backend ready", zap.String("driver", p.Config.Backend.Driver))
	return NewResilient(driver, Policy{
		Timeout:    p.Config.Backend.Timeout,
		MaxRetries: p.Config.Backend.MaxRetries,
		Backoff:    p.Config.Backend.RetryBackoff,
	}, p.Logger), nil
}

// AsBackend exposes the decorated driver through the Backend interface.
func AsBackend(r *Resilient) Backend {
	return r
}

// AsDescriber exposes the resilient backend to health checks.
func AsDescriber(r *Resilient) Describer {
	return r
}
