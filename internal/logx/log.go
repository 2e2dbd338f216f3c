package logx

import (
	"fmt"

	"go.uber.org/zap"
)

const prodEnv = "prod"

// New builds the process logger: JSON production encoding for prod,
// console development encoding otherwise. The service name rides along
// on every entry.
func New(service, env string) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if env == prodEnv {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("new %s logger: %w", env, err)
	}
	return l.With(zap.String("service", service)), nil
}
