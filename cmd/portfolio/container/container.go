package container

import (
	"fmt"

	"github.com/lyzr/portfolio/common/bootstrap"
)

// Container holds all initialized services (singleton pattern)
type Container struct {
	Components *bootstrap.Components
	*bootstrap.Reconciliation
}

// NewContainer wires the reconciliation stack once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	rec, err := components.Reconciliation()
	if err != nil {
		return nil, fmt.Errorf("failed to wire reconciliation: %w", err)
	}

	return &Container{
		Components:     components,
		Reconciliation: rec,
	}, nil
}
