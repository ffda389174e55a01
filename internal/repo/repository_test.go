package repo_test

import (
	"testing"

	"github.com/hamed0406/statuswatch/internal/repo"
	"github.com/hamed0406/statuswatch/internal/repo/memory"
	pg "github.com/hamed0406/statuswatch/internal/repo/postgres"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.ServiceStore = memory.New()
	var _ repo.IncidentStore = memory.New()

	var _ repo.ServiceStore = (*pg.Store)(nil)
	var _ repo.IncidentStore = (*pg.Store)(nil)
}
