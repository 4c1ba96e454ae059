package memory

import (
	"testing"

	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/repotest"
)

func TestRepository_Conformance(t *testing.T) {
	repotest.Run(t, func(t *testing.T) (record.Repository, func() record.Repository) {
		repo := NewRepository()
		return repo, func() record.Repository { return repo }
	})
}
