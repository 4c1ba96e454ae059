// Package memory is the volatile backend: collections live for the process
// lifetime only.
package memory

import (
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/collection"
)

// Repository is the in-memory record.Repository.
type Repository struct {
	*collection.Store
}

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{Store: collection.NewStore(collection.Set{}, nil)}
}
