package redis

import (
	"context"
	"os"
	"testing"

	"github.com/alem-hub/student-records/internal/domain/record"
	"github.com/alem-hub/student-records/internal/infrastructure/persistence/repotest"
	"github.com/alem-hub/student-records/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	addr := os.Getenv("RECORDS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("RECORDS_TEST_REDIS_ADDR not set")
	}

	cfg := DefaultConfig()
	cfg.Addr = addr
	cfg.Prefix = "records-test:" + uuid.NewString()
	cfg.ConnectAttempts = 1

	t.Cleanup(func() {
		repo, err := Open(context.Background(), cfg, logger.Nop())
		if err != nil {
			return
		}
		defer repo.Close()
		_ = repo.Drop(context.Background())
	})
	return cfg
}

func TestRepository_Conformance(t *testing.T) {
	if os.Getenv("RECORDS_TEST_REDIS_ADDR") == "" {
		t.Skip("RECORDS_TEST_REDIS_ADDR not set")
	}

	repotest.Run(t, func(t *testing.T) (record.Repository, func() record.Repository) {
		cfg := testConfig(t)
		repo, err := Open(context.Background(), cfg, logger.Nop())
		require.NoError(t, err)
		return repo, func() record.Repository {
			next, err := Open(context.Background(), cfg, logger.Nop())
			require.NoError(t, err)
			return next
		}
	})
}

func TestNewKeys(t *testing.T) {
	k := newKeys("school")
	assert.Equal(t, "school:students", k.students)
	assert.Equal(t, "school:disciplines", k.disciplines)
	assert.Equal(t, "school:grades", k.grades)

	assert.Equal(t, "records:grades", newKeys("").grades)
}

func TestEncode_IsCanonical(t *testing.T) {
	// LREM matches on bytes, so equal records must encode identically.
	a, err := encode(record.Grade{StudentID: 1, DisciplineID: 2, Value: 3})
	require.NoError(t, err)
	b, err := encode(record.Grade{StudentID: 1, DisciplineID: 2, Value: 3})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, `{"student_id":1,"discipline_id":2,"grade":3}`, a)
}

func TestDecodeAll(t *testing.T) {
	got, err := decodeAll[record.Student]([]string{`{"student_id":1,"name":"Ana"}`})
	require.NoError(t, err)
	assert.Equal(t, []record.Student{{ID: 1, Name: "Ana"}}, got)

	_, err = decodeAll[record.Student]([]string{"{broken"})
	assert.ErrorIs(t, err, ErrSerialization)

	empty, err := decodeAll[record.Grade](nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
}
