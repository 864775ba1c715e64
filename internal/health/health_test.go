package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AllHealthy(t *testing.T) {
	reg := NewRegistry()
	reg.Register("database", func(ctx context.Context) Status {
		return Status{Name: "database", Healthy: true}
	})
	reg.Register("cache", func(ctx context.Context) Status {
		return Status{Name: "cache", Healthy: true}
	})

	healthy, statuses := reg.CheckAll(context.Background())
	assert.True(t, healthy)
	assert.Len(t, statuses, 2)
}

func TestRegistry_OneUnhealthy(t *testing.T) {
	reg := NewRegistry()
	reg.Register("database", func(ctx context.Context) Status {
		return Status{Name: "database", Healthy: false, Detail: "connection refused"}
	})
	reg.Register("cache", func(ctx context.Context) Status {
		return Status{Name: "cache", Healthy: true}
	})

	healthy, statuses := reg.CheckAll(context.Background())
	assert.False(t, healthy)

	var db *Status
	for i := range statuses {
		if statuses[i].Name == "database" {
			db = &statuses[i]
		}
	}
	require.NotNil(t, db)
	assert.False(t, db.Healthy)
	assert.Equal(t, "connection refused", db.Detail)
}

func TestRegistry_Empty(t *testing.T) {
	healthy, statuses := NewRegistry().CheckAll(context.Background())
	assert.True(t, healthy)
	assert.Empty(t, statuses)
}

func TestPingChecker(t *testing.T) {
	ok := PingChecker("db", func(ctx context.Context) error { return nil })
	status := ok(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, "db", status.Name)

	bad := PingChecker("db", func(ctx context.Context) error {
		return errors.New("no route to host")
	})
	status = bad(context.Background())
	assert.False(t, status.Healthy)
	assert.Contains(t, status.Detail, "no route to host")
}
