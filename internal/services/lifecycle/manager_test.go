package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShutdownRunsHooksInReverse(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	for _, name := range []string{"store", "redis", "http_server"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}
	m.Register("ignored", nil)

	require.Equal(t, []string{"http_server", "redis", "store"}, m.Components())
	require.NoError(t, m.Shutdown(context.Background()))
	require.Equal(t, []string{"http_server", "redis", "store"}, order)

	require.NoError(t, m.Shutdown(context.Background()))
	require.Len(t, order, 3)
}

func TestShutdownJoinsErrors(t *testing.T) {
	m := New(time.Second, nil)
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := false
	m.Register("c", func(context.Context) error { ran = true; return nil })
	m.Register("b", func(context.Context) error { return errB })
	m.Register("a", func(context.Context) error { return errA })

	err := m.Shutdown(context.Background())
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB)
	require.True(t, ran)
}

func TestShutdownHonoursTimeout(t *testing.T) {
	m := New(20*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, m.Shutdown(context.Background()), context.DeadlineExceeded)
}
