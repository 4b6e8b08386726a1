package eventbus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/issuetracker/tracker/internal/eventbus"
	"github.com/issuetracker/tracker/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func location(t *testing.T, target string) view.Location {
	t.Helper()
	loc, err := view.ParseLocation(target)
	require.NoError(t, err)
	return loc
}

func TestBus_PublishDeliversLocationToEverySubscriber(t *testing.T) {
	bus := view.NewLocationBus()
	var paths []string
	var editFlags []string

	bus.Subscribe(eventbus.LocationChanged, func(ctx context.Context, loc view.Location) error {
		paths = append(paths, loc.Path)
		return nil
	})
	bus.Subscribe(eventbus.LocationChanged, func(ctx context.Context, loc view.Location) error {
		editFlags = append(editFlags, loc.Query.Get("edit"))
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), eventbus.LocationChanged, location(t, "/issues/3?edit=1")))

	assert.Equal(t, []string{"/issues/3"}, paths)
	assert.Equal(t, []string{"1"}, editFlags)
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := view.NewLocationBus()
	var received []string
	unsubscribe := bus.Subscribe(eventbus.LocationChanged, func(ctx context.Context, loc view.Location) error {
		received = append(received, loc.Path)
		return nil
	})
	require.Equal(t, 1, bus.Subscribers(eventbus.LocationChanged))

	require.NoError(t, bus.Publish(context.Background(), eventbus.LocationChanged, location(t, "/issues/1")))
	unsubscribe()
	// 重复取消不应出错
	unsubscribe()
	require.NoError(t, bus.Publish(context.Background(), eventbus.LocationChanged, location(t, "/issues/2")))

	assert.Equal(t, []string{"/issues/1"}, received)
	assert.Equal(t, 0, bus.Subscribers(eventbus.LocationChanged))
}

func TestBus_NilHandlerIsIgnored(t *testing.T) {
	bus := view.NewLocationBus()

	unsubscribe := bus.Subscribe(eventbus.LocationChanged, nil)
	unsubscribe()

	assert.Equal(t, 0, bus.Subscribers(eventbus.LocationChanged))
}

func TestBus_PublishJoinsHandlerErrors(t *testing.T) {
	bus := view.NewLocationBus()
	errA := errors.New("detail failed")
	errB := errors.New("form failed")
	calls := 0
	bus.Subscribe(eventbus.LocationChanged, func(ctx context.Context, loc view.Location) error {
		calls++
		return errA
	})
	bus.Subscribe(eventbus.LocationChanged, func(ctx context.Context, loc view.Location) error {
		calls++
		return errB
	})

	err := bus.Publish(context.Background(), eventbus.LocationChanged, location(t, "/issues/4/edit"))

	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, 2, calls, "a failing handler does not stop the others")
}
