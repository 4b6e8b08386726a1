package view

import (
	"context"
	"fmt"
	"testing"

	"github.com/issuetracker/tracker/internal/client"
	"github.com/issuetracker/tracker/internal/eventbus"
	"github.com/issuetracker/tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailView_InvalidIDDoesNotFetch(t *testing.T) {
	for _, raw := range []string{"abc", "0", ""} {
		t.Run(fmt.Sprintf("id=%q", raw), func(t *testing.T) {
			api := &fakeAPI{}
			detail := NewDetailView(api, &fakeNavigator{}, NewLocationBus())
			loc := Location{Path: "/issues/" + raw, Params: map[string]string{"id": raw}}

			detail.Activate(context.Background(), loc)

			assert.Empty(t, api.getCalls())
			snap := detail.Snapshot()
			assert.Nil(t, snap.Issue)
			assert.Equal(t, PhaseIdle, snap.State.Phase)
			assert.Empty(t, snap.State.Message())
		})
	}
}

func TestDetailView_FetchAndEditFlag(t *testing.T) {
	api := &fakeAPI{}
	bus := NewLocationBus()
	detail := NewDetailView(api, &fakeNavigator{}, bus)
	ctx := context.Background()

	detail.Activate(ctx, locationFor("/issues/5?edit=1"))
	snap := detail.Snapshot()
	require.NotNil(t, snap.Issue)
	assert.Equal(t, uint(5), snap.Issue.ID)
	assert.True(t, snap.EditMode)
	assert.Equal(t, PhaseLoaded, snap.State.Phase)

	// 只有查询参数变化时不重新请求
	require.NoError(t, bus.Publish(ctx, eventbus.LocationChanged, locationFor("/issues/5")))
	assert.False(t, detail.Snapshot().EditMode)
	assert.Equal(t, []uint{5}, api.getCalls())

	require.NoError(t, bus.Publish(ctx, eventbus.LocationChanged, locationFor("/issues/6")))
	assert.Equal(t, []uint{5, 6}, api.getCalls())
	assert.Equal(t, uint(6), detail.Snapshot().Issue.ID)
}

func TestDetailView_NotFound(t *testing.T) {
	api := &fakeAPI{
		GetFunc: func(ctx context.Context, id uint) (*model.Issue, error) {
			return nil, fmt.Errorf("GET /issues/%d: %w", id, client.ErrNotFound)
		},
	}
	detail := NewDetailView(api, &fakeNavigator{}, NewLocationBus())

	detail.Activate(context.Background(), locationFor("/issues/404"))

	snap := detail.Snapshot()
	assert.Nil(t, snap.Issue)
	assert.True(t, snap.State.Failed())
	assert.Equal(t, "The issue was not found.", snap.State.Message())
}

func TestDetailView_DeactivateUnsubscribes(t *testing.T) {
	api := &fakeAPI{}
	bus := NewLocationBus()
	detail := NewDetailView(api, &fakeNavigator{}, bus)
	ctx := context.Background()

	detail.Activate(ctx, locationFor("/issues/1"))
	require.Equal(t, 1, bus.Subscribers(eventbus.LocationChanged))

	detail.Deactivate()
	assert.Equal(t, 0, bus.Subscribers(eventbus.LocationChanged))

	require.NoError(t, bus.Publish(ctx, eventbus.LocationChanged, locationFor("/issues/2")))
	assert.Equal(t, []uint{1}, api.getCalls())
	assert.Nil(t, detail.Snapshot().Issue)
}

func TestDetailView_ActivateAfterDeactivateLeavesNoSubscriber(t *testing.T) {
	api := &fakeAPI{}
	bus := NewLocationBus()
	detail := NewDetailView(api, &fakeNavigator{}, bus)
	ctx := context.Background()

	detail.Deactivate()
	detail.Activate(ctx, locationFor("/issues/1"))

	assert.Equal(t, 0, bus.Subscribers(eventbus.LocationChanged))
	assert.Empty(t, api.getCalls())
}

func TestDetailView_Back(t *testing.T) {
	nav := &fakeNavigator{}
	detail := NewDetailView(&fakeAPI{}, nav, NewLocationBus())

	require.NoError(t, detail.Back(context.Background()))
	assert.Equal(t, []string{ListPath}, nav.Targets())
}
