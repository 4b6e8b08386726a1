package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/issuetracker/tracker/internal/model"
	"github.com/issuetracker/tracker/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockIssueRepo struct {
	issues    map[uint]*model.Issue
	lastQuery model.IssuesQuery
	saveErr   error
}

func newMockIssueRepo() *mockIssueRepo {
	return &mockIssueRepo{issues: map[uint]*model.Issue{}}
}

func (m *mockIssueRepo) List(ctx context.Context, query model.IssuesQuery) ([]model.Issue, int64, error) {
	m.lastQuery = query
	return nil, int64(len(m.issues)), nil
}

func (m *mockIssueRepo) Get(ctx context.Context, id uint) (*model.Issue, error) {
	issue, ok := m.issues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *issue
	return &copied, nil
}

func (m *mockIssueRepo) Create(ctx context.Context, issue *model.Issue) error {
	issue.ID = uint(len(m.issues) + 1)
	copied := *issue
	m.issues[issue.ID] = &copied
	return nil
}

func (m *mockIssueRepo) Save(ctx context.Context, issue *model.Issue) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := *issue
	m.issues[issue.ID] = &copied
	return nil
}

func (m *mockIssueRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.issues)), nil
}

func TestIssueService_NormalizeQuery(t *testing.T) {
	svc := NewIssueService(newMockIssueRepo(), 100)

	got, err := svc.NormalizeQuery(model.IssuesQuery{})
	require.NoError(t, err)
	assert.Equal(t, model.IssuesQuery{SortBy: model.SortByUpdatedAt, SortDir: model.SortDesc, Page: 1, PageSize: 10}, got)

	invalidQueries := map[string]model.IssuesQuery{
		"status":   {Status: "blocked"},
		"priority": {Priority: "urgent"},
		"sortBy":   {SortBy: "createdAt"},
		"sortDir":  {SortDir: "up"},
		"page":     {Page: -1},
		"pageSize": {PageSize: 101},
	}
	for field, query := range invalidQueries {
		_, err := svc.NormalizeQuery(query)
		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr), "field %s", field)
		assert.Equal(t, field, validationErr.Field)
		assert.Equal(t, "query", validationErr.Location)
	}
}

func TestIssueService_ListEmptyItems(t *testing.T) {
	repo := newMockIssueRepo()
	svc := NewIssueService(repo, 100)

	page, err := svc.List(context.Background(), model.IssuesQuery{PageSize: 20})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 20, repo.lastQuery.PageSize)
}

func TestIssueService_CreateDefaults(t *testing.T) {
	svc := NewIssueService(newMockIssueRepo(), 100)
	fixed := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	issue, err := svc.Create(context.Background(), model.IssueCreate{Title: "Bug"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), issue.ID)
	assert.Equal(t, model.StatusOpen, issue.Status)
	assert.Equal(t, model.PriorityMedium, issue.Priority)
	assert.Nil(t, issue.Description)
	assert.Nil(t, issue.Assignee)
	assert.Equal(t, fixed, issue.CreatedAt)
	assert.Equal(t, fixed, issue.UpdatedAt)

	_, err = svc.Create(context.Background(), model.IssueCreate{Title: ""})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "title", validationErr.Field)

	_, err = svc.Create(context.Background(), model.IssueCreate{Title: "x", Status: "blocked"})
	assert.ErrorAs(t, err, &validationErr)
}

func TestIssueService_UpdateAppliesNonNilFields(t *testing.T) {
	repo := newMockIssueRepo()
	svc := NewIssueService(repo, 100)
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return created }
	issue, err := svc.Create(context.Background(), model.IssueCreate{
		Title:       "Bug",
		Description: model.StringPtr("steps"),
		Assignee:    model.StringPtr("Alice"),
	})
	require.NoError(t, err)

	updatedAt := created.Add(time.Hour)
	svc.now = func() time.Time { return updatedAt }
	closed := model.StatusClosed
	updated, err := svc.Update(context.Background(), issue.ID, model.IssueUpdate{Status: &closed, Assignee: model.StringPtr("")})
	require.NoError(t, err)

	assert.Equal(t, "Bug", updated.Title)
	assert.Equal(t, "steps", updated.DescriptionText())
	assert.Equal(t, model.StatusClosed, updated.Status)
	assert.Equal(t, "", updated.AssigneeText())
	assert.Equal(t, created, updated.CreatedAt)
	assert.Equal(t, updatedAt, updated.UpdatedAt)

	_, err = svc.Update(context.Background(), 42, model.IssueUpdate{Title: model.StringPtr("x")})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
