package view

import (
	"context"
	"sync"

	"github.com/issuetracker/tracker/internal/model"
)

type fakeAPI struct {
	ListFunc   func(ctx context.Context, query model.IssuesQuery) (*model.IssuesPage, error)
	GetFunc    func(ctx context.Context, id uint) (*model.Issue, error)
	CreateFunc func(ctx context.Context, body model.IssueCreate) (*model.Issue, error)
	UpdateFunc func(ctx context.Context, id uint, body model.IssueUpdate) (*model.Issue, error)

	mutex   sync.Mutex
	queries []model.IssuesQuery
	gets    []uint
	creates []model.IssueCreate
	updates []model.IssueUpdate
}

func (f *fakeAPI) List(ctx context.Context, query model.IssuesQuery) (*model.IssuesPage, error) {
	f.mutex.Lock()
	f.queries = append(f.queries, query)
	f.mutex.Unlock()
	if f.ListFunc != nil {
		return f.ListFunc(ctx, query)
	}
	return &model.IssuesPage{Items: []model.Issue{}, Page: query.Page, PageSize: query.PageSize}, nil
}

func (f *fakeAPI) Get(ctx context.Context, id uint) (*model.Issue, error) {
	f.mutex.Lock()
	f.gets = append(f.gets, id)
	f.mutex.Unlock()
	if f.GetFunc != nil {
		return f.GetFunc(ctx, id)
	}
	return &model.Issue{ID: id, Title: "issue", Status: model.StatusOpen, Priority: model.PriorityMedium}, nil
}

func (f *fakeAPI) Create(ctx context.Context, body model.IssueCreate) (*model.Issue, error) {
	f.mutex.Lock()
	f.creates = append(f.creates, body)
	f.mutex.Unlock()
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, body)
	}
	return &model.Issue{ID: 1, Title: body.Title, Status: body.Status, Priority: body.Priority}, nil
}

func (f *fakeAPI) Update(ctx context.Context, id uint, body model.IssueUpdate) (*model.Issue, error) {
	f.mutex.Lock()
	f.updates = append(f.updates, body)
	f.mutex.Unlock()
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, id, body)
	}
	return &model.Issue{ID: id}, nil
}

func (f *fakeAPI) lastQuery() model.IssuesQuery {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if len(f.queries) == 0 {
		return model.IssuesQuery{}
	}
	return f.queries[len(f.queries)-1]
}

func (f *fakeAPI) getCalls() []uint {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	out := make([]uint, len(f.gets))
	copy(out, f.gets)
	return out
}

type fakeNavigator struct {
	mutex   sync.Mutex
	targets []string
}

func (n *fakeNavigator) Navigate(ctx context.Context, target string) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.targets = append(n.targets, target)
	return nil
}

func (n *fakeNavigator) Targets() []string {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	out := make([]string, len(n.targets))
	copy(out, n.targets)
	return out
}

func locationFor(target string) Location {
	loc, err := ParseLocation(target)
	if err != nil {
		panic(err)
	}
	_, params, _ := Match(loc.Path)
	loc.Params = params
	return loc
}

func issues(ids ...uint) []model.Issue {
	out := make([]model.Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Issue{ID: id, Title: "issue", Status: model.StatusOpen, Priority: model.PriorityLow})
	}
	return out
}
