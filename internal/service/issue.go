package service

import (
	"context"
	"fmt"
	"time"

	"github.com/issuetracker/tracker/internal/model"
	"github.com/issuetracker/tracker/internal/repository"
	"k8s.io/klog/v2"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ValidationError 请求参数不合法，对应 HTTP 422
type ValidationError struct {
	// Location 参数位置，如 query、body
	Location string
	Field    string
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Location, e.Field, e.Message)
}

func invalid(location, field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Location: location, Field: field, Message: fmt.Sprintf(format, args...)}
}

// IssueService issue 业务逻辑：默认值、校验与局部更新
type IssueService struct {
	repo        repository.IssueRepository
	maxPageSize int
	now         func() time.Time
}

func NewIssueService(repo repository.IssueRepository, maxPageSize int) *IssueService {
	if maxPageSize <= 0 {
		maxPageSize = MaxPageSize
	}
	return &IssueService{
		repo:        repo,
		maxPageSize: maxPageSize,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeQuery 补齐默认值并校验取值范围
func (s *IssueService) NormalizeQuery(query model.IssuesQuery) (model.IssuesQuery, error) {
	if query.SortBy == "" {
		query.SortBy = model.SortByUpdatedAt
	}
	if query.SortDir == "" {
		query.SortDir = model.SortDesc
	}
	if query.Page == 0 {
		query.Page = 1
	}
	if query.PageSize == 0 {
		query.PageSize = DefaultPageSize
	}

	switch {
	case query.Status != "" && !query.Status.Valid():
		return query, invalid("query", "status", "unsupported status %q", query.Status)
	case query.Priority != "" && !query.Priority.Valid():
		return query, invalid("query", "priority", "unsupported priority %q", query.Priority)
	case !query.SortBy.Valid():
		return query, invalid("query", "sortBy", "unsupported sort column %q", query.SortBy)
	case !query.SortDir.Valid():
		return query, invalid("query", "sortDir", "sortDir must be asc or desc")
	case query.Page < 1:
		return query, invalid("query", "page", "page must be greater than or equal to 1")
	case query.PageSize < 1 || query.PageSize > s.maxPageSize:
		return query, invalid("query", "pageSize", "pageSize must be between 1 and %d", s.maxPageSize)
	}
	return query, nil
}

func (s *IssueService) List(ctx context.Context, query model.IssuesQuery) (*model.IssuesPage, error) {
	normalized, err := s.NormalizeQuery(query)
	if err != nil {
		return nil, err
	}
	items, total, err := s.repo.List(ctx, normalized)
	if err != nil {
		klog.Errorf("[IssueService.List] 查询失败: query=%+v, error=%v", normalized, err)
		return nil, err
	}
	if items == nil {
		items = []model.Issue{}
	}
	return &model.IssuesPage{
		Items:    items,
		Total:    int(total),
		Page:     normalized.Page,
		PageSize: normalized.PageSize,
	}, nil
}

func (s *IssueService) Get(ctx context.Context, id uint) (*model.Issue, error) {
	return s.repo.Get(ctx, id)
}

// Create 状态默认 open，优先级默认 medium，创建与更新时间相同
func (s *IssueService) Create(ctx context.Context, body model.IssueCreate) (*model.Issue, error) {
	if body.Title == "" {
		return nil, invalid("body", "title", "title must have at least 1 character")
	}
	if body.Status == "" {
		body.Status = model.StatusOpen
	}
	if body.Priority == "" {
		body.Priority = model.PriorityMedium
	}
	if !body.Status.Valid() {
		return nil, invalid("body", "status", "unsupported status %q", body.Status)
	}
	if !body.Priority.Valid() {
		return nil, invalid("body", "priority", "unsupported priority %q", body.Priority)
	}

	now := s.now()
	issue := &model.Issue{
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
		Priority:    body.Priority,
		Assignee:    body.Assignee,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, issue); err != nil {
		klog.Errorf("[IssueService.Create] 创建失败: %v", err)
		return nil, err
	}
	klog.V(6).Infof("[IssueService.Create] 创建 issue: id=%d", issue.ID)
	return issue, nil
}

// Update 只应用非 nil 字段，updatedAt 总是刷新
func (s *IssueService) Update(ctx context.Context, id uint, body model.IssueUpdate) (*model.Issue, error) {
	if body.Status != nil && !body.Status.Valid() {
		return nil, invalid("body", "status", "unsupported status %q", *body.Status)
	}
	if body.Priority != nil && !body.Priority.Valid() {
		return nil, invalid("body", "priority", "unsupported priority %q", *body.Priority)
	}

	issue, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if body.Title != nil {
		issue.Title = *body.Title
	}
	if body.Description != nil {
		issue.Description = body.Description
	}
	if body.Status != nil {
		issue.Status = *body.Status
	}
	if body.Priority != nil {
		issue.Priority = *body.Priority
	}
	if body.Assignee != nil {
		issue.Assignee = body.Assignee
	}
	issue.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, issue); err != nil {
		klog.Errorf("[IssueService.Update] 更新失败: id=%d, error=%v", id, err)
		return nil, err
	}
	return issue, nil
}
