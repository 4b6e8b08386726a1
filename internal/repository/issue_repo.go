package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/issuetracker/tracker/internal/model"
	"gorm.io/gorm"
)

// 排序列到 SQL 表达式的映射，null 负责人按空串排序
var sortExpressions = map[model.SortColumn]string{
	model.SortByID:        "id",
	model.SortByTitle:     "title",
	model.SortByStatus:    "status",
	model.SortByPriority:  "priority",
	model.SortByAssignee:  "COALESCE(assignee, '')",
	model.SortByUpdatedAt: "updated_at",
}

type issueRepository struct {
	db *gorm.DB
}

// NewIssueRepository 创建基于 gorm 的 issue 仓储
func NewIssueRepository(db *gorm.DB) IssueRepository {
	return &issueRepository{db: db}
}

func (r *issueRepository) List(ctx context.Context, query model.IssuesQuery) ([]model.Issue, int64, error) {
	var total int64
	if err := r.filtered(ctx, query).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	expr, ok := sortExpressions[query.SortBy]
	if !ok {
		expr = sortExpressions[model.SortByUpdatedAt]
	}
	dir := "desc"
	if query.SortDir == model.SortAsc {
		dir = "asc"
	}
	tx := r.filtered(ctx, query).Order(expr + " " + dir)
	if query.SortBy != model.SortByID {
		tx = tx.Order("id asc")
	}
	if query.PageSize > 0 {
		page := query.Page
		if page < 1 {
			page = 1
		}
		tx = tx.Offset((page - 1) * query.PageSize).Limit(query.PageSize)
	}

	var issues []model.Issue
	if err := tx.Find(&issues).Error; err != nil {
		return nil, 0, err
	}
	return issues, total, nil
}

func (r *issueRepository) filtered(ctx context.Context, query model.IssuesQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&model.Issue{})
	if query.Search != "" {
		tx = tx.Where("title_key LIKE ? ESCAPE '!'", "%"+escapeLike(model.SearchKey(query.Search))+"%")
	}
	if query.Status != "" {
		tx = tx.Where("status = ?", query.Status)
	}
	if query.Priority != "" {
		tx = tx.Where("priority = ?", query.Priority)
	}
	if query.Assignee != "" {
		tx = tx.Where("COALESCE(assignee, '') = ?", query.Assignee)
	}
	return tx
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

func (r *issueRepository) Get(ctx context.Context, id uint) (*model.Issue, error) {
	var issue model.Issue
	err := r.db.WithContext(ctx).First(&issue, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &issue, nil
}

func (r *issueRepository) Create(ctx context.Context, issue *model.Issue) error {
	return r.db.WithContext(ctx).Create(issue).Error
}

func (r *issueRepository) Save(ctx context.Context, issue *model.Issue) error {
	return r.db.WithContext(ctx).Save(issue).Error
}

func (r *issueRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Issue{}).Count(&count).Error
	return count, err
}
