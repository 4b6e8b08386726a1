package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/issuetracker/tracker/internal/model"
	"k8s.io/klog/v2"
)

// ErrNotFound 记录不存在错误
var ErrNotFound = errors.New("record not found")

// IssueRepository issue 仓储接口，List 的查询条件由调用方补齐默认值
type IssueRepository interface {
	// List 返回当前页数据与过滤后的总数
	List(ctx context.Context, query model.IssuesQuery) ([]model.Issue, int64, error)
	Get(ctx context.Context, id uint) (*model.Issue, error)
	Create(ctx context.Context, issue *model.Issue) error
	Save(ctx context.Context, issue *model.Issue) error
	Count(ctx context.Context) (int64, error)
}

// SampleIssues 空库时写入的示例数据
func SampleIssues(now time.Time) []model.Issue {
	return []model.Issue{
		{
			Title:       "Sample bug: Login button misaligned",
			Description: model.StringPtr("On mobile Safari, login button overlaps footer."),
			Status:      model.StatusOpen,
			Priority:    model.PriorityMedium,
			Assignee:    model.StringPtr("Alice"),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			Title:       "Feature: Add export to CSV",
			Description: model.StringPtr("Allow exporting issues to CSV from list page."),
			Status:      model.StatusInProgress,
			Priority:    model.PriorityHigh,
			Assignee:    model.StringPtr("Bob"),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

// Seed 仓储为空时写入示例数据
func Seed(ctx context.Context, repo IssueRepository) error {
	count, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("统计 issue 数量失败: %w", err)
	}
	if count > 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, issue := range SampleIssues(now) {
		issue := issue
		if err := repo.Create(ctx, &issue); err != nil {
			return fmt.Errorf("写入示例 issue 失败: %w", err)
		}
	}
	klog.V(6).Infof("[repository.Seed] 已写入示例数据")
	return nil
}
