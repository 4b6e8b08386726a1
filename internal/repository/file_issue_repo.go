package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/issuetracker/tracker/internal/model"
	"github.com/natefinch/atomic"
)

// IssuesFileName JSON 文件存储的文件名
const IssuesFileName = "issues.json"

type fileState struct {
	NextID uint          `json:"next_id"`
	Issues []model.Issue `json:"issues"`
}

// fileIssueRepository 单个 JSON 文件存储，每次修改整体原子重写
type fileIssueRepository struct {
	path  string
	mutex sync.Mutex
}

// NewFileIssueRepository 在 dataDir 下打开或创建 issues.json
func NewFileIssueRepository(dataDir string) (IssueRepository, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}
	r := &fileIssueRepository{path: filepath.Join(dataDir, IssuesFileName)}
	if _, err := os.Stat(r.path); errors.Is(err, os.ErrNotExist) {
		if err := r.write(&fileState{NextID: 1, Issues: []model.Issue{}}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *fileIssueRepository) read() (*fileState, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", r.path, err)
	}
	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", r.path, err)
	}
	if state.NextID == 0 {
		state.NextID = 1
	}
	return &state, nil
}

func (r *fileIssueRepository) write(state *fileState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(r.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", r.path, err)
	}
	return nil
}

func (r *fileIssueRepository) List(ctx context.Context, query model.IssuesQuery) ([]model.Issue, int64, error) {
	r.mutex.Lock()
	state, err := r.read()
	r.mutex.Unlock()
	if err != nil {
		return nil, 0, err
	}

	filtered := make([]model.Issue, 0, len(state.Issues))
	for _, issue := range state.Issues {
		if matches(&issue, query) {
			filtered = append(filtered, issue)
		}
	}
	sortIssues(filtered, query.SortBy, query.SortDir)

	total := int64(len(filtered))
	if query.PageSize <= 0 {
		return filtered, total, nil
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * query.PageSize
	if start >= len(filtered) {
		return []model.Issue{}, total, nil
	}
	end := start + query.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total, nil
}

func matches(issue *model.Issue, query model.IssuesQuery) bool {
	if query.Search != "" && !strings.Contains(model.SearchKey(issue.Title), model.SearchKey(query.Search)) {
		return false
	}
	if query.Status != "" && issue.Status != query.Status {
		return false
	}
	if query.Priority != "" && issue.Priority != query.Priority {
		return false
	}
	if query.Assignee != "" && issue.AssigneeText() != query.Assignee {
		return false
	}
	return true
}

// sortIssues 稳定排序，相同值保持写入顺序
func sortIssues(issues []model.Issue, column model.SortColumn, dir model.SortDir) {
	compare := func(a, b *model.Issue) int {
		switch column {
		case model.SortByID:
			return compareUint(a.ID, b.ID)
		case model.SortByTitle:
			return strings.Compare(a.Title, b.Title)
		case model.SortByStatus:
			return strings.Compare(string(a.Status), string(b.Status))
		case model.SortByPriority:
			return strings.Compare(string(a.Priority), string(b.Priority))
		case model.SortByAssignee:
			return strings.Compare(a.AssigneeText(), b.AssigneeText())
		default:
			return a.UpdatedAt.Compare(b.UpdatedAt)
		}
	}
	sort.SliceStable(issues, func(i, j int) bool {
		c := compare(&issues[i], &issues[j])
		if dir == model.SortAsc {
			return c < 0
		}
		return c > 0
	})
}

func compareUint(a, b uint) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (r *fileIssueRepository) Get(ctx context.Context, id uint) (*model.Issue, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	state, err := r.read()
	if err != nil {
		return nil, err
	}
	for _, issue := range state.Issues {
		if issue.ID == id {
			found := issue
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fileIssueRepository) Create(ctx context.Context, issue *model.Issue) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	state, err := r.read()
	if err != nil {
		return err
	}
	issue.ID = state.NextID
	state.NextID++
	state.Issues = append(state.Issues, *issue)
	return r.write(state)
}

func (r *fileIssueRepository) Save(ctx context.Context, issue *model.Issue) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	state, err := r.read()
	if err != nil {
		return err
	}
	for i := range state.Issues {
		if state.Issues[i].ID == issue.ID {
			state.Issues[i] = *issue
			return r.write(state)
		}
	}
	return ErrNotFound
}

func (r *fileIssueRepository) Count(ctx context.Context) (int64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	state, err := r.read()
	if err != nil {
		return 0, err
	}
	return int64(len(state.Issues)), nil
}
