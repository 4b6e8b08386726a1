package view

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/issuetracker/tracker/internal/eventbus"
	"github.com/issuetracker/tracker/internal/model"
)

// Location 当前导航位置：路径、路由参数与查询参数
type Location struct {
	Path   string
	Params map[string]string
	Query  url.Values
}

// ParseLocation 解析 "/issues/3?edit=1" 形式的导航目标
func ParseLocation(target string) (Location, error) {
	parsed, err := url.Parse(target)
	if err != nil {
		return Location{}, err
	}
	path := parsed.Path
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return Location{
		Path:   path,
		Params: map[string]string{},
		Query:  parsed.Query(),
	}, nil
}

// Param 返回路由参数，不存在时为空串
func (l Location) Param(name string) string {
	if l.Params == nil {
		return ""
	}
	return l.Params[name]
}

// String 还原为可跳转的 URL
func (l Location) String() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

// ParseID 解析路由中的 issue ID，缺失、非数字或 0 都视为无效
func ParseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// LocationBus 向当前页面推送同一路由下的参数变化
type LocationBus = eventbus.Bus[eventbus.LocationEventType, Location]

func NewLocationBus() *LocationBus {
	return eventbus.NewBus[eventbus.LocationEventType, Location]()
}

// Navigator 页面通过它跳转，不直接持有路由
type Navigator interface {
	Navigate(ctx context.Context, target string) error
}

// IssuesAPI 页面依赖的 issues API
type IssuesAPI interface {
	List(ctx context.Context, query model.IssuesQuery) (*model.IssuesPage, error)
	Get(ctx context.Context, id uint) (*model.Issue, error)
	Create(ctx context.Context, body model.IssueCreate) (*model.Issue, error)
	Update(ctx context.Context, id uint, body model.IssueUpdate) (*model.Issue, error)
}
