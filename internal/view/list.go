package view

import (
	"context"
	"sync"

	"github.com/issuetracker/tracker/internal/model"
	"k8s.io/klog/v2"
)

const DefaultPageSize = 10

// Filters 列表过滤条件，空串表示不过滤
type Filters struct {
	Search   string
	Status   model.Status
	Priority model.Priority
	Assignee string
}

// ListSnapshot 渲染用的只读快照
type ListSnapshot struct {
	Filters  Filters
	SortBy   model.SortColumn
	SortDir  model.SortDir
	Page     int
	PageSize int
	MaxPage  int
	Items    []model.Issue
	Total    int
	State    State
}

// ListView issue 列表页：过滤、排序、分页状态，以及最近一次取回的数据
type ListView struct {
	api IssuesAPI
	nav Navigator

	mutex    sync.Mutex
	filters  Filters
	sortBy   model.SortColumn
	sortDir  model.SortDir
	page     int
	pageSize int
	items    []model.Issue
	total    int
	state    State
	// generation 每次 Fetch 自增，只有最新一次请求的结果会被采用
	generation uint64
}

func NewListView(api IssuesAPI, nav Navigator, pageSize int) *ListView {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ListView{
		api:      api,
		nav:      nav,
		sortBy:   model.SortByUpdatedAt,
		sortDir:  model.SortDesc,
		page:     1,
		pageSize: pageSize,
		items:    []model.Issue{},
		state:    State{Phase: PhaseIdle},
	}
}

func (v *ListView) Kind() PageKind {
	return PageList
}

func (v *ListView) Activate(ctx context.Context, loc Location) {
	klog.V(6).Infof("[ListView] 激活: %s", loc.String())
	v.Fetch(ctx)
}

// Deactivate 丢弃本页状态，未完成的请求结果也不再生效
func (v *ListView) Deactivate() {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.generation++
	v.items = []model.Issue{}
	v.total = 0
	v.state = State{Phase: PhaseIdle}
}

// MaxPage max(1, ceil(total/pageSize))
func MaxPage(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

func (v *ListView) MaxPage() int {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return MaxPage(v.total, v.pageSize)
}

// queryLocked 按当前状态构造查询，空过滤条件不会出现在请求中
func (v *ListView) queryLocked() model.IssuesQuery {
	return model.IssuesQuery{
		Search:   v.filters.Search,
		Status:   v.filters.Status,
		Priority: v.filters.Priority,
		Assignee: v.filters.Assignee,
		SortBy:   v.sortBy,
		SortDir:  v.sortDir,
		Page:     v.page,
		PageSize: v.pageSize,
	}
}

// Fetch 按当前状态请求一页数据；失败时保留原有数据，只记录错误状态
func (v *ListView) Fetch(ctx context.Context) {
	v.mutex.Lock()
	v.generation++
	generation := v.generation
	query := v.queryLocked()
	v.state = loading()
	v.mutex.Unlock()

	page, err := v.api.List(ctx, query)

	v.mutex.Lock()
	defer v.mutex.Unlock()
	if generation != v.generation {
		klog.Warningf("[ListView.Fetch] 丢弃过期响应: generation=%d, latest=%d", generation, v.generation)
		return
	}
	if err != nil {
		klog.Errorf("[ListView.Fetch] 获取列表失败: query=%+v, error=%v", query, err)
		v.state = failed(err)
		return
	}
	items := page.Items
	if items == nil {
		items = []model.Issue{}
	}
	v.items = items
	v.total = page.Total
	v.state = loaded()
}

// ApplyFilters 更新过滤条件并回到第一页
func (v *ListView) ApplyFilters(ctx context.Context, filters Filters) {
	v.mutex.Lock()
	v.filters = filters
	v.page = 1
	v.mutex.Unlock()
	v.Fetch(ctx)
}

// ResetFilters 清空过滤条件并回到第一页，排序保持不变
func (v *ListView) ResetFilters(ctx context.Context) {
	v.mutex.Lock()
	v.filters = Filters{}
	v.page = 1
	v.mutex.Unlock()
	v.Fetch(ctx)
}

// OnSort 同一列切换方向，新列总是从升序开始
func (v *ListView) OnSort(ctx context.Context, column model.SortColumn) {
	v.mutex.Lock()
	if v.sortBy == column {
		v.sortDir = v.sortDir.Flip()
	} else {
		v.sortBy = column
		v.sortDir = model.SortAsc
	}
	v.mutex.Unlock()
	v.Fetch(ctx)
}

// OnPageChange 翻页，结果限制在 [1, MaxPage]
func (v *ListView) OnPageChange(ctx context.Context, delta int) {
	v.mutex.Lock()
	v.page = shiftPage(v.page, delta, MaxPage(v.total, v.pageSize))
	v.mutex.Unlock()
	v.Fetch(ctx)
}

// SetPageSize 修改每页条数，需随后调用 OnPageSizeChange
func (v *ListView) SetPageSize(size int) {
	if size <= 0 {
		return
	}
	v.mutex.Lock()
	v.pageSize = size
	v.mutex.Unlock()
}

// OnPageSizeChange 每页条数变化后回到第一页
func (v *ListView) OnPageSizeChange(ctx context.Context) {
	v.mutex.Lock()
	v.page = 1
	v.mutex.Unlock()
	v.Fetch(ctx)
}

func (v *ListView) OpenDetail(ctx context.Context, id uint) error {
	return v.nav.Navigate(ctx, DetailPath(id))
}

func (v *ListView) OpenCreate(ctx context.Context) error {
	return v.nav.Navigate(ctx, NewPath)
}

// OpenEdit 直接进入编辑表单，不经过详情页
func (v *ListView) OpenEdit(ctx context.Context, id uint) error {
	return v.nav.Navigate(ctx, EditPath(id))
}

func (v *ListView) Snapshot() ListSnapshot {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	items := make([]model.Issue, len(v.items))
	copy(items, v.items)
	return ListSnapshot{
		Filters:  v.filters,
		SortBy:   v.sortBy,
		SortDir:  v.sortDir,
		Page:     v.page,
		PageSize: v.pageSize,
		MaxPage:  MaxPage(v.total, v.pageSize),
		Items:    items,
		Total:    v.total,
		State:    v.state,
	}
}

// shiftPage page+delta 限制在 [1, maxPage]，先比较再相加避免溢出
func shiftPage(page, delta, maxPage int) int {
	if page > maxPage {
		page = maxPage
	}
	if page < 1 {
		page = 1
	}
	switch {
	case delta > maxPage-page:
		return maxPage
	case delta < 1-page:
		return 1
	default:
		return page + delta
	}
}
