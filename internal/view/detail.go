package view

import (
	"context"
	"sync"

	"github.com/issuetracker/tracker/internal/eventbus"
	"github.com/issuetracker/tracker/internal/model"
	"k8s.io/klog/v2"
)

type DetailSnapshot struct {
	ID       uint
	Issue    *model.Issue
	EditMode bool
	State    State
}

// DetailView issue 详情页，ID 变化时重新加载
type DetailView struct {
	api IssuesAPI
	nav Navigator
	bus *LocationBus

	mutex       sync.Mutex
	id          uint
	issue       *model.Issue
	editMode    bool
	state       State
	generation  uint64
	unsubscribe func()
	closed      bool
}

func NewDetailView(api IssuesAPI, nav Navigator, bus *LocationBus) *DetailView {
	return &DetailView{
		api:   api,
		nav:   nav,
		bus:   bus,
		state: State{Phase: PhaseIdle},
	}
}

func (v *DetailView) Kind() PageKind {
	return PageDetail
}

// Activate 订阅路由变化并按当前位置加载
func (v *DetailView) Activate(ctx context.Context, loc Location) {
	unsubscribe := v.bus.Subscribe(eventbus.LocationChanged, func(ctx context.Context, loc Location) error {
		v.onLocation(ctx, loc)
		return nil
	})
	v.mutex.Lock()
	if v.closed {
		// 激活前已被销毁，不能留下订阅
		v.mutex.Unlock()
		unsubscribe()
		return
	}
	v.unsubscribe = unsubscribe
	v.mutex.Unlock()

	klog.V(6).Infof("[DetailView] 激活: %s", loc.String())
	v.onLocation(ctx, loc)
}

// Deactivate 取消订阅并丢弃本页状态
func (v *DetailView) Deactivate() {
	v.mutex.Lock()
	unsubscribe := v.unsubscribe
	v.unsubscribe = nil
	v.closed = true
	v.generation++
	v.id = 0
	v.issue = nil
	v.editMode = false
	v.state = State{Phase: PhaseIdle}
	v.mutex.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// onLocation 编辑标记每次都重新读取；ID 变化或上次加载失败时才会发起请求
func (v *DetailView) onLocation(ctx context.Context, loc Location) {
	v.mutex.Lock()
	v.editMode = loc.Query.Get("edit") == "1"

	id, ok := ParseID(loc.Param("id"))
	if !ok {
		// 缺失或非法 ID 不请求也不报错
		v.generation++
		v.id = 0
		v.issue = nil
		v.state = State{Phase: PhaseIdle}
		v.mutex.Unlock()
		return
	}
	if id == v.id && !v.state.Failed() {
		v.mutex.Unlock()
		return
	}
	v.id = id
	v.issue = nil
	v.mutex.Unlock()

	v.Fetch(ctx, id)
}

// Fetch 加载指定 issue；失败时不展示记录，只记录错误状态
func (v *DetailView) Fetch(ctx context.Context, id uint) {
	v.mutex.Lock()
	v.generation++
	generation := v.generation
	v.state = loading()
	v.mutex.Unlock()

	issue, err := v.api.Get(ctx, id)

	v.mutex.Lock()
	defer v.mutex.Unlock()
	if generation != v.generation {
		klog.Warningf("[DetailView.Fetch] 丢弃过期响应: id=%d, generation=%d, latest=%d", id, generation, v.generation)
		return
	}
	if err != nil {
		klog.Errorf("[DetailView.Fetch] 获取 issue 失败: id=%d, error=%v", id, err)
		v.state = failed(err)
		return
	}
	v.issue = issue
	v.state = loaded()
}

// Back 返回列表页
func (v *DetailView) Back(ctx context.Context) error {
	return v.nav.Navigate(ctx, ListPath)
}

func (v *DetailView) Snapshot() DetailSnapshot {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	var issue *model.Issue
	if v.issue != nil {
		copied := *v.issue
		issue = &copied
	}
	return DetailSnapshot{
		ID:       v.id,
		Issue:    issue,
		EditMode: v.editMode,
		State:    v.state,
	}
}
