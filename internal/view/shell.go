package view

import (
	"context"
	"fmt"
	"sync"

	"github.com/issuetracker/tracker/internal/eventbus"
	"k8s.io/klog/v2"
)

// Page 路由激活的页面组件
type Page interface {
	Kind() PageKind
	Activate(ctx context.Context, loc Location)
	Deactivate()
}

// Shell 一个浏览器会话中的应用外壳：当前位置、活动页面与位置总线
type Shell struct {
	api      IssuesAPI
	pageSize int
	bus      *LocationBus

	mutex    sync.Mutex
	location Location
	page     Page
}

func NewShell(api IssuesAPI, pageSize int) *Shell {
	return &Shell{
		api:      api,
		pageSize: pageSize,
		bus:      NewLocationBus(),
	}
}

// Navigate 跳转到目标地址；未匹配的路径重定向到列表页
func (s *Shell) Navigate(ctx context.Context, target string) error {
	loc, err := ParseLocation(target)
	if err != nil {
		return fmt.Errorf("解析导航目标失败: %s: %w", target, err)
	}
	route, params, ok := Match(loc.Path)
	if !ok {
		klog.V(6).Infof("[Shell.Navigate] 未匹配的路径 %s，重定向到 %s", loc.Path, ListPath)
		loc, _ = ParseLocation(ListPath)
		route, params, _ = Match(ListPath)
	}
	loc.Params = params

	s.mutex.Lock()
	s.location = loc
	current := s.page
	if current != nil && current.Kind() == route.Kind {
		s.mutex.Unlock()
		if route.Kind == PageList {
			return nil
		}
		klog.V(6).Infof("[Shell.Navigate] 复用页面 %s: %s", route.Kind, loc.String())
		return s.bus.Publish(ctx, eventbus.LocationChanged, loc)
	}
	next := s.newPage(route.Kind)
	s.page = next
	s.mutex.Unlock()

	if current != nil {
		current.Deactivate()
	}
	klog.V(6).Infof("[Shell.Navigate] 切换页面 %s: %s", route.Kind, loc.String())
	next.Activate(ctx, loc)
	return nil
}

func (s *Shell) newPage(kind PageKind) Page {
	switch kind {
	case PageDetail:
		return NewDetailView(s.api, s, s.bus)
	case PageForm:
		return NewFormView(s.api, s, s.bus)
	default:
		return NewListView(s.api, s, s.pageSize)
	}
}

// Location 当前位置
func (s *Shell) Location() Location {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.location
}

// Page 当前活动页面，尚未导航时为 nil
func (s *Shell) Page() Page {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.page
}

// Bus 页面订阅使用的位置总线
func (s *Shell) Bus() *LocationBus {
	return s.bus
}

// Close 销毁活动页面
func (s *Shell) Close() {
	s.mutex.Lock()
	current := s.page
	s.page = nil
	s.mutex.Unlock()

	if current != nil {
		current.Deactivate()
	}
}
