package view

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/issuetracker/tracker/internal/eventbus"
	"github.com/issuetracker/tracker/internal/model"
	"k8s.io/klog/v2"
)

// ErrTitleRequired 表单唯一的字段必填校验
var ErrTitleRequired = errors.New("title is required")

// ErrNotLoaded 编辑模式下原记录尚未加载成功，不允许提交
var ErrNotLoaded = errors.New("issue is not loaded")

// FormModel 表单可编辑字段，null 统一为空串
type FormModel struct {
	Title       string
	Description string
	Status      model.Status
	Priority    model.Priority
	Assignee    string
}

// BlankFormModel 新建时的默认值
func BlankFormModel() FormModel {
	return FormModel{
		Status:   model.StatusOpen,
		Priority: model.PriorityMedium,
	}
}

// FormModelFromIssue 用已有 issue 填充表单
func FormModelFromIssue(issue *model.Issue) FormModel {
	return FormModel{
		Title:       issue.Title,
		Description: issue.DescriptionText(),
		Status:      issue.Status,
		Priority:    issue.Priority,
		Assignee:    issue.AssigneeText(),
	}
}

// ToCreate 空的可选字段不发送，交给服务端取默认值
func (m FormModel) ToCreate() model.IssueCreate {
	body := model.IssueCreate{
		Title:    m.Title,
		Status:   m.Status,
		Priority: m.Priority,
	}
	if m.Description != "" {
		body.Description = model.StringPtr(m.Description)
	}
	if m.Assignee != "" {
		body.Assignee = model.StringPtr(m.Assignee)
	}
	return body
}

// ToUpdate 发送全部字段，空串用于清空描述或负责人
func (m FormModel) ToUpdate() model.IssueUpdate {
	body := model.IssueUpdate{
		Title:       model.StringPtr(m.Title),
		Description: model.StringPtr(m.Description),
		Assignee:    model.StringPtr(m.Assignee),
	}
	if m.Status != "" {
		status := m.Status
		body.Status = &status
	}
	if m.Priority != "" {
		priority := m.Priority
		body.Priority = &priority
	}
	return body
}

type FormSnapshot struct {
	ID         uint
	IsEdit     bool
	Model      FormModel
	Saving     bool
	State      State
	Statuses   []model.Status
	Priorities []model.Priority
}

// FormView 新建/编辑表单，根据路由中是否有 ID 决定模式
type FormView struct {
	api IssuesAPI
	nav Navigator
	bus *LocationBus

	mutex       sync.Mutex
	id          uint
	isEdit      bool
	model       FormModel
	saving      bool
	state       State
	generation  uint64
	unsubscribe func()
	closed      bool
	// loaded 编辑模式下原记录是否已成功加载
	loaded     bool
	loadFailed bool
}

func NewFormView(api IssuesAPI, nav Navigator, bus *LocationBus) *FormView {
	return &FormView{
		api:   api,
		nav:   nav,
		bus:   bus,
		model: BlankFormModel(),
		state: State{Phase: PhaseIdle},
	}
}

func (v *FormView) Kind() PageKind {
	return PageForm
}

func (v *FormView) Activate(ctx context.Context, loc Location) {
	unsubscribe := v.bus.Subscribe(eventbus.LocationChanged, func(ctx context.Context, loc Location) error {
		v.onLocation(ctx, loc)
		return nil
	})
	v.mutex.Lock()
	if v.closed {
		v.mutex.Unlock()
		unsubscribe()
		return
	}
	v.unsubscribe = unsubscribe
	v.mutex.Unlock()

	klog.V(6).Infof("[FormView] 激活: %s", loc.String())
	v.onLocation(ctx, loc)
}

func (v *FormView) Deactivate() {
	v.mutex.Lock()
	unsubscribe := v.unsubscribe
	v.unsubscribe = nil
	v.closed = true
	v.generation++
	v.model = BlankFormModel()
	v.saving = false
	v.state = State{Phase: PhaseIdle}
	v.mutex.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// onLocation 没有合法 ID 时为新建模式，否则加载原记录
func (v *FormView) onLocation(ctx context.Context, loc Location) {
	id, ok := ParseID(loc.Param("id"))

	v.mutex.Lock()
	if !ok {
		if v.isEdit {
			// 从编辑切回新建，丢弃已加载的记录
			v.generation++
			v.model = BlankFormModel()
			v.state = State{Phase: PhaseIdle}
		}
		v.id = 0
		v.isEdit = false
		v.loaded = false
		v.loadFailed = false
		v.mutex.Unlock()
		return
	}
	// 加载失败后再次进入同一地址会重新请求；已加载或保存失败时保留表单内容
	if v.isEdit && v.id == id && !v.loadFailed {
		v.mutex.Unlock()
		return
	}
	if v.id != id {
		v.model = BlankFormModel()
	}
	v.id = id
	v.isEdit = true
	v.loaded = false
	v.loadFailed = false
	v.mutex.Unlock()

	v.load(ctx, id)
}

func (v *FormView) load(ctx context.Context, id uint) {
	v.mutex.Lock()
	v.generation++
	generation := v.generation
	v.state = loading()
	v.mutex.Unlock()

	issue, err := v.api.Get(ctx, id)

	v.mutex.Lock()
	defer v.mutex.Unlock()
	if generation != v.generation {
		klog.Warningf("[FormView.load] 丢弃过期响应: id=%d", id)
		return
	}
	if err != nil {
		klog.Errorf("[FormView.load] 获取 issue 失败: id=%d, error=%v", id, err)
		v.state = failed(err)
		v.loadFailed = true
		return
	}
	v.model = FormModelFromIssue(issue)
	v.loaded = true
	v.state = loaded()
}

// SetModel 用提交的表单内容替换当前模型
func (v *FormView) SetModel(m FormModel) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.model = m
}

// Save 编辑模式调用 update，新建模式调用 create；成功后跳转列表页，失败时保留表单内容
func (v *FormView) Save(ctx context.Context) {
	v.mutex.Lock()
	if v.saving {
		v.mutex.Unlock()
		klog.Warningf("[FormView.Save] 上一次提交尚未完成")
		return
	}
	if v.isEdit && !v.loaded {
		// 原记录没加载成功时提交会用空表单覆盖它
		if !v.state.Failed() {
			v.state = failed(ErrNotLoaded)
		}
		id := v.id
		v.mutex.Unlock()
		klog.Warningf("[FormView.Save] 原记录未加载，拒绝提交: id=%d", id)
		return
	}
	if strings.TrimSpace(v.model.Title) == "" {
		v.state = failed(ErrTitleRequired)
		v.mutex.Unlock()
		return
	}
	v.saving = true
	v.state = State{Phase: PhaseSaving}
	isEdit, id, current := v.isEdit, v.id, v.model
	v.mutex.Unlock()

	var (
		saved *model.Issue
		err   error
	)
	if isEdit {
		saved, err = v.api.Update(ctx, id, current.ToUpdate())
	} else {
		saved, err = v.api.Create(ctx, current.ToCreate())
	}

	v.mutex.Lock()
	v.saving = false
	if err != nil {
		v.state = failed(err)
		v.mutex.Unlock()
		klog.Errorf("[FormView.Save] 保存失败: edit=%v, id=%d, error=%v", isEdit, id, err)
		return
	}
	v.state = loaded()
	v.mutex.Unlock()

	klog.V(6).Infof("[FormView.Save] 保存成功: id=%d", saved.ID)
	if err := v.nav.Navigate(ctx, ListPath); err != nil {
		klog.Errorf("[FormView.Save] 跳转失败: %v", err)
	}
}

// Cancel 不提交直接返回列表
func (v *FormView) Cancel(ctx context.Context) error {
	return v.nav.Navigate(ctx, ListPath)
}

func (v *FormView) Statuses() []model.Status {
	return model.Statuses()
}

func (v *FormView) Priorities() []model.Priority {
	return model.Priorities()
}

func (v *FormView) Snapshot() FormSnapshot {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return FormSnapshot{
		ID:         v.id,
		IsEdit:     v.isEdit,
		Model:      v.model,
		Saving:     v.saving,
		State:      v.state,
		Statuses:   model.Statuses(),
		Priorities: model.Priorities(),
	}
}
