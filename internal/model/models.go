package model

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Status issue 状态
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// Priority issue 优先级
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// SortColumn 列表可排序的列
type SortColumn string

const (
	SortByID        SortColumn = "id"
	SortByTitle     SortColumn = "title"
	SortByStatus    SortColumn = "status"
	SortByPriority  SortColumn = "priority"
	SortByAssignee  SortColumn = "assignee"
	SortByUpdatedAt SortColumn = "updatedAt"
)

type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// Statuses 返回全部状态，顺序即下拉框的顺序
func Statuses() []Status {
	return []Status{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}
}

// Priorities 返回全部优先级
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
}

func SortColumns() []SortColumn {
	return []SortColumn{SortByID, SortByTitle, SortByStatus, SortByPriority, SortByAssignee, SortByUpdatedAt}
}

func (s Status) Valid() bool {
	for _, v := range Statuses() {
		if v == s {
			return true
		}
	}
	return false
}

func (p Priority) Valid() bool {
	for _, v := range Priorities() {
		if v == p {
			return true
		}
	}
	return false
}

func (c SortColumn) Valid() bool {
	for _, v := range SortColumns() {
		if v == c {
			return true
		}
	}
	return false
}

func (d SortDir) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// Flip 反转排序方向
func (d SortDir) Flip() SortDir {
	if d == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// Issue 由服务端分配 ID 与时间戳，客户端只读
type Issue struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Description *string   `json:"description" gorm:"type:text"`
	Status      Status    `json:"status" gorm:"size:20;default:open;index"`
	Priority    Priority  `json:"priority" gorm:"size:20;default:medium;index"`
	Assignee    *string   `json:"assignee" gorm:"size:255;index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"index"`
	// TitleKey 标题的小写形式，搜索用；数据库的 LOWER 只处理 ASCII
	TitleKey string `json:"-" gorm:"size:255;index"`
}

// TableName 指定表名
func (Issue) TableName() string {
	return "issues"
}

// SearchKey 标题搜索使用的小写形式
func SearchKey(s string) string {
	return strings.ToLower(s)
}

// BeforeSave 写库前同步 TitleKey
func (i *Issue) BeforeSave(tx *gorm.DB) error {
	i.TitleKey = SearchKey(i.Title)
	return nil
}

// DescriptionText 返回描述，null 视为空串
func (i *Issue) DescriptionText() string {
	if i.Description == nil {
		return ""
	}
	return *i.Description
}

// AssigneeText 返回负责人，null 视为空串
func (i *Issue) AssigneeText() string {
	if i.Assignee == nil {
		return ""
	}
	return *i.Assignee
}

// IssueCreate 创建请求，除 title 外均可省略，由服务端补默认值
type IssueCreate struct {
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Status      Status   `json:"status,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	Assignee    *string  `json:"assignee,omitempty"`
}

// IssueUpdate 局部更新，nil 字段保持服务端原值
type IssueUpdate struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Assignee    *string   `json:"assignee,omitempty"`
}

// IssuesQuery 列表查询条件，空串等价于未设置
type IssuesQuery struct {
	Search   string     `form:"search"`
	Status   Status     `form:"status"`
	Priority Priority   `form:"priority"`
	Assignee string     `form:"assignee"`
	SortBy   SortColumn `form:"sortBy"`
	SortDir  SortDir    `form:"sortDir"`
	Page     int        `form:"page"`
	PageSize int        `form:"pageSize"`
}

// Values 编码为请求参数，只包含非空字段
func (q IssuesQuery) Values() url.Values {
	values := url.Values{}
	setIfNotEmpty := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	setIfNotEmpty("search", q.Search)
	setIfNotEmpty("status", string(q.Status))
	setIfNotEmpty("priority", string(q.Priority))
	setIfNotEmpty("assignee", q.Assignee)
	setIfNotEmpty("sortBy", string(q.SortBy))
	setIfNotEmpty("sortDir", string(q.SortDir))
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	return values
}

// IssuesPage 列表响应，Total 为过滤后的总数而非本页条数
type IssuesPage struct {
	Items    []Issue `json:"items"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

// StringPtr 便于构造可选字段
func StringPtr(s string) *string {
	return &s
}
