package eventbus

// LocationEventType 导航事件类型
type LocationEventType string

const (
	// LocationChanged 同一页面内路由参数或查询参数变化
	LocationChanged LocationEventType = "LocationChanged"
)
