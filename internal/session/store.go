package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/issuetracker/tracker/internal/view"
	"k8s.io/klog/v2"
)

// CookieName 浏览器会话 cookie
const CookieName = "issuetracker_session"

// ShellFactory 为新会话创建应用外壳
type ShellFactory func() *view.Shell

type entry struct {
	shell    *view.Shell
	lastSeen time.Time
}

// Store 会话 ID 到 Shell 的映射，空闲超过 ttl 的会话会被回收
type Store struct {
	factory ShellFactory
	ttl     time.Duration
	now     func() time.Time

	mutex    sync.Mutex
	sessions map[string]*entry
}

func NewStore(factory ShellFactory, ttl time.Duration) *Store {
	return &Store{
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Get 返回已有会话并刷新活跃时间
func (s *Store) Get(id string) (*view.Shell, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.shell, true
}

// Create 新建会话
func (s *Store) Create() (string, *view.Shell) {
	id := uuid.New().String()
	shell := s.factory()
	s.mutex.Lock()
	s.sessions[id] = &entry{shell: shell, lastSeen: s.now()}
	s.mutex.Unlock()
	klog.V(6).Infof("[session.Create] 新建会话: %s", id)
	return id, shell
}

// GetOrCreate id 无效或已过期时创建新会话，created 表示需要下发新 cookie
func (s *Store) GetOrCreate(id string) (string, *view.Shell, bool) {
	if id != "" {
		if shell, ok := s.Get(id); ok {
			return id, shell, false
		}
	}
	newID, shell := s.Create()
	return newID, shell, true
}

// Len 当前会话数
func (s *Store) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.sessions)
}

// Sweep 回收空闲会话并销毁其页面，返回回收数量
func (s *Store) Sweep() int {
	deadline := s.now().Add(-s.ttl)
	var expired []*view.Shell

	s.mutex.Lock()
	for id, e := range s.sessions {
		if e.lastSeen.Before(deadline) {
			expired = append(expired, e.shell)
			delete(s.sessions, id)
		}
	}
	s.mutex.Unlock()

	for _, shell := range expired {
		shell.Close()
	}
	if len(expired) > 0 {
		klog.V(6).Infof("[session.Sweep] 回收空闲会话 %d 个", len(expired))
	}
	return len(expired)
}

// Run 定期回收，直到 ctx 结束
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Close 销毁全部会话
func (s *Store) Close() {
	s.mutex.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*entry)
	s.mutex.Unlock()

	for _, e := range sessions {
		e.shell.Close()
	}
}
