// Package cache 保存最近一次成功解码的登记账户状态。
package cache

import (
	"sync"
	"time"

	"claims-registry-sol/internal/registry"
)

// StateCache 最近快照缓存，监视器用它比对增量、对外暴露观测值。
// 存入的快照视为只读，更新方不得在存入后继续修改。
type StateCache struct {
	mu        sync.RWMutex
	state     *registry.ProgramState
	updatedAt time.Time
	source    string // 快照来源：poll / geyser
}

func NewStateCache() *StateCache {
	return &StateCache{}
}

// Update 用最新快照覆盖缓存
func (c *StateCache) Update(st *registry.ProgramState, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = st
	c.updatedAt = time.Now()
	c.source = source
}

// Snapshot 返回最近一次快照与更新时间；从未更新过时快照为 nil
func (c *StateCache) Snapshot() (*registry.ProgramState, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.updatedAt
}

// ClaimCount 返回最近快照中的条目数，无快照时为 0
func (c *StateCache) ClaimCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == nil {
		return 0
	}
	return len(c.state.Claims)
}

// Source 返回最近快照的来源标识
func (c *StateCache) Source() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.source
}
