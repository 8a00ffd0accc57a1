// Package measure 提供 layout.Measurer 的几种实现：基于字符格宽的近似测量、
// 基于 TrueType 字形度量的光栅测量，以及缓存与就绪门控包装。
package measure

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rivo/uniseg"

	"github.com/ByLCY/quire/layout"
)

// Cells 按字素簇的终端格宽近似文本宽度：每格宽 Ratio × 字号（px），
// 东亚宽字符占两格。不依赖任何字体文件。
type Cells struct {
	Ratio float64
}

// NewCells 返回格宽为半个字号的测量器。
func NewCells() Cells { return Cells{Ratio: 0.5} }

func (c Cells) Measure(text string, font layout.Font) (float64, error) {
	ratio := c.Ratio
	if ratio <= 0 {
		ratio = 0.5
	}
	return float64(uniseg.StringWidth(text)) * font.SizePX() * ratio, nil
}

// Cache 缓存 (文本, 字体) 的测量结果。错误不缓存。
type Cache struct {
	inner layout.Measurer
	limit int

	mu      sync.Mutex
	entries map[cacheKey]float64
	hits    int
	misses  int
}

type cacheKey struct {
	text string
	font string
}

// NewCache 包装 inner。缓存条目超过 limit 时整体清空，limit <= 0 表示 4096。
func NewCache(inner layout.Measurer, limit int) *Cache {
	if limit <= 0 {
		limit = 4096
	}
	return &Cache{inner: inner, limit: limit, entries: make(map[cacheKey]float64)}
}

func (c *Cache) Measure(text string, font layout.Font) (float64, error) {
	k := cacheKey{text: text, font: font.Key()}
	c.mu.Lock()
	if w, ok := c.entries[k]; ok {
		c.hits++
		c.mu.Unlock()
		return w, nil
	}
	c.misses++
	c.mu.Unlock()

	w, err := c.inner.Measure(text, font)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	if len(c.entries) >= c.limit {
		c.entries = make(map[cacheKey]float64)
	}
	c.entries[k] = w
	c.mu.Unlock()
	return w, nil
}

// Stats 返回命中与未命中次数。
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Gate 在打开之前拒绝所有测量，返回 layout.ErrMeasurementUnavailable。
// 用于字体尚在加载时让调度器推迟断行。
type Gate struct {
	inner layout.Measurer
	open  atomic.Bool
}

// NewGate 返回处于关闭状态的门控。
func NewGate(inner layout.Measurer) *Gate { return &Gate{inner: inner} }

// Open 允许测量。
func (g *Gate) Open() { g.open.Store(true) }

// Close 重新拒绝测量。
func (g *Gate) Close() { g.open.Store(false) }

// Ready 报告门控是否打开。
func (g *Gate) Ready() bool { return g.open.Load() }

// OpenWhen 在后台执行 load，成功后打开门控。返回的通道在 load 结束时收到其错误。
func (g *Gate) OpenWhen(load func() error) <-chan error {
	done := make(chan error, 1)
	go func() {
		err := load()
		if err == nil {
			g.Open()
		}
		done <- err
	}()
	return done
}

func (g *Gate) Measure(text string, font layout.Font) (float64, error) {
	if !g.open.Load() {
		return 0, fmt.Errorf("%s: %w", font.Family, layout.ErrMeasurementUnavailable)
	}
	return g.inner.Measure(text, font)
}
