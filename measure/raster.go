package measure

import (
	"fmt"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/ByLCY/quire/fonts"
	"github.com/ByLCY/quire/layout"
)

// Raster 使用 TrueType 字形步进测量文本，字体按 96 dpi 栅格化，
// 因此 gg 返回的宽度即 CSS px。
type Raster struct {
	fonts *fonts.Registry

	mu       sync.Mutex
	contexts map[string]*gg.Context
	parsed   map[string]*truetype.Font
}

// NewRaster 创建从 reg 加载字体的测量器。
func NewRaster(reg *fonts.Registry) *Raster {
	return &Raster{
		fonts:    reg,
		contexts: map[string]*gg.Context{},
		parsed:   map[string]*truetype.Font{},
	}
}

func (r *Raster) Measure(text string, f layout.Font) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dc, err := r.context(f)
	if err != nil {
		return 0, err
	}
	w, _ := dc.MeasureString(text)
	return w, nil
}

// Preload 预先加载字体，使后续测量不再读取文件。
func (r *Raster) Preload(fs ...layout.Font) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range fs {
		if _, err := r.context(f); err != nil {
			return err
		}
	}
	return nil
}

func (r *Raster) context(f layout.Font) (*gg.Context, error) {
	if dc, ok := r.contexts[f.Key()]; ok {
		return dc, nil
	}
	ttf, err := r.parse(f.Family, f.Bold())
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    f.Size.ToPT(),
		DPI:     layout.PxPerIn,
		Hinting: font.HintingNone,
	})
	dc := gg.NewContext(1, 1)
	dc.SetFontFace(face)
	r.contexts[f.Key()] = dc
	return dc, nil
}

func (r *Raster) parse(family string, bold bool) (*truetype.Font, error) {
	k := fmt.Sprintf("%s|%t", family, bold)
	if ttf, ok := r.parsed[k]; ok {
		return ttf, nil
	}
	data, err := r.fonts.Load(family, bold)
	if err != nil {
		return nil, err
	}
	ttf, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", family, err)
	}
	r.parsed[k] = ttf
	return ttf, nil
}
