// Package fonts 按字体族名查找字体文件。显式注册的路径优先，其次在系统字体目录中搜索，
// 最后按常见的度量兼容字体回退（例如 Times New Roman → Liberation Serif）。
package fonts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"unicode"

	"github.com/ByLCY/quire/logger"
)

// ErrNotFound 表示找不到字体族对应的文件。
var ErrNotFound = errors.New("fonts: 未找到字体")

// fallbacks 列出度量兼容或外观接近的替代字体。
var fallbacks = map[string][]string{
	"timesnewroman": {"times", "liberationserif", "tinos", "dejavuserif", "freeserif"},
	"arial":         {"helvetica", "liberationsans", "arimo", "dejavusans", "freesans"},
	"inter":         {"liberationsans", "dejavusans", "notosans"},
	"couriernew":    {"courier", "liberationmono", "cousine", "dejavusansmono"},
	"serif":         {"liberationserif", "dejavuserif"},
	"sans":          {"liberationsans", "dejavusans"},
}

// Registry 维护字体族到文件路径的映射，可并发使用。
type Registry struct {
	dirs []string

	mu       sync.RWMutex
	explicit map[string]string

	indexOnce sync.Once
	index     map[string]string
}

// NewRegistry 创建注册表。dirs 为空时使用 DefaultDirs。
func NewRegistry(dirs ...string) *Registry {
	if len(dirs) == 0 {
		dirs = DefaultDirs()
	}
	return &Registry{dirs: dirs, explicit: map[string]string{}}
}

// DefaultDirs 返回当前平台常见的字体目录，QUIRE_FONT_PATH 中的目录优先。
func DefaultDirs() []string {
	var dirs []string
	if env := os.Getenv("QUIRE_FONT_PATH"); env != "" {
		dirs = append(dirs, filepath.SplitList(env)...)
	}
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		dirs = append(dirs, "/Library/Fonts", "/System/Library/Fonts", filepath.Join(home, "Library", "Fonts"))
	case "windows":
		dirs = append(dirs, filepath.Join(os.Getenv("WINDIR"), "Fonts"))
	default:
		dirs = append(dirs, "/usr/share/fonts", "/usr/local/share/fonts",
			filepath.Join(home, ".fonts"), filepath.Join(home, ".local", "share", "fonts"))
	}
	return dirs
}

// Register 为字体族显式指定文件，bold 区分常规与粗体。
func (r *Registry) Register(family string, bold bool, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.explicit[key(family, bold)] = path
}

// Lookup 返回字体族的文件路径。粗体找不到时回退到常规字重。
func (r *Registry) Lookup(family string, bold bool) (string, error) {
	r.mu.RLock()
	path, ok := r.explicit[key(family, bold)]
	if !ok && bold {
		path, ok = r.explicit[key(family, false)]
	}
	r.mu.RUnlock()
	if ok {
		return path, nil
	}

	r.indexOnce.Do(r.buildIndex)
	name := normalize(family)
	candidates := append([]string{name}, fallbacks[name]...)
	for _, c := range candidates {
		if p := r.find(c, bold); p != "" {
			if c != name {
				logger.Debugf("字体 %s 使用替代字体 %s", family, filepath.Base(p))
			}
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, family)
}

// Load 读取字体族对应的文件内容。
func (r *Registry) Load(family string, bold bool) ([]byte, error) {
	path, err := r.Lookup(family, bold)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", path, err)
	}
	return data, nil
}

func (r *Registry) find(name string, bold bool) string {
	var suffixes []string
	if bold {
		suffixes = []string{"bold", "bd", "b"}
	} else {
		suffixes = []string{"", "regular", "book", "roman", "r"}
	}
	for _, s := range suffixes {
		if p, ok := r.index[name+s]; ok {
			return p
		}
	}
	if bold {
		return r.find(name, false)
	}
	return ""
}

func (r *Registry) buildIndex() {
	r.index = map[string]string{}
	for _, dir := range r.dirs {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if ext != ".ttf" && ext != ".otf" {
				return nil
			}
			name := normalize(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
			if _, dup := r.index[name]; !dup {
				r.index[name] = path
			}
			return nil
		})
	}
	logger.Debugf("字体索引: %d 个文件", len(r.index))
}

func key(family string, bold bool) string {
	if bold {
		return normalize(family) + "|bold"
	}
	return normalize(family)
}

// normalize 去掉大小写与非字母数字字符："Times New Roman" → "timesnewroman"。
func normalize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
