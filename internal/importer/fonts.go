package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/font/opentype"
)

var fontFamilies = map[string]string{
	"arial":               "Arial, sans-serif",
	"helvetica":           "Helvetica, Arial, sans-serif",
	"times":               `Times, "Times New Roman", serif`,
	"timesnewroman":       `Times, "Times New Roman", serif`,
	"times new roman":     `Times, "Times New Roman", serif`,
	"courier":             `Courier, "Courier New", monospace`,
	"couriernew":          `Courier, "Courier New", monospace`,
	"courier new":         `Courier, "Courier New", monospace`,
	"verdana":             "Verdana, Arial, sans-serif",
	"georgia":             "Georgia, Times, serif",
	"palatino":            `Palatino, "Palatino Linotype", serif`,
	"garamond":            "Garamond, Times, serif",
	"bookman":             "Bookman, serif",
	"comic sans ms":       `"Comic Sans MS", cursive`,
	"impact":              "Impact, Arial Black, sans-serif",
	"lucida console":      `"Lucida Console", Monaco, monospace`,
	"lucida sans unicode": `"Lucida Sans Unicode", Arial, sans-serif`,
	"symbol":              "Symbol",
	"webdings":            "Webdings",
	"wingdings":           "Wingdings",
	"ms sans serif":       `"MS Sans Serif", sans-serif`,
	"ms serif":            `"MS Serif", serif`,
}

// fontFamilyKeys fixes the partial match order: longer names first so that
// "times new roman" wins over "times"
var fontFamilyKeys = func() []string {
	keys := make([]string, 0, len(fontFamilies))
	for k := range fontFamilies {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	return keys
}()

// FontFamily maps a document font name to a web-safe CSS family list
func FontFamily(name string) string {
	f, _ := webSafeFamily(name)
	return f
}

// webSafeFamily reports false when name matched no known family and the result is a
// generic guess
func webSafeFamily(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "Arial", true
	}
	if f, ok := fontFamilies[n]; ok {
		return f, true
	}
	// PostScript names drop spaces and append a style, e.g. "TimesNewRomanPS-BoldMT"
	compact := strings.ReplaceAll(n, " ", "")
	for _, k := range fontFamilyKeys {
		ck := strings.ReplaceAll(k, " ", "")
		if strings.Contains(n, k) || strings.Contains(compact, ck) || strings.Contains(k, n) {
			return fontFamilies[k], true
		}
	}

	switch {
	case strings.Contains(n, "serif") && !strings.Contains(n, "sans"):
		return `Times, "Times New Roman", serif`, false
	case strings.Contains(n, "mono") || strings.Contains(n, "courier"):
		return `Courier, "Courier New", monospace`, false
	case strings.Contains(n, "script") || strings.Contains(n, "cursive"):
		return "cursive", false
	case strings.Contains(n, "fantasy") || strings.Contains(n, "decorative"):
		return "fantasy", false
	}
	return "Arial, sans-serif", false
}

// FontFallbacks returns the generic fallback list for a font name
func FontFallbacks(name string) string {
	n := strings.ToLower(name)
	switch {
	case n == "":
		return "Arial, sans-serif"
	case strings.Contains(n, "arial") || strings.Contains(n, "helvetica"):
		return "Arial, Helvetica, sans-serif"
	case strings.Contains(n, "times") || strings.Contains(n, "georgia") || strings.Contains(n, "serif"):
		return `Times, "Times New Roman", Georgia, serif`
	case strings.Contains(n, "courier") || strings.Contains(n, "mono"):
		return `Courier, "Courier New", Monaco, monospace`
	case strings.Contains(n, "script") || strings.Contains(n, "brush"):
		return "cursive"
	case strings.Contains(n, "display") || strings.Contains(n, "title"):
		return "fantasy"
	}
	return "Arial, sans-serif"
}

// FontCache resolves font names to CSS families and remembers which fonts exist as
// local files. One cache lives for the whole session.
type FontCache struct {
	dirs   []string
	logger *slog.Logger

	mu     sync.Mutex
	loaded map[string]string // lower-case name -> font file, "" when not found
	index  map[string]string // lower-case file stem -> path
}

// NewFontCache creates a cache looking for font files under dirs
func NewFontCache(dirs []string, logger *slog.Logger) *FontCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &FontCache{dirs: dirs, logger: logger, loaded: map[string]string{}}
}

// Family returns the CSS family list for name. Fonts without a web-safe equivalent keep
// their own name first, followed by generic fallbacks.
func (c *FontCache) Family(name string) string {
	if f, ok := webSafeFamily(name); ok {
		return f
	}
	return strconv.Quote(strings.TrimSpace(name)) + ", " + FontFallbacks(name)
}

// Ensure reports whether a parseable font file for name exists under the configured
// directories. Results, including misses, are memoized.
func (c *FontCache) Ensure(ctx context.Context, name string) (bool, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || key == "arial" {
		return true, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if path, ok := c.loaded[key]; ok {
		return path != "", nil
	}
	if c.index == nil {
		if err := c.buildIndex(ctx); err != nil {
			return false, err
		}
	}

	path := c.lookup(key)
	if path != "" {
		if err := validateFont(path); err != nil {
			c.logger.Warn("font file unusable", "font", name, "path", path, "err", err)
			path = ""
		}
	}
	c.loaded[key] = path
	return path != "", nil
}

// Path returns the font file found for name by a previous Ensure
func (c *FontCache) Path(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded[strings.ToLower(strings.TrimSpace(name))]
}

func (c *FontCache) lookup(key string) string {
	compact := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(key)
	if p, ok := c.index[compact]; ok {
		return p
	}
	return ""
}

func (c *FontCache) buildIndex(ctx context.Context) error {
	c.index = map[string]string{}
	norm := strings.NewReplacer(" ", "", "-", "", "_", "")
	for _, dir := range c.dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// unreadable directories are skipped
				if d != nil && d.IsDir() && path != dir {
					return fs.SkipDir
				}
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".ttf", ".otf":
				stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				k := norm.Replace(strings.ToLower(stem))
				if _, dup := c.index[k]; !dup {
					c.index[k] = path
				}
			}
			return nil
		})
		if err != nil && ctx.Err() != nil {
			c.index = nil
			return fmt.Errorf("index fonts: %w", err)
		}
	}
	c.logger.Debug("font index built", "dirs", len(c.dirs), "fonts", len(c.index))
	return nil
}

func validateFont(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	if _, err := opentype.Parse(data); err != nil {
		return fmt.Errorf("parse font %s: %w", path, err)
	}
	return nil
}
