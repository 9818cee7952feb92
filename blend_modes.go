package psd

import (
	"image"
	"math"
	"strings"
)

// blendModeNames maps blend mode keys stored in layer records to readable names
var blendModeNames = map[string]string{
	"pass": "pass_through",
	"norm": "normal",
	"diss": "dissolve",
	"dark": "darken",
	"mul ": "multiply",
	"idiv": "color_burn",
	"lbrn": "linear_burn",
	"dkCl": "darker_color",
	"lite": "lighten",
	"scrn": "screen",
	"div ": "color_dodge",
	"lddg": "linear_dodge",
	"lgCl": "lighter_color",
	"over": "overlay",
	"sLit": "soft_light",
	"hLit": "hard_light",
	"vLit": "vivid_light",
	"lLit": "linear_light",
	"pLit": "pin_light",
	"hMix": "hard_mix",
	"diff": "difference",
	"smud": "exclusion",
	"fsub": "subtract",
	"fdiv": "divide",
	"hue ": "hue",
	"sat ": "saturation",
	"colr": "color",
	"lum ": "luminosity",
}

// BlendModeName returns the readable name of a blend mode key. Unknown keys are
// returned trimmed.
func BlendModeName(key string) string {
	if name, ok := blendModeNames[key]; ok {
		return name
	}
	return strings.TrimSpace(key)
}

// channelBlend combines a backdrop and source channel value, both in [0,1]
type channelBlend func(b, s float64) float64

// rgbBlend combines whole colours for the non-separable modes
type rgbBlend func(b, s [3]float64) [3]float64

var separableBlends = map[string]channelBlend{
	"normal":       func(b, s float64) float64 { return s },
	"dissolve":     func(b, s float64) float64 { return s },
	"pass_through": func(b, s float64) float64 { return s },
	"multiply":     func(b, s float64) float64 { return b * s },
	"screen":       screen,
	"overlay":      func(b, s float64) float64 { return hardLight(s, b) },
	"darken":       math.Min,
	"lighten":      math.Max,
	"color_dodge": func(b, s float64) float64 {
		switch {
		case b == 0:
			return 0
		case s >= 1:
			return 1
		}
		return math.Min(1, b/(1-s))
	},
	"color_burn": func(b, s float64) float64 {
		switch {
		case b >= 1:
			return 1
		case s <= 0:
			return 0
		}
		return 1 - math.Min(1, (1-b)/s)
	},
	"hard_light": hardLight,
	"soft_light": func(b, s float64) float64 {
		if s <= 0.5 {
			return b - (1-2*s)*b*(1-b)
		}
		var d float64
		if b <= 0.25 {
			d = ((16*b-12)*b + 4) * b
		} else {
			d = math.Sqrt(b)
		}
		return b + (2*s-1)*(d-b)
	},
	"difference":   func(b, s float64) float64 { return math.Abs(b - s) },
	"exclusion":    func(b, s float64) float64 { return b + s - 2*b*s },
	"linear_dodge": func(b, s float64) float64 { return math.Min(1, b+s) },
	"linear_burn":  func(b, s float64) float64 { return math.Max(0, b+s-1) },
	"linear_light": func(b, s float64) float64 { return clamp01(b + 2*s - 1) },
	"vivid_light": func(b, s float64) float64 {
		if s <= 0.5 {
			if s <= 0 {
				return 0
			}
			return clamp01(1 - (1-b)/(2*s))
		}
		if s >= 1 {
			return 1
		}
		return clamp01(b / (2 * (1 - s)))
	},
	"pin_light": func(b, s float64) float64 {
		if s <= 0.5 {
			return math.Min(b, 2*s)
		}
		return math.Max(b, 2*s-1)
	},
	"hard_mix": func(b, s float64) float64 {
		if b+s >= 1 {
			return 1
		}
		return 0
	},
	"subtract": func(b, s float64) float64 { return math.Max(0, b-s) },
	"divide": func(b, s float64) float64 {
		if s <= 0 {
			return 1
		}
		return math.Min(1, b/s)
	},
}

var nonSeparableBlends = map[string]rgbBlend{
	"hue": func(b, s [3]float64) [3]float64 {
		return setLum(setSat(s, sat(b)), lum(b))
	},
	"saturation": func(b, s [3]float64) [3]float64 {
		return setLum(setSat(b, sat(s)), lum(b))
	},
	"color": func(b, s [3]float64) [3]float64 {
		return setLum(s, lum(b))
	},
	"luminosity": func(b, s [3]float64) [3]float64 {
		return setLum(b, lum(s))
	},
	"darker_color": func(b, s [3]float64) [3]float64 {
		if lum(s) < lum(b) {
			return s
		}
		return b
	},
	"lighter_color": func(b, s [3]float64) [3]float64 {
		if lum(s) > lum(b) {
			return s
		}
		return b
	},
}

// Composite draws src onto dst with its top-left corner at offset, using the named or
// keyed blend mode and an extra opacity in [0,1]. Unknown modes composite as normal.
func Composite(dst, src *image.NRGBA, offset image.Point, mode string, opacity float64) {
	name := BlendModeName(mode)
	separable, ok := separableBlends[name]
	whole := nonSeparableBlends[name]
	if !ok && whole == nil {
		separable = separableBlends["normal"]
	}

	area := src.Bounds().Add(offset.Sub(src.Bounds().Min)).Intersect(dst.Bounds())
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			si := src.PixOffset(x-offset.X+src.Bounds().Min.X, y-offset.Y+src.Bounds().Min.Y)
			di := dst.PixOffset(x, y)

			as := float64(src.Pix[si+3]) / 255 * opacity
			if as <= 0 {
				continue
			}
			ab := float64(dst.Pix[di+3]) / 255

			var cs, cb [3]float64
			for c := 0; c < 3; c++ {
				cs[c] = float64(src.Pix[si+c]) / 255
				cb[c] = float64(dst.Pix[di+c]) / 255
			}

			var mixed [3]float64
			if whole != nil {
				mixed = whole(cb, cs)
			} else {
				for c := 0; c < 3; c++ {
					mixed[c] = separable(cb[c], cs[c])
				}
			}

			ao := as + ab*(1-as)
			for c := 0; c < 3; c++ {
				blended := (1-ab)*cs[c] + ab*mixed[c]
				co := as*blended + ab*cb[c]*(1-as)
				dst.Pix[di+c] = to8(co / ao)
			}
			dst.Pix[di+3] = to8(ao)
		}
	}
}

func screen(b, s float64) float64 {
	return b + s - b*s
}

func hardLight(b, s float64) float64 {
	if s <= 0.5 {
		return b * 2 * s
	}
	return screen(b, 2*s-1)
}

func lum(c [3]float64) float64 {
	return 0.3*c[0] + 0.59*c[1] + 0.11*c[2]
}

func clipColor(c [3]float64) [3]float64 {
	l := lum(c)
	n := math.Min(c[0], math.Min(c[1], c[2]))
	x := math.Max(c[0], math.Max(c[1], c[2]))
	for i := range c {
		if n < 0 {
			c[i] = l + (c[i]-l)*l/(l-n)
		}
		if x > 1 {
			c[i] = l + (c[i]-l)*(1-l)/(x-l)
		}
	}
	return c
}

func setLum(c [3]float64, l float64) [3]float64 {
	d := l - lum(c)
	return clipColor([3]float64{c[0] + d, c[1] + d, c[2] + d})
}

func sat(c [3]float64) float64 {
	return math.Max(c[0], math.Max(c[1], c[2])) - math.Min(c[0], math.Min(c[1], c[2]))
}

func setSat(c [3]float64, s float64) [3]float64 {
	maxI, minI := 0, 0
	for i := 1; i < 3; i++ {
		if c[i] > c[maxI] {
			maxI = i
		}
		if c[i] < c[minI] {
			minI = i
		}
	}
	if maxI == minI {
		return [3]float64{}
	}
	midI := 3 - maxI - minI

	var out [3]float64
	out[midI] = (c[midI] - c[minI]) * s / (c[maxI] - c[minI])
	out[maxI] = s
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}
