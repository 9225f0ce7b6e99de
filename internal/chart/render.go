package chart

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/claude/runplan/internal/progression"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Options controls chart size and sampling.
type Options struct {
	Width  int
	Height int
	Weeks  int
	Points int
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 1200
	}
	if o.Height <= 0 {
		o.Height = 800
	}
	if o.Weeks <= 0 {
		o.Weeks = 20
	}
	if o.Points <= 1 {
		o.Points = DefaultPoints
	}
	return o
}

var (
	colBackground = color.RGBA{255, 255, 255, 255}
	colAxis       = color.RGBA{60, 60, 60, 255}
	colGrid       = color.RGBA{225, 225, 225, 255}
	colText       = color.RGBA{20, 20, 20, 255}
	colCurve      = color.RGBA{31, 119, 180, 255}
	colTarget     = color.RGBA{214, 39, 40, 255}
	colStarting   = color.RGBA{44, 160, 44, 255}
	colRate       = color.RGBA{255, 127, 14, 255}
	colRateFill   = color.RGBA{255, 210, 170, 255}
	colMilestone  = color.RGBA{0, 0, 0, 255}

	palette = []color.RGBA{
		{31, 119, 180, 255},
		{214, 39, 40, 255},
		{44, 160, 44, 255},
		{148, 103, 189, 255},
		{255, 127, 14, 255},
	}
)

// RenderProgression draws the mileage curve (with target/starting guides and
// milestone markers) above its rate of change, and writes a PNG to w.
func RenderProgression(w io.Writer, m progression.Model, opts Options) error {
	opts = opts.withDefaults()
	s, err := Sample(m, opts.Weeks, opts.Points)
	if err != nil {
		return err
	}
	p := m.Parameters()

	img := newCanvas(opts.Width, opts.Height)
	margin := 70
	split := opts.Height * 2 / 3

	top := &panel{
		rect: image.Rect(margin, 40, opts.Width-30, split-30),
		xmin: 0, xmax: float64(opts.Weeks),
		ymin: 0, ymax: p.Target * 1.1,
	}
	top.frame(img, "Week", "Weekly Mileage")
	top.hline(img, p.Target, colTarget, true)
	top.hline(img, p.Starting, colStarting, true)
	top.polyline(img, s.Weeks, s.Mileages, colCurve)
	for _, ms := range Milestones(m, float64(opts.Weeks)) {
		x, y := top.point(ms.Week, ms.Mileage)
		disc(img, x, y, 5, colMilestone)
		text(img, x+7, y-7, fmt.Sprintf("%d%%", int(math.Round(ms.Fraction*100))), colText)
	}
	title := fmt.Sprintf("%s Training Progression", capitalize(string(m.Kind())))
	text(img, opts.Width/2-len(title)*7/2, 25, title, colText)
	legend(img, top.rect.Max.X-150, top.rect.Min.Y+15, []legendItem{
		{"Weekly Mileage", colCurve}, {"Target", colTarget}, {"Starting", colStarting},
	})

	rmin, rmax := bounds(s.Rates)
	bottom := &panel{
		rect: image.Rect(margin, split+20, opts.Width-30, opts.Height-60),
		xmin: 0, xmax: float64(opts.Weeks),
		ymin: math.Min(0, rmin), ymax: rmax * 1.1,
	}
	if bottom.ymax <= bottom.ymin {
		bottom.ymax = bottom.ymin + 1
	}
	bottom.frame(img, "Week", "Rate (miles/week)")
	bottom.fill(img, s.Weeks, s.Rates, colRateFill)
	bottom.polyline(img, s.Weeks, s.Rates, colRate)
	text(img, bottom.rect.Min.X, split+12, "Training Intensity (Rate of Change)", colText)

	footer := fmt.Sprintf("Equation: %s    T=%.1f, S=%.1f, a=%.2f, b=%.2f", m.Equation(), p.Target, p.Starting, p.A, p.B)
	text(img, margin, opts.Height-15, footer, colText)

	return png.Encode(w, img)
}

// RenderComparison overlays the mileage curves of several models.
func RenderComparison(ctx context.Context, w io.Writer, models []progression.Model, opts Options) error {
	opts = opts.withDefaults()
	if len(models) == 0 {
		return fmt.Errorf("no models to compare")
	}
	series, err := SampleAll(ctx, models, opts.Weeks, opts.Points)
	if err != nil {
		return err
	}

	ymax := 0.0
	for _, m := range models {
		ymax = math.Max(ymax, m.Parameters().Target)
	}

	img := newCanvas(opts.Width, opts.Height)
	pl := &panel{
		rect: image.Rect(70, 40, opts.Width-30, opts.Height-60),
		xmin: 0, xmax: float64(opts.Weeks),
		ymin: 0, ymax: ymax * 1.1,
	}
	pl.frame(img, "Week", "Weekly Mileage")

	items := make([]legendItem, len(models))
	for i, m := range models {
		c := palette[i%len(palette)]
		pl.polyline(img, series[i].Weeks, series[i].Mileages, c)
		p := m.Parameters()
		items[i] = legendItem{fmt.Sprintf("%s (a=%.2f, b=%.2f)", capitalize(string(m.Kind())), p.A, p.B), c}
	}
	text(img, opts.Width/2-7*7, 25, "Model Comparison", colText)
	legend(img, pl.rect.Max.X-260, pl.rect.Min.Y+15, items)

	return png.Encode(w, img)
}

// --- drawing primitives ---

type panel struct {
	rect                   image.Rectangle
	xmin, xmax, ymin, ymax float64
}

func (p *panel) point(x, y float64) (int, int) {
	fx := (x - p.xmin) / (p.xmax - p.xmin)
	fy := (y - p.ymin) / (p.ymax - p.ymin)
	return p.rect.Min.X + int(math.Round(fx*float64(p.rect.Dx()))),
		p.rect.Max.Y - int(math.Round(fy*float64(p.rect.Dy())))
}

func (p *panel) frame(img *image.RGBA, xlabel, ylabel string) {
	const ticks = 5
	for i := 0; i <= ticks; i++ {
		yv := p.ymin + (p.ymax-p.ymin)*float64(i)/ticks
		_, y := p.point(p.xmin, yv)
		line(img, p.rect.Min.X, y, p.rect.Max.X, y, colGrid, 1)
		text(img, p.rect.Min.X-55, y+4, fmt.Sprintf("%7.2f", yv), colText)

		xv := p.xmin + (p.xmax-p.xmin)*float64(i)/ticks
		x, _ := p.point(xv, p.ymin)
		line(img, x, p.rect.Min.Y, x, p.rect.Max.Y, colGrid, 1)
		text(img, x-7, p.rect.Max.Y+15, fmt.Sprintf("%g", math.Round(xv*10)/10), colText)
	}
	line(img, p.rect.Min.X, p.rect.Max.Y, p.rect.Max.X, p.rect.Max.Y, colAxis, 1)
	line(img, p.rect.Min.X, p.rect.Min.Y, p.rect.Min.X, p.rect.Max.Y, colAxis, 1)
	text(img, p.rect.Min.X+p.rect.Dx()/2-len(xlabel)*7/2, p.rect.Max.Y+30, xlabel, colText)
	text(img, p.rect.Min.X+5, p.rect.Min.Y-5, ylabel, colText)
}

func (p *panel) hline(img *image.RGBA, y float64, c color.RGBA, dashed bool) {
	_, py := p.point(p.xmin, y)
	if !dashed {
		line(img, p.rect.Min.X, py, p.rect.Max.X, py, c, 1)
		return
	}
	for x := p.rect.Min.X; x < p.rect.Max.X; x += 12 {
		line(img, x, py, min(x+7, p.rect.Max.X), py, c, 1)
	}
}

func (p *panel) polyline(img *image.RGBA, xs, ys []float64, c color.RGBA) {
	for i := 1; i < len(xs) && i < len(ys); i++ {
		x0, y0 := p.point(xs[i-1], ys[i-1])
		x1, y1 := p.point(xs[i], ys[i])
		line(img, x0, y0, x1, y1, c, 2)
	}
}

// fill shades the area between the curve and y=0.
func (p *panel) fill(img *image.RGBA, xs, ys []float64, c color.RGBA) {
	_, base := p.point(p.xmin, 0)
	for i := 1; i < len(xs) && i < len(ys); i++ {
		x0, y0 := p.point(xs[i-1], ys[i-1])
		x1, y1 := p.point(xs[i], ys[i])
		for x := x0; x <= x1; x++ {
			y := y0
			if x1 != x0 {
				y = y0 + (y1-y0)*(x-x0)/(x1-x0)
			}
			line(img, x, y, x, base, c, 1)
		}
	}
}

type legendItem struct {
	label string
	c     color.RGBA
}

func legend(img *image.RGBA, x, y int, items []legendItem) {
	for i, it := range items {
		ly := y + i*16
		line(img, x, ly-4, x+20, ly-4, it.c, 2)
		text(img, x+26, ly, it.label, colText)
	}
}

func newCanvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: colBackground}, image.Point{}, draw.Src)
	return img
}

// line draws a Bresenham line with square pen of the given thickness.
func line(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA, thickness int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		pen(img, x0, y0, c, thickness)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func pen(img *image.RGBA, x, y int, c color.RGBA, thickness int) {
	if thickness <= 1 {
		img.SetRGBA(x, y, c)
		return
	}
	half := thickness / 2
	for oy := -half; oy < thickness-half; oy++ {
		for ox := -half; ox < thickness-half; ox++ {
			img.SetRGBA(x+ox, y+oy, c)
		}
	}
}

func disc(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(cx+dx, cy+dy, c)
			}
		}
	}
}

func text(img *image.RGBA, x, y int, s string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func bounds(vs []float64) (lo, hi float64) {
	if len(vs) == 0 {
		return 0, 0
	}
	lo, hi = vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
