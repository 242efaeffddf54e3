package chart

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"ivtcli/internal/config"
	"ivtcli/internal/dataset"
	apperrors "ivtcli/internal/errors"
	"ivtcli/internal/infrastructure"
	"ivtcli/pkg/contracts/domain"
)

// XAxisLabel names the time axis of the bottom panel
const XAxisLabel = "Date and Time"

// Renderer draws one time-series panel per app and stacks them into a single image
type Renderer struct {
	apps        []string
	width       int
	panelHeight int
	timeFormat  string
	logger      *slog.Logger
}

// New creates a Renderer from the chart settings
func New(cfg config.ChartConfig, logger *slog.Logger) *Renderer {
	r := &Renderer{
		apps:        cfg.Apps,
		width:       cfg.Width,
		panelHeight: cfg.PanelHeight,
		timeFormat:  cfg.TimeFormat,
		logger:      infrastructure.WithComponent(logger, "chart"),
	}
	if r.width <= 0 {
		r.width = config.DefaultChartWidth
	}
	if r.panelHeight <= 0 {
		r.panelHeight = config.DefaultPanelHeight
	}
	if r.timeFormat == "" {
		r.timeFormat = config.DefaultTimeFormat
	}
	return r
}

// Apps returns the app panels in drawing order
func (r *Renderer) Apps() []string {
	return r.apps
}

// Render draws the stacked panels. Apps without plottable rows get an empty panel.
func (r *Renderer) Render(ctx context.Context, ds *dataset.Dataset) (image.Image, error) {
	if len(r.apps) == 0 {
		return nil, apperrors.NewRenderError("no apps configured for the chart", nil)
	}

	panels := make([]*panelData, len(r.apps))
	for i, app := range r.apps {
		panels[i] = collect(ds, app)
		if panels[i].empty() {
			r.logger.WarnContext(ctx, "No plottable rows for chart panel", slog.String("app_id", app))
		}
	}

	lo, hi, ok := timeRange(panels)
	if !ok {
		lo = time.Unix(0, 0).UTC()
		hi = lo
	}
	shared := xRange(lo, hi)

	out := image.NewRGBA(image.Rect(0, 0, r.width, r.panelHeight*len(panels)))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)

	for i, p := range panels {
		img, err := r.renderPanel(p, shared, i == len(panels)-1)
		if err != nil {
			return nil, apperrors.NewRenderError(fmt.Sprintf("failed to render panel %q", p.app), err).
				WithContext("app_id", p.app)
		}
		dst := image.Rect(0, i*r.panelHeight, r.width, (i+1)*r.panelHeight)
		draw.Draw(out, dst, img, img.Bounds().Min, draw.Over)
	}

	r.logger.DebugContext(ctx, "Chart rendered",
		slog.Int("panels", len(panels)),
		slog.Int("width", r.width),
		slog.Int("height", out.Bounds().Dy()))
	return out, nil
}

// WritePNG renders the chart and encodes it to w
func (r *Renderer) WritePNG(ctx context.Context, w io.Writer, ds *dataset.Dataset) error {
	img, err := r.Render(ctx, ds)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return apperrors.NewRenderError("failed to encode chart", err)
	}
	return nil
}

func (r *Renderer) renderPanel(p *panelData, shared *gochart.ContinuousRange, bottom bool) (image.Image, error) {
	xAxis := gochart.XAxis{
		Range:          &gochart.ContinuousRange{Min: shared.Min, Max: shared.Max},
		ValueFormatter: gochart.TimeValueFormatterWithFormat(r.timeFormat),
	}
	if bottom {
		xAxis.Name = XAxisLabel
	}

	ch := gochart.Chart{
		Title:  Title(p.app),
		Width:  r.width,
		Height: r.panelHeight,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: xAxis,
		YAxis: gochart.YAxis{
			Name:  domain.ColIVT,
			Range: valueRange(p.ivt.values),
		},
		YAxisSecondary: gochart.YAxis{
			Name:           ratioAxisName,
			Range:          valueRange(p.ratio.values),
			ValueFormatter: powerLabel,
		},
	}

	if p.ivt.Len() > 0 {
		ch.Series = append(ch.Series, gochart.TimeSeries{
			Name:    domain.ColIVT,
			Style:   lineStyle(drawing.ColorRed),
			XValues: p.ivt.times,
			YValues: p.ivt.values,
		})
	}
	if p.ratio.Len() > 0 {
		ch.Series = append(ch.Series, gochart.TimeSeries{
			Name:    domain.ColIDFAUARatio,
			Style:   lineStyle(drawing.ColorBlue),
			YAxis:   gochart.YAxisSecondary,
			XValues: p.ratio.times,
			YValues: p.ratio.values,
		})
	}
	if len(ch.Series) == 0 {
		ch.Series = []gochart.Series{placeholder(shared)}
	} else {
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}

	var buf bytes.Buffer
	if err := ch.Render(gochart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

func lineStyle(col drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    2,
	}
}

// placeholder is an invisible series spanning the shared range, so an empty
// panel still gets its title and axes
func placeholder(shared *gochart.ContinuousRange) gochart.Series {
	return gochart.ContinuousSeries{
		Style:   gochart.Style{StrokeColor: drawing.ColorTransparent, StrokeWidth: 0},
		XValues: []float64{shared.Min, shared.Max},
		YValues: []float64{0, 0},
	}
}
