// Package chart lays out the three-bar summary chart and renders it as SVG.
package chart

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"github.com/shopspring/decimal"

	"controlepix/internal/core"
)

const (
	Title  = "Resumo Financeiro"
	YLabel = "Valor (R$)"

	ColorInflow  = "#4CAF50"
	ColorOutflow = "#F44336"
	ColorBalance = "#2196F3"

	width        = 480.0
	height       = 320.0
	marginLeft   = 80.0
	marginRight  = 20.0
	marginTop    = 50.0
	marginBottom = 40.0
	tickCount    = 4
)

//go:embed chart.svg.tmpl
var svgSource string

var svgTemplate = template.Must(template.New("chart").Funcs(template.FuncMap{
	"px":   func(f float64) string { return fmt.Sprintf("%.2f", f) },
	"half": func(f float64) float64 { return f / 2 },
}).Parse(svgSource))

// Bar is one positioned bar. Y grows downwards, SVG style.
type Bar struct {
	Label   string
	Value   decimal.Decimal
	Display string
	Color   string

	X, Y, Width, Height float64
	CenterX             float64
	// TextY is where the value annotation sits: above a positive bar,
	// below a negative one.
	TextY float64
}

// Tick is one horizontal grid line with its axis label.
type Tick struct {
	Y     float64
	Label string
}

// Chart is the full layout; it carries no reference to the source data.
type Chart struct {
	Title, YLabel string
	Width, Height float64
	PlotLeft      float64
	PlotRight     float64
	PlotTop       float64
	PlotBottom    float64
	BaselineY     float64
	Bars          []Bar
	Ticks         []Tick
}

// Build lays out Inflows, Outflows and Balance. Heights are scaled to the
// widest value range; a negative balance lifts the zero baseline so its bar
// hangs below it. All-zero input yields zero-height bars on the bottom edge.
func Build(s core.Summary) Chart {
	values := []struct {
		label string
		value decimal.Decimal
		color string
	}{
		{"Entradas", s.TotalIn, ColorInflow},
		{"Saídas", s.TotalOut, ColorOutflow},
		{"Saldo", s.Balance, ColorBalance},
	}

	top, bottom := 0.0, 0.0
	for _, v := range values {
		f := v.value.InexactFloat64()
		top = max(top, f)
		bottom = min(bottom, f)
	}

	c := Chart{
		Title:      Title,
		YLabel:     YLabel,
		Width:      width,
		Height:     height,
		PlotLeft:   marginLeft,
		PlotRight:  width - marginRight,
		PlotTop:    marginTop,
		PlotBottom: height - marginBottom,
	}
	plotHeight := c.PlotBottom - c.PlotTop

	var scale float64
	if span := top - bottom; span > 0 {
		scale = plotHeight / span
	}
	c.BaselineY = c.PlotTop + top*scale
	if scale == 0 {
		c.BaselineY = c.PlotBottom
	}

	slot := (c.PlotRight - c.PlotLeft) / float64(len(values))
	for i, v := range values {
		f := v.value.InexactFloat64()
		b := Bar{
			Label:   v.label,
			Value:   v.value,
			Display: core.FormatBRL(v.value),
			Color:   v.color,
			X:       c.PlotLeft + float64(i)*slot + slot*0.2,
			Width:   slot * 0.6,
			CenterX: c.PlotLeft + (float64(i)+0.5)*slot,
		}
		if f >= 0 {
			b.Height = f * scale
			b.Y = c.BaselineY - b.Height
			b.TextY = b.Y - 6
		} else {
			b.Height = -f * scale
			b.Y = c.BaselineY
			b.TextY = b.Y + b.Height + 14
		}
		c.Bars = append(c.Bars, b)
	}

	if scale > 0 {
		for i := 0; i <= tickCount; i++ {
			v := bottom + (top-bottom)*float64(i)/tickCount
			c.Ticks = append(c.Ticks, Tick{
				Y:     c.PlotBottom - float64(i)*plotHeight/tickCount,
				Label: decimal.NewFromFloat(v).StringFixed(2),
			})
		}
	}

	return c
}

// WriteSVG renders c as a standalone SVG document.
func WriteSVG(w io.Writer, c Chart) error {
	if err := svgTemplate.Execute(w, c); err != nil {
		return fmt.Errorf("render chart svg: %w", err)
	}
	return nil
}

// Inline renders c for embedding in an HTML page.
func Inline(c Chart) (template.HTML, error) {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, c); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
