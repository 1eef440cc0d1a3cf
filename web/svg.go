package web

import (
	"fmt"
	"math"

	"github.com/lemonberrylabs/lindenmaker/pkg/geom"
	"github.com/lemonberrylabs/lindenmaker/pkg/scene"
)

const (
	imageSize    = 480.0
	imagePadding = 16.0
	maxStroke    = 12.0
)

// materialColors are cycled through by material index.
var materialColors = []string{"#8b5a2b", "#3a7d44", "#c0392b", "#2e86c1", "#d4ac0d", "#7d3c98"}

// noMaterialColor is used for internodes without a material.
const noMaterialColor = "#555555"

type svgLine struct {
	X1, Y1, X2, Y2 float64
	Width          float64
	Color          string
}

// svgImage is an orthographic projection of a scene's internodes.
type svgImage struct {
	Size       float64
	Horizontal geom.Axis
	Vertical   geom.Axis
	Lines      []svgLine
}

// ViewBox returns the SVG viewBox attribute value.
func (img *svgImage) ViewBox() string {
	return fmt.Sprintf("0 0 %g %g", img.Size, img.Size)
}

// project draws every internode of sc onto the plane of the two axes along
// which the scene extends the most, scaled to fit a size x size square.
func project(sc *scene.Scene, size float64) *svgImage {
	stats := sc.Stats()
	extent := stats.Max.Sub(stats.Min)

	// Drop the flattest axis. On ties the later axis is dropped.
	axes := []geom.Axis{geom.AxisX, geom.AxisY, geom.AxisZ}
	flattest := 0
	for i, a := range axes {
		if extent.Component(a) <= extent.Component(axes[flattest]) {
			flattest = i
		}
	}
	axes = append(axes[:flattest], axes[flattest+1:]...)
	h, v := axes[0], axes[1]

	img := &svgImage{Size: size, Horizontal: h, Vertical: v}

	span := math.Max(extent.Component(h), extent.Component(v))
	if span == 0 {
		span = 1
	}
	scale := (size - 2*imagePadding) / span

	toX := func(p geom.Vec3) float64 { return imagePadding + (p.Component(h)-stats.Min.Component(h))*scale }
	toY := func(p geom.Vec3) float64 { return size - imagePadding - (p.Component(v)-stats.Min.Component(v))*scale }

	for _, seg := range sc.Segments() {
		img.Lines = append(img.Lines, svgLine{
			X1:    round(toX(seg.Start)),
			Y1:    round(toY(seg.Start)),
			X2:    round(toX(seg.End)),
			Y2:    round(toY(seg.End)),
			Width: round(math.Min(maxStroke, math.Max(1, seg.Width*scale))),
			Color: materialColor(seg.Material),
		})
	}
	return img
}

func materialColor(material int) string {
	if material == scene.NoMaterial || material < 0 {
		return noMaterialColor
	}
	return materialColors[material%len(materialColors)]
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}
