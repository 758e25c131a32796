package world

import "github.com/udisondev/npcmind/internal/model"

// Platform is a raised rectangle, such as a rooftop.
type Platform struct {
	MinX, MinY float64
	MaxX, MaxY float64
	Height     float64
}

func (p Platform) contains(pos model.Vector) bool {
	return pos.X >= p.MinX && pos.X <= p.MaxX && pos.Y >= p.MinY && pos.Y <= p.MaxY
}

// Ground is flat terrain at Base plus raised platforms.
type Ground struct {
	Base      float64
	Platforms []Platform
}

// GroundHeight returns the highest surface under pos that is not above it.
func (g *Ground) GroundHeight(pos model.Vector) float64 {
	h := g.Base
	for _, p := range g.Platforms {
		if p.contains(pos) && p.Height <= pos.Z && p.Height > h {
			h = p.Height
		}
	}
	return h
}
