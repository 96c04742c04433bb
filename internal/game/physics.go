package game

import "math"

// NormalizeAngle maps any angle in degrees into [0,360).
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	// a tiny negative input rounds up to exactly 360 above
	if a >= 360 {
		a = 0
	}
	return a
}

// Clamp keeps v within [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ClampPosition keeps a player's center inside the world minus the margin.
func (c Config) ClampPosition(x, y float64) (float64, float64) {
	m := c.Margin()
	return Clamp(x, m, c.Width-m), Clamp(y, m, c.Height-m)
}

// InBounds reports whether a point lies inside the world rectangle.
func (c Config) InBounds(x, y float64) bool {
	return x >= 0 && x <= c.Width && y >= 0 && y <= c.Height
}

func heading(deg float64) (float64, float64) {
	rad := deg * math.Pi / 180
	return math.Cos(rad), math.Sin(rad)
}

// stepPlayer rotates, then thrusts along the new facing angle, then clamps.
func (c Config) stepPlayer(p *PlayerState) {
	if turn := p.Inputs.Turn(); turn != 0 {
		p.Angle = NormalizeAngle(p.Angle + turn*c.RotationRate)
	}
	if thrust := p.Inputs.Thrust(); thrust != 0 {
		dx, dy := heading(p.Angle)
		p.X += thrust * c.Speed * dx
		p.Y += thrust * c.Speed * dy
	}
	p.X, p.Y = c.ClampPosition(p.X, p.Y)
}

// stepProjectile advances p by one tick and reports whether it survives.
func (c Config) stepProjectile(p *Projectile) bool {
	dx, dy := heading(p.Angle)
	p.X += c.ProjectileSpeed * dx
	p.Y += c.ProjectileSpeed * dy
	p.Remaining--
	return p.Remaining > 0 && c.InBounds(p.X, p.Y)
}
