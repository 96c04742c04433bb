package game

// Projectile travels along a fixed angle until it expires or leaves the world.
type Projectile struct {
	ID        uint64   `json:"id"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Angle     float64  `json:"angle"`
	Owner     PlayerID `json:"owner"`
	Remaining int      `json:"remaining"`
}
