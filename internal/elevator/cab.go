package elevator

// CabAnimator moves the cab position toward a target at a fixed speed.
type CabAnimator struct {
	pos       int
	target    int
	speed     int
	running   bool
	onArrived func()
}

func NewCabAnimator(pos, speed int, onArrived func()) *CabAnimator {
	return &CabAnimator{pos: pos, target: pos, speed: speed, onArrived: onArrived}
}

// Start heads for target. If the cab is already there onArrived fires
// before Start returns.
func (c *CabAnimator) Start(target int) {
	c.target = target
	if c.pos == target {
		c.running = false
		c.arrive()
		return
	}
	c.running = true
}

// Tick moves by at most speed, never past the target, and returns the new position.
func (c *CabAnimator) Tick() int {
	if !c.running {
		return c.pos
	}
	remaining := c.target - c.pos
	step := min(abs(remaining), c.speed)
	if remaining < 0 {
		step = -step
	}
	c.pos += step

	if c.pos == c.target {
		c.running = false
		c.arrive()
	}
	return c.pos
}

func (c *CabAnimator) Position() int {
	return c.pos
}

func (c *CabAnimator) IsRunning() bool {
	return c.running
}

func (c *CabAnimator) arrive() {
	if c.onArrived != nil {
		c.onArrived()
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
