package loop

import "time"

// Frame timing
const (
	TargetFPS       = 60
	TargetFrameTime = time.Second / TargetFPS

	// maxFrameDelta bounds one simulation step after a stall so hands cannot
	// jump across the target.
	maxFrameDelta = 250 * time.Millisecond
)

// Render area. Larger terminals get a centered area of this size.
const (
	MaxTermWidth  = 160
	MaxTermHeight = 50
)

// Inactivity
const (
	DefaultIdleTimeout = 120 * time.Second // Disconnect after this long without input
	idleWarning        = 30 * time.Second  // Warn this long before disconnecting
)

// Shutdown
const (
	DefaultShutdownNotice = 10 * time.Second // How long the shutdown screen stays up
)

const blinkPeriod = 600 * time.Millisecond
