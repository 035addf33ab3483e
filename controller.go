package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Controller owns the connection state of one paired device. UIs call
// Initialize once, then RequestToggle/Refresh, and render Snapshot.
//
// The device address is discovered once and never changes afterwards.
// The connection state is always taken from a fresh query; the stored value
// is only the last observation, used as a fallback when a query fails.
type Controller struct {
	discoverCmd    []string
	runner         Runner
	ctl            *bluetoothctl
	honorRequested bool
	log            zerolog.Logger
	now            func() time.Time

	mu        sync.Mutex
	state     ControllerState
	device    string
	name      string
	connected bool
	requested *bool
	lastErr   string
	updatedAt time.Time
	inFlight  bool
}

func newController(cfg Config, runner Runner, log zerolog.Logger) *Controller {
	return &Controller{
		discoverCmd:    cfg.DiscoverCommand,
		runner:         runner,
		ctl:            newBluetoothctl(runner, cfg.Bluetoothctl),
		honorRequested: cfg.HonorRequestedDirection,
		log:            log,
		now:            time.Now,
		state:          StateUninitialized,
	}
}

// Snapshot returns the state a UI should currently render.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:     c.state,
		Device:    c.device,
		Name:      c.name,
		Connected: c.connected,
		LastError: c.lastErr,
		UpdatedAt: c.updatedAt,
	}
	if c.requested != nil {
		r := *c.requested
		s.Requested = &r
	}
	return s
}

// Device returns the discovered address, or "" before discovery succeeded.
func (c *Controller) Device() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device
}

func (c *Controller) setState(s ControllerState) {
	c.mu.Lock()
	c.state = s
	c.updatedAt = c.now()
	c.mu.Unlock()
}

func (c *Controller) recordError(err error) {
	c.mu.Lock()
	c.lastErr = err.Error()
	c.mu.Unlock()
}

// Initialize discovers the paired device and reads its state once.
// It never fails: a discovery failure leaves the controller in
// StateNoDevice, a query failure in StateIdle with Connected=false.
// Subsequent calls return the current snapshot without doing anything.
func (c *Controller) Initialize(ctx context.Context) Snapshot {
	c.mu.Lock()
	if c.state != StateUninitialized {
		s := c.snapshotLocked()
		c.mu.Unlock()
		return s
	}
	c.state = StateDiscovering
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	addr, err := c.discover(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("device discovery failed")
		c.recordError(err)
		c.setState(StateNoDevice)
		return c.Snapshot()
	}

	c.mu.Lock()
	c.device = addr
	c.mu.Unlock()
	c.setState(StateReady)
	c.log.Info().Str("device", addr).Msg("discovered paired device")

	c.setState(StateQuerying)
	c.observe(ctx, addr)
	c.setState(StateIdle)

	return c.Snapshot()
}

func (c *Controller) discover(ctx context.Context) (string, error) {
	res, err := c.runner.Run(ctx, c.discoverCmd...)
	if err != nil {
		return "", err
	}
	if !res.Success {
		return "", fmt.Errorf("%s exited with status %d", strings.Join(c.discoverCmd, " "), res.ExitCode)
	}
	addr, ok := extractAddress(res.Stdout)
	if !ok {
		return "", fmt.Errorf("%w: no address in %s output", ErrNotAvailable, c.discoverCmd[0])
	}
	return addr, nil
}

// observe queries addr and stores the result. On a launch failure the
// previous observation is kept and returned.
func (c *Controller) observe(ctx context.Context, addr string) bool {
	di, err := c.ctl.info(ctx, addr)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.log.Error().Err(err).Str("device", addr).Bool("fallback", c.connected).Msg("connection query failed")
		c.lastErr = err.Error()
		return c.connected
	}
	c.connected = di.Connected
	if di.Name != "" {
		c.name = di.Name
	}
	c.updatedAt = c.now()
	return di.Connected
}

// begin claims the single in-flight slot for an operation on an idle controller.
func (c *Controller) begin(next ControllerState) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return "", ErrBusy
	}
	if c.state != StateIdle {
		return "", ErrNotAvailable
	}
	c.inFlight = true
	c.state = next
	c.lastErr = ""
	c.updatedAt = c.now()
	return c.device, nil
}

func (c *Controller) finish() {
	c.mu.Lock()
	c.inFlight = false
	c.state = StateIdle
	c.updatedAt = c.now()
	c.mu.Unlock()
}

// RequestToggle re-queries the device, asks bluetoothctl to move it away from
// the observed state and queries once more. The final query decides the
// reported state, whatever desiredOn was.
//
// With honor_requested_direction the toggle targets desiredOn instead.
func (c *Controller) RequestToggle(ctx context.Context, desiredOn bool) (Snapshot, error) {
	addr, err := c.begin(StateToggling)
	if err != nil {
		c.log.Debug().Err(err).Bool("desired", desiredOn).Msg("toggle rejected")
		return c.Snapshot(), err
	}

	c.toggle(ctx, addr, desiredOn)

	c.finish()
	return c.Snapshot(), nil
}

func (c *Controller) toggle(ctx context.Context, addr string, desiredOn bool) {
	c.mu.Lock()
	c.requested = &desiredOn
	c.mu.Unlock()

	before := c.observe(ctx, addr)
	target := !before
	if c.honorRequested {
		target = desiredOn
	}
	if target != desiredOn {
		c.log.Warn().
			Str("device", addr).
			Bool("desired", desiredOn).
			Bool("observed", before).
			Msg("requested direction differs from observed state, toggling away from observed state")
	}

	ok, err := c.ctl.setConnected(ctx, addr, target)
	switch {
	case err != nil:
		c.log.Error().Err(err).Str("device", addr).Msg("toggle failed")
		c.recordError(err)
	case !ok:
		c.log.Warn().Str("device", addr).Str("action", connectVerb(target)).Msg("bluetoothctl reported failure")
	}

	after := c.observe(ctx, addr)
	c.log.Info().
		Str("device", addr).
		Bool("before", before).
		Bool("after", after).
		Msg("toggle finished")
}

// Refresh re-queries the device without changing it.
func (c *Controller) Refresh(ctx context.Context) (Snapshot, error) {
	addr, err := c.begin(StateQuerying)
	if err != nil {
		return c.Snapshot(), err
	}

	c.observe(ctx, addr)

	c.finish()
	return c.Snapshot(), nil
}
