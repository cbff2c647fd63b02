// Package updater turns a stream of vehicle poses into lookahead trajectories over a loaded
// reference path.
//
// All inbound events (poses, path loads, stop positions) are queued in arrival order and handled
// by a single worker, so a cycle always sees a consistent vehicle state, path snapshot and stop
// constraint. Trajectories leave through a depth-1 publisher; a slow consumer never stalls the
// worker.
package updater

import (
	"context"
	"sync"
	"time"

	clk "github.com/benbjohnson/clock"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"
	"golang.org/x/time/rate"

	"go.viam.com/trajectory/config"
	"go.viam.com/trajectory/logging"
	"go.viam.com/trajectory/path"
	"go.viam.com/trajectory/planning"
	"go.viam.com/trajectory/publish"
	"go.viam.com/trajectory/spatialmath"
	"go.viam.com/trajectory/velocity"
)

const defaultLatencyWindow = 100

// Trajectory is one published lookahead window.
type Trajectory struct {
	// Seq increases by one per published trajectory, starting at 1.
	Seq   uint64
	Stamp time.Time
	// Start is the path index of Waypoints[0].
	Start     int
	Waypoints []path.Waypoint
}

// Diagnostics counts recovered errors by kind.
type Diagnostics struct {
	MalformedPoses   uint64
	EmptyPathSkips   uint64
	CycleErrors      uint64
	RecoveredDropped uint64
}

// Stats describe the updater's recent work.
type Stats struct {
	State       State
	Cycles      uint64
	LastIndex   int
	LastPose    spatialmath.Pose
	HasPose     bool
	LatencyMean time.Duration
	LatencyP99  time.Duration
	Publisher   publish.Stats
}

// An Option customizes an Updater.
type Option func(*Updater)

// WithClock replaces the wall clock, typically with clock.NewMock() in tests.
func WithClock(clock clk.Clock) Option {
	return func(u *Updater) {
		u.clock = clock
	}
}

// WithRecoveredErrors makes Recovered return a channel buffering up to size errors. When the
// channel is full further errors are counted in Diagnostics.RecoveredDropped and discarded.
func WithRecoveredErrors(size int) Option {
	return func(u *Updater) {
		u.recovered = make(chan error, size)
	}
}

// WithLatencyWindow sets how many recent cycle latencies feed Stats.
func WithLatencyWindow(n int) Option {
	return func(u *Updater) {
		if n > 0 {
			u.latencyWindow = n
		}
	}
}

type poseEvent struct {
	pose spatialmath.Pose
}

type loadEvent struct {
	points []path.Waypoint
	reply  chan error
}

type stopEvent struct {
	index int
}

type flushEvent struct {
	reply chan struct{}
}

// Updater runs the locate, build, assign and publish cycle.
type Updater struct {
	cfg       config.Config
	store     *path.Store
	locate    planning.Locator
	publisher *publish.Publisher[Trajectory]
	logger    logging.Logger
	clock     clk.Clock

	events  chan interface{}
	closed  chan struct{}
	workers *goutils.StoppableWorkers

	state atomic.Int32

	// owned by the worker
	stopIndex int
	seq       uint64

	mu            sync.Mutex
	vehicle       spatialmath.Pose
	hasPose       bool
	diag          Diagnostics
	cycles        uint64
	lastIndex     int
	latencies     []float64
	latencyNext   int
	latencyWindow int

	recovered     chan error
	warnSometimes rate.Sometimes

	closeOnce sync.Once
	failOnce  sync.Once
	done      chan struct{}
	err       atomic.Error
}

// New validates cfg and starts an updater delivering to sink. A nil store is replaced by an empty
// one using the configured reload policy; a store that is already loaded starts the updater in
// Ready.
func New(
	cfg config.Config,
	store *path.Store,
	sink publish.Sink[Trajectory],
	logger logging.Logger,
	opts ...Option,
) (*Updater, error) {
	if err := cfg.Validate("updater"); err != nil {
		return nil, err
	}
	if store == nil {
		store = path.NewStore(cfg.Reload())
	}

	u := &Updater{
		cfg:           cfg,
		store:         store,
		locate:        planning.LocatorFor(cfg.HeadingAwareSearch),
		logger:        logger,
		clock:         clk.New(),
		events:        make(chan interface{}, cfg.PoseQueueSize),
		closed:        make(chan struct{}),
		stopIndex:     velocity.NoStop,
		lastIndex:     -1,
		latencyWindow: defaultLatencyWindow,
		warnSometimes: rate.Sometimes{First: 1, Interval: 5 * time.Second},
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(u)
	}
	if store.IsLoaded() {
		u.state.Store(int32(Ready))
	}

	u.publisher = publish.New[Trajectory](sink, logger.Sublogger("publisher"))
	u.workers = goutils.NewBackgroundStoppableWorkers(u.processEvents, u.watchPublisher)
	return u, nil
}

// UpdatePose queues a vehicle pose. It blocks only while the intake queue is full.
func (u *Updater) UpdatePose(ctx context.Context, pose spatialmath.Pose) error {
	return u.enqueue(ctx, poseEvent{pose: pose})
}

// UpdateStop sets the path index at which the vehicle must come to rest. velocity.NoStop, or any
// negative index, clears it. It applies to every pose queued after it.
func (u *Updater) UpdateStop(ctx context.Context, index int) error {
	return u.enqueue(ctx, stopEvent{index: index})
}

// LoadPath loads the reference path and waits for the result, so that path.ErrAlreadyLoaded and
// path.ErrEmptyPath reach the caller.
func (u *Updater) LoadPath(ctx context.Context, points []path.Waypoint) error {
	reply := make(chan error, 1)
	if err := u.enqueue(ctx, loadEvent{points: points, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-u.closed:
		return ErrClosed
	}
}

// Flush waits until every event queued before it has been handled and the resulting trajectory,
// if any, has left the publisher.
func (u *Updater) Flush(ctx context.Context) error {
	reply := make(chan struct{})
	if err := u.enqueue(ctx, flushEvent{reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
	case <-ctx.Done():
		return ctx.Err()
	case <-u.closed:
		return ErrClosed
	}
	return u.publisher.Flush(ctx)
}

func (u *Updater) enqueue(ctx context.Context, ev interface{}) error {
	select {
	case <-u.closed:
		return ErrClosed
	default:
	}
	select {
	case u.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-u.closed:
		return ErrClosed
	}
}

func (u *Updater) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-u.events:
			switch ev := ev.(type) {
			case poseEvent:
				u.cycle(ctx, ev.pose)
			case loadEvent:
				ev.reply <- u.load(ev.points)
			case stopEvent:
				u.setStop(ev.index)
			case flushEvent:
				close(ev.reply)
			}
		}
	}
}

func (u *Updater) watchPublisher(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-u.publisher.Failed():
		err := u.publisher.Err()
		u.logger.Errorw("trajectory output failed, updater can no longer publish", "error", err)
		u.fail(err)
	}
}

func (u *Updater) load(points []path.Waypoint) error {
	if err := u.store.Load(points); err != nil {
		return err
	}
	if u.state.CompareAndSwap(int32(Uninitialized), int32(Ready)) {
		u.logger.Infow("path loaded", "waypoints", len(points))
	} else {
		u.logger.Infow("path replaced", "waypoints", len(points))
	}
	return nil
}

func (u *Updater) setStop(index int) {
	if index < 0 {
		index = velocity.NoStop
	}
	if index != u.stopIndex {
		u.logger.Debugw("stop position changed", "from", u.stopIndex, "to", index)
	}
	u.stopIndex = index
}

// cycle runs one locate, build, assign and publish pass for pose.
func (u *Updater) cycle(ctx context.Context, pose spatialmath.Pose) {
	ctx, span := trace.StartSpan(ctx, "updater::Updater::cycle")
	defer span.End()
	began := u.clock.Now()

	if !pose.IsFinite() {
		u.recover(ctx, &MalformedPoseError{Pose: pose})
		return
	}
	u.mu.Lock()
	u.vehicle = pose
	u.hasPose = true
	u.mu.Unlock()

	snapshot := u.store.Snapshot()
	if snapshot.Len() == 0 {
		u.recover(ctx, path.ErrEmptyPath)
		return
	}

	traj, err := u.plan(snapshot, pose)
	if err != nil {
		u.recover(ctx, err)
		return
	}
	u.publisher.Offer(traj)
	u.state.Store(int32(Publishing))

	u.mu.Lock()
	u.cycles++
	u.lastIndex = traj.Start
	u.recordLatencyLocked(u.clock.Since(began))
	u.mu.Unlock()
}

func (u *Updater) plan(snapshot *path.Path, pose spatialmath.Pose) (Trajectory, error) {
	start, err := u.locate(snapshot, pose)
	if err != nil {
		return Trajectory{}, err
	}
	window, err := planning.Build(snapshot, start, u.cfg.LookaheadCount)
	if err != nil {
		return Trajectory{}, err
	}
	policy := velocity.PolicyFor(u.cfg.CruiseSpeed, u.cfg.MaxDeceleration, stopOffset(u.stopIndex, start, snapshot.Len()))
	points, err := velocity.Assign(window, policy)
	if err != nil {
		return Trajectory{}, err
	}
	u.seq++
	return Trajectory{
		Seq:       u.seq,
		Stamp:     u.clock.Now(),
		Start:     start,
		Waypoints: points,
	}, nil
}

// stopOffset converts a path index into a position within a window starting at start. A stop
// behind the vehicle wraps to the far side of the path.
func stopOffset(stop, start, n int) int {
	if stop < 0 || stop >= n {
		return velocity.NoStop
	}
	return ((stop-start)%n + n) % n
}

func (u *Updater) recover(ctx context.Context, err error) {
	var malformed *MalformedPoseError
	u.mu.Lock()
	switch {
	case errors.As(err, &malformed):
		u.diag.MalformedPoses++
	case errors.Is(err, path.ErrEmptyPath):
		u.diag.EmptyPathSkips++
	default:
		u.diag.CycleErrors++
	}
	diag := u.diag
	u.mu.Unlock()

	switch {
	case malformed != nil:
		u.warnSometimes.Do(func() {
			u.logger.Warnw("ignoring malformed pose", "error", err, "total", diag.MalformedPoses)
		})
	case errors.Is(err, path.ErrEmptyPath):
		u.logger.CDebugw(ctx, "no path loaded, skipping cycle")
	default:
		u.logger.Errorw("cycle failed", "error", err)
	}

	if u.recovered == nil {
		return
	}
	select {
	case u.recovered <- err:
	default:
		u.mu.Lock()
		u.diag.RecoveredDropped++
		u.mu.Unlock()
	}
}

func (u *Updater) recordLatencyLocked(d time.Duration) {
	if len(u.latencies) < u.latencyWindow {
		u.latencies = append(u.latencies, d.Seconds())
		return
	}
	u.latencies[u.latencyNext] = d.Seconds()
	u.latencyNext = (u.latencyNext + 1) % u.latencyWindow
}

// State returns the lifecycle state.
func (u *Updater) State() State {
	return State(u.state.Load())
}

// Diagnostics returns the recovered error counters.
func (u *Updater) Diagnostics() Diagnostics {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.diag
}

// Recovered returns the channel recovered errors are sent to, or nil unless WithRecoveredErrors
// was given.
func (u *Updater) Recovered() <-chan error {
	return u.recovered
}

// Stats returns a snapshot of cycle counters and latency over the recent window.
func (u *Updater) Stats() Stats {
	u.mu.Lock()
	out := Stats{
		Cycles:    u.cycles,
		LastIndex: u.lastIndex,
		LastPose:  u.vehicle,
		HasPose:   u.hasPose,
	}
	latencies := stats.Float64Data(append([]float64(nil), u.latencies...))
	u.mu.Unlock()

	out.State = u.State()
	out.Publisher = u.publisher.Stats()
	if latencies.Len() > 0 {
		if mean, err := latencies.Mean(); err == nil {
			out.LatencyMean = secondsToDuration(mean)
		}
		if p99, err := latencies.Percentile(99); err == nil {
			out.LatencyP99 = secondsToDuration(p99)
		}
	}
	return out
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Store returns the path store the updater reads from.
func (u *Updater) Store() *path.Store {
	return u.store
}

func (u *Updater) fail(err error) {
	u.failOnce.Do(func() {
		u.err.Store(err)
		close(u.done)
	})
}

// Done is closed when the updater hits a fatal fault or is closed.
func (u *Updater) Done() <-chan struct{} {
	return u.done
}

// Err returns the fatal fault, if any.
func (u *Updater) Err() error {
	return u.err.Load()
}

// Close stops intake and the worker. A cycle already running finishes first. The path store is
// left as it is. Close returns the fatal fault, if one occurred.
func (u *Updater) Close() error {
	u.closeOnce.Do(func() {
		close(u.closed)
		u.workers.Stop()
		u.publisher.Close()
		u.failOnce.Do(func() {
			close(u.done)
		})
	})
	return u.Err()
}
