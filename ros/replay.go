package ros

import (
	"context"
	"sort"
	"time"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"

	"go.viam.com/trajectory/config"
	"go.viam.com/trajectory/logging"
	"go.viam.com/trajectory/path"
	"go.viam.com/trajectory/spatialmath"
)

// Recording is the updater's input extracted from a bag.
type Recording struct {
	Poses []Message[PoseStamped]
	Paths []Message[Lane]
	Stops []Message[Int32]
}

// RecordingFromBag parses the pose, path and stop topics out of rb.
func RecordingFromBag(rb *rosbag.RosBag, topics config.Topics) (*Recording, error) {
	if err := ParseTopics(rb, topics.Pose, topics.Path, topics.Stop); err != nil {
		return nil, err
	}
	var (
		rec Recording
		err error
	)
	if rec.Poses, err = MessagesForTopic[PoseStamped](rb, topics.Pose); err != nil {
		return nil, err
	}
	if rec.Paths, err = MessagesForTopic[Lane](rb, topics.Path); err != nil {
		return nil, err
	}
	if rec.Stops, err = MessagesForTopic[Int32](rb, topics.Stop); err != nil {
		return nil, err
	}
	return &rec, nil
}

// A Target receives replayed events. *updater.Updater is one.
type Target interface {
	LoadPath(ctx context.Context, points []path.Waypoint) error
	UpdateStop(ctx context.Context, index int) error
	UpdatePose(ctx context.Context, pose spatialmath.Pose) error
}

// ReplayStats counts what a replay fed to its target.
type ReplayStats struct {
	Poses        int
	Paths        int
	Stops        int
	RejectedPath int
}

type eventKind int

// Ordered so that at equal receive times the path and stop apply before the pose.
const (
	pathEvent eventKind = iota
	stopEvent
	poseEvent
)

type replayEvent struct {
	at    time.Time
	kind  eventKind
	index int
}

// Replay feeds rec to target in receive-time order. Paths the target rejects because one is
// already loaded, or because they are empty, are logged and counted; any other target error
// ends the replay.
func Replay(ctx context.Context, rec *Recording, target Target, logger logging.Logger) (ReplayStats, error) {
	events := make([]replayEvent, 0, len(rec.Poses)+len(rec.Paths)+len(rec.Stops))
	for i, m := range rec.Paths {
		events = append(events, replayEvent{at: m.Meta.Time(), kind: pathEvent, index: i})
	}
	for i, m := range rec.Stops {
		events = append(events, replayEvent{at: m.Meta.Time(), kind: stopEvent, index: i})
	}
	for i, m := range rec.Poses {
		events = append(events, replayEvent{at: m.Meta.Time(), kind: poseEvent, index: i})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].at.Equal(events[j].at) {
			return events[i].at.Before(events[j].at)
		}
		return events[i].kind < events[j].kind
	})

	var stats ReplayStats
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		switch ev.kind {
		case pathEvent:
			stats.Paths++
			err := target.LoadPath(ctx, WaypointsFromLane(rec.Paths[ev.index].Data))
			switch {
			case err == nil:
			case errors.Is(err, path.ErrAlreadyLoaded), errors.Is(err, path.ErrEmptyPath):
				stats.RejectedPath++
				logger.Warnw("path message rejected", "at", ev.at, "error", err)
			default:
				return stats, err
			}
		case stopEvent:
			stats.Stops++
			if err := target.UpdateStop(ctx, int(rec.Stops[ev.index].Data.Data)); err != nil {
				return stats, err
			}
		case poseEvent:
			stats.Poses++
			if err := target.UpdatePose(ctx, PoseFromMsg(rec.Poses[ev.index].Data)); err != nil {
				return stats, err
			}
		}
	}
	logger.Infow("replay finished", "poses", stats.Poses, "paths", stats.Paths, "stops", stats.Stops)
	return stats, nil
}
