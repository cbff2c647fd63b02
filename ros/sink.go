package ros

import (
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"go.viam.com/trajectory/updater"
)

// JSONSink writes each trajectory as one Lane message per line, in the same envelope gobag
// produces. It is meant to be driven by a single publisher worker.
type JSONSink struct {
	enc     *json.Encoder
	topic   string
	frameID string
}

// NewJSONSink returns a sink writing to w. topic goes in each line's meta; frameID in each
// header.
func NewJSONSink(w io.Writer, topic, frameID string) *JSONSink {
	return &JSONSink{enc: json.NewEncoder(w), topic: topic, frameID: frameID}
}

// Deliver implements publish.Sink.
func (s *JSONSink) Deliver(ctx context.Context, traj updater.Trajectory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := Message[Lane]{
		Meta: MetaFromTime(s.topic, traj.Stamp),
		Data: LaneFromTrajectory(traj, s.frameID),
	}
	if err := s.enc.Encode(msg); err != nil {
		return errors.Wrap(err, "writing trajectory")
	}
	return nil
}
