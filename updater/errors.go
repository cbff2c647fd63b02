package updater

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/trajectory/spatialmath"
)

// ErrClosed is returned by intake methods once Close has been called.
var ErrClosed = errors.New("updater is closed")

// MalformedPoseError reports a pose with a non-finite component. The pose is discarded and the
// previous vehicle state kept.
type MalformedPoseError struct {
	Pose spatialmath.Pose
}

func (e *MalformedPoseError) Error() string {
	return fmt.Sprintf("malformed pose %v", e.Pose)
}
