package ros

import (
	"github.com/golang/geo/r3"
	"github.com/samber/lo"

	"go.viam.com/trajectory/path"
	"go.viam.com/trajectory/spatialmath"
	"go.viam.com/trajectory/updater"
)

// PoseFromMsg converts a stamped pose to a vehicle pose, taking the heading from the yaw of the
// orientation quaternion. A zero quaternion yields heading zero.
func PoseFromMsg(msg PoseStamped) spatialmath.Pose {
	q := msg.Pose.Orientation
	return spatialmath.NewPoseFromQuaternion(vectorFromMsg(msg.Pose.Position), q.X, q.Y, q.Z, q.W)
}

// WaypointsFromLane converts a lane to path waypoints. Speed comes from the waypoint's linear x
// velocity.
func WaypointsFromLane(lane Lane) []path.Waypoint {
	return lo.Map(lane.Waypoints, func(wp Waypoint, _ int) path.Waypoint {
		pose := PoseFromMsg(wp.Pose)
		return path.Waypoint{
			Position: pose.Point,
			Heading:  pose.Heading,
			Speed:    wp.Twist.Twist.Linear.X,
		}
	})
}

// LaneFromTrajectory converts a published trajectory to a lane in frameID.
func LaneFromTrajectory(traj updater.Trajectory, frameID string) Lane {
	header := Header{
		Seq:     uint32(traj.Seq),
		Stamp:   Stamp{Secs: traj.Stamp.Unix(), Nsecs: int64(traj.Stamp.Nanosecond())},
		FrameID: frameID,
	}
	return Lane{
		Header: header,
		Waypoints: lo.Map(traj.Waypoints, func(wp path.Waypoint, _ int) Waypoint {
			q := spatialmath.YawToQuat(wp.Heading)
			return Waypoint{
				Pose: PoseStamped{
					Header: header,
					Pose: Pose{
						Position:    Vector3{X: wp.Position.X, Y: wp.Position.Y, Z: wp.Position.Z},
						Orientation: Quaternion{X: q.Imag, Y: q.Jmag, Z: q.Kmag, W: q.Real},
					},
				},
				Twist: TwistStamped{
					Header: header,
					Twist:  Twist{Linear: Vector3{X: wp.Speed}},
				},
			}
		}),
	}
}

func vectorFromMsg(v Vector3) r3.Vector {
	return r3.Vector{X: v.X, Y: v.Y, Z: v.Z}
}
