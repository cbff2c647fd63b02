package ros

import "time"

// Meta is the envelope gobag adds to every decoded message: the bag receive time and,
// optionally, the topic.
type Meta struct {
	Topic string `json:"topic,omitempty"`
	Secs  int64  `json:"secs"`
	Nsecs int64  `json:"nsecs"`
}

// Time returns the receive time.
func (m Meta) Time() time.Time {
	return time.Unix(m.Secs, m.Nsecs)
}

// MetaFromTime is the inverse of Meta.Time.
func MetaFromTime(topic string, t time.Time) Meta {
	return Meta{Topic: topic, Secs: t.Unix(), Nsecs: int64(t.Nanosecond())}
}

// Message is one line of gobag JSON output.
type Message[T any] struct {
	Meta Meta `json:"meta"`
	Data T    `json:"data"`
}

// Stamp is a ROS time.
type Stamp struct {
	Secs  int64 `json:"secs"`
	Nsecs int64 `json:"nsecs"`
}

// Header is std_msgs/Header.
type Header struct {
	Seq     uint32 `json:"seq"`
	Stamp   Stamp  `json:"stamp"`
	FrameID string `json:"frame_id"`
}

// Vector3 is geometry_msgs/Vector3 and geometry_msgs/Point.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is geometry_msgs/Quaternion.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Pose is geometry_msgs/Pose.
type Pose struct {
	Position    Vector3    `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// PoseStamped is geometry_msgs/PoseStamped, published on the current pose topic.
type PoseStamped struct {
	Header Header `json:"header"`
	Pose   Pose   `json:"pose"`
}

// Twist is geometry_msgs/Twist.
type Twist struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}

// TwistStamped is geometry_msgs/TwistStamped.
type TwistStamped struct {
	Header Header `json:"header"`
	Twist  Twist  `json:"twist"`
}

// Waypoint is styx_msgs/Waypoint.
type Waypoint struct {
	Pose  PoseStamped  `json:"pose"`
	Twist TwistStamped `json:"twist"`
}

// Lane is styx_msgs/Lane, used for both the base path and the published trajectory.
type Lane struct {
	Header    Header     `json:"header"`
	Waypoints []Waypoint `json:"waypoints"`
}

// Int32 is std_msgs/Int32, used for the stop waypoint index. -1 means no stop.
type Int32 struct {
	Data int32 `json:"data"`
}
