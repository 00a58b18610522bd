package calibration

import (
	"log/slog"

	"github.com/ayusman/repcoach/internal/geometry"
	"github.com/ayusman/repcoach/internal/pose"
)

// NumConnections is the number of named bone connections measured during calibration.
const NumConnections = 20

// Connection is a named pair of landmarks whose distance is one body segment.
type Connection struct {
	From int
	To   int
	Name string
}

// Connections lists the body segments measured for per-joint scaling.
var Connections = [NumConnections]Connection{
	{pose.LeftShoulder, pose.RightShoulder, "shoulder-width"},
	{pose.LeftHip, pose.RightHip, "hip-width"},
	{pose.LeftShoulder, pose.LeftElbow, "left-upper-arm"},
	{pose.RightShoulder, pose.RightElbow, "right-upper-arm"},
	{pose.LeftElbow, pose.LeftWrist, "left-forearm"},
	{pose.RightElbow, pose.RightWrist, "right-forearm"},
	{pose.LeftShoulder, pose.LeftHip, "left-torso"},
	{pose.RightShoulder, pose.RightHip, "right-torso"},
	{pose.LeftHip, pose.LeftKnee, "left-thigh"},
	{pose.RightHip, pose.RightKnee, "right-thigh"},
	{pose.LeftKnee, pose.LeftAnkle, "left-shin"},
	{pose.RightKnee, pose.RightAnkle, "right-shin"},
	{pose.LeftWrist, pose.LeftIndex, "left-hand"},
	{pose.RightWrist, pose.RightIndex, "right-hand"},
	{pose.LeftAnkle, pose.LeftHeel, "left-foot"},
	{pose.RightAnkle, pose.RightHeel, "right-foot"},
	{pose.Nose, pose.LeftShoulder, "left-neck"},
	{pose.Nose, pose.RightShoulder, "right-neck"},
	{pose.LeftEar, pose.RightEar, "head-width"},
	{pose.LeftEye, pose.RightEye, "eye-width"},
}

// JointScale is the measured scale of one body segment.
type JointScale struct {
	ConnectionIndex int     `json:"connection_index"`
	Name            string  `json:"name"`
	IdealLength     float64 `json:"ideal_length"`
	UserLength      float64 `json:"user_length"`
	ScaleFactor     float64 `json:"scale_factor"`
	IsValid         bool    `json:"is_valid"`
}

// JointScaleTable holds the valid segment measurements of a calibration.
// Segments that could not be measured are left out.
type JointScaleTable []JointScale

// Lookup returns the entry for the named segment.
func (t JointScaleTable) Lookup(name string) (JointScale, bool) {
	for _, js := range t {
		if js.Name == name {
			return js, true
		}
	}
	return JointScale{}, false
}

// JointDistance returns the distance between two landmarks of p, or -1 when
// either landmark is below MinConfidence.
func JointDistance(p pose.Pose, from, to int) float64 {
	if !p.Visible(from, MinConfidence) || !p.Visible(to, MinConfidence) {
		return -1
	}
	return geometry.Distance(p.Position(from), p.Position(to))
}

func measureJointScales(reference pose.Pose) JointScaleTable {
	ideal := pose.IdealReference()
	table := make(JointScaleTable, 0, NumConnections)

	for i, conn := range Connections {
		user := JointDistance(reference, conn.From, conn.To)
		base := JointDistance(ideal, conn.From, conn.To)
		if user <= 0 || base <= 0 {
			slog.Default().Debug("joint scale skipped", "connection", conn.Name, "reason", "unmeasurable")
			continue
		}

		ratio := user / base
		if ratio <= 0.1 || ratio >= 10 {
			slog.Default().Debug("joint scale skipped", "connection", conn.Name, "ratio", ratio)
			continue
		}

		table = append(table, JointScale{
			ConnectionIndex: i,
			Name:            conn.Name,
			IdealLength:     base,
			UserLength:      user,
			ScaleFactor:     ratio,
			IsValid:         true,
		})
	}

	return table
}
