package pose

import "github.com/ayusman/repcoach/internal/geometry"

// idealLandmarks is a front-facing standing pose recorded from a reference body.
// Calibration maps this body frame onto each user's proportions.
var idealLandmarks = [NumLandmarks]Landmark{
	{geometry.Point3{X: 533.95, Y: 716.44, Z: -806.84}, 0.998},
	{geometry.Point3{X: 551.92, Y: 683.25, Z: -781.32}, 0.997},
	{geometry.Point3{X: 565.87, Y: 683.09, Z: -780.78}, 0.997},
	{geometry.Point3{X: 577.93, Y: 683.57, Z: -780.78}, 0.996},
	{geometry.Point3{X: 510.55, Y: 685.86, Z: -784.04}, 0.997},
	{geometry.Point3{X: 496.16, Y: 687.16, Z: -784.04}, 0.996},
	{geometry.Point3{X: 482.42, Y: 688.38, Z: -783.49}, 0.996},
	{geometry.Point3{X: 589.20, Y: 699.91, Z: -536.17}, 0.996},
	{geometry.Point3{X: 466.93, Y: 706.08, Z: -545.13}, 0.996},
	{geometry.Point3{X: 560.92, Y: 752.43, Z: -700.42}, 0.999},
	{geometry.Point3{X: 508.23, Y: 752.95, Z: -705.31}, 0.999},
	{geometry.Point3{X: 370.82, Y: 919.73, Z: -385.50}, 0.999},
	{geometry.Point3{X: 693.60, Y: 920.75, Z: -316.00}, 0.999},
	{geometry.Point3{X: 336.08, Y: 1191.24, Z: -282.34}, 0.990},
	{geometry.Point3{X: 720.89, Y: 1193.58, Z: -169.68}, 0.986},
	{geometry.Point3{X: 330.49, Y: 1429.43, Z: -464.23}, 0.971},
	{geometry.Point3{X: 722.42, Y: 1414.38, Z: -373.01}, 0.981},
	{geometry.Point3{X: 318.39, Y: 1502.76, Z: -532.92}, 0.938},
	{geometry.Point3{X: 720.87, Y: 1484.23, Z: -432.74}, 0.964},
	{geometry.Point3{X: 342.74, Y: 1504.08, Z: -597.26}, 0.942},
	{geometry.Point3{X: 699.98, Y: 1484.75, Z: -510.38}, 0.968},
	{geometry.Point3{X: 350.24, Y: 1478.91, Z: -491.38}, 0.959},
	{geometry.Point3{X: 698.17, Y: 1457.54, Z: -407.76}, 0.976},
	{geometry.Point3{X: 430.32, Y: 1411.64, Z: -31.36}, 0.997},
	{geometry.Point3{X: 615.85, Y: 1415.63, Z: 30.20}, 0.997},
	{geometry.Point3{X: 457.48, Y: 1767.01, Z: 75.61}, 0.890},
	{geometry.Point3{X: 587.38, Y: 1717.72, Z: 165.06}, 0.841},
	{geometry.Point3{X: 450.04, Y: 1991.86, Z: 476.72}, 0.197},
	{geometry.Point3{X: 573.56, Y: 1919.36, Z: 794.89}, 0.199},
	{geometry.Point3{X: 452.99, Y: 2026.35, Z: 510.11}, 0.136},
	{geometry.Point3{X: 554.81, Y: 1949.91, Z: 855.16}, 0.168},
	{geometry.Point3{X: 450.04, Y: 1991.86, Z: 476.72}, 0.197},
	{geometry.Point3{X: 573.56, Y: 1919.36, Z: 794.89}, 0.199},
}

// IdealReference returns the built-in ideal body pose.
func IdealReference() Pose {
	return Pose{Landmarks: idealLandmarks, Timestamp: 1000}
}
