// Package raster provides the floating-point RGB image buffer shared by the
// kernels, the filter library and the view set.
//
// # Coordinate System
//
// Pixels are stored row-major with the origin at the bottom-left corner:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = bottom row)
//
// This matches the display boundary, which draws row 0 at the bottom of the
// canvas. FromImage and ToNRGBA convert to and from the top-left origin used
// by the standard image package.
//
// # Channel Range
//
// Channels are float64 values conceptually in [0, 1]. Kernels that compute
// new values are responsible for clamping them; the buffer itself stores
// whatever it is given so that legacy output can be reproduced exactly.
//
// # Ownership
//
// An Image is a plain value with no internal locking. Kernels treat their
// inputs as read-only and always allocate a fresh Image for their result.
// Use Copy to obtain an independent buffer.
package raster
