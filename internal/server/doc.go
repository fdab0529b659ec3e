// Package server implements the MCP (Model Context Protocol) front-end of the
// view gallery.
//
// The server owns one viewset.Set. Clients load a source image, switch
// between its derived views, retune the highlight and reduce views, and pull
// rendered PNGs, contact sheets and color readouts back out.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Lifecycle:
//   - view_load: Load an image and compute every view
//   - view_unload: Drop every view
//   - view_list: Report the views present and the current one
//
// Selection and reconfiguration:
//   - view_select: Change the current view
//   - view_highlight: Recompute highlight with a new threshold
//   - view_reduce: Recompute reduce with a new palette size
//
// Display:
//   - view_render: Encode a view as PNG
//   - view_gallery: Contact sheet of every view
//   - view_sample_color, view_sample_colors_multi: Pixel readout
//   - view_dominant_colors: Color palette of a view
//   - view_compare: Pixel difference between two views
//
// Files:
//   - view_save: Write one view to disk
//   - view_export: Write every view to a directory
//
// Tools that take an optional "view" argument act on the current view when
// it is omitted.
//
// # Notifications
//
// Whenever the current view changes, an entry is recomputed or the set is
// emptied, a "notifications/message" is written ahead of the response that
// caused it. Its data carries the event and the view name.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses:
//   - -32602: malformed arguments, unknown view names, out-of-domain values
//   - -32000: every other failure (no image loaded, IO errors)
//
// The message is a short summary and data holds the Go error string.
package server
