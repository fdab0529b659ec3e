// Package imaging is the file and display boundary of the view tools.
//
// It decodes image files into raster images (through a bounded cache of
// decoded files), writes views back to disk, and turns views into encoded
// PNGs, contact sheets and color readouts for clients.
//
// # Coordinate System
//
// Functions taking pixel coordinates use the raster convention: (0,0) is the
// bottom-left pixel, X increases rightward and Y increases upward. Rendered
// and saved images are written top row first, as every image format expects.
//
// # Thread Safety
//
// Cache is safe for concurrent use. The other functions only read their
// arguments.
//
// # Error Handling
//
// Read and write failures wrap ErrIOFailure together with the underlying
// error, so both errors.Is(err, ErrIOFailure) and errors.Is(err,
// os.ErrNotExist) work on a missing file.
package imaging
