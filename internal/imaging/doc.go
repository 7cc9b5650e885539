// Package imaging implements the per-image side of an organoid tracking run:
// finding input images, preparing them for the detection network, and writing
// annotated copies of the originals.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward.
//
// # Input Discovery
//
// Scan walks an input directory recursively and returns every file whose base
// name matches a glob (normally "*.jpg"), skipping any path that contains one of
// the exclusion substrings. Annotated outputs carry "_detected" in their name,
// so a second run over the same directory never re-processes its own results.
// Paths are returned sorted so that runs are reproducible.
//
// # Preprocessing
//
// Preprocess turns a decoded image into the network input:
//
//  1. Contrast: each channel is stretched around its own mean,
//     v' = clip((v - mean) * factor + mean, 0, 255).
//  2. Scale: the shorter side is scaled to minSide unless that would make the
//     longer side exceed maxSide, in which case the longer side is scaled to
//     maxSide. The factor is kept on the Tensor.
//  3. Resize: bilinear resampling to the scaled size.
//  4. Normalize: pixels are reordered to BGR, converted to float32 and the
//     per-channel mean pixel is subtracted.
//
// Boxes predicted on the tensor are divided by Tensor.Scale to map them back to
// the coordinates of the original image.
//
// # Annotation
//
// DrawBoxes paints rectangle outlines onto a copy of the original image and
// SaveAnnotated writes it as "<name>_detected.png" into the results directory.
//
// # Error Handling
//
// Functions return wrapped errors for unreadable or undecodable files and for
// encoding failures. Out-of-bounds boxes are clipped, not rejected.
package imaging
