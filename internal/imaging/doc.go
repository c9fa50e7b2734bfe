// Package imaging prepares photographs for tag decoding.
//
// It loads and scales frames, reduces colour frames to a single intensity
// channel, applies the smoothing pass and the local-mean adaptive threshold,
// and provides the area resampler shared by the codebook and the rectifier.
// EncodePNG and CompareChannels serve the interactive tools: the first turns
// a debug raster into base64 PNG, the second helps pick the grayscale channel.
// All operations work with standard Go image types and use a coordinate system
// where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward. Every image returned by this package has its bounds
// anchored at the origin.
//
// # Input Images
//
// Decoding operations accept 8-bit three-channel colour rasters only:
// *image.RGBA, *image.NRGBA, *image.YCbCr (JPEG) and *image.Paletted.
// Anything else (grayscale, 16-bit, CMYK, empty) is rejected with an error
// wrapping ErrInvalidImage; the batch driver logs it and moves on to the next
// frame.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless and never modify their inputs.
//
// # Binarization
//
// AdaptiveThreshold marks a pixel as foreground (255) when its intensity is
// greater than the mean of its blockSize x blockSize neighbourhood minus an
// offset. Neighbourhoods that extend past the frame replicate the border
// pixels. The running cost is O(width x height) regardless of the block size,
// which matters with the default block size of 1001.
package imaging
