// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size)
//
// Parse decodes captured output; the frames package runs the binary.
// Stream.FrameCount derives the total frame count used to position sampled
// frames.
package ffprobe
