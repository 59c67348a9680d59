// Package whisperx wraps the WhisperX speech-to-text CLI, run through uvx.
//
// This package handles:
//   - Audio track extraction from a video container (ffmpeg, mono 16kHz WAV)
//   - WhisperX transcription with a forced language
//   - Transcript text extraction from the JSON output
//
// A Service is built once per process. Its readiness probe (uvx on PATH) runs
// on first use and the outcome is memoized.
package whisperx
