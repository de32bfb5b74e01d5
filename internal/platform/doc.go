package platform

// Package platform contains OS and filesystem glue shared by the engine:
// atomic file writes, directory copies, filename sanitization, media format
// detection, and YouTube URL normalization helpers.
