// Package layout turns per-token text detections into consolidated text regions.
//
// The engine works on one page at a time and has no state of its own beyond
// its options. Processing follows a fixed pipeline:
//
//  1. Classification: each detection becomes a Token; low-confidence or empty
//     text is replaced by a fixed sentinel label (Classify).
//  2. Line grouping: tokens are ordered top-to-bottom, left-to-right and
//     clustered into text lines sharing a baseline (GroupLines).
//  3. Region merging: line boxes that touch or nearly touch are folded together
//     until no pair qualifies (Merge).
//  4. Barcode passthrough: barcode regions are appended after merging and never
//     take part in grouping or merging.
//
// # Engine Profiles
//
// Recognition engines report confidence on different scales. A Profile pairs
// an engine family with its threshold: ProfileTesseract uses 45 on a 0-100
// scale and ProfileEasyOCR uses 0.45 on a 0-1 scale. The threshold is never
// inferred from the data.
//
// # Thresholds
//
// Grouping and merging thresholds are raster pixels at whatever resolution
// detection ran on. They are not scaled with the image.
//
// The default line threshold of 0.1 px is kept from the system this engine
// replaces. It is sub-pixel, so in practice only tokens with identical top
// edges share a line. Tune GroupOptions.LineThreshold rather than relying on it.
//
// # Concurrency
//
// All functions are pure. Merge copies its input before working on it, so
// callers may process different pages concurrently.
package layout
