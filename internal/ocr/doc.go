// Package ocr produces word detections from page rasters using Tesseract.
//
// The recognizer wraps gosseract/v2 and reports each recognized word as a
// layout.Detection: a four-corner quad in raster pixels, the word text, and
// Tesseract's raw 0-100 confidence. Classification against a threshold,
// line grouping and region merging happen later in the layout package.
//
// # Prerequisites
//
// Tesseract and the language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Languages
//
// Languages are Tesseract codes joined with "+", e.g. "eng+deu". The default
// is "eng".
//
// # Concurrency
//
// A gosseract client is not safe for concurrent use, so every call opens
// and closes its own. One Tesseract value may serve many pages in parallel.
package ocr
