// Package imaging loads page rasters and produces the derived images the
// extraction pipeline writes: dpi-rescaled rasters, region crops and
// review overlays.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Region boxes from the
// layout package are floats; PixelRect snaps them outward onto the pixel
// grid before any pixel work.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The other functions never modify
// their input image and may run concurrently.
//
// # Libraries
//
// Decoding and cropping use disintegration/imaging, dpi resizing and PNG
// output use bild, overlay colors are parsed with go-colorful and labels
// are drawn with the x/image basic font.
package imaging
