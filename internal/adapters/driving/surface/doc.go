// Package surface is an immediate-mode raster backend.
//
// Every snapshot is laid out and painted with gogpu/gg into an RGBA frame
// starting at the resolved scroll anchor. Frames go to a FrameSink; the
// default sink writes PNG files, which makes the backend usable headless.
package surface
