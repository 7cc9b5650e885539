// Package pipeline runs one detection-and-tracking job over an input directory.
//
// A Runner processes every input image in lexical order:
//
//	load -> preprocess -> detect -> rescale -> threshold -> draw & save -> aggregate
//
// Once all images are done it links the detections into tracks, filters
// short-lived tracks, writes results/results.csv and hands the Summary to each
// configured Exporter.
//
// The Runner is single-threaded. The context is checked between images, so a
// cancelled run stops after the current image and writes nothing further.
package pipeline
