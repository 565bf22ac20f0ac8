// Package colmap drives the external COLMAP structure-from-motion tool to
// produce a sparse camera/point model from a folder of images.
//
// The pipeline is a fixed sequence of four subprocess invocations:
// feature extraction, feature matching, mapping, and model format
// conversion. The first three are fatal on failure; conversion is
// best-effort because the binary-format model the mapper wrote remains
// usable without the text copy.
//
// Stages execute through the Executor interface. The Local executor runs a
// resolved COLMAP binary directly; the dockerrun package provides an
// alternative that runs each stage in a container.
package colmap
