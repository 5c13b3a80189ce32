// Package producer defines the contract between the batch runner and the
// remote generators that turn job parameters into artifact bytes.
//
// A Producer is opaque to the runner: it receives the job's Parameters
// verbatim and returns bytes or an error tagged with one of the markers in
// this package. Variants live in subpackages (image, audio) and are selected
// once per job through a Registry keyed by Kind when the catalog is built.
package producer
