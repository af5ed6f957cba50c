package core

// Version is the polysplit version, set at build time.
var Version = "0.0.0"

// GitSHA is the git commit the binary was built from, set at build time.
var GitSHA = "0000000"

// DefaultMaxVertices is the vertex bound used when none is given.
const DefaultMaxVertices = 256

// The vertex bound slider of the upload form. The splitter itself accepts
// any positive bound.
const (
	SliderMin  = 50
	SliderMax  = 1000
	SliderStep = 50
)

// NumThreads is the number of features split at once. Zero means one per
// cpu.
var NumThreads int

// ShowDebugMessages turns on the per feature progress and fallback debug
// messages.
var ShowDebugMessages = false

// LegacyWinding writes exterior rings clockwise instead of following the
// RFC 7946 right-hand rule.
var LegacyWinding = false
