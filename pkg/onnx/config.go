package onnx

// Config configures a Session.
type Config struct {
	Spec Spec

	// LibPath is the ONNX Runtime shared library. Empty defers to
	// ResolveLibPath.
	LibPath string

	// IntraOpThreads limits the threads used inside one operator. Zero
	// keeps the runtime default.
	IntraOpThreads int
}
