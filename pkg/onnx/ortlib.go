package onnx

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// LibPathEnv overrides the ONNX Runtime shared library location.
const LibPathEnv = "WHISPEREDGE_ORT_LIB"

// ResolveLibPath returns the ONNX Runtime shared library to load.
// Search order:
//  1. explicit (from configuration)
//  2. the WHISPEREDGE_ORT_LIB environment variable
//  3. lib/<goos>-<goarch>/ and ../lib/<goos>-<goarch>/ next to the executable
//
// The working directory is never searched.
func ResolveLibPath(explicit string) (string, error) {
	if explicit != "" {
		return checkLibFile(explicit, "configured")
	}
	if env := os.Getenv(LibPathEnv); env != "" {
		return checkLibFile(env, LibPathEnv)
	}

	name := libFilename()
	platform := runtime.GOOS + "-" + runtime.GOARCH
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		for _, rel := range []string{
			filepath.Join("lib", platform, name),
			filepath.Join("..", "lib", platform, name),
		} {
			p := filepath.Join(dir, rel)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("onnx: %s not found next to the executable (set %s or model.ort_lib)", name, LibPathEnv)
}

func checkLibFile(path, source string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("onnx: %s library %q: %w", source, path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("onnx: %s library %q is a directory", source, path)
	}
	return path, nil
}

func libFilename() string {
	switch runtime.GOOS {
	case "darwin":
		return "libonnxruntime.dylib"
	case "windows":
		return "onnxruntime.dll"
	default:
		return "libonnxruntime.so"
	}
}
