package config

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

const governorDirName = ".governor"

// ResolveSocketPath determines the daemon socket endpoint. Precedence:
// explicit SocketPath, then derivation from GovernorDir, then derivation
// from the working directory (descending into .governor/ when the cwd is a
// project root). The derivation must match the daemon's own algorithm or
// client and daemon rendezvous on different sockets.
func (s Settings) ResolveSocketPath() string {
	if s.SocketPath != "" {
		return s.SocketPath
	}

	dir := s.GovernorDir
	if dir == "" {
		dir, _ = os.Getwd()
		if candidate := filepath.Join(dir, governorDirName); dirExists(candidate) {
			dir = candidate
		}
	}
	return derivedSocketPath(dir)
}

// derivedSocketPath computes $XDG_RUNTIME_DIR/governor-<hash>.sock, where
// hash is the first 12 hex chars of sha256 over the absolute governor dir.
func derivedSocketPath(governorDir string) string {
	abs, err := filepath.Abs(governorDir)
	if err != nil {
		abs = governorDir
	}
	sum := sha256.Sum256([]byte(abs))
	hash := hex.EncodeToString(sum[:])[:12]

	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = os.TempDir()
	}
	return filepath.Join(runtimeDir, "governor-"+hash+".sock")
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
