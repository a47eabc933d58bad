//go:build !windows

package discordipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
)

var runtimeDirEnv = []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"}

// Sandboxed installs place the socket one level down.
var sandboxSubdirs = []string{"", "app/com.discordapp.Discord", "snap.discord"}

func candidatePaths() []string {
	dirs := make([]string, 0, len(runtimeDirEnv)+1)
	seen := make(map[string]struct{})
	for _, key := range runtimeDirEnv {
		if dir := os.Getenv(key); dir != "" {
			dirs = append(dirs, dir)
		}
	}
	dirs = append(dirs, "/tmp")

	var paths []string
	for _, dir := range dirs {
		dir = filepath.Clean(dir)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		for _, sub := range sandboxSubdirs {
			for slot := 0; slot < socketSlots; slot++ {
				paths = append(paths, filepath.Join(dir, sub, slotName(slot)))
			}
		}
	}
	return paths
}

func dialPipe(ctx context.Context, path string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", path)
}
