//go:build windows

package discordipc

import (
	"context"
	"net"

	"github.com/Microsoft/go-winio"
)

func candidatePaths() []string {
	paths := make([]string, 0, socketSlots)
	for slot := 0; slot < socketSlots; slot++ {
		paths = append(paths, `\\.\pipe\`+slotName(slot))
	}
	return paths
}

func dialPipe(ctx context.Context, path string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, path)
}
