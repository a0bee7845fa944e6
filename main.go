/*
skinio exports and imports per-vertex skin weights.
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/cmd"
	"github.com/tenghaowang/Vertex-Based-Skin-Exporter/engine/core"
)

func main() {
	// cancel on system calls, import stops before writing the deformer
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		core.LogError(err.Error())
		stop()
		os.Exit(1)
	}
}
