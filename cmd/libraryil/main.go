package main

import (
	"context"

	"libraryil/cmd/libraryil/commands"
	"libraryil/lib/telemetry"
)

func main() {
	ctx := context.Background()
	tel, err := telemetry.SetupFromEnv(ctx, "libraryil")
	if err == nil {
		defer tel.Shutdown(ctx)
	}
	commands.ExecuteContext(ctx)
}
