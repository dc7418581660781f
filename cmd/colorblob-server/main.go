// Package main runs the colorblob daemon: a capture loop detecting color blobs in every frame and
// a TCP control channel for adjusting it.
package main

import (
	"context"

	"go.uber.org/zap"
	"go.viam.com/utils"

	"go.viam.com/colorblob/logging"
	"go.viam.com/colorblob/server"
)

var logger = logging.NewLogger("colorblob")

func main() {
	utils.ContextualMain(func(ctx context.Context, args []string, _ *zap.SugaredLogger) error {
		return server.RunServer(ctx, args, logger)
	}, logger.AsZap())
}
