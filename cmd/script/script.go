// Package script implements the script command.
package script

import (
	"context"

	"github.com/nan-gameware/wowdb/internal/cmdutil"
	"github.com/nan-gameware/wowdb/internal/config"
	"github.com/nan-gameware/wowdb/internal/script"
)

// Run loads the script at path and executes it.
func Run(ctx context.Context, path string, rt *cmdutil.Runtime) error {
	s, err := config.LoadScript(path)
	if err != nil {
		return err
	}
	opts := script.Options{
		Path:    config.StoragePath(),
		Fetcher: cmdutil.NewFetcher(rt),
	}
	if rt != nil {
		opts.Logger = rt.Logger
		opts.Metrics = rt.Metrics
		opts.Stdout = rt.Stdout
	}
	return script.Run(ctx, s, opts)
}
