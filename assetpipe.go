// Package assetpipe builds the front-end assets of a site: indented Sass is
// compiled to compressed, vendor-prefixed CSS and scripts are minified, both
// with source maps next to the output.
//
// # Tasks
//
// Each task compiles every matching source file and reports per-file
// failures without stopping:
//
//	cfg := assetpipe.DefaultConfig()
//	cfg.Root = "site"
//	res, err := assetpipe.CompileStyles(ctx, cfg)
//
// Build runs the styles and scripts tasks concurrently and combines their
// errors.
//
// # Watch mode
//
// Watch recompiles on change and pushes reloads to browsers connected over
// the LiveReload protocol:
//
//	err := assetpipe.Watch(ctx, cfg, func(res *assetpipe.TaskResult, err error) {
//		// report
//	})
//
// # CLI Tool
//
// The assetpipe command wraps these tasks. Install with:
//
//	go install github.com/yacobolo/assetpipe/cmd/assetpipe@latest
package assetpipe
