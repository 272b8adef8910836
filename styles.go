package assetpipe

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yacobolo/assetpipe/internal/prefix"
	"github.com/yacobolo/assetpipe/internal/sass"
	"github.com/yacobolo/assetpipe/internal/sourcemap"
)

// CompileStyles compiles every style source except partials into compressed,
// vendor-prefixed CSS under StyleOutput, keeping the source directory
// layout. A file that fails to compile is skipped and its error is returned
// together with the others once all files have been processed.
func CompileStyles(ctx context.Context, cfg Config) (*TaskResult, error) {
	start := time.Now()
	res := &TaskResult{Task: TaskStyles}
	log := cfg.logger().Named(string(TaskStyles))

	if err := ctx.Err(); err != nil {
		return res.done(start, err)
	}

	pre, err := prefix.New(cfg.Browsers)
	if err != nil {
		return res.done(start, fmt.Errorf("browsers: %w", err))
	}

	sc, err := newScanner(cfg.Root, cfg.Ignore)
	if err != nil {
		return res.done(start, err)
	}
	files, stats, err := sc.expand(cfg.StyleDir, cfg.StyleIncludes, isPartial)
	if err != nil {
		return res.done(start, fmt.Errorf("styles: %w", err))
	}
	res.FilesScanned = stats.FilesDiscovered
	res.FilesSkipped = stats.FilesSkipped

	var errs error
	for _, name := range files {
		outputs, err := compileStyle(cfg, pre, name, log)
		if err != nil {
			res.FilesFailed++
			errs = multierr.Append(errs, err)
			log.Debug("compile failed", zap.String("file", name), zap.Error(err))
			continue
		}
		res.FilesCompiled++
		res.Outputs = append(res.Outputs, outputs...)
	}

	res.done(start, errs)
	log.Debug("finished",
		zap.Int("compiled", res.FilesCompiled),
		zap.Int("failed", res.FilesFailed),
		zap.Duration("took", res.Duration))
	return res, errs
}

func compileStyle(cfg Config, pre *prefix.Prefixer, name string, log *zap.Logger) ([]string, error) {
	src := resolvePath(cfg.Root, path.Join(cfg.StyleDir, name))

	loadPaths := make([]string, len(cfg.LoadPaths))
	for i, p := range cfg.LoadPaths {
		loadPaths[i] = resolvePath(cfg.Root, p)
	}

	result, err := sass.Compile(src, sass.Options{LoadPaths: loadPaths, Logger: log})
	if err != nil {
		return nil, newFileError(cfg.Root, src, err)
	}
	pre.Process(result.Sheet)

	out := path.Join(cfg.StyleOutput, strings.TrimSuffix(name, path.Ext(name))+".css")
	outPath := resolvePath(cfg.Root, out)
	outDir := filepath.Dir(outPath)

	var smap *sourcemap.Builder
	if cfg.SourceMaps {
		smap = sourcemap.NewBuilder()
	}
	css := sass.Emit(result.Sheet, smap, func(file string) (string, string) {
		return relPath(outDir, file), result.Sources[file]
	})

	written := []string{out}
	if smap != nil {
		data, err := smap.Map(path.Base(out), true).Marshal()
		if err != nil {
			return nil, newFileError(cfg.Root, src, err)
		}
		if err := writeFile(outPath+".map", data); err != nil {
			return nil, err
		}
		written = append(written, out+".map")
		css = append(css, "\n/*# sourceMappingURL="+path.Base(out)+".map */"...)
	}
	css = append(css, '\n')

	if err := writeFile(outPath, css); err != nil {
		return nil, err
	}
	return written, nil
}

func writeFile(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
