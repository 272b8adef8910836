package assetpipe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/js"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yacobolo/assetpipe/internal/sourcemap"
)

const jsMediaType = "application/javascript"

// CompileScripts minifies every script source into ScriptOutput as
// <name>.min.js. Sources that are already minified are skipped. Failures are
// handled as in CompileStyles.
func CompileScripts(ctx context.Context, cfg Config) (*TaskResult, error) {
	start := time.Now()
	res := &TaskResult{Task: TaskScripts}
	log := cfg.logger().Named(string(TaskScripts))

	if err := ctx.Err(); err != nil {
		return res.done(start, err)
	}

	sc, err := newScanner(cfg.Root, cfg.Ignore)
	if err != nil {
		return res.done(start, err)
	}
	files, stats, err := sc.expand(cfg.ScriptDir, cfg.ScriptIncludes, isMinified)
	if err != nil {
		return res.done(start, fmt.Errorf("scripts: %w", err))
	}
	res.FilesScanned = stats.FilesDiscovered
	res.FilesSkipped = stats.FilesSkipped

	m := minify.New()
	m.AddFunc(jsMediaType, js.Minify)

	var errs error
	for _, name := range files {
		outputs, err := compileScript(cfg, m, name)
		if err != nil {
			res.FilesFailed++
			errs = multierr.Append(errs, err)
			log.Debug("minify failed", zap.String("file", name), zap.Error(err))
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

func compileScript(cfg Config, m *minify.M, name string) ([]string, error) {
	src := resolvePath(cfg.Root, path.Join(cfg.ScriptDir, name))
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}

	// the js minifier renames identifiers in place
	minified, err := m.Bytes(jsMediaType, bytes.Clone(data))
	if err != nil {
		return nil, newFileError(cfg.Root, src, err)
	}

	out := path.Join(cfg.ScriptOutput, strings.TrimSuffix(name, path.Ext(name))+".min.js")
	outPath := resolvePath(cfg.Root, out)

	written := []string{out}
	if cfg.SourceMaps {
		b := sourcemap.NewBuilder()
		idx := b.AddSource(relPath(filepath.Dir(outPath), src), string(data))
		for _, mapping := range sourcemap.ScriptMappings(data, minified, idx) {
			b.Add(mapping)
		}
		mapData, err := b.Map(path.Base(out), true).Marshal()
		if err != nil {
			return nil, newFileError(cfg.Root, src, err)
		}
		if err := writeFile(outPath+".map", mapData); err != nil {
			return nil, err
		}
		written = append(written, out+".map")
		minified = append(minified, "\n//# sourceMappingURL="+path.Base(out)+".map"...)
	}
	minified = append(minified, '\n')

	if err := writeFile(outPath, minified); err != nil {
		return nil, err
	}
	return written, nil
}

func isMinified(name string) bool {
	return strings.HasSuffix(name, ".min.js")
}
