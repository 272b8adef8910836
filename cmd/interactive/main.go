//go:build js && wasm

// Command interactive runs the page behaviors in the browser. Build it with
// GOOS=js GOARCH=wasm and load it next to wasm_exec.js.
package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/yacobolo/assetpipe/internal/page"
	"github.com/yacobolo/assetpipe/internal/page/jsdom"
)

func main() {
	log := zap.NewNop()
	if l, err := zap.NewDevelopment(); err == nil {
		log = l
	}
	defer func() { _ = log.Sync() }()

	doc := jsdom.Global()
	loop := page.NewLoop(log)
	page.Install(loop, doc)

	// Rows are equalized on demand, once their content has been laid out.
	rows := jsdom.Export("RowSameHeight", func() { page.EqualizeRows(doc) })
	defer rows.Release()

	events := make(chan page.Event, 64)
	release := jsdom.Listen(events)
	defer release()

	events <- page.Event{Type: page.EventReady, Viewport: jsdom.CurrentViewport()}
	if err := loop.Run(context.Background(), events); err != nil {
		log.Error("event loop stopped", zap.Error(err))
	}
}
