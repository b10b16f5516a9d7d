package main

// Blank imports ensure each example plugin's init() registration runs for
// this binary. A host embedding the engine imports its own plugin packages
// the same way instead of this file.
import (
	_ "github.com/streamyforge/analyticsengine/plugins/collect/bus"
	_ "github.com/streamyforge/analyticsengine/plugins/collect/noop"
	_ "github.com/streamyforge/analyticsengine/plugins/collect/static"
	_ "github.com/streamyforge/analyticsengine/plugins/forward/disk"
	_ "github.com/streamyforge/analyticsengine/plugins/forward/noop"
	_ "github.com/streamyforge/analyticsengine/plugins/process/noop"
)
