// Package cortile provides a Go client for the cortile window-management
// daemon.
//
// The daemon binary is discovered over the D-Bus session bus and then
// invoked as a subprocess for every operation. Results are line-oriented
// JSON envelopes. A Connector keeps one listening subprocess open for the
// lifetime of the connection, caches the property values the daemon pushes,
// and forwards every event to registered listeners.
//
// # Basic Usage
//
//	ctx := context.Background()
//	c, err := cortile.New(ctx,
//	    cortile.WithLogger(cortile.NewTextLogger(os.Stderr, slog.LevelInfo)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	c.Listen(func(event *cortile.Envelope) {
//	    fmt.Println(event.SourceName, event.Payload)
//	})
//
//	if windows, ok := c.Property(ctx, "Windows", true); ok {
//	    active, _ := windows.Path("Active", "Id")
//	    fmt.Println("active window:", active)
//	}
//
//	c.Method(ctx, "ActionExecute", "layout_fullscreen", 0, 0)
//
//	_ = c.Wait(ctx, time.Second)
//
// # Discovery
//
// By default the binary path is read from the Process property exported by
// com.github.leukipp.cortile on the session bus. WithBinaryPath or the
// CORTILE_BINARY_PATH environment variable skip the bus lookup. A failed
// discovery is fatal: it is logged at LevelFatal and the process exits with
// status 1 unless WithExitFunc installs a different exit function.
//
// # Error Handling
//
// Operations report failures as Error envelopes rather than Go errors, and
// the Connector logs each of them at ERROR. Envelope.Err converts an Error
// envelope into a typed error:
//
//	if _, ok := errors.AsType[*cortile.RemoteError](env.Err()); ok {
//	    // the daemon rejected the call
//	}
//
// # Signals
//
// With signal handling enabled (the default), SIGINT and SIGTERM only set
// a flag checked by Exit and Wait. A second signal exits immediately.
package cortile
