// Package cli locates the cortile binary and builds its command lines.
//
// # Discovery
//
// The running daemon exports its own executable path on the D-Bus session
// bus. The resolver reads the Process property of the well-known service
// and returns its Path entry:
//
//	resolver := cli.NewResolver(&cli.Config{
//	    ServiceName: config.DefaultServiceName,
//	    ObjectPath:  config.DefaultObjectPath,
//	    Logger:      slog.Default(),
//	})
//	path, err := resolver.Resolve(ctx)
//
// An explicit Config.BinaryPath skips the bus lookup entirely.
//
// # Command Building
//
// Every operation maps onto one invocation of the binary:
//
//	<binary> dbus -help
//	<binary> dbus -method <name> [arg...]
//	<binary> dbus -property <name>
//	<binary> dbus -listen [eventName...]
package cli
