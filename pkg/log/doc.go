/*
Package log provides structured logging for hivectl using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support filtering
by severity level.

Initializing the logger:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

Context loggers attach fields that repeat across a command run:

	nsLog := log.WithNamespace("solo-e2e")
	nodeLog := log.WithNode("node1")
	taskLog := log.WithTask("Check all nodes are ACTIVE")

User-visible failures go through UserError, which prints a single summary
line; the wrapped cause chain stays at debug level so operators are not
flooded with stack detail by default.
*/
package log
