/*
Package logging offers a small leveled logging interface and three
implementations of it.

New sends entries to the Tarmac host's logging capability, for code running
as a WebAssembly function. NewSlog writes to a log/slog Logger, for native
services. Nop discards everything and is what the sql client uses when no
logger is configured.
*/
package logging
