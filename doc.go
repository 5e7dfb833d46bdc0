/*
Package sdk is the root of a client SDK for SQL databases exposed through a
single-endpoint JSON pipeline API.

Statements are sent as pipeline requests (one or more execute operations
terminated by a close operation) with bearer authentication, and the
responses are decoded into typed query, exec, or per-statement outcomes.

The root package holds what the capability packages share: the error
taxonomy (sentinels usable with errors.Is) and the RuntimeConfig used by
components that talk to a waPC host when running as a WebAssembly edge
function. The client itself lives in the sql package; transports, logging,
metrics and tracing live in their own packages.
*/
package sdk
