/*
Package transport defines how a pipeline request reaches the database.

A Transport performs one HTTP POST per call and reports either the status
code and body of the response or an error when no response was received.
It never retries and never interprets status codes; retry and decoding
decisions belong to the sql client.

HTTP is the native implementation built on net/http. WebAssembly edge
functions use the host-backed implementation in the httpclient package.
*/
package transport
