/*
Package hostmock provides a scripted waPC host for tests.

It lets host-backed components (the httpclient transport, host logging and
host metrics) run without a real host while asserting exactly what they
send.

  - Validate routing: calls must use the expected namespace, capability and
    function when those are set. Empty fields match anything.
  - Inspect payloads: a PayloadValidator can decode and assert protobuf
    contents.
  - Script responses: Replies are returned in call order, which makes
    retry sequences easy to express. The last reply repeats.
  - Record calls: Calls returns every invocation for later assertions.

Quick start

	m, _ := hostmock.New(hostmock.Config{
		ExpectedNamespace:  "tarmac",
		ExpectedCapability: "httpclient",
		ExpectedFunction:   "call",
		Replies: []hostmock.Reply{
			{Payload: unavailable},
			{Payload: ok},
		},
	})

	tr, _ := httpclient.New(httpclient.Config{HostCall: m.HostCall})

Behavior

  - If Fail is true, HostCall returns Error, or ErrOperationFailed when Error
    is nil.
  - Otherwise HostCall enforces the Expected* fields, runs PayloadValidator,
    and returns the next reply, the Response bytes, or nil.
  - Calls are recorded before any validation, so failed calls show up too.
*/
package hostmock
