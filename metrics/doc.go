/*
Package metrics records pipeline client activity as custom metrics through
the Tarmac host runtime.

A Recorder turns each finished call into host counter, gauge, and histogram
updates sent as protobuf payloads over waPC host calls. Metric names are a
prefix followed by one of the Suffix constants:

	<p>_requests_total            counter, one per call
	<p>_request_errors_total      counter, calls that returned an error
	<p>_retried_requests_total    counter, calls that needed more than one attempt
	<p>_requests_in_flight        gauge
	<p>_request_attempts          histogram, attempts per call
	<p>_statement_errors          histogram, statements rejected per call
	<p>_request_duration_seconds  histogram
	<p>_rows_returned             histogram, rows per call

Emission follows Prometheus-style ergonomics: nothing returns an error.
Marshal or host-call failures are swallowed so they never affect the
caller's control flow.

	rec, err := metrics.New(metrics.Config{Prefix: "orders_db"})
	if err != nil {
		return err
	}
	client, err := sql.New(sql.Config{DatabaseID: id, Token: token, Hook: metrics.NewPipelineHook(rec)})
*/
package metrics
