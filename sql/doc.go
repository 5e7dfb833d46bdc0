/*
Package sql is a client for SQL databases exposed through a JSON pipeline
endpoint.

A DBClient turns each call into one HTTP POST carrying a pipeline request:
an execute operation per statement followed by a close operation. Responses
are decoded into typed results.

	client, err := sql.New(sql.Config{
		DatabaseID: "my-db",
		Token:      token,
		Options:    sql.Options{MaxRetries: 2},
	})
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := client.Query(ctx, "SELECT id, name FROM users WHERE id = ?",
		sql.Positional(sql.Integer(1)))

Parameters are positional or named. Named parameters may be written with a
":", "@" or "$" sigil, and all three bind the same placeholder.

Batch sends several statements in one request. A statement the database
rejects produces an OutcomeSQLError outcome carrying its request index and
leaves the other outcomes intact.

Transport failures and HTTP 429 or 5xx responses are retried up to
Options.MaxRetries times with exponential backoff. Other non-2xx responses
fail immediately with an *HTTPError.
*/
package sql
