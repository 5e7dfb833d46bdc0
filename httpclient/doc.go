/*
Package httpclient provides a transport that performs pipeline requests
through the Tarmac host's httpclient capability.

WebAssembly guests have no sockets of their own. Plugging an HTTPClient into
sql.Config.Transport routes every attempt through a waPC host call instead:

	tr, err := httpclient.New(httpclient.Config{})
	if err != nil {
		return err
	}
	client, err := sql.New(sql.Config{DatabaseID: id, Token: token, Transport: tr})

Host failures (the call itself failing, or the host reporting a 400, 404 or
500 status) surface as errors and are retried by the sql client like any
other transport failure. The HTTP status the database answered with is
returned untouched.
*/
package httpclient
