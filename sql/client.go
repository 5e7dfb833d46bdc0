package sql

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	sdk "github.com/bunnydb/sdk"
	"github.com/bunnydb/sdk/logging"
	"github.com/bunnydb/sdk/transport"
	"github.com/google/uuid"
)

const redacted = "<redacted>"

// Client defines the SQL pipeline client interface.
type Client interface {
	// Query runs a statement that returns rows.
	Query(ctx context.Context, sql string, params Params) (QueryResult, error)

	// Execute runs a statement that does not return rows.
	Execute(ctx context.Context, sql string, params Params) (ExecResult, error)

	// Batch runs statements in one pipeline request and returns one outcome
	// per statement, in order.
	Batch(ctx context.Context, statements ...Statement) ([]StatementOutcome, error)

	// Close releases resources held by the client.
	Close() error
}

// Config controls how a DBClient reaches the pipeline endpoint.
type Config struct {
	// URL is the pipeline endpoint. When empty, it is derived from
	// DatabaseID with PipelineURL.
	URL string

	// DatabaseID identifies a database on the default pipeline host.
	DatabaseID string

	// Token is a bearer token. A "Bearer " prefix is added when missing.
	Token string

	// Authorization is sent verbatim as the Authorization header and takes
	// precedence over Token.
	Authorization string

	// Options controls timeouts and retries.
	Options Options

	// Transport sends requests. Defaults to transport.NewHTTP(nil).
	Transport transport.Transport

	// Logger receives client diagnostics. Defaults to logging.Nop().
	Logger logging.Client

	// Hook observes each call. Optional.
	Hook Hook

	// Sleep waits between retries. Tests may override it.
	Sleep Sleeper
}

// DBClient is the pipeline client implementation. It is safe for
// concurrent use.
type DBClient struct {
	url           string
	authorization string
	opts          Options
	transport     transport.Transport
	logger        logging.Client
	hook          Hook
	sleep         Sleeper
}

// Ensure DBClient always satisfies the Client interface at compile time.
var _ Client = (*DBClient)(nil)

// PipelineURL returns the pipeline endpoint for a database ID.
func PipelineURL(databaseID string) string {
	return fmt.Sprintf("https://%s.lite.bunnydb.net/v2/pipeline", strings.TrimSpace(databaseID))
}

// New creates a pipeline client.
func New(cfg Config) (*DBClient, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" && strings.TrimSpace(cfg.DatabaseID) != "" {
		endpoint = PipelineURL(cfg.DatabaseID)
	}
	if err := validateURL(endpoint); err != nil {
		return nil, err
	}

	authorization := cfg.Authorization
	if authorization == "" && strings.TrimSpace(cfg.Token) != "" {
		authorization = normalizeBearer(cfg.Token)
	}
	if authorization == "" {
		return nil, ErrMissingAuthorization
	}

	opts, err := cfg.Options.withDefaults()
	if err != nil {
		return nil, err
	}

	tr := cfg.Transport
	if tr == nil {
		tr = transport.NewHTTP(nil)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	return &DBClient{
		url:           endpoint,
		authorization: authorization,
		opts:          opts,
		transport:     tr,
		logger:        logger,
		hook:          cfg.Hook,
		sleep:         sleep,
	}, nil
}

func validateURL(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: no URL or database ID configured", ErrInvalidURL)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return errors.Join(ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, endpoint)
	}
	return nil
}

// normalizeBearer trims token and prefixes "Bearer " unless a bearer
// prefix is already present in any letter case.
func normalizeBearer(token string) string {
	trimmed := strings.TrimSpace(token)
	if len(trimmed) >= 7 && strings.EqualFold(trimmed[:7], "bearer ") {
		return trimmed
	}
	return "Bearer " + trimmed
}

// Options returns the effective options.
func (c *DBClient) Options() Options { return c.opts }

// URL returns the pipeline endpoint.
func (c *DBClient) URL() string { return c.url }

// String describes the client without its credentials.
func (c *DBClient) String() string {
	return fmt.Sprintf("DBClient{url: %s, authorization: %s, timeout: %s, max_retries: %d, retry_backoff: %s}",
		c.url, redacted, c.opts.Timeout, c.opts.MaxRetries, c.opts.RetryBackoff)
}

// Close releases idle connections when the transport supports it.
func (c *DBClient) Close() error {
	if closer, ok := c.transport.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
	return nil
}

// Query runs a statement that returns rows. A statement rejected by the
// database returns a *PipelineError.
func (c *DBClient) Query(ctx context.Context, sql string, params Params) (QueryResult, error) {
	outcomes, err := c.call(ctx, OperationQuery, []Statement{QueryStatement(sql, params)})
	if err != nil {
		return QueryResult{}, err
	}
	return *outcomes[0].Query, nil
}

// Execute runs a statement that does not return rows. A statement rejected
// by the database returns a *PipelineError.
func (c *DBClient) Execute(ctx context.Context, sql string, params Params) (ExecResult, error) {
	outcomes, err := c.call(ctx, OperationExecute, []Statement{ExecStatement(sql, params)})
	if err != nil {
		return ExecResult{}, err
	}
	return *outcomes[0].Exec, nil
}

// Batch runs statements in one pipeline request. Statements rejected by the
// database yield OutcomeSQLError outcomes and do not fail the call.
func (c *DBClient) Batch(ctx context.Context, statements ...Statement) ([]StatementOutcome, error) {
	return c.call(ctx, OperationBatch, statements)
}

func (c *DBClient) call(ctx context.Context, op Operation, statements []Statement) ([]StatementOutcome, error) {
	body, err := marshalRequest(statements)
	if err != nil {
		return nil, err
	}

	info := RequestInfo{
		RequestID:  uuid.NewString(),
		Operation:  op,
		Statements: len(statements),
		URL:        c.url,
		Header:     make(http.Header),
	}
	stats := &RequestStats{RequestBytes: len(body)}
	start := time.Now()

	ctx, token := c.hookStart(ctx, info)

	header := info.Header.Clone()
	header.Set("Authorization", c.authorization)
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")

	resp, err := c.send(ctx, info, header, body, stats)

	var outcomes []StatementOutcome
	if err == nil {
		outcomes, err = decodeOutcomes(resp, statements, stats)
	}
	if err == nil && op != OperationBatch && outcomes[0].Kind == OutcomeSQLError {
		err = outcomes[0].SQLError
	}

	stats.Duration = time.Since(start)
	if err != nil {
		c.logger.Error(fmt.Sprintf("pipeline %s failed request_id=%s attempts=%d: %v", op, info.RequestID, stats.Attempts, err))
	}
	c.hookEnd(ctx, token, info, stats, err)

	if err != nil {
		return nil, err
	}
	for i, o := range outcomes {
		if o.Kind == OutcomeSQLError && op == OperationBatch {
			c.logger.Debug(fmt.Sprintf("pipeline statement %d rejected request_id=%s: %s", i, info.RequestID, o.SQLError.Message))
		}
	}
	return outcomes, nil
}

// send posts body, retrying retryable failures with exponential backoff,
// and returns the parsed envelope of the first 2xx response.
func (c *DBClient) send(ctx context.Context, info RequestInfo, header http.Header, body []byte, stats *RequestStats) (pipelineResponse, error) {
	expectedOps := info.Statements + 1

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return pipelineResponse{}, &TransportError{Attempts: attempt, Err: err}
		}

		stats.Attempts = attempt + 1
		c.logger.Debug(fmt.Sprintf("pipeline %s attempt %d/%d request_id=%s statements=%d",
			info.Operation, attempt+1, c.opts.MaxRetries+1, info.RequestID, info.Statements))

		resp, err := c.attempt(ctx, header, body)

		var failure error
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return pipelineResponse{}, &TransportError{Attempts: attempt + 1, Err: ctxErr}
			}
			failure = &TransportError{Attempts: attempt + 1, Err: err}

		case resp.StatusCode >= 200 && resp.StatusCode <= 299:
			stats.StatusCode = resp.StatusCode
			stats.ResponseBytes = len(resp.Body)
			return parseResponse(resp.Body, expectedOps)

		default:
			stats.StatusCode = resp.StatusCode
			stats.ResponseBytes = len(resp.Body)
			httpErr := newHTTPError(resp.StatusCode, resp.Body, attempt+1)
			if !retryableStatus(resp.StatusCode) {
				return pipelineResponse{}, httpErr
			}
			failure = httpErr
		}

		if attempt >= c.opts.MaxRetries {
			return pipelineResponse{}, failure
		}

		delay := backoffDelay(c.opts.RetryBackoff, attempt)
		c.logger.Warn(fmt.Sprintf("pipeline %s retrying in %s request_id=%s: %v",
			info.Operation, delay, info.RequestID, failure))
		if err := c.sleep(ctx, delay); err != nil {
			return pipelineResponse{}, &TransportError{Attempts: attempt + 1, Err: err}
		}
	}
}

// attempt performs one bounded round trip.
func (c *DBClient) attempt(ctx context.Context, header http.Header, body []byte) (*transport.Response, error) {
	actx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	resp, err := c.transport.Do(actx, &transport.Request{URL: c.url, Header: header.Clone(), Body: body})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.Join(sdk.ErrTransport, errors.New("transport returned no response"))
	}
	return resp, nil
}

// decodeOutcomes maps each statement result to an outcome and validates the
// trailing close result.
func decodeOutcomes(resp pipelineResponse, statements []Statement, stats *RequestStats) ([]StatementOutcome, error) {
	outcomes := make([]StatementOutcome, len(statements))
	for i, stmt := range statements {
		o, err := decodeResult(i, resp.Results[i], stmt.WantRows)
		if err != nil {
			return nil, err
		}
		switch o.Kind {
		case OutcomeSQLError:
			stats.SQLErrors++
		case OutcomeQuery:
			stats.Rows += len(o.Query.Rows)
		}
		outcomes[i] = o
	}
	if err := checkClose(len(statements), resp.Results[len(statements)]); err != nil {
		return nil, err
	}
	return outcomes, nil
}
