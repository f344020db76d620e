package cratedb

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/gocrate/cratedb/internal/logger"
)

func basicAuthToken(user, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
}

const sqlPath = "/_sql?types"

// Transport owns one coherent pooled HTTP(S) connection to a CrateDB
// node: keep-alive, bounded concurrency, optional gzip, auth headers,
// and error classification. A Client holds one shared Transport; a
// Cursor holds a second, size-1 Transport of its own so its DECLARE,
// FETCH and CLOSE traffic is pinned to a single backend session.
type Transport struct {
	client *http.Client
	cfg    *Config
	log    *logger.Logger
}

// NewTransport builds the shared, pooled Transport used by a Client.
func NewTransport(cfg *Config) *Transport {
	return newTransport(cfg, cfg.MaxConnections)
}

// NewPinnedTransport builds a dedicated, size-1 pool: exactly one
// physical socket, guaranteeing every request a Cursor sends lands on
// the same backend session as its DECLARE.
func NewPinnedTransport(cfg *Config) *Transport {
	return newTransport(cfg, 1)
}

func newTransport(cfg *Config, poolSize int) *Transport {
	rt := &http.Transport{
		MaxConnsPerHost:     poolSize,
		MaxIdleConnsPerHost: poolSize,
		IdleConnTimeout:     90 * time.Second,
		DisableKeepAlives:   !cfg.KeepAlive,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	return &Transport{
		client: &http.Client{Transport: rt},
		cfg:    cfg,
		log:    cfg.Logger,
	}
}

// Close releases idle connections held by this transport's pool. After
// Close on a pinned (size-1) transport, that pool reports zero active
// sockets.
func (t *Transport) Close() {
	t.client.CloseIdleConnections()
}

// rawResult is what Execute returns: the response body plus the sizing
// and timing data the client façade needs to build Durations/Sizes.
type rawResult struct {
	Body                []byte
	StatusCode          int
	RequestBytes        int
	RequestBytesRaw     int
	ResponseBytes       int
	TransportDuration   time.Duration
}

// Execute POSTs payload to /_sql?types and returns the raw response
// body, or a *CrateDBError / *RequestError per §7.
func (t *Transport) Execute(ctx context.Context, payload []byte) (*rawResult, error) {
	start := time.Now()

	uncompressed := len(payload)
	body := payload
	contentEncoding := ""
	if t.cfg.EnableCompression && uncompressed > t.cfg.CompressionThreshold {
		gzipped, err := gzipCompress(payload)
		if err != nil {
			return nil, &RequestError{Message: "failed to gzip request body", Cause: err}
		}
		body = gzipped
		contentEncoding = "gzip"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.baseURL()+sqlPath, bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Message: "failed to build request", Cause: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("X-Request-Id", reqID)
	if contentEncoding != "" {
		req.Header.Set("Content-Encoding", contentEncoding)
	}
	if auth := t.cfg.authHeader(); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if t.cfg.DefaultSchema != "" {
		req.Header.Set("Default-Schema", t.cfg.DefaultSchema)
	}

	if t.log != nil {
		t.log.Debugf("cratedb: POST %s id=%s body=%dB (raw %dB)", sqlPath, reqID, len(body), uncompressed)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Message: "failed to read response body", Cause: err}
	}

	elapsed := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		return nil, buildServerError(respBytes, resp.StatusCode)
	}

	return &rawResult{
		Body:              respBytes,
		StatusCode:        resp.StatusCode,
		RequestBytes:      len(body),
		RequestBytesRaw:   uncompressed,
		ResponseBytes:     len(respBytes),
		TransportDuration: elapsed,
	}, nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return &RequestError{Message: "request canceled", Cause: ctx.Err()}
	}
	return &RequestError{Message: "http request failed", Cause: err}
}

type wireErrorEnvelope struct {
	Error      *wireServerError `json:"error"`
	ErrorTrace string           `json:"error_trace"`
}

func buildServerError(body []byte, statusCode int) error {
	var env wireErrorEnvelope
	if err := decodeJSONLenient(body, &env); err != nil || env.Error == nil {
		return &CrateDBError{
			Message:    fmt.Sprintf("http status %d: %s", statusCode, string(body)),
			StatusCode: statusCode,
		}
	}
	return &CrateDBError{
		Message:    env.Error.Message,
		Code:       env.Error.Code,
		ErrorTrace: env.ErrorTrace,
		StatusCode: statusCode,
	}
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
