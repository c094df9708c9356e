package fiscal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const emitPath = "/emitir-fiscal"

// Client is the HTTP Emitter implementation. Every call is bounded by the
// configured timeout; there is no retry and no idempotency key — the
// orchestrator treats the call as fire-and-forget.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

var _ Emitter = (*Client)(nil)

// NewClient creates a fiscal gateway client. The HTTP transport is
// instrumented with otelhttp so emission latency shows up in traces.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Emit posts the sale to the gateway and classifies the answer. Transport
// errors, timeouts, non-2xx statuses, and undecodable bodies all classify as
// unreachable; a well-formed {success:false} answer classifies as rejected.
func (c *Client) Emit(ctx context.Context, req Request) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	lg := zctx.From(ctx)

	body, err := json.Marshal(req)
	if err != nil {
		lg.Error("marshal fiscal request", zap.Error(err))
		return Result{Outcome: OutcomeUnreachable, Message: "invalid fiscal payload"}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+emitPath, bytes.NewReader(body))
	if err != nil {
		lg.Error("build fiscal request", zap.Error(err))
		return Result{Outcome: OutcomeUnreachable, Message: "invalid fiscal request"}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		lg.Warn("fiscal gateway unreachable", zap.Error(err))
		return Result{Outcome: OutcomeUnreachable, Message: "fiscal gateway unreachable"}
	}
	defer resp.Body.Close()

	res, err := decodeResponse(resp.Body)
	if err != nil {
		lg.Warn("undecodable fiscal response",
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
		return Result{Outcome: OutcomeUnreachable, Message: "fiscal gateway unreachable"}
	}

	// The emulator answers business failures with 500 and {success:false};
	// any decodable success=false body counts as a rejection regardless of
	// status code.
	if !res.success {
		msg := res.message
		if msg == "" {
			msg = "fiscal emission refused"
		}
		return Result{Outcome: OutcomeRejected, Message: msg}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{Outcome: OutcomeUnreachable, Message: "fiscal gateway unreachable"}
	}

	return Result{Outcome: OutcomeAuthorized, ReceiptNumber: res.nfeNumber}
}

type gatewayResponse struct {
	success   bool
	nfeNumber int64
	message   string
}

// decodeResponse reads the gateway JSON body. Unknown keys (chave_acesso,
// url_qrcode, ambiente, ...) are skipped.
func decodeResponse(r io.Reader) (gatewayResponse, error) {
	var out gatewayResponse

	raw, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return out, err
	}

	d := jx.DecodeBytes(raw)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "success":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			out.success = v
		case "nfe_number":
			v, err := d.Int64()
			if err != nil {
				return err
			}
			out.nfeNumber = v
		case "message":
			v, err := d.Str()
			if err != nil {
				return err
			}
			out.message = v
		default:
			return d.Skip()
		}
		return nil
	})
	return out, err
}
