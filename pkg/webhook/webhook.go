// Package webhook delivers change notifications to repository webhooks.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-querystring/query"
	"github.com/google/uuid"
	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/db/models"
	"github.com/vcgate/vcgate/pkg/store"
	"github.com/vcgate/vcgate/pkg/version"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Hook is a repository webhook.
type Hook struct {
	models.Webhook
	ContentType ContentType
	Events      []Event
}

// Delivery is a webhook delivery.
type Delivery struct {
	models.WebhookDelivery
	Event Event
}

// maxResponseBody is the maximum recorded response body size.
const maxResponseBody = 64 << 10

// maxParallelDeliveries bounds concurrent deliveries of a single event.
const maxParallelDeliveries = 4

// secureHTTPClient refuses to connect to internal addresses and doesn't
// follow redirects.
var secureHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err //nolint:wrapcheck
			}

			if ip := net.ParseIP(host); ip != nil {
				if err := ValidateIPBeforeDial(ip); err != nil {
					return nil, fmt.Errorf("blocked connection to private IP: %w", err)
				}
			}

			dialer := &net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}
			return dialer.DialContext(ctx, network, addr)
		},
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	},
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

// httpClient is the client used to send webhooks.
var httpClient = secureHTTPClient

// do sends a webhook.
// Caller must close the returned body.
func do(ctx context.Context, url string, method string, headers http.Header, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	req.Header = headers
	return httpClient.Do(req) //nolint:wrapcheck
}

// RawPayload is an already encoded payload, sent as is.
type RawPayload []byte

// encode encodes the payload for the content type.
func encode(contentType ContentType, payload interface{}) ([]byte, error) {
	if raw, ok := payload.(RawPayload); ok {
		if contentType.String() == "" {
			return nil, ErrInvalidContentType
		}
		return raw, nil
	}

	switch contentType {
	case ContentTypeJSON:
		return json.Marshal(payload)
	case ContentTypeForm:
		v, err := query.Values(payload)
		if err != nil {
			return nil, err
		}
		return []byte(v.Encode()), nil
	case ContentTypeYAML:
		return yaml.Marshal(payload)
	default:
		return nil, ErrInvalidContentType
	}
}

// Sign returns the signature header value of a request body.
func Sign(secret string, body []byte) string {
	sig := hmac.New(sha256.New, []byte(secret))
	sig.Write(body) // nolint: errcheck
	return "sha256=" + hex.EncodeToString(sig.Sum(nil))
}

func formatHeaders(h http.Header) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k + ": " + strings.Join(h[k], ", ") + "\n")
	}
	return sb.String()
}

// SendWebhook sends a webhook event and records the delivery. A failed
// request is recorded, not returned.
func SendWebhook(ctx context.Context, w models.Webhook, event Event, payload interface{}) error {
	dbx := db.FromContext(ctx)
	datastore := store.FromContext(ctx)
	if dbx == nil || datastore == nil {
		return errors.New("webhook: missing database in context")
	}

	contentType := ContentType(w.ContentType) //nolint:gosec
	body, err := encode(contentType, payload)
	if err != nil {
		return err
	}

	id, err := uuid.NewUUID()
	if err != nil {
		return err
	}

	headers := http.Header{}
	headers.Set("Content-Type", contentType.String())
	headers.Set("User-Agent", version.UserAgent())
	headers.Set("X-Vcgate-Event", event.String())
	headers.Set("X-Vcgate-Delivery", id.String())
	if w.Secret != "" {
		headers.Set("X-Vcgate-Signature", Sign(w.Secret, body))
	}

	reqHeaders := formatHeaders(headers)
	res, reqErr := do(ctx, w.URL, http.MethodPost, headers, bytes.NewReader(body))

	var (
		resStatus  int
		resHeaders string
		resBody    string
	)
	if res != nil {
		defer res.Body.Close() // nolint: errcheck
		resStatus = res.StatusCode
		resHeaders = formatHeaders(res.Header)
		b, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
		if err != nil && reqErr == nil {
			reqErr = err
		}
		resBody = string(b)
	}

	if reqErr != nil {
		log.FromContext(ctx).WithPrefix("webhook").Warn("delivery failed", "webhook", w.ID, "event", event, "err", reqErr)
	}

	return db.WrapError(datastore.CreateWebhookDelivery(ctx, dbx, id, w.ID, int(event), w.URL, http.MethodPost, reqErr, reqHeaders, string(body), resStatus, resHeaders, resBody))
}

// SendEvent sends a webhook event to every active repository webhook
// subscribed to it.
func SendEvent(ctx context.Context, payload EventPayload) error {
	dbx := db.FromContext(ctx)
	datastore := store.FromContext(ctx)
	if dbx == nil || datastore == nil {
		return errors.New("webhook: missing database in context")
	}

	webhooks, err := datastore.GetWebhooksByRepoIDWhereEvent(ctx, dbx, payload.RepositoryID(), []int{int(payload.Event())})
	if err != nil {
		return db.WrapError(err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDeliveries)
	for _, w := range webhooks {
		w := w
		g.Go(func() error {
			return SendWebhook(ctx, w, payload.Event(), payload)
		})
	}

	return g.Wait() //nolint:wrapcheck
}
