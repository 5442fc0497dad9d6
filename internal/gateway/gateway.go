// Copyright (c) 2026 Freshmart Developers
// SPDX-License-Identifier: GPL-3.0-or-later

// Package gateway wraps the remote admin API behind typed operations and a
// uniform error taxonomy. Every call classifies its failure as network,
// unauthorized, server or validation so higher layers never touch raw HTTP.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/freshmart/adminctl/internal/model"
)

// Client configuration constants
const (
	RequestTimeout = 30 * time.Second // HTTP request timeout
	MaxResponseLen = 1 << 20          // Maximum response body to read (1MB)
	UserAgent      = "adminctl/1.0"   // User-Agent header value
)

// Session holds the credentials issued by a successful sign-in.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the session carries a token that has not expired yet.
func (s Session) Valid() bool {
	return s.Token != "" && time.Now().Before(s.ExpiresAt)
}

// CredentialProvider supplies the current bearer token for authenticated
// calls. Returning ok=false means no session is available; the call is still
// sent and the server decides, matching how an expired cookie behaves.
type CredentialProvider func() (token string, ok bool)

// Gateway is the typed client for the remote admin API.
type Gateway struct {
	baseURL  string
	apiPath  string
	client   *http.Client
	creds    CredentialProvider
	validate *validator.Validate
	logger   *slog.Logger
}

// New creates a Gateway for the API rooted at baseURL, scoped to the vendor
// path apiPath. creds is consulted on every authenticated call.
func New(baseURL, apiPath string, creds CredentialProvider, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiPath: strings.Trim(apiPath, "/"),
		client: &http.Client{
			Timeout: RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		creds:    creds,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// signinResponse is the wire shape of a successful sign-in.
type signinResponse struct {
	Token   string `json:"token"`
	Expired int64  `json:"expired"` // unix epoch milliseconds
}

// Login exchanges credentials for a session token. Any 4xx answer is
// reported as unauthorized, whatever the exact status, because there is
// nothing to retry; a 5xx is the server's problem, not the credentials'.
func (g *Gateway) Login(ctx context.Context, username, password string) (Session, error) {
	payload := map[string]string{"username": username, "password": password}
	req, err := g.newRequest(ctx, http.MethodPost, g.baseURL+"/admin/signin", payload, false)
	if err != nil {
		return Session{}, err
	}

	resp, err := g.do(req)
	if err != nil {
		return Session{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := KindUnauthorized
		if resp.StatusCode >= http.StatusInternalServerError {
			kind = KindServer
		}
		return Session{}, &Error{
			Kind:    kind,
			Status:  resp.StatusCode,
			Message: extractMessage(body, resp.StatusCode),
		}
	}

	var sr signinResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return Session{}, &Error{
			Kind:    KindServer,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("API error (status: %d)", resp.StatusCode),
			Err:     fmt.Errorf("decode signin response: %w", err),
		}
	}
	return Session{
		Token:     sr.Token,
		ExpiresAt: time.UnixMilli(sr.Expired),
	}, nil
}

// Verify asks the server whether the current token is still accepted.
func (g *Gateway) Verify(ctx context.Context) error {
	req, err := g.newRequest(ctx, http.MethodPost, g.baseURL+"/api/user/check", nil, true)
	if err != nil {
		return err
	}

	resp, err := g.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return g.checkStatus(resp)
}

// FetchProducts retrieves the full catalog. The server's relative ordering
// of entries is preserved, which is why the products mapping is walked
// token by token instead of decoded into a Go map.
func (g *Gateway) FetchProducts(ctx context.Context) ([]model.Product, error) {
	url := fmt.Sprintf("%s/api/%s/admin/products/all", g.baseURL, g.apiPath)
	req, err := g.newRequest(ctx, http.MethodGet, url, nil, true)
	if err != nil {
		return nil, err
	}

	resp, err := g.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := g.checkStatus(resp); err != nil {
		return nil, err
	}

	products, err := decodeProducts(io.LimitReader(resp.Body, MaxResponseLen))
	if err != nil {
		return nil, &Error{
			Kind:    KindServer,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("API error (status: %d)", resp.StatusCode),
			Err:     fmt.Errorf("decode products response: %w", err),
		}
	}
	return products, nil
}

// SaveProduct creates or updates a product from a draft. A draft with an ID
// updates the existing record; one without creates a new record. The draft
// is validated locally before anything is sent.
func (g *Gateway) SaveProduct(ctx context.Context, d *model.Draft) error {
	if err := g.validate.Struct(d); err != nil {
		return &Error{
			Kind:    KindValidation,
			Message: validationMessage(err),
			Err:     err,
		}
	}

	method := http.MethodPost
	url := fmt.Sprintf("%s/api/%s/admin/product", g.baseURL, g.apiPath)
	if d.ID != "" {
		method = http.MethodPut
		url += "/" + d.ID
	}

	req, err := g.newRequest(ctx, method, url, map[string]any{"data": d}, true)
	if err != nil {
		return err
	}

	resp, err := g.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return g.checkStatus(resp)
}

// DeleteProduct removes a product by ID.
func (g *Gateway) DeleteProduct(ctx context.Context, id string) error {
	url := fmt.Sprintf("%s/api/%s/admin/product/%s", g.baseURL, g.apiPath, id)
	req, err := g.newRequest(ctx, http.MethodDelete, url, nil, true)
	if err != nil {
		return err
	}

	resp, err := g.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return g.checkStatus(resp)
}

// newRequest builds a request with the standard headers. When authed is true
// the current token is attached bare in the Authorization header, which is
// the scheme this API expects (no "Bearer" prefix).
func (g *Gateway) newRequest(ctx context.Context, method, url string, payload any, authed bool) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{
				Kind:    KindValidation,
				Message: "request payload could not be encoded",
				Err:     err,
			}
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &Error{
			Kind:    KindNetwork,
			Message: "network error or no response from server",
			Err:     fmt.Errorf("failed to create request: %w", err),
		}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if authed && g.creds != nil {
		if token, ok := g.creds(); ok {
			req.Header.Set("Authorization", token)
		}
	}
	return req, nil
}

// do sends the request and maps transport-level failures to the network
// error kind. A non-nil response is always returned with a nil error.
func (g *Gateway) do(req *http.Request) (*http.Response, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("request failed",
			"method", req.Method,
			"url", req.URL.String(),
			"error", err)
		return nil, &Error{
			Kind:    KindNetwork,
			Message: "network error or no response from server",
			Err:     err,
		}
	}
	return resp, nil
}

// checkStatus classifies a non-success response. 401 and 403 are treated as
// credential failures, everything else as a server error. The body is
// consumed either way so the connection can be reused.
func (g *Gateway) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))
	kind := KindServer
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		kind = KindUnauthorized
	}
	return &Error{
		Kind:    kind,
		Status:  resp.StatusCode,
		Message: extractMessage(body, resp.StatusCode),
	}
}

// extractMessage pulls the server's message field out of an error body,
// falling back to a generic status-code message when the body has none.
func extractMessage(body []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return fmt.Sprintf("API error (status: %d)", status)
}

// validationMessage flattens validator errors into a single operator-facing
// line naming the offending fields.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "product data is invalid"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return "invalid product fields: " + strings.Join(fields, ", ")
}

// decodeProducts walks the products payload with a streaming decoder so the
// server's entry order survives. Both the mapping form {"id": product} and
// the array form are accepted; null entries are dropped.
func decodeProducts(r io.Reader) ([]model.Product, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var products []model.Product
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		if key != "products" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
			continue
		}

		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		delim, ok := tok.(json.Delim)
		if !ok {
			// null or scalar: no products
			continue
		}

		switch delim {
		case '{':
			for dec.More() {
				idTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				id, _ := idTok.(string)
				var raw json.RawMessage
				if err := dec.Decode(&raw); err != nil {
					return nil, err
				}
				if string(bytes.TrimSpace(raw)) == "null" {
					continue
				}
				var p model.Product
				if err := json.Unmarshal(raw, &p); err != nil {
					return nil, err
				}
				if p.ID == "" {
					p.ID = id
				}
				products = append(products, p)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
		case '[':
			for dec.More() {
				var p model.Product
				if err := dec.Decode(&p); err != nil {
					return nil, err
				}
				products = append(products, p)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
		}
	}
	return products, nil
}
