// Package odoo reads master data from a legacy Odoo instance over XML-RPC.
package odoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kolo/xmlrpc"
	"go.uber.org/zap"
)

// ErrAuthenticationFailed is returned when the instance rejects the credentials
var ErrAuthenticationFailed = errors.New("odoo: authentication failed")

// Config holds Odoo connection settings
type Config struct {
	URL      string
	Database string
	Username string
	Password string
	Timeout  time.Duration
}

// Client is an XML-RPC client for the external API. The user id is
// obtained lazily on the first object call.
type Client struct {
	cfg       Config
	commonURL string
	objectURL string
	transport http.RoundTripper
	logger    *zap.Logger

	mu  sync.Mutex
	uid int64
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithTransport replaces the HTTP transport
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.transport = rt
	}
}

// NewClient creates a new Odoo client
func NewClient(cfg Config, logger *zap.Logger, opts ...ClientOption) *Client {
	base := strings.TrimRight(cfg.URL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := &Client{
		cfg:       cfg,
		commonURL: base + "/xmlrpc/2/common",
		objectURL: base + "/xmlrpc/2/object",
		transport: http.DefaultTransport,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ctxTransport binds every request of one call to the caller's context
type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t ctxTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(r.WithContext(t.ctx))
}

func (c *Client) call(ctx context.Context, url, method string, args []interface{}, reply interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	client, err := xmlrpc.NewClient(url, ctxTransport{ctx: ctx, base: c.transport})
	if err != nil {
		return fmt.Errorf("failed to create XML-RPC client: %w", err)
	}
	defer client.Close()
	return client.Call(method, args, reply)
}

// Authenticate logs in and caches the user id
func (c *Client) Authenticate(ctx context.Context) (int64, error) {
	args := []interface{}{c.cfg.Database, c.cfg.Username, c.cfg.Password, map[string]interface{}{}}
	var reply interface{}
	if err := c.call(ctx, c.commonURL, "authenticate", args, &reply); err != nil {
		return 0, fmt.Errorf("authentication failed: %w", err)
	}
	uid, ok := toInt64(reply)
	if !ok || uid <= 0 {
		return 0, ErrAuthenticationFailed
	}

	c.mu.Lock()
	c.uid = uid
	c.mu.Unlock()
	c.logger.Info("odoo authenticated",
		zap.String("url", c.cfg.URL),
		zap.String("database", c.cfg.Database),
		zap.Int64("uid", uid),
	)
	return uid, nil
}

func (c *Client) userID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	uid := c.uid
	c.mu.Unlock()
	if uid > 0 {
		return uid, nil
	}
	return c.Authenticate(ctx)
}

// ExecuteKw calls method on model with positional args and keyword options
func (c *Client) ExecuteKw(ctx context.Context, model, method string, args []interface{}, kwargs map[string]interface{}, reply interface{}) error {
	uid, err := c.userID(ctx)
	if err != nil {
		return err
	}
	params := []interface{}{c.cfg.Database, uid, c.cfg.Password, model, method, args}
	if kwargs != nil {
		params = append(params, kwargs)
	}
	if err := c.call(ctx, c.objectURL, "execute_kw", params, reply); err != nil {
		return fmt.Errorf("failed to execute %s.%s: %w", model, method, err)
	}
	return nil
}

// SearchOptions control paging and ordering of SearchRead
type SearchOptions struct {
	Limit  int
	Offset int
	Order  string
	// WithArchived includes inactive records
	WithArchived bool
}

// SearchRead returns the records of model matching domain
func (c *Client) SearchRead(ctx context.Context, model string, domain []interface{}, fields []string, opts SearchOptions) ([]Record, error) {
	kwargs := map[string]interface{}{
		"fields": fields,
		"offset": opts.Offset,
	}
	if opts.Limit > 0 {
		kwargs["limit"] = opts.Limit
	}
	if opts.Order != "" {
		kwargs["order"] = opts.Order
	}
	if opts.WithArchived {
		kwargs["context"] = map[string]interface{}{"active_test": false}
	}
	if domain == nil {
		domain = []interface{}{}
	}

	var raw []interface{}
	if err := c.ExecuteKw(ctx, model, "search_read", []interface{}{domain}, kwargs, &raw); err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected %s record of type %T", model, item)
		}
		records = append(records, Record(m))
	}
	c.logger.Debug("odoo search_read",
		zap.String("model", model),
		zap.Int("offset", opts.Offset),
		zap.Int("records", len(records)),
	)
	return records, nil
}
