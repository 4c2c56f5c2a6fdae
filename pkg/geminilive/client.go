package geminilive

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"
)

const (
	// DefaultWebSocketURL is the default BidiGenerateContent endpoint.
	DefaultWebSocketURL = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	// DefaultWriteTimeout bounds every frame written to the WebSocket.
	DefaultWriteTimeout = 10 * time.Second
)

// Transport selects how the client talks to the Live API.
type Transport string

const (
	// TransportWebSocket speaks the raw JSON protocol over gorilla/websocket.
	TransportWebSocket Transport = "websocket"

	// TransportSDK uses the official google.golang.org/genai client.
	TransportSDK Transport = "sdk"
)

// ParseTransport parses a transport name. Empty selects TransportWebSocket.
func ParseTransport(s string) (Transport, error) {
	switch Transport(s) {
	case "", TransportWebSocket:
		return TransportWebSocket, nil
	case TransportSDK:
		return TransportSDK, nil
	}
	return "", fmt.Errorf("geminilive: unknown transport %q (want websocket or sdk)", s)
}

// Client is the Gemini Live API client.
type Client struct {
	config *clientConfig
}

// clientConfig holds the client configuration.
type clientConfig struct {
	apiKey       string
	wsURL        string
	httpClient   *http.Client
	transport    Transport
	writeTimeout time.Duration
	genaiClient  *genai.Client
}

// Option configures the Client.
type Option func(*clientConfig)

// NewClient creates a new Gemini Live client.
//
// The apiKey is required and can be obtained from:
// https://aistudio.google.com/apikey
func NewClient(apiKey string, opts ...Option) *Client {
	if apiKey == "" {
		panic("geminilive: API key is required")
	}

	cfg := &clientConfig{
		apiKey:       apiKey,
		wsURL:        DefaultWebSocketURL,
		httpClient:   http.DefaultClient,
		transport:    TransportWebSocket,
		writeTimeout: DefaultWriteTimeout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &Client{config: cfg}
}

// WithWebSocketURL sets the WebSocket URL.
func WithWebSocketURL(url string) Option {
	return func(c *clientConfig) {
		c.wsURL = url
	}
}

// WithHTTPClient sets a custom HTTP client. Its Timeout bounds the
// WebSocket handshake.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTransport selects the transport used by Connect.
func WithTransport(t Transport) Option {
	return func(c *clientConfig) {
		c.transport = t
	}
}

// WithWriteTimeout sets the deadline for each WebSocket write.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.writeTimeout = d
	}
}

// WithGenAIClient reuses an existing genai client for TransportSDK.
func WithGenAIClient(gc *genai.Client) Option {
	return func(c *clientConfig) {
		c.genaiClient = gc
	}
}

// Transport returns the configured transport.
func (c *Client) Transport() Transport {
	return c.config.transport
}

// Connect opens a live session with the configured transport. It returns
// once the server has acknowledged the session setup.
func (c *Client) Connect(ctx context.Context, config *ConnectConfig) (Session, error) {
	switch c.config.transport {
	case TransportSDK:
		return c.ConnectSDK(ctx, config)
	default:
		return c.ConnectWebSocket(ctx, config)
	}
}

// ConnectWebSocket establishes a session over a raw WebSocket connection.
func (c *Client) ConnectWebSocket(ctx context.Context, config *ConnectConfig) (*WebSocketSession, error) {
	return c.connectWebSocket(ctx, config.withDefaults())
}

// ConnectSDK establishes a session through the genai SDK.
func (c *Client) ConnectSDK(ctx context.Context, config *ConnectConfig) (*SDKSession, error) {
	return c.connectSDK(ctx, config.withDefaults())
}
