package rest

import (
	"context"
	"fmt"
)

const (
	gatewayRoute    = "/gateway"
	gatewayBotRoute = "/gateway/bot"
)

type gatewayResponse struct {
	URL string `json:"url"`
}

type gatewayBotResponse struct {
	URL    string `json:"url"`
	Shards int    `json:"shards"`
}

// GatewayURL discovers the websocket URL to connect to, per the documented
// endpoint returning a JSON object with a "url" field.
func (c *Client) GatewayURL(ctx context.Context) (string, error) {
	resp, err := c.Do(ctx, gatewayRoute, "GET", gatewayRoute, nil)
	if err != nil {
		return "", fmt.Errorf("rest: gateway url: %w", err)
	}

	var body gatewayResponse
	if err := resp.Decode(&body); err != nil {
		return "", fmt.Errorf("rest: gateway url: %w", err)
	}

	return body.URL, nil
}

// GatewayBotURL discovers the websocket URL along with the platform's
// suggested shard count, via the companion "/gateway/bot" endpoint.
func (c *Client) GatewayBotURL(ctx context.Context) (url string, shards int, err error) {
	resp, err := c.Do(ctx, gatewayBotRoute, "GET", gatewayBotRoute, nil)
	if err != nil {
		return "", 0, fmt.Errorf("rest: gateway bot url: %w", err)
	}

	var body gatewayBotResponse
	if err := resp.Decode(&body); err != nil {
		return "", 0, fmt.Errorf("rest: gateway bot url: %w", err)
	}

	return body.URL, body.Shards, nil
}
