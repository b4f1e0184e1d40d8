// Package directory talks to the key-directory service that stores and
// serves published device bundles.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"sealwire/internal/domain"
)

// Client is an HTTP client for the directory collaborator.
type Client struct {
	base string
	http *http.Client
}

// New returns a directory client for the given base URL. A nil httpClient
// falls back to http.DefaultClient.
func New(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: base, http: httpClient}
}

// BundleSet fetches every published device bundle for an identity. An
// identity with no published bundles yields an empty set, not an error.
func (c *Client) BundleSet(ctx context.Context, did domain.DID) ([]domain.DeviceBundlePublic, error) {
	var out []domain.DeviceBundlePublic
	if err := c.getJSON(ctx, "/bundles/"+url.PathEscape(string(did)), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Publish stores one device's signed public bundle, replacing any prior
// bundle for that device.
func (c *Client) Publish(ctx context.Context, bundle domain.SignedBundle) error {
	path := "/bundles/" + url.PathEscape(string(bundle.Bundle.DID)) +
		"/" + url.PathEscape(string(bundle.Bundle.DeviceID))
	return c.putJSON(ctx, path, bundle)
}

// Exists reports whether the identity has any published bundle.
func (c *Client) Exists(ctx context.Context, did domain.DID) (bool, error) {
	var out struct {
		Exists bool `json:"exists"`
	}
	err := c.getJSON(ctx, "/bundles/"+url.PathEscape(string(did))+"/exists", &out)
	if err != nil {
		return false, err
	}
	return out.Exists, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("directory get %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) putJSON(ctx context.Context, path string, in any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("directory put %s: %s", path, resp.Status)
	}
	return nil
}

// Compile-time assertion that Client implements domain.Directory.
var _ domain.Directory = (*Client)(nil)
