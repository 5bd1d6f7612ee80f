// Package asebahttp talks to a Thymio through the asebahttp REST bridge.
package asebahttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/Celinna/mobile-robotics/pkg/transport"
)

const DefaultNode = "thymio-II"

type Client struct {
	baseURL string
	node    string
	http    *http.Client
	now     func() time.Time
}

// New returns a client for the node at baseURL (e.g. "http://localhost:3000").
func New(baseURL, node string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "bad asebahttp URL %q", baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("asebahttp URL %q must be http or https", baseURL)
	}
	if node == "" {
		node = DefaultNode
	}
	return &Client{
		baseURL: u.String(),
		node:    node,
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}, nil
}

var _ transport.Interface = (*Client)(nil)

func (c *Client) varURL(name string) string {
	return fmt.Sprintf("%s/nodes/%s/%s", c.baseURL, url.PathEscape(c.node), url.PathEscape(name))
}

func (c *Client) SetVar(name string, value uint16) error {
	body, err := json.Marshal([]int{int(value)})
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.varURL(name), "application/json", bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "failed to set %s", name)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode/100 != 2 {
		return errors.Errorf("failed to set %s: %s", name, resp.Status)
	}
	return nil
}

func (c *Client) GetVar(name string) (transport.Reading, error) {
	resp, err := c.http.Get(c.varURL(name))
	if err != nil {
		return transport.Reading{}, errors.Wrapf(err, "failed to read %s", name)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return transport.Reading{}, errors.Errorf("failed to read %s: %s", name, resp.Status)
	}
	var values []int
	if err := json.NewDecoder(resp.Body).Decode(&values); err != nil {
		return transport.Reading{}, errors.Wrapf(err, "bad reply reading %s", name)
	}
	return transport.Reading{CaptureTime: c.now(), Values: values}, nil
}
