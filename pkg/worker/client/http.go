/*
Copyright 2024 The Paneflow Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package client provides the default JSON-over-HTTP binding of the
// work-unit client. The controller's wire protocol proper is outside the
// execution core; this is the thin default the cmd layer wires in.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/paneflow/paneflow/pkg/worker"
)

type leaseRequest struct {
	WorkerID string `json:"workerId"`
}

type httpWorkUnitClient struct {
	baseURL    string
	workerID   string
	httpClient *http.Client
}

var _ worker.WorkUnitClient = (*httpWorkUnitClient)(nil)

// Option customizes the client.
type Option func(*httpWorkUnitClient)

// WithHTTPClient overrides the underlying http client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpWorkUnitClient) {
		c.httpClient = hc
	}
}

// NewHTTPWorkUnitClient returns a WorkUnitClient talking to the controller
// at baseURL on behalf of the given worker id.
func NewHTTPWorkUnitClient(baseURL, workerID string, opts ...Option) worker.WorkUnitClient {
	c := &httpWorkUnitClient{
		baseURL:    baseURL,
		workerID:   workerID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// GetWorkItem leases one work item. A 204 from the controller means no
// work is available and returns (nil, nil).
func (c *httpWorkUnitClient) GetWorkItem(ctx context.Context) (*worker.WorkItem, error) {
	body, err := json.Marshal(leaseRequest{WorkerID: c.workerID})
	if err != nil {
		return nil, err
	}
	resp, err := c.post(ctx, "/v1/work/lease", body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lease request failed with status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read lease response: %w", err)
	}
	workItem := &worker.WorkItem{}
	if err := json.Unmarshal(data, workItem); err != nil {
		return nil, fmt.Errorf("failed to unmarshal work item: %w", err)
	}
	return workItem, nil
}

// ReportWorkItemStatus pushes one status report.
func (c *httpWorkUnitClient) ReportWorkItemStatus(ctx context.Context, status *worker.WorkItemStatus) error {
	body, err := json.Marshal(status)
	if err != nil {
		return err
	}
	resp, err := c.post(ctx, "/v1/work/status", body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("status report failed with status %s", resp.Status)
	}
	return nil
}

func (c *httpWorkUnitClient) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}
