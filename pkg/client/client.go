// Package client is the Go consumer of the query pipeline API: submission,
// status polling, and an SSE reader paired with a reducer that folds the
// event stream into a renderable message.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ai-search-stream/pkg/event"
)

// Client talks to a pipeline server over HTTP.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// Job mirrors the server's status representation.
type Job struct {
	ID        string          `json:"id"`
	Query     string          `json:"query"`
	Status    event.JobStatus `json:"status"`
	Progress  int             `json:"progress"`
	LastError string          `json:"last_error,omitempty"`
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No overall timeout: Stream holds the connection open for the
		// lifetime of the job.
		httpc: &http.Client{},
	}
}

// Submit enqueues a query and returns the accepted job.
func (c *Client) Submit(ctx context.Context, query string) (*Job, error) {
	body, _ := json.Marshal(struct {
		Query string `json:"query"`
	}{Query: query})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/queries", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("submit: http %d", resp.StatusCode)
	}

	var job Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Status fetches the current snapshot of a job.
func (c *Client) Status(ctx context.Context, id string) (*Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/queries/"+id, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status: http %d", resp.StatusCode)
	}

	var job Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Stream opens the job's SSE channel and invokes handle for every event, in
// order, history first. It returns nil after the terminal event, or the
// first error from the transport, the parser or handle.
func (c *Client) Stream(ctx context.Context, id string, handle func(event.Event) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/queries/"+id+"/stream", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream: http %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var kind, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			// Blank line ends one frame.
			if kind != "" {
				ev := event.Event{Kind: event.Kind(kind), Data: json.RawMessage(data)}
				if err := handle(ev); err != nil {
					return err
				}
				if ev.Kind.Terminal() {
					return nil
				}
			}
			kind, data = "", ""
		case strings.HasPrefix(line, "event: "):
			kind = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case strings.HasPrefix(line, ":"):
			// Comment frame, used for keep-alives. Ignore.
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("stream: connection closed before terminal event")
}

// Run is the convenience loop: submit, stream, reduce. It returns the final
// message once the job reaches a terminal state.
func (c *Client) Run(ctx context.Context, query string) (Message, error) {
	job, err := c.Submit(ctx, query)
	if err != nil {
		return Message{}, err
	}

	var red Reducer
	if err := c.Stream(ctx, job.ID, func(ev event.Event) error {
		red.Apply(ev)
		return nil
	}); err != nil {
		return red.Message(), err
	}
	return red.Message(), nil
}

// WaitTerminal polls Status until the job finishes. Most callers should
// prefer Stream; this exists for consumers that cannot hold an SSE
// connection.
func (c *Client) WaitTerminal(ctx context.Context, id string, interval time.Duration) (*Job, error) {
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		job, err := c.Status(ctx, id)
		if err != nil {
			return nil, err
		}
		if job.Status.Terminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
