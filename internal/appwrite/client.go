// Package appwrite is a minimal REST client for the Appwrite Databases API.
// Only document create and get are implemented.
package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doc-seeding/internal/docstore"
)

const maxErrorBody = 64 << 10

// Client talks to an Appwrite instance with a project API key.
type Client struct {
	endpoint   string
	projectID  string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for the given API endpoint, e.g. https://cloud.appwrite.io/v1.
func New(endpoint, projectID, apiKey string, opts ...Option) *Client {
	c := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		projectID:  projectID,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// createRequest is the JSON body for POST .../documents.
type createRequest struct {
	DocumentID string         `json:"documentId"`
	Data       map[string]any `json:"data"`
}

// errorResponse is the JSON body Appwrite returns on failure.
type errorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

// CreateDocument stores data under documentID and returns the created document.
func (c *Client) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (docstore.Document, error) {
	body, err := json.Marshal(createRequest{DocumentID: documentID, Data: data})
	if err != nil {
		return docstore.Document{}, err
	}

	var doc docstore.Document
	err = c.do(ctx, http.MethodPost, c.documentsPath(databaseID, collectionID), body, &doc)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("creating document %s: %w", documentID, err)
	}
	return doc, nil
}

// GetDocument fetches a document by id.
func (c *Client) GetDocument(ctx context.Context, databaseID, collectionID, documentID string) (docstore.Document, error) {
	var doc docstore.Document
	path := c.documentsPath(databaseID, collectionID) + "/" + url.PathEscape(documentID)
	if err := c.do(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return docstore.Document{}, fmt.Errorf("getting document %s: %w", documentID, err)
	}
	return doc, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) documentsPath(databaseID, collectionID string) string {
	return "/databases/" + url.PathEscape(databaseID) +
		"/collections/" + url.PathEscape(collectionID) + "/documents"
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, doc *docstore.Document) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-Appwrite-Project", c.projectID)
	req.Header.Set("X-Appwrite-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	id, _ := raw["$id"].(string)
	if id == "" {
		return fmt.Errorf("response has no $id")
	}
	*doc = docstore.Document{ID: id, Data: raw}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &docstore.APIError{StatusCode: resp.StatusCode}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(b) == 0 {
		return apiErr
	}
	var er errorResponse
	if json.Unmarshal(b, &er) == nil && er.Message != "" {
		apiErr.Code = er.Code
		apiErr.Type = er.Type
		apiErr.Message = er.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(b))
	return apiErr
}
