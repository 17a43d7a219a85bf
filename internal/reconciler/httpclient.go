package reconciler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// Client is the HTTP implementation of DocumentsAPI, plus the auth calls
// needed to drive a whole session. The session cookie issued by login lives
// in the client's cookie jar.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ DocumentsAPI = (*Client)(nil)

// NewClient creates a Client for the server at baseURL.
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Login validates the shared password and stores the session cookie.
func (c *Client) Login(ctx context.Context, password string) error {
	payload, _ := json.Marshal(map[string]string{"password": password})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

// Status reports whether the stored session is still valid.
func (c *Client) Status(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/status", nil)
	if err != nil {
		return false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var body struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, err
	}
	return body.Authenticated, nil
}

// Logout drops the server-side session. Safe to call without one.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/logout", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// ListDocuments implements DocumentsAPI.
func (c *Client) ListDocuments(ctx context.Context) ([]RemoteDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/documents", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var body struct {
		Documents []RemoteDocument `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Documents, nil
}

// UploadDocument stores a new draft. Not part of DocumentsAPI; the
// reconciler only refreshes after uploads done elsewhere, but command-line
// frontends need the call.
func (c *Client) UploadDocument(ctx context.Context, filename string, content io.Reader) (RemoteDocument, error) {
	return c.postFile(ctx, "/api/documents", filename, content, http.StatusCreated)
}

// SignDocument implements DocumentsAPI.
func (c *Client) SignDocument(ctx context.Context, id, filename string, content io.Reader) (RemoteDocument, error) {
	return c.postFile(ctx, "/api/documents/"+id+"/sign", filename, content, http.StatusOK)
}

// DeleteDocument implements DocumentsAPI.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/documents/"+id, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

// FetchFile implements DocumentsAPI. url is usually an absolute signed URL
// pointing at the storage backend; relative paths resolve against the API.
func (c *Client) FetchFile(ctx context.Context, url string) ([]byte, error) {
	if strings.HasPrefix(url, "/") {
		url = c.baseURL + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch file: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) postFile(ctx context.Context, path, filename string, content io.Reader, wantStatus int) (RemoteDocument, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return RemoteDocument{}, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return RemoteDocument{}, err
	}
	if err := writer.Close(); err != nil {
		return RemoteDocument{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return RemoteDocument{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return RemoteDocument{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return RemoteDocument{}, ErrUnauthenticated
	}
	if resp.StatusCode != wantStatus {
		return RemoteDocument{}, apiError(resp)
	}

	var payload struct {
		Document RemoteDocument `json:"document"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return RemoteDocument{}, err
	}
	return payload.Document, nil
}

// apiError extracts the server's {"error": message} body so the message can
// be surfaced verbatim to the user.
func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return errors.New(body.Error)
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}
