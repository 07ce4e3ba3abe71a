package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/notex/internal/models"
	"github.com/iudanet/notex/pkg/api"
)

// ClientAPI is the subset of the server API used by the sync service and CLI
type ClientAPI interface {
	Changes(ctx context.Context, since models.SyncVersion, limit int) (*api.SyncResponse, error)
	Watch(ctx context.Context, fn func(api.ChangeNotification)) error
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 response from the server
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	dialer     *websocket.Dialer
	baseURL    string
}

var _ ClientAPI = (*Client)(nil)

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Changes fetches one page of the change feed after since.
// A non-positive limit leaves the page size to the server.
func (c *Client) Changes(ctx context.Context, since models.SyncVersion, limit int) (*api.SyncResponse, error) {
	query := url.Values{}
	query.Set("since", strconv.FormatInt(int64(since), 10))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp api.SyncResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/sync?"+query.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("changes request failed: %w", err)
	}
	if resp.Entries == nil {
		resp.Entries = []api.FeedEntry{}
	}
	return &resp, nil
}

// CreateNotebook создает блокнот
func (c *Client) CreateNotebook(ctx context.Context, in models.NewNotebook) (*models.Notebook, error) {
	var nb models.Notebook
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/notebooks", in, &nb); err != nil {
		return nil, fmt.Errorf("create notebook request failed: %w", err)
	}
	return &nb, nil
}

// UpdateNotebook изменяет блокнот
func (c *Client) UpdateNotebook(ctx context.Context, id int64, in models.NotebookUpdate) (*models.Notebook, error) {
	var nb models.Notebook
	if err := c.doRequest(ctx, http.MethodPut, resourcePath("notebooks", id), in, &nb); err != nil {
		return nil, fmt.Errorf("update notebook request failed: %w", err)
	}
	return &nb, nil
}

// CreateNote создает заметку
func (c *Client) CreateNote(ctx context.Context, in models.NewNote) (*models.Note, error) {
	var note models.Note
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/notes", in, &note); err != nil {
		return nil, fmt.Errorf("create note request failed: %w", err)
	}
	return &note, nil
}

// UpdateNote изменяет заметку
func (c *Client) UpdateNote(ctx context.Context, id int64, in models.NoteUpdate) (*models.Note, error) {
	var note models.Note
	if err := c.doRequest(ctx, http.MethodPut, resourcePath("notes", id), in, &note); err != nil {
		return nil, fmt.Errorf("update note request failed: %w", err)
	}
	return &note, nil
}

// CreateContentBlock создает блок содержимого
func (c *Client) CreateContentBlock(ctx context.Context, in models.NewContentBlock) (*models.ContentBlock, error) {
	var block models.ContentBlock
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/content-blocks", in, &block); err != nil {
		return nil, fmt.Errorf("create content block request failed: %w", err)
	}
	return &block, nil
}

// UpdateContentBlock изменяет блок содержимого
func (c *Client) UpdateContentBlock(ctx context.Context, id int64, in models.ContentBlockUpdate) (*models.ContentBlock, error) {
	var block models.ContentBlock
	if err := c.doRequest(ctx, http.MethodPut, resourcePath("content-blocks", id), in, &block); err != nil {
		return nil, fmt.Errorf("update content block request failed: %w", err)
	}
	return &block, nil
}

// Delete удаляет ресурс заданного типа и возвращает tombstone
func (c *Client) Delete(ctx context.Context, kind models.Kind, id int64) (*models.Deletion, error) {
	segment, err := kindSegment(kind)
	if err != nil {
		return nil, err
	}

	var del models.Deletion
	if err := c.doRequest(ctx, http.MethodDelete, resourcePath(segment, id), nil, &del); err != nil {
		return nil, fmt.Errorf("delete %s request failed: %w", kind, err)
	}
	return &del, nil
}

// Watch subscribes to change notifications and calls fn for each one.
// It returns when ctx is cancelled or the connection drops.
func (c *Client) Watch(ctx context.Context, fn func(api.ChangeNotification)) error {
	wsURL, err := c.websocketURL("/api/v1/sync/ws")
	if err != nil {
		return err
	}

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}

	// Закрываем соединение при отмене контекста, чтобы разблокировать ReadJSON
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer func() {
		stop()
		_ = conn.Close()
	}()

	for {
		var n api.ChangeNotification
		if err := conn.ReadJSON(&n); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("failed to read notification: %w", err)
		}
		if n.Type != api.NotificationTypeChanges {
			continue
		}
		fn(n)
	}
}

func (c *Client) websocketURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	return u.String(), nil
}

func resourcePath(segment string, id int64) string {
	return "/api/v1/" + segment + "/" + strconv.FormatInt(id, 10)
}

func kindSegment(kind models.Kind) (string, error) {
	switch kind {
	case models.KindNotebook:
		return "notebooks", nil
	case models.KindNote:
		return "notes", nil
	case models.KindContentBlock:
		return "content-blocks", nil
	default:
		return "", fmt.Errorf("unknown resource kind %q", kind)
	}
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && (errResp.Message != "" || errResp.Error != "") {
			msg := errResp.Message
			if msg == "" {
				msg = errResp.Error
			}
			return &StatusError{StatusCode: resp.StatusCode, Message: msg}
		}
		return &StatusError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
