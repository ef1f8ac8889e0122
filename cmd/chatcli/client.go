package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"literary-character-ai/backend/internal/models"
	"literary-character-ai/backend/internal/service"

	"github.com/gorilla/websocket"
)

// apiClient talks to the HTTP API on behalf of one user
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError is the error body every endpoint renders
type apiError struct {
	Status  int
	Message string `json:"error"`
	Code    string `json:"code"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

func (a *apiClient) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &apiError{Status: resp.StatusCode}
		bodyBytes, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(bodyBytes, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(bodyBytes))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// Login stores the token for later calls
func (a *apiClient) Login(email, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	if err := a.do(http.MethodPost, "/api/v1/auth/login", models.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return err
	}
	a.token = resp.Token
	return nil
}

func (a *apiClient) Characters(tag string) ([]models.Character, error) {
	path := "/api/v1/characters"
	if tag != "" {
		path += "?tag=" + url.QueryEscape(tag)
	}

	var characters []models.Character
	if err := a.do(http.MethodGet, path, nil, &characters); err != nil {
		return nil, err
	}
	return characters, nil
}

// Detail fetches a character with the caller's stored conversation
func (a *apiClient) Detail(characterID uint) (*service.CharacterDetail, error) {
	var detail service.CharacterDetail
	if err := a.do(http.MethodGet, "/api/v1/characters/"+strconv.FormatUint(uint64(characterID), 10), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Dial opens the chat socket, passing the token as a query parameter
func (a *apiClient) Dial() (*websocket.Conn, error) {
	u, err := url.Parse(a.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": {a.token}}.Encode()

	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("error connecting to WebSocket: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("error connecting to WebSocket: %w", err)
	}
	return conn, nil
}
