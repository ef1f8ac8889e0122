package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginThenListCharacters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "reader@example.com", body["email"])
			_ = json.NewEncoder(w).Encode(map[string]any{"token": "tok-1"})
		case "/api/v1/characters":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			assert.Equal(t, "detective", r.URL.Query().Get("tag"))
			_, _ = w.Write([]byte(`[{"id":1,"name":"Sherlock Holmes","book":"A Study in Scarlet","tags":["detective"]}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newAPIClient(srv.URL + "/")
	require.NoError(t, c.Login("reader@example.com", "correct-horse"))

	characters, err := c.Characters("detective")
	require.NoError(t, err)
	require.Len(t, characters, 1)
	assert.Equal(t, "Sherlock Holmes from A Study in Scarlet", characters[0].String())
}

func TestDetailPrintsHistoryBySender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/characters/7", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"character": {"id":7,"name":"Sherlock Holmes","book":"A Study in Scarlet","tags":[]},
			"conversation_id": 3,
			"history": [
				{"id":1,"conversation_id":3,"message_text":"Hello","is_user_message":true},
				{"id":2,"conversation_id":3,"message_text":"Good day.","is_user_message":false}
			]
		}`))
	}))
	defer srv.Close()

	detail, err := newAPIClient(srv.URL).Detail(7)
	require.NoError(t, err)
	assert.Equal(t, uint(3), detail.ConversationID)

	var out bytes.Buffer
	printHistory(&out, detail)
	assert.Equal(t, "Chatting with Sherlock Holmes from A Study in Scarlet\n[user] Hello\n[character] Good day.\n", out.String())
}

func TestErrorBodiesAreDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid email or password","code":"INVALID_CREDENTIALS"}`))
	}))
	defer srv.Close()

	err := newAPIClient(srv.URL).Login("reader@example.com", "wrong")

	var apiErr *apiError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
}

func TestDialPassesTokenInQuery(t *testing.T) {
	upgrader := websocket.Upgrader{}
	gotToken := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken <- r.URL.Query().Get("token")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.Close()
	}))
	defer srv.Close()

	c := newAPIClient(srv.URL)
	c.token = "tok-2"

	conn, err := c.Dial()
	require.NoError(t, err)
	_ = conn.Close()
	assert.Equal(t, "tok-2", <-gotToken)
}
