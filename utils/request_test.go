package utils

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type echoReply struct {
	Msg string `json:"msg"`
}

func TestGetUrlResponseWithRetry_RecoversAfterFailure(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		require.Equal(t, "7", r.URL.Query().Get("page"))
		require.NoError(t, json.NewEncoder(w).Encode(echoReply{Msg: "ok"}))
	}))
	defer srv.Close()

	var out echoReply
	err := GetUrlResponseWithRetry(srv.URL, map[string]string{"page": "7"}, &out, 3, discardLogger)
	require.NoError(t, err)
	require.Equal(t, "ok", out.Msg)
	require.EqualValues(t, 2, calls.Load())
}

func TestGetUrlResponseWithRetry_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var out echoReply
	err := GetUrlResponseWithRetry(srv.URL, nil, &out, 2, discardLogger)
	require.Error(t, err)
	require.Contains(t, err.Error(), "after 2 attempts")
}

func TestPostUrlResponseWithRetry_RoundTrip(t *testing.T) {
	type query struct {
		Limit int `json:"limit"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var q query
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		require.Equal(t, 25, q.Limit)

		require.NoError(t, json.NewEncoder(w).Encode(echoReply{Msg: "stored"}))
	}))
	defer srv.Close()

	var out echoReply
	err := PostUrlResponseWithRetry(srv.URL, query{Limit: 25}, &out, 3, discardLogger)
	require.NoError(t, err)
	require.Equal(t, "stored", out.Msg)
}

func TestOneShotHelpers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(echoReply{Msg: r.Method}))
	}))
	defer srv.Close()

	var out echoReply
	require.NoError(t, GetUrlResponse(srv.URL, nil, &out, discardLogger))
	require.Equal(t, http.MethodGet, out.Msg)

	require.NoError(t, PostUrlResponse(srv.URL, echoReply{}, &out, discardLogger))
	require.Equal(t, http.MethodPost, out.Msg)
}
