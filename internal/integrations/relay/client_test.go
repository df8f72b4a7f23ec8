package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClient_Send_OK(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/relay", r.URL.Path)
		require.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := New(srv.URL+"/relay", "k", time.Second)
	err := c.Send(context.Background(), Message{
		Customer:         Customer{ID: "sc1", Name: "Maria", Phone: "+5511999999999"},
		Tracking:         Tracking{ShipmentID: "s1", TrackingCode: "BR1", Status: "delivered"},
		Template:         Template{ID: "t1", Name: "Entrega", Message: "Olá Maria"},
		WhatsAppInstance: "loja-1",
	})
	require.NoError(t, err)
	require.Equal(t, "loja-1", got.WhatsAppInstance)
	require.Equal(t, "Olá Maria", got.Template.Message)
	require.Equal(t, "+5511999999999", got.Customer.Phone)
}

func TestClient_Send_NoAuthHeaderWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL, "", 0).Send(context.Background(), Message{}))
}

func TestClient_Send_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("instance offline"))
	}))
	defer srv.Close()

	err := New(srv.URL, "k", time.Second).Send(context.Background(), Message{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "relay http 502")
	require.Contains(t, err.Error(), "instance offline")
}

func TestClient_Send_NotConfigured(t *testing.T) {
	require.Error(t, New("", "", 0).Send(context.Background(), Message{}))
}
