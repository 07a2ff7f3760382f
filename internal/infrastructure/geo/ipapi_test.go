package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPAPI_Locate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/8.8.8.8/json/":
			_, _ = w.Write([]byte(`{"city":"Mountain View","country_name":"United States"}`))
		case "/127.0.0.1/json/":
			_, _ = w.Write([]byte(`{"error":true,"reason":"Reserved IP Address"}`))
		default:
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	c := NewIPAPI(srv.URL+"/", time.Second)
	ctx := context.Background()

	assert.Equal(t, "Mountain View, United States", c.Locate(ctx, "8.8.8.8"))
	assert.Equal(t, UnknownLocation, c.Locate(ctx, "127.0.0.1"))
	assert.Equal(t, UnknownLocation, c.Locate(ctx, "1.1.1.1"))
	assert.Equal(t, UnknownLocation, c.Locate(ctx, ""))
}

func TestIPAPI_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	assert.Equal(t, UnknownLocation, NewIPAPI(srv.URL, time.Second).Locate(context.Background(), "8.8.8.8"))
	assert.Equal(t, UnknownLocation, Disabled{}.Locate(context.Background(), "8.8.8.8"))
}
