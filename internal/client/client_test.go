package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"butterfly/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Bookings(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/bookings", func(w http.ResponseWriter, r *http.Request) {
		var in models.BookingInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b := models.Booking{ID: "1", Reference: "BFAAAA11", Name: in.Name, Phone: in.Phone, Status: models.StatusPending}
		_ = json.NewEncoder(w).Encode(models.BookingResponse{Success: true, Message: "Booking created successfully", Reference: b.Reference, Booking: &b})
	})
	mux.HandleFunc("GET /api/bookings", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, "extra", r.Header.Get("x-api-extra"))
		_ = json.NewEncoder(w).Encode(models.BookingListResponse{Success: true, Bookings: []models.Booking{{ID: "1"}}})
	})
	mux.HandleFunc("GET /api/bookings/{reference}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{Message: "Booking not found"})
	})
	mux.HandleFunc("GET /api/bookings/export", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("xlsx-bytes"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := New(ts.URL+"/", "key", "extra")
	ctx := context.Background()

	created, err := c.CreateBooking(ctx, models.BookingInput{Name: "Asha", Phone: "1"})
	require.NoError(t, err)
	assert.Equal(t, "BFAAAA11", created.Reference)
	assert.Equal(t, "Asha", created.Booking.Name)

	list, err := c.ListBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = c.FindBooking(ctx, "BFNOPE00")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "http 404: Booking not found", err.Error())

	var buf bytes.Buffer
	require.NoError(t, c.ExportBookings(ctx, &buf))
	assert.Equal(t, "xlsx-bytes", buf.String())
}

func TestClient_MenuCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	var listCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/menu", func(w http.ResponseWriter, r *http.Request) {
		listCalls.Add(1)
		_ = json.NewEncoder(w).Encode(models.MenuListResponse{Success: true, Items: []models.MenuItem{{ID: "1", Name: "Pasta"}}})
	})
	mux.HandleFunc("PUT /api/menu/{id}/toggle", func(w http.ResponseWriter, r *http.Request) {
		item := models.MenuItem{ID: r.PathValue("id"), Available: false}
		_ = json.NewEncoder(w).Encode(models.MenuResponse{Success: true, Message: "Menu item disabled successfully", Item: &item})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := New(ts.URL, "", "")
	c.UseRedisCache(rdb, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		items, err := c.ListMenu(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Pasta", items[0].Name)
	}
	assert.Equal(t, int32(1), listCalls.Load())
	assert.True(t, mr.Exists(menuCacheKey))

	item, err := c.ToggleMenuItem(ctx, "1")
	require.NoError(t, err)
	assert.False(t, item.Available)
	assert.False(t, mr.Exists(menuCacheKey))

	_, err = c.ListMenu(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), listCalls.Load())
}

func TestClient_MenuItems(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/menu/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "1" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(models.ErrorResponse{Message: "Menu item not found"})
			return
		}
		item := models.MenuItem{ID: "1", Name: "Pasta", Price: 1800}
		_ = json.NewEncoder(w).Encode(models.MenuResponse{Success: true, Item: &item})
	})
	mux.HandleFunc("POST /api/menu", func(w http.ResponseWriter, r *http.Request) {
		var in models.MenuItemInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		item := in.NewMenuItem()
		item.ID = "2"
		_ = json.NewEncoder(w).Encode(models.MenuResponse{Success: true, Item: &item})
	})
	mux.HandleFunc("PUT /api/menu/{id}", func(w http.ResponseWriter, r *http.Request) {
		var patch models.MenuItemPatch
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		item := models.MenuItem{ID: r.PathValue("id"), Name: "Pasta", Price: *patch.Price}
		_ = json.NewEncoder(w).Encode(models.MenuResponse{Success: true, Item: &item})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := New(ts.URL, "key", "extra")
	ctx := context.Background()

	item, err := c.GetMenuItem(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Pasta", item.Name)

	_, err = c.GetMenuItem(ctx, "9")
	assert.True(t, IsNotFound(err))

	created, err := c.CreateMenuItem(ctx, models.MenuItemInput{Name: "Soup", Description: "Hot", Price: 300, Category: "Starters"})
	require.NoError(t, err)
	assert.Equal(t, "2", created.ID)
	assert.Equal(t, "Soup", created.Name)

	price := int64(1900)
	updated, err := c.UpdateMenuItem(ctx, "1", models.MenuItemPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, int64(1900), updated.Price)
}

func TestClient_Ping(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ping", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "pong"})
	}))
	defer ts.Close()

	msg, err := New(ts.URL, "", "").Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pong", msg)
}
