package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardworks/loyalty-cards-be/internal/blob"
	"github.com/cardworks/loyalty-cards-be/internal/config"
	"github.com/cardworks/loyalty-cards-be/internal/consumer"
	"github.com/cardworks/loyalty-cards-be/internal/handler"
	"github.com/cardworks/loyalty-cards-be/internal/ingest"
	"github.com/cardworks/loyalty-cards-be/internal/queue"
	"github.com/cardworks/loyalty-cards-be/internal/registry"
	"github.com/cardworks/loyalty-cards-be/internal/server"
	"github.com/cardworks/loyalty-cards-be/internal/storage"
	"github.com/cardworks/loyalty-cards-be/internal/validate"
	"github.com/cardworks/loyalty-cards-be/pkg/logger"
)

type testEnv struct {
	server   *httptest.Server
	store    *storage.MemoryStore
	queue    *queue.MemoryQueue
	blobRoot string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	log := logger.NewNop()
	store := storage.NewMemoryStore()

	validator, err := validate.NewCreateCardValidator()
	require.NoError(t, err)

	cardRegistry := registry.New(store, validator, log)

	q := queue.NewMemoryQueue(queue.MemoryQueueConfig{
		ChannelBuffer: 100,
		WorkerCount:   5,
		MaxRetries:    3,
		RetryBase:     time.Millisecond,
	}, log)

	cardConsumer := consumer.New(cardRegistry, log)
	require.NoError(t, q.Start(context.Background(), cardConsumer))

	blobRoot := t.TempDir()
	blobs := blob.NewFSStore(blobRoot)

	pipeline := ingest.NewPipeline(blobs, validator, q, 1000, log)

	cardHandler := handler.NewCardHandler(cardRegistry, pipeline, 20, 100, log)
	healthHandler := handler.NewHealthHandler()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
	}

	srv := server.New(cfg, log, cardHandler, healthHandler)
	testServer := httptest.NewServer(srv.Handler())

	t.Cleanup(func() {
		testServer.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = q.Shutdown(shutdownCtx)
	})

	return &testEnv{
		server:   testServer,
		store:    store,
		queue:    q,
		blobRoot: blobRoot,
	}
}

func postJSON(t *testing.T, url string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	return resp, result
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]interface{}) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	return resp, result
}

func TestCreateAndFindFlow(t *testing.T) {
	env := setupTestServer(t)

	resp, created := postJSON(t, env.server.URL+"/loyalty-cards", map[string]interface{}{
		"firstName":  "John",
		"lastName":   "Doe",
		"cardNumber": "1111-2222-3333-4444",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "1111-2222-3333-4444", created["cardNumber"])
	assert.Equal(t, float64(0), created["points"])
	assert.NotEmpty(t, created["createdAt"])
	assert.Equal(t, created["createdAt"], created["lastUpdatedAt"])

	// Duplicate creation is a client fault.
	resp, dup := postJSON(t, env.server.URL+"/loyalty-cards", map[string]interface{}{
		"firstName":  "John",
		"lastName":   "Doe",
		"cardNumber": "1111-2222-3333-4444",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, dup["message"])

	resp, found := getJSON(t, env.server.URL+"/loyalty-cards/1111-2222-3333-4444")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "John", found["firstName"])

	resp, _ = getJSON(t, env.server.URL+"/loyalty-cards/0000-0000-0000-0000")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateValidation(t *testing.T) {
	env := setupTestServer(t)

	resp, result := postJSON(t, env.server.URL+"/loyalty-cards", map[string]interface{}{
		"firstName":  "John",
		"lastName":   "Doe",
		"cardNumber": "not-a-card-number",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, result["message"], "cardNumber")
}

func TestCreateWithPoints(t *testing.T) {
	env := setupTestServer(t)

	resp, created := postJSON(t, env.server.URL+"/loyalty-cards", map[string]interface{}{
		"firstName":  "Jane",
		"lastName":   "Smith",
		"cardNumber": "5555-6666-7777-8888",
		"points":     25,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(25), created["points"])
}

func TestListPagination(t *testing.T) {
	env := setupTestServer(t)

	total := 5
	for i := 0; i < total; i++ {
		resp, _ := postJSON(t, env.server.URL+"/loyalty-cards", map[string]interface{}{
			"firstName":  "User",
			"lastName":   fmt.Sprintf("Number%d", i+1),
			"cardNumber": fmt.Sprintf("%04d-0000-0000-0000", i+1),
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	seen := map[string]bool{}
	url := env.server.URL + "/loyalty-cards?limit=2"
	for {
		resp, page := getJSON(t, url)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		cards, ok := page["loyaltyCards"].([]interface{})
		require.True(t, ok)
		for _, item := range cards {
			card := item.(map[string]interface{})
			number := card["cardNumber"].(string)
			assert.False(t, seen[number], "card %s repeated across pages", number)
			seen[number] = true
		}

		token, hasMore := page["nextToken"].(string)
		if !hasMore {
			assert.Nil(t, page["nextToken"])
			break
		}
		url = env.server.URL + "/loyalty-cards?limit=2&nextToken=" + token
	}

	assert.Len(t, seen, total)
}

func TestImportFlow(t *testing.T) {
	env := setupTestServer(t)

	csvContent := "cardNumber,firstName,lastName,points\n" +
		"1111-2222-3333-4444,John,Doe,10\n" +
		"bad-number,Jane,Smith,5\n" +
		"5555-6666-7777-8888,Mark,Twain,0\n"

	uploadsDir := filepath.Join(env.blobRoot, "uploads")
	require.NoError(t, os.MkdirAll(uploadsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(uploadsDir, "cards.csv"), []byte(csvContent), 0o644))

	resp, result := postJSON(t, env.server.URL+"/loyalty-cards/imports", map[string]interface{}{
		"objectKey":     "cards.csv",
		"containerName": "uploads",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "processing", result["status"])

	ctx := context.Background()
	assert.Eventually(t, func() bool {
		first, err := env.store.GetByCardNumber(ctx, "1111-2222-3333-4444")
		if err != nil || first == nil {
			return false
		}
		second, err := env.store.GetByCardNumber(ctx, "5555-6666-7777-8888")
		return err == nil && second != nil
	}, 5*time.Second, 10*time.Millisecond)

	// The invalid row never became a card.
	dropped, err := env.store.GetByCardNumber(ctx, "bad-number")
	require.NoError(t, err)
	assert.Nil(t, dropped)

	first, err := env.store.GetByCardNumber(ctx, "1111-2222-3333-4444")
	require.NoError(t, err)
	assert.Equal(t, 10, first.Points)
}

func TestImportIsIdempotentAcrossRedelivery(t *testing.T) {
	env := setupTestServer(t)

	// Card exists before its row arrives through the queue.
	resp, _ := postJSON(t, env.server.URL+"/loyalty-cards", map[string]interface{}{
		"firstName":  "John",
		"lastName":   "Doe",
		"cardNumber": "1111-2222-3333-4444",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	csvContent := "cardNumber,firstName,lastName,points\n" +
		"1111-2222-3333-4444,John,Doe,10\n" +
		"5555-6666-7777-8888,Jane,Smith,3\n"

	uploadsDir := filepath.Join(env.blobRoot, "uploads")
	require.NoError(t, os.MkdirAll(uploadsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(uploadsDir, "cards.csv"), []byte(csvContent), 0o644))

	resp, _ = postJSON(t, env.server.URL+"/loyalty-cards/imports", map[string]interface{}{
		"objectKey":     "cards.csv",
		"containerName": "uploads",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	ctx := context.Background()
	assert.Eventually(t, func() bool {
		card, err := env.store.GetByCardNumber(ctx, "5555-6666-7777-8888")
		return err == nil && card != nil
	}, 5*time.Second, 10*time.Millisecond)

	// The duplicate delivery was absorbed; the original record stands.
	card, err := env.store.GetByCardNumber(ctx, "1111-2222-3333-4444")
	require.NoError(t, err)
	assert.Equal(t, 0, card.Points)
}

func TestHealthCheck(t *testing.T) {
	env := setupTestServer(t)

	resp, result := getJSON(t, env.server.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, "loyalty-cards-be", result["service"])
	assert.NotEmpty(t, result["uptime"])
	assert.NotEmpty(t, result["timestamp"])
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
