package billgate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mkelly/billgate/internal/connector"
	"github.com/mkelly/billgate/internal/model"
)

// billingHandler scripts one mock billing service connection.
type billingHandler func(conn *websocket.Conn, attempt int)

// mockService runs a WebSocket billing service that counts connections.
func mockService(t *testing.T, handler billingHandler) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	var mu sync.Mutex
	attempts := 0

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn, n)
	}))
}

func serviceURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// accept reads the hello command and accepts it.
func accept(conn *websocket.Conn, features []string) (helloID string, ok bool) {
	var cmd connector.Command
	if err := conn.ReadJSON(&cmd); err != nil {
		return "", false
	}
	conn.WriteJSON(map[string]any{
		"id":   cmd.ID,
		"type": "connected",
		"msg":  map[string]any{"features": features},
	})
	return cmd.ID, true
}

// serveProducts answers get_products commands until the socket closes.
func serveProducts(conn *websocket.Conn) {
	for {
		var cmd connector.Command
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		if cmd.Cmd != "get_products" {
			continue
		}
		conn.WriteJSON(map[string]any{
			"id":   cmd.ID,
			"type": "products",
			"msg": map[string]any{
				"products": []map[string]any{
					{
						"product_id": "premium_upgrade",
						"type":       "inapp",
						"title":      "Premium Upgrade",
						"price":      "4.99",
						"currency":   "USD",
					},
				},
			},
		})
	}
}

func testOptions(url string) Options {
	return Options{
		ServiceURL:         url,
		ClientID:           "test-client",
		HandshakeTimeout:   2 * time.Second,
		QueryTimeout:       2 * time.Second,
		ReconnectBaseDelay: time.Millisecond,
		ReconnectMaxDelay:  10 * time.Millisecond,
	}
}

func TestGetOrCreate_Singleton(t *testing.T) {
	server := mockService(t, func(conn *websocket.Conn, attempt int) {
		if _, ok := accept(conn, []string{"subscriptions"}); !ok {
			return
		}
		serveProducts(conn)
	})
	defer server.Close()

	opts := testOptions(serviceURL(server))

	const callers = 16
	gateways := make([]*Gateway, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := GetOrCreate(opts)
			if err != nil {
				t.Errorf("GetOrCreate failed: %v", err)
			}
			gateways[i] = g
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		if gateways[i] != gateways[0] {
			t.Fatal("concurrent GetOrCreate produced distinct instances")
		}
	}

	// The singleton is live: queries resolve through it.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	products, err := gateways[0].QueryCatalog(ctx, []ProductSpec{
		{ID: "premium_upgrade", Type: ProductTypeInApp},
	})
	if err != nil {
		t.Fatalf("QueryCatalog failed: %v", err)
	}
	if len(products) != 1 || products[0].ID != "premium_upgrade" {
		t.Fatalf("unexpected products: %+v", products)
	}

	if !gateways[0].IsCapabilitySupported(CapabilitySubscriptions) {
		t.Error("advertised capability not supported")
	}
}

func TestGateway_RetryOnDisconnect(t *testing.T) {
	// Three accepted-then-dropped connections before a stable one.
	server := mockService(t, func(conn *websocket.Conn, attempt int) {
		if _, ok := accept(conn, nil); !ok {
			return
		}
		if attempt <= 3 {
			time.Sleep(10 * time.Millisecond)
			return // dropped
		}
		serveProducts(conn)
	})
	defer server.Close()

	g, err := newGateway(testOptions(serviceURL(server)))
	if err != nil {
		t.Fatalf("newGateway failed: %v", err)
	}
	defer g.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Issued at the start; must ride out every disconnect and succeed
	// without ever seeing an error.
	products, err := g.QueryCatalog(ctx, []ProductSpec{
		{ID: "premium_upgrade", Type: ProductTypeInApp},
	})
	if err != nil {
		t.Fatalf("QueryCatalog failed across reconnects: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("got %d products, want 1", len(products))
	}
}

func TestGateway_TerminalFailureSticks(t *testing.T) {
	server := mockService(t, func(conn *websocket.Conn, attempt int) {
		var cmd connector.Command
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		conn.WriteJSON(map[string]any{
			"id":   cmd.ID,
			"type": "rejected",
			"msg":  map[string]any{"code": model.CodeDeveloperError, "message": "bad key"},
		})
	})
	defer server.Close()

	g, err := newGateway(testOptions(serviceURL(server)))
	if err != nil {
		t.Fatalf("newGateway failed: %v", err)
	}
	defer g.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	specs := []ProductSpec{{ID: "premium_upgrade", Type: ProductTypeInApp}}

	_, err = g.QueryCatalog(ctx, specs)
	var berr *BillingError
	if !errors.As(err, &berr) {
		t.Fatalf("first error = %v (%T), want *BillingError", err, err)
	}
	if berr.Code != model.CodeDeveloperError {
		t.Errorf("error code = %q, want %q", berr.Code, model.CodeDeveloperError)
	}

	// Later calls fail immediately with the same classified error,
	// without a new handshake.
	start := time.Now()
	_, err2 := g.QueryCatalog(ctx, specs)
	if !errors.As(err2, &berr) {
		t.Fatalf("second error = %v, want *BillingError", err2)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("sticky failure took %v, want immediate", elapsed)
	}
}

func TestGateway_CapabilityCheckNeverSuspends(t *testing.T) {
	// Nothing listening: the gateway stays in a connect/retry cycle.
	g, err := newGateway(testOptions("ws://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("newGateway failed: %v", err)
	}
	defer g.Shutdown(context.Background())

	start := time.Now()
	if g.IsCapabilitySupported(CapabilitySubscriptions) {
		t.Error("capability reported supported with no connection")
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("capability check took %v, want non-blocking", elapsed)
	}
}

func TestGateway_QueryCatalogRequiresSpecs(t *testing.T) {
	g, err := newGateway(testOptions("ws://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("newGateway failed: %v", err)
	}
	defer g.Shutdown(context.Background())

	if _, err := g.QueryCatalog(context.Background(), nil); !errors.Is(err, ErrNoProducts) {
		t.Errorf("QueryCatalog(nil) error = %v, want ErrNoProducts", err)
	}
}
