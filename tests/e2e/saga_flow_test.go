//go:build e2e

// Package e2e exercises the orchestrator's HTTP ingress end-to-end against a
// live RabbitMQ and Redis, with the three participant simulators
// (cmd/stockparticipant, cmd/paymentparticipant, cmd/orderparticipant)
// running alongside cmd/orchestrator. Run: go test -tags=e2e -v ./tests/e2e/...
//
// Gated the same way internal/bus's amqp_integration_test.go is: skipped
// unless ORCHESTRATOR_URL points at a running stack (docker-compose up).
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sagaTimeout  = 15 * time.Second
	pollInterval = 300 * time.Millisecond
)

type createOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type createOrderReq struct {
	UserEmail       string            `json:"user_email"`
	VendorEmail     string            `json:"vendor_email"`
	DeliveryAddress string            `json:"delivery_address"`
	PaymentMethod   string            `json:"payment_method"`
	Items           []createOrderItem `json:"items"`
}

type createOrderResp struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type orderSagaRecord struct {
	Status    string  `json:"status"`
	PaymentID *string `json:"payment_id,omitempty"`
	OrderID   *string `json:"order_id,omitempty"`
}

func orchestratorURL() string {
	if u := os.Getenv("ORCHESTRATOR_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func redisAddr() string {
	if a := os.Getenv("REDIS_ADDR"); a != "" {
		return a
	}
	return "localhost:6379"
}

func TestMain(m *testing.M) {
	if os.Getenv("ORCHESTRATOR_URL") == "" && os.Getenv("E2E_ENABLED") == "" {
		fmt.Println("⚠️  ORCHESTRATOR_URL / E2E_ENABLED not set, e2e tests skipped")
		os.Exit(0)
	}
	if !waitForOrchestrator(5 * time.Second) {
		fmt.Printf("⚠️  orchestrator %s unreachable, e2e tests skipped\n", orchestratorURL())
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func waitForOrchestrator(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := client.Get(orchestratorURL() + "/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}

func startOrder(t *testing.T, req createOrderReq) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	resp, err := http.Post(orchestratorURL()+"/orders/create_order", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(respBody))

	var result createOrderResp
	require.NoError(t, json.Unmarshal(respBody, &result))
	require.Equal(t, "success", result.Status)
}

// waitForOrderStatus polls the order-saga record directly from Redis — the
// ingress API returns as soon as the saga is started and does not wait for
// it to finish, so the store is the only external observation point
// available to an e2e test without standing up real participant domain
// services. It scans rather than requiring the caller to know the minted
// tid, since create_order's synchronous response carries no tid either.
func waitForOrderStatus(t *testing.T, rdb *redis.Client, userEmail string, terminal []string) *orderSagaRecord {
	t.Helper()
	ctx := context.Background()
	deadline := time.Now().Add(sagaTimeout)
	for time.Now().Before(deadline) {
		keys, err := rdb.Keys(ctx, "order_saga:*").Result()
		require.NoError(t, err)
		for _, key := range keys {
			raw, err := rdb.Get(ctx, key).Bytes()
			if err != nil {
				continue
			}
			var rec struct {
				orderSagaRecord
				UserEmail string `json:"user_email"`
			}
			if json.Unmarshal(raw, &rec) != nil || rec.UserEmail != userEmail {
				continue
			}
			for _, s := range terminal {
				if rec.Status == s {
					return &rec.orderSagaRecord
				}
			}
		}
		time.Sleep(pollInterval)
	}
	t.Fatalf("timed out waiting for %s's saga to reach one of %v", userEmail, terminal)
	return nil
}

// TestSagaFlow_HappyPath drives the full forward path against the real
// stack: reduce_stock/take_payment/create_order all succeed, and the saga
// reaches Completed with payment_id and order_id both populated.
func TestSagaFlow_HappyPath(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr()})
	defer rdb.Close()

	email := fmt.Sprintf("e2e-happy-%s@test.local", uuid.New().String()[:8])
	startOrder(t, createOrderReq{
		UserEmail:       email,
		VendorEmail:     "vendor@test.local",
		DeliveryAddress: "1 Main St",
		PaymentMethod:   "Credit Card",
		Items:           []createOrderItem{{ProductID: "p1", Quantity: 2, UnitPrice: 1000}},
	})

	rec := waitForOrderStatus(t, rdb, email, []string{"Completed", "Failed"})
	assert.Equal(t, "Completed", rec.Status)
	assert.NotNil(t, rec.PaymentID)
	assert.NotNil(t, rec.OrderID)
}

// TestSagaFlow_StockFailure covers the case where the stock participant
// simulator rejects any line item for product OUT_OF_STOCK, so the saga
// must fail without any rollback (nothing was reserved yet).
func TestSagaFlow_StockFailure(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr()})
	defer rdb.Close()

	email := fmt.Sprintf("e2e-stockfail-%s@test.local", uuid.New().String()[:8])
	startOrder(t, createOrderReq{
		UserEmail:       email,
		VendorEmail:     "vendor@test.local",
		DeliveryAddress: "1 Main St",
		PaymentMethod:   "Credit Card",
		Items:           []createOrderItem{{ProductID: "OUT_OF_STOCK", Quantity: 1, UnitPrice: 100}},
	})

	rec := waitForOrderStatus(t, rdb, email, []string{"Completed", "Failed"})
	assert.Equal(t, "Failed", rec.Status)
	assert.Nil(t, rec.PaymentID)
}

func TestCancelOrder_UnknownOrderID_Returns404(t *testing.T) {
	resp, err := http.Post(orchestratorURL()+"/orders/cancel_order?order_id=does-not-exist", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
