//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/minimarket-pos/internal/adapters/memory"
	redis_a "github.com/ammerola/minimarket-pos/internal/adapters/redis_adapter"
	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
	"github.com/ammerola/minimarket-pos/internal/core/services"
	"github.com/ammerola/minimarket-pos/internal/handlers"
	"github.com/ammerola/minimarket-pos/internal/handlers/middleware"
	"github.com/ammerola/minimarket-pos/test/helpers"
)

type RegisterE2ESuite struct {
	suite.Suite
	server    *httptest.Server
	client    *http.Client
	baseURL   string
	store     *memory.Store
	testRedis *helpers.TestRedis
	product   domain.Product
}

func (s *RegisterE2ESuite) SetupTest() {
	s.testRedis = helpers.SetupTestRedis(s.T())
	s.store = memory.NewStore()

	s.product = helpers.CreateTestProduct()
	s.Require().NoError(s.store.SaveProduct(context.Background(), &s.product))

	s.server = s.startTestServer()
	s.client = &http.Client{Timeout: 10 * time.Second}
	s.baseURL = s.server.URL + "/api/v1"
}

func (s *RegisterE2ESuite) TearDownTest() {
	s.server.Close()
}

func (s *RegisterE2ESuite) TestCompleteSaleWorkflow() {
	// 1. Receive two lots, the later-expiring one first
	late := s.createLot(20, "2031-06-30")
	early := s.createLot(10, "2030-01-15")

	// 2. The listing recommends the lot that expires first
	listing := s.listLots()
	s.Require().Len(listing.Lots, 2)
	s.Equal(early, listing.Lots[0].ID)
	s.Equal(late, listing.Lots[1].ID)
	s.Require().NotNil(listing.Recommended)
	s.Equal(early, listing.Recommended.ID)

	// 3. Quote a wholesale cart with a 10% discount
	cart := map[string]interface{}{
		"lines": []map[string]interface{}{
			{"productId": s.product.ID, "lotId": early, "quantity": 3, "saleFormat": "unitario"},
		},
		"discount": map[string]interface{}{"type": "percentage", "value": 10},
	}
	resp := s.makeRequest("POST", "/cart/quote", cart, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var quote ports.CartQuote
	s.decodeResponse(resp, &quote)
	s.True(decimal.NewFromInt(2400).Equal(quote.Totals.Subtotal))
	s.True(decimal.NewFromInt(2160).Equal(quote.Totals.Total))
	s.True(decimal.NewFromInt(600).Equal(quote.Totals.Savings))

	// 4. Finalize the same cart
	sale := map[string]interface{}{
		"sellerId": "register-1",
		"lines":    cart["lines"],
		"discount": cart["discount"],
	}
	key := map[string]string{handlers.HeaderIdempotencyKey: uuid.NewString()}
	resp = s.makeRequest("POST", "/sales", sale, key)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var result domain.SaleResult
	s.decodeResponse(resp, &result)
	s.Equal(int64(1), result.TicketNumber)
	s.True(decimal.NewFromInt(2160).Equal(result.TotalAmount))
	s.Require().Len(result.Lines, 1)
	s.Equal(domain.TierWholesale, result.Lines[0].PriceTier)

	// 5. A retried request replays the committed sale
	resp = s.makeRequest("POST", "/sales", sale, key)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var replay domain.SaleResult
	s.decodeResponse(resp, &replay)
	s.Equal(result.SaleID, replay.SaleID)
	s.True(replay.Replayed)

	// 6. The sale can be read back
	resp = s.makeRequest("GET", "/sales/"+result.SaleID.String(), nil, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// 7. Stock moved once, visible after the cached listing expires
	s.testRedis.Server.FastForward(2 * time.Minute)
	listing = s.listLots()
	s.Equal(7, listing.Lots[0].CurrentQuantity)
	s.Equal(20, listing.Lots[1].CurrentQuantity)

	// 8. A lot with sales cannot be deleted, an untouched one can
	resp = s.makeRequest("DELETE", "/lots/"+early.String(), nil, nil)
	s.Equal(http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = s.makeRequest("DELETE", "/lots/"+late.String(), nil, nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func (s *RegisterE2ESuite) TestInsufficientStockLeavesNothingBehind() {
	lotA := s.createLot(5, "2030-01-15")
	lotB := s.createLot(1, "2030-02-15")

	sale := map[string]interface{}{
		"sellerId": "register-1",
		"lines": []map[string]interface{}{
			{"productId": s.product.ID, "lotId": lotA, "quantity": 2},
			{"productId": s.product.ID, "lotId": lotB, "quantity": 2},
		},
	}
	resp := s.makeRequest("POST", "/sales", sale, nil)
	s.Require().Equal(http.StatusUnprocessableEntity, resp.StatusCode)

	var body handlers.ErrorResponse
	s.decodeResponse(resp, &body)
	s.Equal(domain.CodeInsufficientStock, body.Code)

	snapshot := s.store.Snapshot()
	s.Equal(5, snapshot[lotA])
	s.Equal(1, snapshot[lotB])
	s.Equal(0, s.store.SaleCount())
}

func (s *RegisterE2ESuite) TestConcurrentRegistersNeverOversell() {
	lotID := s.createLot(10, "2030-01-15")

	const registers = 8
	var wg sync.WaitGroup
	statuses := make(chan int, registers)

	for i := 0; i < registers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sale := map[string]interface{}{
				"sellerId": fmt.Sprintf("register-%d", idx),
				"lines": []map[string]interface{}{
					{"productId": s.product.ID, "lotId": lotID, "quantity": 6},
				},
			}
			resp := s.makeRequest("POST", "/sales", sale, nil)
			resp.Body.Close()
			statuses <- resp.StatusCode
		}(i)
	}
	wg.Wait()
	close(statuses)

	created := 0
	for status := range statuses {
		switch status {
		case http.StatusCreated:
			created++
		default:
			s.Equal(http.StatusUnprocessableEntity, status)
		}
	}

	s.Equal(1, created)
	s.Equal(4, s.store.Snapshot()[lotID])
}

func (s *RegisterE2ESuite) TestHealthCheck() {
	resp, err := s.client.Get(s.server.URL + "/health")
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)

	var health handlers.HealthStatus
	s.decodeResponse(resp, &health)
	s.Equal("healthy", health.Status)
	s.Equal("disabled", health.Services["database"].Status)
	s.Equal("healthy", health.Services["redis"].Status)
}

// Helper methods

func (s *RegisterE2ESuite) startTestServer() *httptest.Server {
	logger := helpers.TestLogger()
	cfg := helpers.LoadTestConfig()
	policy := cfg.Sales.PricingPolicy()

	cache := redis_a.NewCache(s.testRedis.Client, cfg.Redis.TTL, logger)
	guard := redis_a.NewIdempotencyGuard(cache, cfg.Sales.IdempotencyTTL, logger)

	saleService := services.NewSaleService(s.store, s.store, s.store.Sales(), policy, logger,
		services.WithIdempotencyGuard(guard))
	lotService := services.NewLotService(s.store, s.store, cache, cfg.Sales.LotCacheTTL, policy, logger)
	cartService := services.NewCartService(s.store, s.store, policy, logger)

	mux := http.NewServeMux()
	handlers.Routes{
		Health: handlers.NewHealthHandler(nil, s.testRedis.Client, nil, cfg, logger),
		Sales:  handlers.NewSaleHandler(saleService, logger),
		Carts:  handlers.NewCartHandler(cartService, logger),
		Lots:   handlers.NewLotHandler(lotService, logger),
	}.Register(mux)

	return httptest.NewServer(middleware.Chain(mux,
		middleware.Recovery(logger),
		middleware.RequestID(""),
		middleware.SellerID(""),
		middleware.Logger(logger),
		middleware.MaxBody(1<<20),
	))
}

func (s *RegisterE2ESuite) createLot(quantity int, expires string) uuid.UUID {
	req := map[string]interface{}{
		"initial_quantity":     quantity,
		"purchase_price":       600,
		"sale_price_unit":      1000,
		"sale_price_box":       9000,
		"sale_price_wholesale": 800,
		"expiration_date":      expires,
	}
	resp := s.makeRequest("POST", "/products/"+s.product.ID.String()+"/lots", req, nil)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var lot domain.StockLot
	s.decodeResponse(resp, &lot)
	return lot.ID
}

func (s *RegisterE2ESuite) listLots() ports.LotListing {
	resp := s.makeRequest("GET", "/products/"+s.product.ID.String()+"/lots", nil, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var listing ports.LotListing
	s.decodeResponse(resp, &listing)
	return listing
}

func (s *RegisterE2ESuite) makeRequest(method, path string, body interface{}, headers map[string]string) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		s.NoError(err)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	s.NoError(err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	s.Require().NoError(err)

	return resp
}

func (s *RegisterE2ESuite) decodeResponse(resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	err := json.NewDecoder(resp.Body).Decode(v)
	s.NoError(err)
}

func TestRegisterE2ESuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	suite.Run(t, new(RegisterE2ESuite))
}
