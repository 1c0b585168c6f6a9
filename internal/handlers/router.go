// internal/handlers/router.go
package handlers

import "net/http"

const apiV1 = "/api/v1"

// Routes groups the handlers served by the API. Health is optional.
type Routes struct {
	Health *HealthHandler
	Sales  *SaleHandler
	Carts  *CartHandler
	Lots   *LotHandler
}

// Register attaches every route to mux
func (rt Routes) Register(mux *http.ServeMux) {
	if rt.Health != nil {
		mux.HandleFunc("GET /health", rt.Health.Health)
		mux.HandleFunc("GET /ready", rt.Health.Readiness)
		mux.HandleFunc("GET "+apiV1+"/health", rt.Health.Health)
	}

	mux.HandleFunc("POST "+apiV1+"/sales", rt.Sales.FinalizeSale)
	mux.HandleFunc("GET "+apiV1+"/sales/{id}", rt.Sales.GetSale)

	mux.HandleFunc("POST "+apiV1+"/cart/quote", rt.Carts.Quote)

	mux.HandleFunc("GET "+apiV1+"/products/{id}/lots", rt.Lots.ListLots)
	mux.HandleFunc("POST "+apiV1+"/products/{id}/lots", rt.Lots.CreateLot)
	mux.HandleFunc("DELETE "+apiV1+"/lots/{id}", rt.Lots.DeleteLot)
}
