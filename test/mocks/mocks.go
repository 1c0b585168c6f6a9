// test/mocks/mocks.go

// Package mocks contains generated mocks for the application's interfaces.
// Regenerate with `go generate ./test/mocks`.
package mocks

//go:generate mockgen -source=../../internal/core/ports/stock_lot_repository.go -destination=stock_lot_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/sale_repository.go -destination=sale_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/sale_service.go -destination=sale_service_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/events.go -destination=events_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/cache.go -destination=cache_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/database.go -destination=database_mock.go -package=mocks
