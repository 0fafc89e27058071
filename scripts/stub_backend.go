// Runs a seeded stub backend on localhost:8000 so shopctl can be
// exercised without the real API:
//
//	go run scripts/stub_backend.go
//	shopctl login -u demo -p demo
package main

import (
	"fmt"
	"net/http"
	"os"

	"shopfront/internal/model"
	"shopfront/internal/stubapi"
)

func main() {
	server := stubapi.New()

	server.AddAccount("demo", "demo", "demo@example.com")
	server.AddAddress("demo", model.Address{
		ReceiverName:  "Demo User",
		ReceiverPhone: "13800000000",
		Province:      "Guangdong",
		City:          "Shenzhen",
		District:      "Nanshan",
		Detail:        "1 Demo Road",
		IsDefault:     true,
	})

	server.AddProduct(model.Product{
		Name: "Wireless Mouse", Price: 50, Stock: 20,
		Category: "electronics", IsFeatured: true,
	})
	server.AddProduct(model.Product{
		Name: "USB-C Cable", Price: 30, Stock: 100,
		Category: "electronics",
	})
	server.AddProduct(model.Product{
		Name: "Mechanical Keyboard", Price: 250, Stock: 8,
		Category: "electronics", IsFeatured: true,
	})
	server.AddProduct(model.Product{
		Name: "Ceramic Mug", Price: 15, Stock: 40,
		Category: "home",
	})

	addr := "localhost:8000"
	mux := http.NewServeMux()
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", server.Handler()))

	fmt.Printf("stub backend listening on http://%s/api/v1\n", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
