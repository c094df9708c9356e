package product

import "github.com/shopspring/decimal"

// DefaultCategories is the category set a fresh installation starts with.
var DefaultCategories = []string{
	"Salgados Fritos",
	"Assados",
	"Esfirras",
	"Empadão",
	"Enroladinhos",
	"Açaí",
	"Bebidas",
	"Água",
	"Combos",
	"Doces",
}

// DefaultProducts is the starter catalog used when the store is empty on
// startup. Fiscal codes are NCM classifications grouped per product family.
func DefaultProducts() []Product {
	return []Product{
		{ID: 1, Name: "Coxinha de Frango", Price: decimal.RequireFromString("6.00"), Category: "Salgados Fritos", Stock: 50, MinStock: 10, FiscalCode: "19059090"},
		{ID: 2, Name: "Esfirra de Carne", Price: decimal.RequireFromString("5.00"), Category: "Esfirras", Stock: 40, MinStock: 10, FiscalCode: "19059090"},
		{ID: 3, Name: "Empadão de Frango", Price: decimal.RequireFromString("7.00"), Category: "Empadão", Stock: 15, MinStock: 5, FiscalCode: "19059090"},
		{ID: 10, Name: "Açaí no Copo 300ml", Price: decimal.RequireFromString("12.00"), Category: "Açaí", Stock: 20, MinStock: 5, FiscalCode: "21069090"},
		{ID: 11, Name: "Açaí no Copo 400ml", Price: decimal.RequireFromString("15.00"), Category: "Açaí", Stock: 20, MinStock: 5, FiscalCode: "21069090"},
		{ID: 12, Name: "Açaí no Copo 500ml", Price: decimal.RequireFromString("18.00"), Category: "Açaí", Stock: 20, MinStock: 5, FiscalCode: "21069090"},
		{ID: 20, Name: "Coca-Cola Lata 350ml", Price: decimal.RequireFromString("6.00"), Category: "Bebidas", Stock: 100, MinStock: 24, FiscalCode: "22021000"},
		{ID: 21, Name: "Água Mineral 500ml", Price: decimal.RequireFromString("4.00"), Category: "Água", Stock: 50, MinStock: 12, FiscalCode: "22011000"},
	}
}
