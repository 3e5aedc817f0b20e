package stockdata

import "github.com/rsharda/stockpulse/internal/models"

// PopularSymbols returns the symbols of the reference list, for cache
// warming at startup.
func PopularSymbols() []string {
	symbols := make([]string, 0, len(popularStocks))
	for _, stock := range popularStocks {
		symbols = append(symbols, stock.Symbol)
	}
	return symbols
}

// popularStocks is the static reference list used by search and exchange
// listing. It is never derived from external calls.
var popularStocks = []models.PopularStock{
	{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NASDAQ"},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Exchange: "NASDAQ"},
	{Symbol: "GOOGL", Name: "Alphabet Inc.", Exchange: "NASDAQ"},
	{Symbol: "AMZN", Name: "Amazon.com Inc.", Exchange: "NASDAQ"},
	{Symbol: "TSLA", Name: "Tesla Inc.", Exchange: "NASDAQ"},
	{Symbol: "RELIANCE.NS", Name: "Reliance Industries", Exchange: "NSE"},
	{Symbol: "TCS.NS", Name: "Tata Consultancy Services", Exchange: "NSE"},
	{Symbol: "HDFCBANK.NS", Name: "HDFC Bank", Exchange: "NSE"},
}
