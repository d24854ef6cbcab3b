package report

import (
	"net/url"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/erazemk/almoxarifado/internal/model"
)

// StockFilter selects ledger rows. Item is a case-insensitive substring; the
// other fields match any listed value.
type StockFilter struct {
	Item     string
	Category []string
	Size     []string
	Status   []string
	Supplier []string
}

// Match reports whether e passes the filter.
func (f StockFilter) Match(e model.StockEntry) bool {
	if f.Item != "" && !containsFold(e.ItemName, f.Item) {
		return false
	}
	for _, s := range []struct {
		want []string
		got  string
	}{
		{f.Category, e.Category},
		{f.Size, e.Size},
		{f.Status, e.Status},
		{f.Supplier, e.Supplier},
	} {
		if len(s.want) > 0 && !slices.Contains(s.want, s.got) {
			return false
		}
	}
	return true
}

// FilterStock returns the entries that match f.
func FilterStock(entries []model.StockEntry, f StockFilter) []model.StockEntry {
	out := []model.StockEntry{}
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Valuation is the stock value per category and overall.
type Valuation struct {
	ByCategory map[string]decimal.Decimal `json:"por_tipo"`
	Units      map[string]int             `json:"unidades_por_tipo"`
	Total      decimal.Decimal            `json:"total"`
}

// Value sums quantity times unit value of the given entries.
func Value(entries []model.StockEntry) Valuation {
	v := Valuation{
		ByCategory: make(map[string]decimal.Decimal),
		Units:      make(map[string]int),
		Total:      decimal.Zero,
	}
	for _, e := range entries {
		total := e.TotalValue()
		v.ByCategory[e.Category] = v.ByCategory[e.Category].Add(total)
		v.Units[e.Category] += e.Quantity
		v.Total = v.Total.Add(total)
	}
	return v
}

// DistinctStock returns the sorted values of one ledger column: "tipo",
// "tamanho", "status" or "fornecedor".
func DistinctStock(entries []model.StockEntry, column string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, e := range entries {
		var v string
		switch column {
		case "tipo":
			v = e.Category
		case "tamanho":
			v = e.Size
		case "status":
			v = e.Status
		case "fornecedor":
			v = e.Supplier
		}
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// ParseStockFilter reads a stock filter from query parameters.
func ParseStockFilter(q url.Values) StockFilter {
	clean := func(key string) []string {
		var out []string
		for _, v := range q[key] {
			if v = strings.ToUpper(strings.TrimSpace(v)); v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	return StockFilter{
		Item:     strings.TrimSpace(q.Get("item")),
		Category: clean("tipo"),
		Size:     clean("tamanho"),
		Status:   clean("status"),
		Supplier: clean("fornecedor"),
	}
}
