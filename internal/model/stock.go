package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger sentinels.
const (
	SizeUnique   = "ÚNICO"
	NoStatus     = "N/A"
	NoSupplier   = "N/A"
	StatusNew    = "NOVO"
	StatusClean  = "HIGIENIZADO"
	StatusBroken = "AVARIADO"
)

// StockKey identifies one balance row.
type StockKey struct {
	Item   string `json:"item_nome"`
	Size   string `json:"tamanho"`
	Status string `json:"status"`
}

// Normalize uppercases and trims every part. An empty size becomes ÚNICO and
// an empty status becomes N/A.
func (k StockKey) Normalize() StockKey {
	k.Item = upper(k.Item)
	k.Size = upper(k.Size)
	k.Status = upper(k.Status)
	if k.Size == "" {
		k.Size = SizeUnique
	}
	if k.Status == "" {
		k.Status = NoStatus
	}
	return k
}

// StockEntry is the running balance of one key.
type StockEntry struct {
	ID        int64           `json:"id"`
	ItemName  string          `json:"item_nome"`
	Size      string          `json:"tamanho"`
	Status    string          `json:"status"`
	Supplier  string          `json:"fornecedor"`
	Quantity  int             `json:"quantidade"`
	UnitValue decimal.Decimal `json:"valor_unitario"`
	Category  string          `json:"tipo"`
	UpdatedAt time.Time       `json:"data_ultima_atualizacao"`
}

// Key returns the ledger key of the entry.
func (e StockEntry) Key() StockKey {
	return StockKey{Item: e.ItemName, Size: e.Size, Status: e.Status}
}

// TotalValue is quantity times unit value.
func (e StockEntry) TotalValue() decimal.Decimal {
	return e.UnitValue.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Delta is a signed change to one ledger row. Supplier and UnitValue only
// matter for positive deltas.
type Delta struct {
	Key       StockKey
	Category  string
	Quantity  int
	Supplier  string
	UnitValue decimal.Decimal
}

// Normalize normalizes the key, the category and the supplier.
func (d Delta) Normalize() Delta {
	d.Key = d.Key.Normalize()
	d.Category = upper(d.Category)
	d.Supplier = upper(d.Supplier)
	if d.Supplier == "" {
		d.Supplier = NoSupplier
	}
	return d
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
