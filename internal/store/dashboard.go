package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/almoxarifado/internal/model"
)

// IssuedItem is a PPE item with the total quantity issued for it.
type IssuedItem struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantidade"`
}

// Dashboard summarises the warehouse for the home screen.
type Dashboard struct {
	StockValue   decimal.Decimal     `json:"valor_total_estoque"`
	StockUnits   int                 `json:"unidades_em_estoque"`
	PPEIssued    int                 `json:"total_epis_entregues"`
	TopIssued    []IssuedItem        `json:"top_itens"`
	PendingLoans []model.Transaction `json:"emprestimos_pendentes"`
}

// Dashboard returns the totals, the five most issued PPE items and the five
// newest pending loans.
func (s *Store) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{StockValue: decimal.Zero}

	stock, err := s.ListStock(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range stock {
		d.StockValue = d.StockValue.Add(e.TotalValue())
		d.StockUnits += e.Quantity
	}

	err = s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantidade), 0) FROM saida_epis`,
	).Scan(&d.PPEIssued)
	if err != nil {
		return nil, fmt.Errorf("summing issued ppe: %w", err)
	}

	pending, err := s.FindPendingLoans(ctx, "", "")
	if err != nil {
		return nil, err
	}
	if len(pending) > 5 {
		pending = pending[:5]
	}
	d.PendingLoans = pending

	rows, err := s.DB.QueryContext(ctx,
		`SELECT item, SUM(quantidade) AS total FROM saida_epis
		 GROUP BY item ORDER BY total DESC, item LIMIT 5`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing top issued items: %w", err)
	}
	defer rows.Close()

	d.TopIssued = []IssuedItem{}
	for rows.Next() {
		var it IssuedItem
		if err := rows.Scan(&it.Item, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scanning top issued item: %w", err)
		}
		d.TopIssued = append(d.TopIssued, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return d, nil
}
