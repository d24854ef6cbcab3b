package db

import "fmt"

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: pending-loan lookups and date-ordered reports.
	`CREATE INDEX IF NOT EXISTS idx_emprestimos_status ON emprestimos(status_emprestimo)`,
	`CREATE INDEX IF NOT EXISTS idx_saida_epis_data ON saida_epis(data)`,
	`CREATE INDEX IF NOT EXISTS idx_saida_insumos_data ON saida_insumos(data)`,
	`CREATE INDEX IF NOT EXISTS idx_emprestimos_data ON emprestimos(data)`,
	`CREATE INDEX IF NOT EXISTS idx_devolucoes_data ON devolucoes(data)`,

	// Migration 2: loan returns look up their return row.
	`CREATE INDEX IF NOT EXISTS idx_devolucoes_emprestimo ON devolucoes(emprestimo_id_associado)`,
}

func migrate(d *DB) error {
	for i, m := range migrations {
		if _, err := d.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
