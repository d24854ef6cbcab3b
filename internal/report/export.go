package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/erazemk/almoxarifado/internal/model"
)

// ContentType is the media type of exported workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Filename returns relatorio_<name>_<YYYYMMDD_HHMMSS>.xlsx.
func Filename(name string, at time.Time) string {
	return fmt.Sprintf("relatorio_%s_%s.xlsx", name, at.Format("20060102_150405"))
}

type column struct {
	header string
	value  func(t model.Transaction) any
}

var (
	colID          = column{"ID", func(t model.Transaction) any { return t.ID }}
	colDate        = column{"Data", func(t model.Transaction) any { return t.Date.Format("02/01/2006 15:04:05") }}
	colCPF         = column{"CPF", func(t model.Transaction) any { return t.CPF }}
	colWorker      = column{"Colaborador", func(t model.Transaction) any { return t.Worker }}
	colCoordinator = column{"Coordenador", func(t model.Transaction) any { return t.Coordinator }}
	colEmail       = column{"E-mail do Coordenador", func(t model.Transaction) any { return t.CoordinatorEmail }}
	colResponsible = column{"Responsável", func(t model.Transaction) any { return t.Responsible }}
	colShift       = column{"Turno", func(t model.Transaction) any { return t.Shift }}
	colCostCenter  = column{"Centro de Custo", func(t model.Transaction) any { return t.CostCenter }}
	colItem        = column{"Item", func(t model.Transaction) any { return t.Item }}
	colSize        = column{"Tamanho", func(t model.Transaction) any { return t.Size }}
	colQuantity    = column{"Quantidade", func(t model.Transaction) any { return t.Quantity }}
	colStatus      = column{"Status", func(t model.Transaction) any { return t.Status }}
	colReason      = column{"Motivo", func(t model.Transaction) any { return t.Reason }}
	colWorkforce   = column{"Efetivo", func(t model.Transaction) any { return t.Workforce }}
	colLoanStatus  = column{"Status do Empréstimo", func(t model.Transaction) any { return t.LoanStatus }}
	colAction      = column{"Ação", func(t model.Transaction) any { return t.Action }}
	colLoanID      = column{"Empréstimo Associado", func(t model.Transaction) any {
		if t.LoanID == nil {
			return ""
		}
		return *t.LoanID
	}}
)

func columnsFor(kind model.Kind) []column {
	base := []column{colID, colDate, colCPF, colWorker, colCoordinator, colResponsible, colShift, colCostCenter}
	switch kind {
	case model.KindIssuance:
		base = append(base, colReason, colStatus, colWorkforce)
	case model.KindLoan:
		base = append(base, colStatus, colLoanStatus)
	case model.KindReturn:
		base = append(base, colReason, colStatus, colAction, colLoanID)
	}
	return append(base, colItem, colSize, colQuantity, colEmail)
}

// WriteTransactions writes rows of one log as a one-sheet workbook.
func WriteTransactions(w io.Writer, kind model.Kind, rows []model.Transaction) error {
	cols := columnsFor(kind)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.header
	}

	data := make([][]any, 0, len(rows))
	for _, t := range rows {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = c.value(t)
		}
		data = append(data, row)
	}
	return writeSheet(w, kind.Title(), header, data)
}

// WriteStock writes ledger rows as a one-sheet workbook.
func WriteStock(w io.Writer, entries []model.StockEntry) error {
	header := []any{"Item", "Tamanho", "Status", "Fornecedor", "Quantidade", "Valor Unitário", "Valor Total", "Tipo", "Última Atualização"}

	data := make([][]any, 0, len(entries))
	for _, e := range entries {
		data = append(data, []any{
			e.ItemName, e.Size, e.Status, e.Supplier, e.Quantity,
			e.UnitValue.InexactFloat64(), e.TotalValue().InexactFloat64(),
			e.Category, e.UpdatedAt.Format("02/01/2006 15:04:05"),
		})
	}
	return writeSheet(w, "Estoque", header, data)
}

func writeSheet(w io.Writer, name string, header []any, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := f.SetRowStyle(name, 1, 1, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
