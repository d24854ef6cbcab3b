package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxLines caps the number of item lines accepted from one form.
const MaxLines = 20

// Header carries the people and cost data shared by every line of a transaction form.
type Header struct {
	CPF              string `json:"cpf" label:"CPF" validate:"required"`
	Coordinator      string `json:"coordenador" label:"Coordenador" validate:"required"`
	CoordinatorEmail string `json:"email_coordenador" label:"E-mail do Coordenador" validate:"required,contains=@"`
	Worker           string `json:"colaborador" label:"Colaborador" validate:"required"`
	Responsible      string `json:"responsavel" label:"Responsável" validate:"required"`
	Shift            string `json:"turno" label:"Turno" validate:"required"`
	CostCenter       string `json:"centro_de_custo" label:"Centro de Custo" validate:"required"`
}

// Normalize trims every field and uppercases the names stored in the logs.
func (h *Header) Normalize() {
	h.CPF = strings.TrimSpace(h.CPF)
	h.Coordinator = upper(h.Coordinator)
	h.CoordinatorEmail = strings.TrimSpace(h.CoordinatorEmail)
	h.Worker = upper(h.Worker)
	h.Responsible = strings.TrimSpace(h.Responsible)
	h.Shift = strings.TrimSpace(h.Shift)
	h.CostCenter = upper(h.CostCenter)
}

// Line is one item row of a form.
type Line struct {
	Item     string `json:"item" label:"Item" validate:"required"`
	Size     string `json:"tamanho" label:"Tamanho"`
	Quantity int    `json:"quantidade" label:"Quantidade" validate:"gt=0"`
}

// normalizeLines uppercases the lines and drops the ones without an item.
func normalizeLines(lines []Line) []Line {
	out := lines[:0]
	for _, l := range lines {
		l.Item = upper(l.Item)
		l.Size = upper(l.Size)
		if l.Item == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// IssuanceForm records PPE handed to a worker for good.
type IssuanceForm struct {
	Header
	Reason    string `json:"motivo" label:"Motivo" validate:"required"`
	Workforce string `json:"efetivo" label:"Efetivo" validate:"required"`
	Status    string `json:"status" label:"Status" validate:"required"`
	Lines     []Line `json:"itens" label:"Itens" validate:"min=1,dive"`
}

func (f *IssuanceForm) Normalize() {
	f.Header.Normalize()
	f.Reason = strings.TrimSpace(f.Reason)
	f.Workforce = strings.TrimSpace(f.Workforce)
	f.Status = upper(f.Status)
	f.Lines = normalizeLines(f.Lines)
}

// SupplyIssuanceForm records consumables handed to a worker.
type SupplyIssuanceForm struct {
	Header
	Lines []Line `json:"itens" label:"Itens" validate:"min=1,dive"`
}

func (f *SupplyIssuanceForm) Normalize() {
	f.Header.Normalize()
	f.Lines = normalizeLines(f.Lines)
}

// LoanForm records PPE lent to a worker and expected back.
type LoanForm struct {
	Header
	Status string `json:"status_item" label:"Status" validate:"required"`
	Lines  []Line `json:"itens" label:"Itens" validate:"min=1,dive"`
}

func (f *LoanForm) Normalize() {
	f.Header.Normalize()
	f.Status = upper(f.Status)
	f.Lines = normalizeLines(f.Lines)
}

// ReturnForm records items handed back outside of a registered loan.
type ReturnForm struct {
	Header
	Reason string `json:"motivo" label:"Motivo" validate:"required"`
	Status string `json:"status_item" label:"Status" validate:"required"`
	Action string `json:"acao" label:"Ação" validate:"oneof=repor descartar"`
	Lines  []Line `json:"itens" label:"Itens" validate:"min=1,dive"`
}

func (f *ReturnForm) Normalize() {
	f.Header.Normalize()
	f.Reason = strings.TrimSpace(f.Reason)
	f.Status = upper(f.Status)
	f.Action = strings.ToLower(strings.TrimSpace(f.Action))
	f.Lines = normalizeLines(f.Lines)
}

// LoanReturnForm confirms the return of one pending loan.
type LoanReturnForm struct {
	LoanID      int64  `json:"emprestimo_id" label:"Empréstimo" validate:"gt=0"`
	Responsible string `json:"responsavel" label:"Responsável"`
	Reason      string `json:"motivo" label:"Motivo"`
}

func (f *LoanReturnForm) Normalize() {
	f.Responsible = strings.TrimSpace(f.Responsible)
	f.Reason = strings.TrimSpace(f.Reason)
}

// IntakeLine is one received item with its purchase data.
type IntakeLine struct {
	Item      string          `json:"item" label:"Item" validate:"required"`
	Size      string          `json:"tamanho" label:"Tamanho"`
	Status    string          `json:"status" label:"Status" validate:"required"`
	Supplier  string          `json:"fornecedor" label:"Fornecedor"`
	Quantity  int             `json:"quantidade" label:"Quantidade" validate:"gt=0"`
	UnitValue decimal.Decimal `json:"valor_unitario" label:"Valor Unitário" validate:"gte=0"`
}

// IntakeForm records stock received from suppliers.
type IntakeForm struct {
	Category string       `json:"tipo" label:"Tipo" validate:"oneof=EPI INSUMO"`
	Lines    []IntakeLine `json:"itens" label:"Itens" validate:"min=1,dive"`
}

func (f *IntakeForm) Normalize() {
	f.Category = upper(f.Category)
	out := f.Lines[:0]
	for _, l := range f.Lines {
		l.Item = upper(l.Item)
		l.Size = upper(l.Size)
		l.Status = upper(l.Status)
		l.Supplier = upper(l.Supplier)
		if l.Item == "" {
			continue
		}
		if l.Status == "" {
			l.Status = StatusNew
		}
		out = append(out, l)
	}
	f.Lines = out
}

// ItemForm registers a catalog item.
type ItemForm struct {
	Name     string `json:"nome" label:"Nome do Item" validate:"required"`
	Category string `json:"categoria" label:"Categoria" validate:"oneof=EPI INSUMO"`
}

func (f *ItemForm) Normalize() {
	f.Name = upper(f.Name)
	f.Category = upper(f.Category)
}

// CoordinatorForm registers a coordinator.
type CoordinatorForm struct {
	Name  string `json:"coordenador" label:"Nome do Coordenador" validate:"required"`
	Email string `json:"email" label:"E-mail" validate:"required,contains=@"`
}

func (f *CoordinatorForm) Normalize() {
	f.Name = upper(f.Name)
	f.Email = strings.TrimSpace(f.Email)
}
