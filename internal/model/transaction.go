package model

import "time"

// Kind names one of the append-only transaction logs. The value is the table name.
type Kind string

// Transaction kinds.
const (
	KindIssuance Kind = "saida_epis"
	KindSupply   Kind = "saida_insumos"
	KindLoan     Kind = "emprestimos"
	KindReturn   Kind = "devolucoes"
)

// Kinds lists every log in menu order.
var Kinds = []Kind{KindIssuance, KindSupply, KindLoan, KindReturn}

// ParseKind maps a table name to its Kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Title returns the human-readable report name.
func (k Kind) Title() string {
	switch k {
	case KindIssuance:
		return "Saídas de EPIs"
	case KindSupply:
		return "Saídas de Insumos"
	case KindLoan:
		return "Empréstimos"
	case KindReturn:
		return "Devoluções"
	default:
		return string(k)
	}
}

// Category is the ledger category the kind moves.
func (k Kind) Category() string {
	if k == KindSupply {
		return CategorySupply
	}
	return CategoryPPE
}

// Loan statuses.
const (
	LoanPending  = "PENDENTE"
	LoanReturned = "DEVOLVIDO"
)

// Return actions.
const (
	ActionRestock = "repor"
	ActionDiscard = "descartar"
)

// Transaction is one immutable row of a transaction log: one item line of one
// submitted form. Fields a kind does not record are left empty.
type Transaction struct {
	ID               int64     `json:"id"`
	Kind             Kind      `json:"tipo"`
	Date             time.Time `json:"data"`
	CPF              string    `json:"cpf"`
	Coordinator      string    `json:"coordenador"`
	CoordinatorEmail string    `json:"email_coordenador"`
	Worker           string    `json:"colaborador"`
	Responsible      string    `json:"responsavel"`
	Shift            string    `json:"turno"`
	CostCenter       string    `json:"centro_de_custo"`
	Item             string    `json:"item"`
	Size             string    `json:"tamanho"`
	Quantity         int       `json:"quantidade"`

	// Item condition: status on issuances, status_item on loans and returns.
	Status string `json:"status,omitempty"`

	Reason     string `json:"motivo,omitempty"`
	Workforce  string `json:"efetivo,omitempty"`
	LoanStatus string `json:"status_emprestimo,omitempty"`
	Action     string `json:"acao,omitempty"`
	LoanID     *int64 `json:"emprestimo_id_associado,omitempty"`
}

// Delta returns the ledger change this row causes, and false when it causes none.
func (t Transaction) Delta() (Delta, bool) {
	d := Delta{
		Key:      StockKey{Item: t.Item, Size: t.Size, Status: t.Status},
		Category: t.Kind.Category(),
	}
	switch t.Kind {
	case KindIssuance, KindLoan:
		d.Quantity = -t.Quantity
	case KindSupply:
		d.Key.Status = NoStatus
		d.Quantity = -t.Quantity
	case KindReturn:
		if t.Action != ActionRestock {
			return Delta{}, false
		}
		d.Quantity = t.Quantity
	default:
		return Delta{}, false
	}
	return d.Normalize(), true
}
