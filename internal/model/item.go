package model

// Item is a catalog entry. Names are unique per category.
type Item struct {
	ID       int64  `json:"id"`
	Name     string `json:"nome"`
	Category string `json:"categoria"`
}

// Item categories.
const (
	CategoryPPE    = "EPI"
	CategorySupply = "INSUMO"
)

// ValidCategory reports whether c is a known category.
func ValidCategory(c string) bool {
	return c == CategoryPPE || c == CategorySupply
}

// Coordinator receives notifications for the transactions of their area.
type Coordinator struct {
	ID           int64  `json:"id"`
	Name         string `json:"coordenador"`
	Email        string `json:"email"`
	RegisteredAt string `json:"data_cadastro"`
}
