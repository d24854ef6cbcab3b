// Package options holds the fixed choice lists offered by the forms.
package options

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Options are the choice lists of the back office. Every list can be
// replaced from a YAML file; lists missing from the file keep their defaults.
type Options struct {
	Responsibles  []string `yaml:"responsaveis" json:"responsaveis"`
	Shifts        []string `yaml:"turnos" json:"turnos"`
	CostCenters   []string `yaml:"centros_de_custo" json:"centros_de_custo"`
	IssueReasons  []string `yaml:"motivos_saida" json:"motivos_saida"`
	ReturnReasons []string `yaml:"motivos_devolucao" json:"motivos_devolucao"`
	Workforces    []string `yaml:"efetivos" json:"efetivos"`
	IssueStatuses []string `yaml:"status_saida" json:"status_saida"`
	ItemStatuses  []string `yaml:"status_item" json:"status_item"`
	Footer        []string `yaml:"rodape_email" json:"rodape_email"`
}

// Default returns the lists used by the warehouse.
func Default() *Options {
	return &Options{
		Responsibles: []string{
			"AMANDA MESSIAS", "ANDREZZA SABINO", "PAMELA SIMEÃO", "RAFAEL CRISTOVÃO",
			"SUELI BARBOSA", "ORLANDO ALVES", "JOVEM APRENDIZ",
		},
		Shifts:      []string{"ADM", "1° TURNO", "2° TURNO", "3° TURNO"},
		CostCenters: []string{"RC", "3P"},
		IssueReasons: []string{
			"PERDA", "1° RETIRADA", "AVARIADO", "ESQUECEU O EPI",
			"DEVOLUÇÃO", "TROCA DE TAMANHO", "PERÍODO VENCIDO", "MANCHA",
		},
		ReturnReasons: []string{
			"AVARIADO", "HIGIENIZAÇÃO", "TROCA DE TAMANHO",
			"DESLIGAMENTO", "FIM DE CONTRATO", "OUTRO",
		},
		Workforces:    []string{"DHL", "AGÊNCIA"},
		IssueStatuses: []string{"NOVO", "HIGIENIZADO"},
		ItemStatuses:  []string{"NOVO", "HIGIENIZADO", "AVARIADO"},
		Footer: []string{
			"DHL Supply Chain",
			"GLP Guarulhos II - R. Concretex, 800",
			"Cumbica, Guarulhos - SP.",
			"CEP: 07232-050, Brasil",
		},
	}
}

// Load reads overrides from a YAML file. An empty path returns the defaults.
func Load(path string) (*Options, error) {
	opts := Default()
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading options file: %w", err)
	}

	var file Options
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing options file: %w", err)
	}

	merge(&opts.Responsibles, file.Responsibles)
	merge(&opts.Shifts, file.Shifts)
	merge(&opts.CostCenters, file.CostCenters)
	merge(&opts.IssueReasons, file.IssueReasons)
	merge(&opts.ReturnReasons, file.ReturnReasons)
	merge(&opts.Workforces, file.Workforces)
	merge(&opts.IssueStatuses, file.IssueStatuses)
	merge(&opts.ItemStatuses, file.ItemStatuses)
	merge(&opts.Footer, file.Footer)
	return opts, nil
}

func merge(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}

// Allowed reports whether v is one of list.
func Allowed(list []string, v string) bool {
	return slices.Contains(list, v)
}
