package db

import (
	"fmt"
	"strings"
)

// schema is the full database schema. Placeholders in braces are replaced per dialect.
const schema = `
CREATE TABLE IF NOT EXISTS coordenadores (
    id            {pk},
    coordenador   TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    data_cadastro TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS itens (
    id        {pk},
    nome      TEXT NOT NULL,
    categoria TEXT NOT NULL CHECK (categoria IN ('EPI', 'INSUMO')),
    UNIQUE (nome, categoria)
);

CREATE TABLE IF NOT EXISTS estoque (
    id                      {pk},
    item_nome               TEXT NOT NULL,
    tamanho                 TEXT NOT NULL,
    status                  TEXT NOT NULL,
    fornecedor              TEXT NOT NULL DEFAULT 'N/A',
    quantidade              INTEGER NOT NULL DEFAULT 0,
    valor_unitario          NUMERIC(12,2) NOT NULL DEFAULT 0,
    tipo                    TEXT NOT NULL,
    data_ultima_atualizacao TEXT NOT NULL,
    UNIQUE (item_nome, tamanho, status)
);

CREATE TABLE IF NOT EXISTS saida_epis (
    id                {pk},
    data              TEXT NOT NULL,
    colaborador       TEXT NOT NULL,
    cpf               TEXT NOT NULL,
    coordenador       TEXT NOT NULL,
    email_coordenador TEXT NOT NULL,
    responsavel       TEXT NOT NULL,
    motivo            TEXT NOT NULL,
    status            TEXT NOT NULL,
    efetivo           TEXT NOT NULL,
    turno             TEXT NOT NULL,
    centro_de_custo   TEXT NOT NULL,
    item              TEXT NOT NULL,
    tamanho           TEXT NOT NULL,
    quantidade        INTEGER NOT NULL CHECK (quantidade > 0)
);

CREATE TABLE IF NOT EXISTS saida_insumos (
    id                {pk},
    data              TEXT NOT NULL,
    cpf               TEXT NOT NULL,
    coordenador       TEXT NOT NULL,
    colaborador       TEXT NOT NULL,
    responsavel       TEXT NOT NULL,
    turno             TEXT NOT NULL,
    centro_de_custo   TEXT NOT NULL,
    insumo            TEXT NOT NULL,
    quantidade        INTEGER NOT NULL CHECK (quantidade > 0),
    tamanho           TEXT NOT NULL,
    email_coordenador TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS emprestimos (
    id                {pk},
    data              TEXT NOT NULL,
    cpf               TEXT NOT NULL,
    coordenador       TEXT NOT NULL,
    colaborador       TEXT NOT NULL,
    responsavel       TEXT NOT NULL,
    turno             TEXT NOT NULL,
    centro_de_custo   TEXT NOT NULL,
    status_item       TEXT NOT NULL,
    status_emprestimo TEXT NOT NULL DEFAULT 'PENDENTE' CHECK (status_emprestimo IN ('PENDENTE', 'DEVOLVIDO')),
    item              TEXT NOT NULL,
    quantidade        INTEGER NOT NULL CHECK (quantidade > 0),
    tamanho           TEXT NOT NULL,
    email_coordenador TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS devolucoes (
    id                      {pk},
    data                    TEXT NOT NULL,
    cpf                     TEXT NOT NULL,
    coordenador             TEXT NOT NULL,
    colaborador             TEXT NOT NULL,
    responsavel             TEXT NOT NULL,
    turno                   TEXT NOT NULL,
    centro_de_custo         TEXT NOT NULL,
    motivo                  TEXT NOT NULL,
    status_item             TEXT NOT NULL,
    acao                    TEXT NOT NULL CHECK (acao IN ('repor', 'descartar')),
    item                    TEXT NOT NULL,
    quantidade              INTEGER NOT NULL CHECK (quantidade > 0),
    tamanho                 TEXT NOT NULL,
    email_coordenador       TEXT NOT NULL,
    emprestimo_id_associado {fk} REFERENCES emprestimos(id)
);

CREATE TABLE IF NOT EXISTS usuarios (
    id            {pk},
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'operador' CHECK (role IN ('admin', 'operador')),
    created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS configuracoes (
    chave TEXT PRIMARY KEY,
    valor TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tokens_revogados (
    jti       TEXT PRIMARY KEY,
    expira_em TEXT NOT NULL
);
`

// Schema returns the schema rendered for the dialect.
func (d *DB) Schema() string {
	r := strings.NewReplacer(
		"{pk}", d.primaryKey(),
		"{fk}", d.foreignKey(),
	)
	return r.Replace(schema)
}

func (d *DB) primaryKey() string {
	if d.Dialect == Postgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY"
}

func (d *DB) foreignKey() string {
	if d.Dialect == Postgres {
		return "BIGINT"
	}
	return "INTEGER"
}

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(d *DB) error {
	if _, err := d.Exec(d.Schema()); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return migrate(d)
}
