// Package database provides the PostgreSQL sink for the ingest batch. It
// handles the connection pool and inserts one row per normalized entity.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/obrdata/openbankingbr/internal/openbanking"
)

// Config holds the configuration for connecting to the PostgreSQL database.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type dbPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// Manager manages the PostgreSQL database connection pool.
type Manager struct {
	dbpool dbPool
}

type options struct {
	newPool func(ctx context.Context, dsn string) (dbPool, error)
}

// Options represents an optional function to override Manager default values.
type Options func(*options)

// ErrInsertFailed is returned when a row cannot be inserted. It signals a
// database problem rather than a malformed participant.
var ErrInsertFailed = errors.New("failed to insert row")

// Connect creates a database manager with a PostgreSQL connection pool using
// the provided configuration.
// Note: The connection is validated with a ping, but it is not maintained.
func Connect(ctx context.Context, cfg Config, args ...Options) (*Manager, error) {
	opts := options{
		newPool: func(ctx context.Context, dsn string) (dbPool, error) {
			return pgxpool.New(ctx, dsn)
		},
	}

	for _, opt := range args {
		opt(&opts)
	}

	dbpool, err := opts.newPool(ctx, cfg.URI("postgres"))
	if err != nil {
		return nil, fmt.Errorf("unable to create database connection pool: %w", err)
	}

	slog.Debug("Testing database connection", "host", cfg.Host, "port", cfg.Port)
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := dbpool.Ping(pingCtx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("unable to ping database: %v", err)
	}

	return &Manager{dbpool: dbpool}, nil
}

// InsertBranch inserts one service point row.
func (db Manager) InsertBranch(ctx context.Context, base string, participantSeq int, p openbanking.Participant, seq int, b openbanking.Branch) error {
	return db.insert(ctx, func(ctx context.Context) (pgconn.CommandTag, error) {
		return db.dbpool.Exec(ctx,
			`INSERT INTO obr_agencias (
				data_base, end_point, participante_seq, participante_cnpj, participante_nome,
				agencia_seq, tipo, codigo, digito, nome, telefone,
				endereco, complemento, bairro, cidade, uf, cep, codigo_ibge, latitude, longitude
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
			base,
			b.EndPoint(),
			participantSeq,
			p.CNPJ(),
			p.Name(),
			seq,
			nullText(b.Type()),
			nullInt(b.Code()),
			nullText(b.CheckDigit()),
			nullText(b.Name()),
			nullText(b.Phone()),
			nullText(b.Address()),
			nullText(b.AdditionalInfo()),
			nullText(b.District()),
			nullText(b.Town()),
			nullText(b.State()),
			nullInt(b.PostCode()),
			nullInt(b.IBGECode()),
			nullFloat(b.Latitude()),
			nullFloat(b.Longitude()),
		)
	})
}

// InsertProduct inserts one product row. The product type is resolved by the
// caller since resolving it can fail.
func (db Manager) InsertProduct(ctx context.Context, base string, participantSeq int, p openbanking.Participant, seq int, productType string, product openbanking.Product) error {
	return db.insert(ctx, func(ctx context.Context) (pgconn.CommandTag, error) {
		b := product.Buckets()
		args := []any{
			base,
			product.EndPoint(),
			participantSeq,
			p.CNPJ(),
			p.Name(),
			seq,
			productType,
			product.Category(),
			nullText(product.Network()),
			nullText(product.Name()),
			nullText(product.Indexer()),
			nullFloat(product.IndexerRate()),
			nullFloat(product.MinRate()),
			nullFloat(product.MaxRate()),
		}
		args = append(args, bucketArgs(b)...)
		args = append(args, nullBool(product.RewardsProgram()))

		return db.dbpool.Exec(ctx,
			`INSERT INTO obr_produtos (
				data_base, end_point, participante_seq, participante_cnpj, participante_nome,
				produto_seq, tipo, categoria, rede, nome, indexador, indexador_rate,
				taxa_minima, taxa_maxima,
				faixa1_taxa, faixa1_clientes, faixa2_taxa, faixa2_clientes,
				faixa3_taxa, faixa3_clientes, faixa4_taxa, faixa4_clientes,
				programa_recompensas
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
			args...,
		)
	})
}

// InsertService inserts one per-product service row.
func (db Manager) InsertService(ctx context.Context, base string, participantSeq int, p openbanking.Participant, productSeq int, productType string, product openbanking.Product, seq int, name string, s openbanking.Service) error {
	return db.insert(ctx, func(ctx context.Context) (pgconn.CommandTag, error) {
		args := []any{
			base,
			product.EndPoint(),
			participantSeq,
			p.CNPJ(),
			p.Name(),
			productSeq,
			productType,
			product.Category(),
			nullText(product.Name()),
			seq,
			name,
			nullText(s.Code()),
			nullFloat(s.MinRate()),
			nullFloat(s.MaxRate()),
		}
		args = append(args, bucketArgs(s.Buckets())...)
		args = append(args, nullText(s.ChargingTriggerInfo()))

		return db.dbpool.Exec(ctx,
			`INSERT INTO obr_servicos (
				data_base, end_point, participante_seq, participante_cnpj, participante_nome,
				produto_seq, produto_tipo, produto_categoria, produto_nome,
				servico_seq, nome, codigo, taxa_minima, taxa_maxima,
				faixa1_taxa, faixa1_clientes, faixa2_taxa, faixa2_clientes,
				faixa3_taxa, faixa3_clientes, faixa4_taxa, faixa4_clientes,
				fato_gerador
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
			args...,
		)
	})
}

// InsertPackage inserts one per-product service bundle row.
func (db Manager) InsertPackage(ctx context.Context, base string, participantSeq int, p openbanking.Participant, productSeq int, productType string, product openbanking.Product, seq int, name string, pkg openbanking.Package) error {
	return db.insert(ctx, func(ctx context.Context) (pgconn.CommandTag, error) {
		args := []any{
			base,
			product.EndPoint(),
			participantSeq,
			p.CNPJ(),
			p.Name(),
			productSeq,
			productType,
			product.Category(),
			nullText(product.Name()),
			seq,
			name,
			nullFloat(pkg.MinRate()),
			nullFloat(pkg.MaxRate()),
		}
		args = append(args, bucketArgs(pkg.Buckets())...)

		return db.dbpool.Exec(ctx,
			`INSERT INTO obr_pacotes (
				data_base, end_point, participante_seq, participante_cnpj, participante_nome,
				produto_seq, produto_tipo, produto_categoria, produto_nome,
				pacote_seq, nome, taxa_minima, taxa_maxima,
				faixa1_taxa, faixa1_clientes, faixa2_taxa, faixa2_clientes,
				faixa3_taxa, faixa3_clientes, faixa4_taxa, faixa4_clientes
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
			args...,
		)
	})
}

func (db Manager) insert(ctx context.Context, execFn func(context.Context) (pgconn.CommandTag, error)) error {
	if db.dbpool == nil {
		return fmt.Errorf("database not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := execFn(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("insert canceled: %v", err)
		}
		return fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}
	return nil
}

// Close closes the database connection pool.
//
// If the connection is already closed, it does nothing.
// If the connection does not close within 10 seconds, it returns an error.
func (db *Manager) Close() error {
	if db.dbpool == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		db.dbpool.Close()
	}()

	select {
	case <-done:
		db.dbpool = nil
		return nil
	case <-time.After(10 * time.Second):
		return fmt.Errorf("timeout while closing database, connection may still be open")
	}
}

// URI is a helper method that returns a connection URI for PostgreSQL.
// It does not check the validity of the configuration values.
//
// Security warning: the returned string may include credentials.
func (c Config) URI(scheme string) string {
	host := c.Host
	if c.Port != 0 {
		host = fmt.Sprintf("%s:%d", c.Host, c.Port)
	}

	user := url.User(c.User)
	if c.Password != "" {
		user = url.UserPassword(c.User, c.Password)
	}

	u := &url.URL{
		Scheme: scheme,
		User:   user,
		Host:   host,
		Path:   c.DBName,
	}

	q := u.Query()
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

func nullText(s string, ok bool) *string {
	if !ok || s == "NA" {
		return nil
	}
	return &s
}

func nullInt(v int64, ok bool) *int64 {
	if !ok {
		return nil
	}
	return &v
}

func nullFloat(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

func nullBool(v, ok bool) *bool {
	if !ok {
		return nil
	}
	return &v
}

// bucketArgs flattens a fee distribution into the eight faixa columns.
func bucketArgs(b openbanking.FeeBuckets) []any {
	args := make([]any, 0, 8)
	for i := range b.Rates {
		args = append(args, b.Rates[i], b.Customers[i])
	}
	return args
}
