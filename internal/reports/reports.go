// Package reports turns the normalized Open Banking Brasil entities into
// dated CSV report files, one per entity category.
package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/obrdata/openbankingbr/internal/constants"
	"github.com/obrdata/openbankingbr/internal/fileutils"
	"github.com/obrdata/openbankingbr/internal/openbanking"
	"github.com/ubuntu/decorate"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Report identifies one of the CSV reports a batch run can produce. The
// value is the category fragment of the report file name.
type Report string

const (
	// ReportBranches is the service points report (agencias).
	ReportBranches Report = "agencias"
	// ReportProducts is the financial products report (produtos).
	ReportProducts Report = "produtos"
	// ReportServices is the per-product services report (servicos).
	ReportServices Report = "servicos"
	// ReportPackages is the per-product service bundles report (pacotes).
	ReportPackages Report = "pacotes"
)

// AllReports lists every report in batch execution order.
func AllReports() []Report {
	return []Report{ReportBranches, ReportProducts, ReportServices, ReportPackages}
}

// ParseReport converts a report category name to a Report.
func ParseReport(name string) (Report, error) {
	r := Report(strings.ToLower(strings.TrimSpace(name)))
	switch r {
	case ReportBranches, ReportProducts, ReportServices, ReportPackages:
		return r, nil
	}
	return "", fmt.Errorf("unknown report %q", name)
}

// ErrUnknownReport is returned by Run for a report it cannot produce.
var ErrUnknownReport = errors.New("unknown report")

type timeProvider interface {
	Now() time.Time
}

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time {
	return time.Now()
}

// Emitter walks the participant directory and writes CSV report files into
// a data directory.
type Emitter struct {
	client  *openbanking.Client
	dataDir string

	delimiter    string
	encoder      *encoding.Encoder
	ignoreErrors bool
	time         timeProvider
}

type options struct {
	delimiter    string
	encodingName string
	ignoreErrors bool
	timeProvider timeProvider
}

// Options represents an optional function to override Emitter default values.
type Options func(*options)

// WithDelimiter overrides the CSV field delimiter.
func WithDelimiter(delimiter string) Options {
	return func(o *options) {
		o.delimiter = delimiter
	}
}

// WithEncoding overrides the text encoding of the report files.
func WithEncoding(name string) Options {
	return func(o *options) {
		o.encodingName = name
	}
}

// WithIgnoreErrors makes the emitter log and skip over participant and
// directory failures instead of aborting the batch.
func WithIgnoreErrors(ignore bool) Options {
	return func(o *options) {
		o.ignoreErrors = ignore
	}
}

// WithTimeProvider overrides the clock used for report dates.
func WithTimeProvider(tp timeProvider) Options {
	return func(o *options) {
		o.timeProvider = tp
	}
}

// New returns an Emitter writing reports under dataDir, creating the
// directory if needed.
func New(client *openbanking.Client, dataDir string, args ...Options) (e *Emitter, err error) {
	defer decorate.OnError(&err, "could not initialize the report emitter in %s", dataDir)

	opts := options{
		delimiter:    constants.DefaultCSVDelimiter,
		encodingName: constants.DefaultCSVEncoding,
		timeProvider: realTimeProvider{},
	}
	for _, opt := range args {
		opt(&opts)
	}

	if err := fileutils.EnsureDir(dataDir); err != nil {
		return nil, err
	}
	enc, err := newEncoder(opts.encodingName)
	if err != nil {
		return nil, err
	}

	return &Emitter{
		client:  client,
		dataDir: dataDir,

		delimiter:    opts.delimiter,
		encoder:      enc,
		ignoreErrors: opts.ignoreErrors,
		time:         opts.timeProvider,
	}, nil
}

// charmaps names the non-UTF-8 encodings a report can be transcoded to.
// The cp1252 spelling matches what spreadsheet users on Windows expect.
var charmaps = map[string]encoding.Encoding{
	"cp1252":       charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"cp850":        charmap.CodePage850,
}

// newEncoder resolves an encoding name. UTF-8 needs no transcoding and
// resolves to nil.
func newEncoder(name string) (*encoding.Encoder, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" || n == "utf-8" || n == "utf8" {
		return nil, nil
	}

	enc, ok := charmaps[n]
	if !ok {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return encoding.ReplaceUnsupported(enc.NewEncoder()), nil
}

// Run produces the requested reports in order, or every report when none is
// requested.
func (e *Emitter) Run(ctx context.Context, reports ...Report) error {
	if len(reports) == 0 {
		reports = AllReports()
	}

	for _, r := range reports {
		var err error
		switch r {
		case ReportBranches:
			err = e.Branches(ctx)
		case ReportProducts:
			err = e.Products(ctx)
		case ReportServices:
			err = e.Services(ctx)
		case ReportPackages:
			err = e.Packages(ctx)
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownReport, r)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Branches writes the service points report.
func (e *Emitter) Branches(ctx context.Context) error {
	header := []string{
		"DATA_BASE", "API", "PARTICIPANTE_SEQ", "PARTICIPANTE_CNPJ", "PARTICIPANTE_NOME",
		"AGENCIA_SEQ", "AGENCIA_TIPO", "AGENCIA_CODIGO", "AGENCIA_DIGITO", "AGENCIA_NOME",
		"AGENCIA_TELEFONE", "AGENCIA_ENDERECO", "AGENCIA_COMPLEMENTO", "AGENCIA_BAIRRO",
		"AGENCIA_CIDADE", "AGENCIA_UF", "AGENCIA_CEP", "AGENCIA_CODIGO_IBGE",
		"AGENCIA_LATITUDE", "AGENCIA_LONGITUDE",
	}

	return e.write(ctx, ReportBranches, header, func(ctx context.Context, base string, seqParticipant int, p openbanking.Participant, emit func([]string)) error {
		seq := 0
		return e.client.Branches(ctx, p, func(b openbanking.Branch) bool {
			seq++
			emit([]string{
				base,
				text(b.EndPoint(), true),
				sequence(seqParticipant),
				integer(p.CNPJ(), true),
				text(p.Name(), true),
				sequence(seq),
				text(b.Type()),
				integer(b.Code()),
				text(b.CheckDigit()),
				text(b.Name()),
				text(b.Phone()),
				text(b.Address()),
				text(b.AdditionalInfo()),
				text(b.District()),
				text(b.Town()),
				text(b.State()),
				integer(b.PostCode()),
				integer(b.IBGECode()),
				number(b.Latitude()),
				number(b.Longitude()),
			})
			return true
		})
	})
}

// Products writes the financial products report.
func (e *Emitter) Products(ctx context.Context) error {
	header := []string{
		"DATA_BASE", "API", "PARTICIPANTE_SEQ", "PARTICIPANTE_CNPJ", "PARTICIPANTE_NOME",
		"PRODUTO_SEQ", "PRODUTO_TIPO", "PRODUTO_CATEGORIA", "PRODUTO_REDE", "PRODUTO_NOME",
		"PRODUTO_INDEXADOR", "PRODUTO_INDEXADOR_RATE", "PRODUTO_TAXA_MINIMA", "PRODUTO_TAXA_MAXIMA",
		"PRODUTO_FAIXA1_TAXA", "PRODUTO_FAIXA1_CLIENTES", "PRODUTO_FAIXA2_TAXA", "PRODUTO_FAIXA2_CLIENTES",
		"PRODUTO_FAIXA3_TAXA", "PRODUTO_FAIXA3_CLIENTES", "PRODUTO_FAIXA4_TAXA", "PRODUTO_FAIXA4_CLIENTES",
		"PRODUTO_PROGRAMA_RECOMPENSAS",
	}

	return e.write(ctx, ReportProducts, header, func(ctx context.Context, base string, seqParticipant int, p openbanking.Participant, emit func([]string)) error {
		seq := 0
		var rowErr error
		err := e.client.Products(ctx, p, func(product openbanking.Product) bool {
			productType, err := product.Type()
			if err != nil {
				rowErr = err
				return false
			}

			seq++
			row := []string{
				base,
				text(product.EndPoint(), true),
				sequence(seqParticipant),
				integer(p.CNPJ(), true),
				text(p.Name(), true),
				sequence(seq),
				text(productType, true),
				text(product.Category(), true),
				text(product.Network()),
				text(product.Name()),
				text(product.Indexer()),
				number(product.IndexerRate()),
				number(product.MinRate()),
				number(product.MaxRate()),
			}
			row = append(row, buckets(product.Buckets())...)
			row = append(row, boolean(product.RewardsProgram()))
			emit(row)
			return true
		})
		if err != nil {
			return err
		}
		return rowErr
	})
}

// Services writes the per-product services report.
func (e *Emitter) Services(ctx context.Context) error {
	header := []string{
		"DATA_BASE", "API", "PARTICIPANTE_SEQ", "PARTICIPANTE_CNPJ", "PARTICIPANTE_NOME",
		"PRODUTO_SEQ", "PRODUTO_TIPO", "PRODUTO_CATEGORIA", "PRODUTO_NOME",
		"SERVICO_SEQ", "SERVICO_NOME", "SERVICO_CODIGO", "SERVICO_TAXA_MINIMA", "SERVICO_TAXA_MAXIMA",
		"SERVICO_FAIXA1_TAXA", "SERVICO_FAIXA1_CLIENTES", "SERVICO_FAIXA2_TAXA", "SERVICO_FAIXA2_CLIENTES",
		"SERVICO_FAIXA3_TAXA", "SERVICO_FAIXA3_CLIENTES", "SERVICO_FAIXA4_TAXA", "SERVICO_FAIXA4_CLIENTES",
		"SERVICO_FATO_GERADOR",
	}

	return e.write(ctx, ReportServices, header, func(ctx context.Context, base string, seqParticipant int, p openbanking.Participant, emit func([]string)) error {
		seqProduct := 0
		var rowErr error
		err := e.client.Products(ctx, p, func(product openbanking.Product) bool {
			productType, err := product.Type()
			if err != nil {
				rowErr = err
				return false
			}
			seqProduct++

			seqService := 0
			product.Services(func(s openbanking.Service) bool {
				name, err := s.Name()
				if err != nil {
					rowErr = err
					return false
				}

				seqService++
				row := []string{
					base,
					text(product.EndPoint(), true),
					sequence(seqParticipant),
					integer(p.CNPJ(), true),
					text(p.Name(), true),
					sequence(seqProduct),
					text(productType, true),
					text(product.Category(), true),
					text(product.Name()),
					sequence(seqService),
					text(name, true),
					text(s.Code()),
					number(s.MinRate()),
					number(s.MaxRate()),
				}
				row = append(row, buckets(s.Buckets())...)
				row = append(row, text(s.ChargingTriggerInfo()))
				emit(row)
				return true
			})
			return rowErr == nil
		})
		if err != nil {
			return err
		}
		return rowErr
	})
}

// Packages writes the per-product service bundles report.
func (e *Emitter) Packages(ctx context.Context) error {
	header := []string{
		"DATA_BASE", "API", "PARTICIPANTE_SEQ", "PARTICIPANTE_CNPJ", "PARTICIPANTE_NOME",
		"PRODUTO_SEQ", "PRODUTO_TIPO", "PRODUTO_CATEGORIA", "PRODUTO_NOME",
		"PACOTE_SEQ", "PACOTE_NOME", "PACOTE_TAXA_MINIMA", "PACOTE_TAXA_MAXIMA",
		"PACOTE_FAIXA1_TAXA", "PACOTE_FAIXA1_CLIENTES", "PACOTE_FAIXA2_TAXA", "PACOTE_FAIXA2_CLIENTES",
		"PACOTE_FAIXA3_TAXA", "PACOTE_FAIXA3_CLIENTES", "PACOTE_FAIXA4_TAXA", "PACOTE_FAIXA4_CLIENTES",
	}

	return e.write(ctx, ReportPackages, header, func(ctx context.Context, base string, seqParticipant int, p openbanking.Participant, emit func([]string)) error {
		seqProduct := 0
		var rowErr error
		err := e.client.Products(ctx, p, func(product openbanking.Product) bool {
			productType, err := product.Type()
			if err != nil {
				rowErr = err
				return false
			}
			seqProduct++

			seqPackage := 0
			product.Bundles(func(b openbanking.Package) bool {
				name, err := b.Name()
				if err != nil {
					rowErr = err
					return false
				}

				seqPackage++
				row := []string{
					base,
					text(product.EndPoint(), true),
					sequence(seqParticipant),
					integer(p.CNPJ(), true),
					text(p.Name(), true),
					sequence(seqProduct),
					text(productType, true),
					text(product.Category(), true),
					text(product.Name()),
					sequence(seqPackage),
					text(name, true),
					number(b.MinRate()),
					number(b.MaxRate()),
				}
				row = append(row, buckets(b.Buckets())...)
				emit(row)
				return true
			})
			return rowErr == nil
		})
		if err != nil {
			return err
		}
		return rowErr
	})
}

// rowFunc generates the report rows of one participant, calling emit once
// per row.
type rowFunc func(ctx context.Context, base string, seqParticipant int, p openbanking.Participant, emit func([]string)) error

// write produces one report file: header, then the rows of every
// participant in directory order.
//
// An existing same-day file is removed and regenerated. A directory that
// cannot be listed aborts the batch, or abandons the report with a
// header-only file in ignore-errors mode. A participant whose rows fail
// aborts the batch, or is skipped in ignore-errors mode.
func (e *Emitter) write(ctx context.Context, r Report, header []string, rows rowFunc) (err error) {
	defer decorate.OnError(&err, "could not emit the %s report", r)

	base := e.time.Now().Format("20060102")
	path := filepath.Join(e.dataDir, fmt.Sprintf("%s_openbanking_%s.csv", base, r))
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return err
		}
		slog.Info("Removed existing report for regeneration", "file", path)
	}

	var buf bytes.Buffer
	buf.WriteString(strings.Join(header, e.delimiter) + "\n")

	participants, err := e.client.Participants(ctx)
	if err != nil {
		if !e.ignoreErrors {
			return err
		}
		slog.Error("Abandoning report, could not list the directory participants", "report", r, "error", err)
		return e.flush(path, &buf, r, 0, 0)
	}

	total := 0
	for i, p := range participants {
		err := rows(ctx, base, i+1, p, func(row []string) {
			total++
			buf.WriteString(strings.Join(row, e.delimiter) + "\n")
		})
		if err != nil {
			if !e.ignoreErrors {
				return err
			}
			slog.Warn("Skipping participant after a processing error", "report", r, "participant", p.Name(), "error", err)
		}
	}

	return e.flush(path, &buf, r, len(participants), total)
}

// flush transcodes the report if needed and writes it atomically.
func (e *Emitter) flush(path string, buf *bytes.Buffer, r Report, participants, rows int) error {
	data := buf.Bytes()
	if e.encoder != nil {
		var err error
		if data, err = e.encoder.Bytes(data); err != nil {
			return err
		}
	}
	if err := fileutils.AtomicWrite(path, data); err != nil {
		return err
	}

	slog.Info("Report written", "report", r, "participants", participants, "rows", rows, "file", path)
	return nil
}

// text renders an optional textual field. Text is always quoted, with
// double quotes doubled per RFC 4180 and newlines flattened to spaces so
// one row stays one line. The "NA" placeholder renders empty.
func text(s string, ok bool) string {
	if !ok || s == "NA" {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, `"`, `""`)
	return `"` + s + `"`
}

func sequence(seq int) string {
	return strconv.Itoa(seq)
}

func integer(v int64, ok bool) string {
	if !ok {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

func number(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func boolean(v, ok bool) string {
	if !ok {
		return ""
	}
	return strconv.FormatBool(v)
}

// buckets renders the four rate/customers column pairs of a fee
// distribution.
func buckets(b openbanking.FeeBuckets) []string {
	cols := make([]string, 0, 8)
	for i := range b.Rates {
		cols = append(cols, rate(b.Rates[i]), rate(b.Customers[i]))
	}
	return cols
}

func rate(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
