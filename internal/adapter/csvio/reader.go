// Package csvio reads event records from CSV and writes account reports.
package csvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/paymentsengine/internal/domain"
	"github.com/iho/paymentsengine/internal/infrastructure/metrics"
)

// Column names of the input header.
const (
	colType   = "type"
	colClient = "client"
	colTx     = "tx"
	colAmount = "amount"
)

// ErrMissingHeader is returned when the input has no usable header row.
var ErrMissingHeader = errors.New("csv input has no type,client,tx,amount header")

// Reader is a usecase.EventSource over CSV input.
// Rows that cannot be turned into an event are skipped.
type Reader struct {
	csv     *csv.Reader
	columns map[string]int

	metrics     *metrics.Metrics
	diagnostics zerolog.Logger

	read    uint64
	skipped uint64
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMetrics counts read and skipped rows.
func WithMetrics(m *metrics.Metrics) ReaderOption {
	return func(r *Reader) { r.metrics = m }
}

// WithDiagnostics reports skipped rows at debug level.
func WithDiagnostics(logger zerolog.Logger) ReaderOption {
	return func(r *Reader) { r.diagnostics = logger }
}

// NewReader reads the header row and returns a Reader positioned at the first record.
func NewReader(in io.Reader, opts ...ReaderOption) (*Reader, error) {
	cr := csv.NewReader(in)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	r := &Reader{
		csv:         cr,
		diagnostics: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	r.columns = make(map[string]int, len(header))
	for i, name := range header {
		r.columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range []string{colType, colClient, colTx, colAmount} {
		if _, ok := r.columns[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMissingHeader, name)
		}
	}

	return r, nil
}

// Next returns the next well-formed event, or io.EOF at the end of input.
func (r *Reader) Next(ctx context.Context) (domain.Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.Event{}, err
		}

		record, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			return domain.Event{}, io.EOF
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			r.count()
			r.skip(parseErr.Line, err)
			continue
		}
		if err != nil {
			return domain.Event{}, fmt.Errorf("failed to read csv record: %w", err)
		}

		r.count()
		event, err := r.parse(record)
		if err != nil {
			line, _ := r.csv.FieldPos(0)
			r.skip(line, err)
			continue
		}
		return event, nil
	}
}

// Read returns the number of data rows seen so far.
func (r *Reader) Read() uint64 { return r.read }

// Skipped returns the number of rows dropped as unparseable.
func (r *Reader) Skipped() uint64 { return r.skipped }

func (r *Reader) count() {
	r.read++
	if r.metrics != nil {
		r.metrics.RecordsRead.Inc()
	}
}

func (r *Reader) skip(line int, err error) {
	r.skipped++
	if r.metrics != nil {
		r.metrics.RecordsSkipped.Inc()
	}
	r.diagnostics.Debug().Int("line", line).Err(err).Msg("record skipped")
}

func (r *Reader) field(record []string, name string) string {
	return strings.TrimSpace(record[r.columns[name]])
}

func (r *Reader) parse(record []string) (domain.Event, error) {
	kind, err := domain.ParseEventKind(r.field(record, colType))
	if err != nil {
		return domain.Event{}, err
	}

	client, err := strconv.ParseUint(r.field(record, colClient), 10, 16)
	if err != nil {
		return domain.Event{}, fmt.Errorf("%w: client: %w", domain.ErrMalformedRecord, err)
	}

	tx, err := strconv.ParseUint(r.field(record, colTx), 10, 32)
	if err != nil {
		return domain.Event{}, fmt.Errorf("%w: tx: %w", domain.ErrMalformedRecord, err)
	}

	event := domain.Event{
		Kind:          kind,
		CustomerID:    domain.CustomerID(client),
		TransactionID: domain.TransactionID(tx),
	}

	if raw := r.field(record, colAmount); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.Event{}, fmt.Errorf("%w: amount: %w", domain.ErrMalformedRecord, err)
		}
		event.Amount = &amount
	}

	return event, nil
}
