package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"controlepix/internal/chart"
	"controlepix/internal/core"
	applog "controlepix/internal/log"
	"controlepix/internal/metrics"
)

// Ledger is the persistence the dashboard needs. *storage.Store satisfies it.
type Ledger interface {
	Add(ctx context.Context, t core.NewTransaction) (int64, error)
	List(ctx context.Context) ([]core.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

// Recorder receives write outcomes and ledger size. *metrics.Metrics
// satisfies it.
type Recorder interface {
	TransactionWrite(op, status string)
	TransactionAmount(kind string, amount float64)
	Snapshot(rows, skipped int)
}

type State int

const (
	StateInitialLoad State = iota
	StateAwaitingInput
	StateTransactionAdded
	StateTransactionDeleted
)

func (s State) String() string {
	switch s {
	case StateInitialLoad:
		return "initial_load"
	case StateAwaitingInput:
		return "awaiting_input"
	case StateTransactionAdded:
		return "transaction_added"
	case StateTransactionDeleted:
		return "transaction_deleted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	NoticeAdded   = "Transação adicionada com sucesso!"
	NoticeDeleted = "Transação excluída com sucesso!"
)

// Action is one user intent handled by Dispatch.
type Action interface {
	action()
}

// LoadAction refreshes the view without changing anything.
type LoadAction struct{}

// AddAction records one transaction.
type AddAction struct {
	Kind        string
	Month       string
	Amount      decimal.Decimal
	Description string
}

// DeleteAction removes the transaction with ID.
type DeleteAction struct {
	ID int64
}

func (LoadAction) action()   {}
func (AddAction) action()    {}
func (DeleteAction) action() {}

// Row is a transaction prepared for the table.
type Row struct {
	core.Transaction
	KindLabel     string
	AmountDisplay string
	// Color is the row background; empty for kinds the summary ignores.
	Color string
}

// Page is everything one render cycle shows.
type Page struct {
	State   State
	Notice  string
	Rows    []Row
	Summary core.Summary
	Chart   chart.Chart
	Months  []string
	Kinds   []core.Kind
	Empty   bool
}

// Dashboard drives the interactive view: every action ends in a full reload
// of the ledger.
type Dashboard struct {
	ledger  Ledger
	metrics Recorder
	log     *applog.StructuredLogger

	initOnce sync.Once
	initErr  error
	init     func() error
}

type Option func(*Dashboard)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(d *Dashboard) { d.metrics = r }
}

// WithSchemaCheck runs fn before the first load. A failure is remembered and
// returned by every later Dispatch.
func WithSchemaCheck(fn func() error) Option {
	return func(d *Dashboard) { d.init = fn }
}

// WithLogger replaces the default logger.
func WithLogger(l *applog.Logger) Option {
	return func(d *Dashboard) { d.log = applog.NewStructuredLogger(l.WithComponent(applog.ComponentDashboard)) }
}

func NewDashboard(ledger Ledger, opts ...Option) *Dashboard {
	d := &Dashboard{
		ledger: ledger,
		log: applog.NewStructuredLogger(
			applog.FromContext(context.Background()).WithComponent(applog.ComponentDashboard)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch applies a and returns the page to render. A store error aborts the
// cycle; nothing is retried or rolled back.
func (d *Dashboard) Dispatch(ctx context.Context, a Action) (Page, error) {
	switch a := a.(type) {
	case LoadAction:
		return d.load(ctx, StateAwaitingInput, "")

	case AddAction:
		if err := d.ready(); err != nil {
			return Page{State: StateInitialLoad}, err
		}
		in := core.NewTransaction{
			Kind:        a.Kind,
			Month:       a.Month,
			Amount:      a.Amount,
			Description: a.Description,
		}
		if err := in.Validate(); err != nil {
			d.record(applog.OpCreate, metrics.StatusInvalid)
			return Page{State: StateAwaitingInput}, fmt.Errorf("add transaction: %w", err)
		}
		id, err := d.ledger.Add(ctx, in)
		if err != nil {
			d.record(applog.OpCreate, metrics.StatusFailed)
			d.log.LogError(ctx, "Failed to add transaction", err, applog.OpCreate, applog.ErrorTypeDatabase)
			return Page{State: StateAwaitingInput}, fmt.Errorf("add transaction: %w", err)
		}
		d.record(applog.OpCreate, metrics.StatusSuccess)
		if d.metrics != nil {
			d.metrics.TransactionAmount(string(core.NormalizeKind(in.Kind)), in.Amount.InexactFloat64())
		}
		d.log.LogTransactionAdded(ctx, id, in.Kind, in.Month, in.Amount.StringFixed(2), in.Description)
		return d.load(ctx, StateTransactionAdded, NoticeAdded)

	case DeleteAction:
		if err := d.ready(); err != nil {
			return Page{State: StateInitialLoad}, err
		}
		if err := d.ledger.Delete(ctx, a.ID); err != nil {
			d.record(applog.OpDelete, metrics.StatusFailed)
			d.log.LogError(ctx, "Failed to delete transaction", err, applog.OpDelete, applog.ErrorTypeDatabase)
			return Page{State: StateAwaitingInput}, fmt.Errorf("delete transaction %d: %w", a.ID, err)
		}
		d.record(applog.OpDelete, metrics.StatusSuccess)
		d.log.LogTransactionDeleted(ctx, a.ID)
		return d.load(ctx, StateTransactionDeleted, NoticeDeleted)

	default:
		return Page{}, fmt.Errorf("unsupported action %T", a)
	}
}

func (d *Dashboard) ready() error {
	d.initOnce.Do(func() {
		if d.init != nil {
			if err := d.init(); err != nil {
				d.initErr = fmt.Errorf("ensure schema: %w", err)
			}
		}
	})
	return d.initErr
}

func (d *Dashboard) load(ctx context.Context, state State, notice string) (Page, error) {
	if err := d.ready(); err != nil {
		return Page{State: StateInitialLoad}, err
	}

	txs, err := d.ledger.List(ctx)
	if err != nil {
		d.log.LogError(ctx, "Failed to list transactions", err, applog.OpLoad, applog.ErrorTypeDatabase)
		return Page{State: state}, fmt.Errorf("list transactions: %w", err)
	}

	sum := core.Summarize(txs)
	d.log.LogSummary(ctx, state.String(), sum.TotalIn.StringFixed(2), sum.TotalOut.StringFixed(2), sum.Balance.StringFixed(2), len(txs), sum.Skipped)
	if d.metrics != nil {
		d.metrics.Snapshot(len(txs), sum.Skipped)
	}

	rows := make([]Row, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, newRow(t))
	}

	return Page{
		State:   state,
		Notice:  notice,
		Rows:    rows,
		Summary: sum,
		Chart:   chart.Build(sum),
		Months:  core.Months,
		Kinds:   core.Kinds,
		Empty:   len(rows) == 0,
	}, nil
}

func (d *Dashboard) record(op, status string) {
	if d.metrics != nil {
		d.metrics.TransactionWrite(op, status)
	}
}

func newRow(t core.Transaction) Row {
	r := Row{Transaction: t, KindLabel: t.Kind, AmountDisplay: t.Amount}
	switch k := t.NormalizedKind(); k {
	case core.KindInflow:
		r.Color = chart.ColorInflow
		r.KindLabel = k.Label()
	case core.KindOutflow:
		r.Color = chart.ColorOutflow
		r.KindLabel = k.Label()
	}
	if amount, err := t.ParsedAmount(); err == nil {
		r.AmountDisplay = core.FormatBRL(amount)
	}
	return r
}
