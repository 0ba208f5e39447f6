package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"controlepix/internal/core"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func TestAddPassesColumnsInOrder(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(insertTransaction)).
		WithArgs("entrada", "Janeiro", 100.5, "salario").
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := s.Add(context.Background(), core.NewTransaction{
		Kind:        "entrada",
		Month:       "Janeiro",
		Amount:      decimal.RequireFromString("100.5"),
		Description: "salario",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreErrorsPropagate(t *testing.T) {
	locked := errors.New("database is locked")

	t.Run("add", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta(insertTransaction)).WillReturnError(locked)

		_, err := s.Add(context.Background(), core.NewTransaction{Kind: "entrada", Amount: decimal.NewFromInt(1)})
		require.ErrorIs(t, err, locked)
		assert.Contains(t, err.Error(), "insert transaction")
	})

	t.Run("list", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectTransactions)).WillReturnError(locked)

		rows, err := s.List(context.Background())
		require.ErrorIs(t, err, locked)
		assert.Nil(t, rows)
	})

	t.Run("delete", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta(deleteTransaction)).WithArgs(int64(3)).WillReturnError(locked)

		err := s.Delete(context.Background(), 3)
		require.ErrorIs(t, err, locked)
	})
}

func TestDeleteMissingIDIsSilent(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(deleteTransaction)).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, s.Delete(context.Background(), 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListScansNullsAndReals(t *testing.T) {
	s, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"id", "type", "month", "amount", "description"}).
		AddRow(int64(1), "entrada", "Janeiro", 100.5, "salario").
		AddRow(int64(2), nil, nil, nil, nil).
		AddRow(int64(3), "saida", "", "oops", "")
	mock.ExpectQuery(regexp.QuoteMeta(selectTransactions)).WillReturnRows(rows)

	got, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, core.Transaction{ID: 1, Kind: "entrada", Month: "Janeiro", Amount: "100.5", Description: "salario"}, got[0])
	assert.Equal(t, core.Transaction{ID: 2}, got[1])
	assert.Equal(t, "oops", got[2].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
