package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seating/internal/seating"
)

func newMock(t *testing.T) (*SeatingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSeatingRepo(db), mock
}

func tableCaps(rows ...[2]int64) *sqlmock.Rows {
	r := sqlmock.NewRows([]string{"id", "capacity"})
	for _, row := range rows {
		r.AddRow(row[0], row[1])
	}
	return r
}

func TestLoadSnapshot(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`FROM seating_tables t LEFT JOIN guests g`).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity", "count"}).
			AddRow(1, "A", 4, 2).
			AddRow(2, "B", 6, 0))
	mock.ExpectQuery(`SELECT table_id, seat_number FROM guests`).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"table_id", "seat_number"}).
			AddRow(1, 1).
			AddRow(1, 2))
	mock.ExpectQuery(`LEFT JOIN households h`).WithArgs(7, "DECLINED").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "group", "household_id", "table_id"}).
			AddRow(10, "Ann Smith", "bride", 3, nil).
			AddRow(11, "Bob Jones", "", nil, 1))

	snap, err := repo.LoadSnapshot(context.Background(), 7)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, snap.Tables, 2)
	assert.Equal(t, 2, snap.Tables[0].Occupancy)
	assert.Equal(t, []int{1, 2}, snap.Tables[0].SeatedNumbers)
	assert.Empty(t, snap.Tables[1].SeatedNumbers)

	require.Len(t, snap.Guests, 2)
	require.NotNil(t, snap.Guests[0].HouseholdID)
	assert.Equal(t, uint64(3), *snap.Guests[0].HouseholdID)
	assert.Equal(t, "bride", snap.Guests[0].Group)
	assert.Nil(t, snap.Guests[0].TableID)
	require.NotNil(t, snap.Guests[1].TableID)
	assert.Equal(t, uint64(1), *snap.Guests[1].TableID)
}

func TestLoadSnapshot_TableRowErrorFails(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`FROM seating_tables t LEFT JOIN guests g`).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity", "count"}).
			AddRow(1, "A", 4, 0).
			AddRow(2, "B", 4, 0).
			RowError(1, errors.New("connection reset")))

	snap, err := repo.LoadSnapshot(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Nil(t, snap)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadSnapshot_SeatRowErrorFails(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`FROM seating_tables t LEFT JOIN guests g`).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity", "count"}).
			AddRow(1, "A", 4, 2))
	mock.ExpectQuery(`SELECT table_id, seat_number FROM guests`).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"table_id", "seat_number"}).
			AddRow(1, 1).
			AddRow(1, 2).
			RowError(1, errors.New("connection reset")))

	snap, err := repo.LoadSnapshot(context.Background(), 7)
	require.Error(t, err)
	assert.Nil(t, snap)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyAutoAssign_Incremental(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, capacity FROM seating_tables`).WithArgs(7).WillReturnRows(tableCaps([2]int64{1, 4}))
	mock.ExpectExec(`UPDATE guests SET table_id = \?, seat_number = \?`).WithArgs(1, 3, 10, 7, "DECLINED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE guests SET table_id = \?, seat_number = \?`).WithArgs(1, 4, 11, 7, "DECLINED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COUNT`).WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(4))
	mock.ExpectCommit()

	err := repo.ApplyAutoAssign(context.Background(), 7, true, []seating.Assignment{
		{GuestID: 10, TableID: 1, SeatNumber: 3},
		{GuestID: 11, TableID: 1, SeatNumber: 4},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyAutoAssign_ResetClearsFirst(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, capacity FROM seating_tables`).WithArgs(7).WillReturnRows(tableCaps([2]int64{1, 4}))
	mock.ExpectExec(`UPDATE guests SET table_id = NULL, seat_number = NULL WHERE event_id = \?`).WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(`UPDATE guests SET table_id = \?, seat_number = \?`).WithArgs(1, 1, 10, 7, "DECLINED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COUNT`).WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.ApplyAutoAssign(context.Background(), 7, false, []seating.Assignment{{GuestID: 10, TableID: 1, SeatNumber: 1}})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyAutoAssign_ConcurrentSeatIsConflict(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, capacity FROM seating_tables`).WithArgs(7).WillReturnRows(tableCaps([2]int64{1, 4}))
	mock.ExpectExec(`UPDATE guests SET table_id = \?, seat_number = \?`).WithArgs(1, 1, 10, 7, "DECLINED").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ApplyAutoAssign(context.Background(), 7, true, []seating.Assignment{{GuestID: 10, TableID: 1, SeatNumber: 1}})
	assert.True(t, errors.Is(err, ErrConflict))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyAutoAssign_DeclinedDuringRunIsConflict(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, capacity FROM seating_tables`).WithArgs(7).WillReturnRows(tableCaps([2]int64{1, 4}))
	mock.ExpectExec(`UPDATE guests SET table_id = NULL, seat_number = NULL WHERE event_id = \?`).WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`table_id IS NULL AND rsvp_status <> \?`).WithArgs(1, 1, 10, 7, "DECLINED").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ApplyAutoAssign(context.Background(), 7, false, []seating.Assignment{{GuestID: 10, TableID: 1, SeatNumber: 1}})
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyAutoAssign_DeletedTableIsConflict(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, capacity FROM seating_tables`).WithArgs(7).WillReturnRows(tableCaps([2]int64{1, 4}))
	mock.ExpectRollback()

	err := repo.ApplyAutoAssign(context.Background(), 7, true, []seating.Assignment{{GuestID: 10, TableID: 9, SeatNumber: 1}})
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyAutoAssign_OverCapacityRollsBack(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, capacity FROM seating_tables`).WithArgs(7).WillReturnRows(tableCaps([2]int64{1, 2}))
	mock.ExpectExec(`UPDATE guests SET table_id = \?, seat_number = \?`).WithArgs(1, 3, 10, 7, "DECLINED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COUNT`).WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))
	mock.ExpectRollback()

	err := repo.ApplyAutoAssign(context.Background(), 7, true, []seating.Assignment{{GuestID: 10, TableID: 1, SeatNumber: 3}})
	assert.ErrorIs(t, err, ErrOverCapacity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveGuests_ClearsSeatNumber(t *testing.T) {
	repo, mock := newMock(t)
	tid := uint64(2)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, capacity FROM seating_tables`).WithArgs(7).WillReturnRows(tableCaps([2]int64{2, 8}))
	mock.ExpectQuery(`SELECT id FROM guests WHERE event_id = \? AND id IN`).WithArgs(7, 10, 11).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10).AddRow(11))
	mock.ExpectExec(`UPDATE guests SET table_id = \?, seat_number = NULL`).WithArgs(2, 10, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE guests SET table_id = \?, seat_number = NULL`).WithArgs(nil, 11, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COUNT`).WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(5))
	mock.ExpectCommit()

	err := repo.MoveGuests(context.Background(), 7, []GuestMove{
		{GuestID: 10, TableID: &tid},
		{GuestID: 11, TableID: nil},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveGuests_UnknownGuest(t *testing.T) {
	repo, mock := newMock(t)
	tid := uint64(2)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, capacity FROM seating_tables`).WithArgs(7).WillReturnRows(tableCaps([2]int64{2, 8}))
	mock.ExpectQuery(`SELECT id FROM guests WHERE event_id = \? AND id IN`).WithArgs(7, 99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.MoveGuests(context.Background(), 7, []GuestMove{{GuestID: 99, TableID: &tid}})
	assert.ErrorIs(t, err, ErrGuestNotFound)
	assert.True(t, IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveGuests_TableOfOtherEvent(t *testing.T) {
	repo, mock := newMock(t)
	tid := uint64(5)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, capacity FROM seating_tables`).WithArgs(7).WillReturnRows(tableCaps([2]int64{2, 8}))
	mock.ExpectQuery(`SELECT id FROM guests WHERE event_id = \? AND id IN`).WithArgs(7, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectRollback()

	err := repo.MoveGuests(context.Background(), 7, []GuestMove{{GuestID: 10, TableID: &tid}})
	assert.ErrorIs(t, err, ErrTableNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveGuests_OverflowRejected(t *testing.T) {
	repo, mock := newMock(t)
	tid := uint64(2)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, capacity FROM seating_tables`).WithArgs(7).WillReturnRows(tableCaps([2]int64{2, 1}))
	mock.ExpectQuery(`SELECT id FROM guests WHERE event_id = \? AND id IN`).WithArgs(7, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectExec(`UPDATE guests SET table_id = \?, seat_number = NULL`).WithArgs(2, 10, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COUNT`).WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))
	mock.ExpectRollback()

	err := repo.MoveGuests(context.Background(), 7, []GuestMove{{GuestID: 10, TableID: &tid}})
	assert.ErrorIs(t, err, ErrOverCapacity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveGuests_LastMoveWins(t *testing.T) {
	repo, mock := newMock(t)
	a, b := uint64(1), uint64(2)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, capacity FROM seating_tables`).WithArgs(7).
		WillReturnRows(tableCaps([2]int64{1, 8}, [2]int64{2, 8}))
	mock.ExpectQuery(`SELECT id FROM guests WHERE event_id = \? AND id IN`).WithArgs(7, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectExec(`UPDATE guests SET table_id = \?, seat_number = NULL`).WithArgs(2, 10, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COUNT`).WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.MoveGuests(context.Background(), 7, []GuestMove{{GuestID: 10, TableID: &a}, {GuestID: 10, TableID: &b}})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
