package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*MySQLSource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLSource(db, "wordpress"), mock
}

func TestMySQLSource_Tables(t *testing.T) {
	src, mock := newMock(t)

	rows := sqlmock.NewRows([]string{"TABLE_NAME", "TABLE_COLLATION", "ENGINE"}).
		AddRow("wp_options", "utf8mb4_unicode_520_ci", "InnoDB").
		AddRow("wp_posts", "utf8mb4_unicode_ci", "InnoDB").
		AddRow("wp_stats_view", nil, nil)
	mock.ExpectQuery(tablesQuery).WithArgs("wordpress").WillReturnRows(rows)

	tables, err := src.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Table{
		{Name: "wp_options", Engine: "InnoDB", Collation: "utf8mb4_unicode_520_ci"},
		{Name: "wp_posts", Engine: "InnoDB", Collation: "utf8mb4_unicode_ci"},
		{Name: "wp_stats_view"},
	}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLSource_QueryError(t *testing.T) {
	src, mock := newMock(t)
	mock.ExpectQuery(tablesQuery).WithArgs("wordpress").WillReturnError(errors.New("access denied"))

	_, err := src.Tables(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Contains(t, err.Error(), "wordpress")
}

func TestMySQLSource_RowError(t *testing.T) {
	src, mock := newMock(t)
	rows := sqlmock.NewRows([]string{"TABLE_NAME", "TABLE_COLLATION", "ENGINE"}).
		AddRow("wp_posts", "utf8mb4_unicode_ci", "InnoDB").
		RowError(0, errors.New("connection reset"))
	mock.ExpectQuery(tablesQuery).WithArgs("wordpress").WillReturnRows(rows)

	_, err := src.Tables(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestMySQLSource_Close(t *testing.T) {
	src, mock := newMock(t)
	mock.ExpectClose()
	assert.NoError(t, src.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_RejectsBadDSN(t *testing.T) {
	_, err := Open("not a dsn")
	assert.Error(t, err)

	_, err = Open("user:pass@tcp(localhost:3306)/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database name")
}

func TestOpen_DoesNotConnect(t *testing.T) {
	src, err := Open("user:pass@tcp(127.0.0.1:1)/wordpress")
	require.NoError(t, err)
	assert.Equal(t, "wordpress", src.schema)
	assert.NoError(t, src.Close())
}

type mapAttributor map[string][]string

func (m mapAttributor) TableSources(name string) []string { return m[name] }

func TestPolicy_Evaluate(t *testing.T) {
	tables := []Table{
		{Name: "wp_posts", Engine: "InnoDB", Collation: "utf8mb4_unicode_ci"},
		{Name: "wp_legacy", Engine: "MyISAM", Collation: "utf8mb4_unicode_ci"},
		{Name: "wp_latin", Engine: "InnoDB", Collation: "latin1_swedish_ci"},
		{Name: "custom_log", Engine: "InnoDB", Collation: "utf8mb4_bin"},
		{Name: "old_stuff", Engine: "MyISAM", Collation: "utf8_general_ci"},
	}
	attr := mapAttributor{"wp_posts": {"wordpress-core"}}

	results := DefaultPolicy().Evaluate(tables, attr)
	require.Len(t, results, 5)

	assert.True(t, results[0].Compatible)
	assert.Equal(t, []string{NoteCompatible}, results[0].Notes)
	assert.Equal(t, []string{"wordpress-core"}, results[0].Sources)

	assert.False(t, results[1].Compatible)
	assert.Equal(t, []string{NoteIncompatibleEngine}, results[1].Notes)

	assert.Equal(t, []string{NoteUnsupportedCollation}, results[2].Notes)
	assert.Equal(t, []string{NoteUnsupportedPrefix}, results[3].Notes)
	assert.Equal(t, []string{NoteUnsupportedCollation, NoteIncompatibleEngine, NoteUnsupportedPrefix}, results[4].Notes)
	assert.Nil(t, results[4].Sources)
}

func TestPolicy_EvaluateNilAttributor(t *testing.T) {
	results := DefaultPolicy().Evaluate([]Table{{Name: "wp_posts", Engine: "InnoDB", Collation: "utf8mb4_bin"}}, nil)
	require.Len(t, results, 1)
	assert.True(t, results[0].Compatible)
	assert.Nil(t, results[0].Sources)
}

func TestDefaultPolicy_Collations(t *testing.T) {
	p := DefaultPolicy()
	assert.Len(t, p.Collations, 33)
	assert.True(t, p.Collations["utf8mb4_unicode_520_nopad_ci"])
	assert.False(t, p.Collations["utf8mb4_0900_ai_ci"])
	assert.Equal(t, "InnoDB", p.Engine)
	assert.Equal(t, "wp_", p.Prefix)
}
