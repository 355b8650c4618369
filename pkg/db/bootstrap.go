package db

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/greener-project/greener/pkg/model"
)

type index struct {
	name    string
	model   any
	columns []string
	unique  bool
}

var indexes = []index{
	{name: "ix_users_username", model: (*model.User)(nil), columns: []string{"username"}, unique: true},
	{name: "ix_apikeys_user_id", model: (*model.APIKey)(nil), columns: []string{"user_id"}},
	{name: "ix_sessions_user_id", model: (*model.Session)(nil), columns: []string{"user_id"}},
	{name: "ix_labels_session_id", model: (*model.Label)(nil), columns: []string{"session_id"}},
	{name: "ix_labels_user_id", model: (*model.Label)(nil), columns: []string{"user_id"}},
	{name: "ix_testcases_session_id", model: (*model.Testcase)(nil), columns: []string{"session_id"}},
	{name: "ix_testcases_user_id", model: (*model.Testcase)(nil), columns: []string{"user_id"}},
}

// Bootstrap creates the schema if it does not exist yet. It is safe to
// run on every startup; existing tables and indexes are left alone.
func Bootstrap(ctx context.Context, db *bun.DB) error {
	type table struct {
		model any
		fks   []string
	}

	tables := []table{
		{model: (*model.User)(nil)},
		{model: (*model.APIKey)(nil), fks: []string{
			`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
		}},
		{model: (*model.Session)(nil), fks: []string{
			`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
		}},
		{model: (*model.Label)(nil), fks: []string{
			`("session_id") REFERENCES "sessions" ("id") ON DELETE CASCADE`,
			`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
		}},
		{model: (*model.Testcase)(nil), fks: []string{
			`("session_id") REFERENCES "sessions" ("id") ON DELETE CASCADE`,
			`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
		}},
	}

	for _, t := range tables {
		q := db.NewCreateTable().Model(t.model).IfNotExists()
		for _, fk := range t.fks {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return errors.Wrapf(err, "creating table for %T", t.model)
		}
	}

	for _, ix := range indexes {
		q := db.NewCreateIndex().Model(ix.model).Index(ix.name).IfNotExists()
		if ix.unique {
			q = q.Unique()
		}
		for _, col := range ix.columns {
			q = q.Column(col)
		}
		if _, err := q.Exec(ctx); err != nil {
			return errors.Wrapf(err, "creating index %s", ix.name)
		}
	}

	logrus.Debug("database schema bootstrapped")
	return nil
}
