package errors

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// ErrorDump is an error flattened for a log entry.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`
	DB         *DBFault `json:"db,omitempty"`
}

// DBFault carries what the SQL driver said about a failed statement.
type DBFault struct {
	Driver     string `json:"driver"`
	Code       string `json:"code"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// Dump walks err's chain and pulls out postgres or sqlite driver details.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error(), DB: dbFault(err)}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	return d
}

func dbFault(err error) *DBFault {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &DBFault{
			Driver:     "postgres",
			Code:       pgErr.Code,
			Constraint: pgErr.ConstraintName,
			Table:      pgErr.TableName,
			Detail:     pgErr.Detail,
		}
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return &DBFault{
			Driver: "sqlite",
			Code:   strconv.Itoa(int(liteErr.ExtendedCode)),
			Detail: liteErr.Error(),
		}
	}
	return nil
}

// Fields renders the dump as a log field map.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
	}
	if d.DB != nil {
		fields["db_driver"] = d.DB.Driver
		fields["db_code"] = d.DB.Code
		if d.DB.Constraint != "" {
			fields["db_constraint"] = d.DB.Constraint
		}
		if d.DB.Table != "" {
			fields["db_table"] = d.DB.Table
		}
		if d.DB.Detail != "" {
			fields["db_detail"] = d.DB.Detail
		}
	}
	return fields
}
