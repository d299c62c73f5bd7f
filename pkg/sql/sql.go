package lsql

import (
	"fmt"
)

var (
	ErrDatabaseEngineNotSupported = fmt.Errorf("database engine not supported")
	ErrNoRowsAffected             = fmt.Errorf("no rows affected")
)
