package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	o := Options{User: "app", Pass: "secret", Host: "db", Port: "3306", Name: "library"}
	dsn := o.DSN()
	assert.Contains(t, dsn, "app:secret@tcp(db:3306)/library")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestDSNWithoutPassword(t *testing.T) {
	o := Options{User: "app", Host: "localhost", Port: "3306", Name: "library"}
	assert.Contains(t, o.DSN(), "app@tcp(localhost:3306)/library")
}
