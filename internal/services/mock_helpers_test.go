package services

import "github.com/lib/pq"

// pqUniqueViolation mimics the driver error Postgres raises for a unique
// constraint collision, used to exercise idempotent-create races.
var pqUniqueViolation = pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
