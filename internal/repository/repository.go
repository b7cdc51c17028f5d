package repository

import (
	"errors"
	"strings"

	"github.com/contoso/jobsite-api/internal/domain"
)

var (
	// ErrNotFound is returned when no row matches the requested id
	ErrNotFound = errors.New("record not found")

	// ErrForeignKeyViolation is returned by stores that check references themselves
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

// Stats holds row counts for the job store
type Stats struct {
	Jobs   int64
	Photos int64
}

// likeEscaper escapes LIKE wildcards so user input matches literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching name_folded for substring search
func containsPattern(search string) string {
	return "%" + likeEscaper.Replace(domain.FoldName(search)) + "%"
}
