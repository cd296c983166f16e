package journal

import "fmt"

var (
	// ErrClosed is returned when attempting to use a closed journal
	ErrClosed = fmt.Errorf("journal is closed")

	// ErrSchemaTooNew is returned when the database was written by a newer version
	ErrSchemaTooNew = fmt.Errorf("journal schema is newer than supported")
)
