// Package all wires the built-in storage backends into the storage factory.
//
// It exists purely for side effects: importing it (as a blank import) runs
// the init functions of each concrete backend, which register themselves with
// the storage package. Importing this package makes the following kinds
// available at runtime:
//
//   - "parquet"  (internal/storage/parquet)
//   - "postgres" (internal/storage/postgres)
//
// A binary that should support only one backend can blank-import that backend
// directly instead of this package.
package all

import (
	_ "github.com/jrwils/sparkify-datalake/internal/storage/parquet"
	_ "github.com/jrwils/sparkify-datalake/internal/storage/postgres"
)
