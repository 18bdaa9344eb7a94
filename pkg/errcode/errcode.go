package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	CopyFileError
	ReadFileError
	WriteFileError
	AtomicReplaceError

	// Logging errors
	CreateLogFileError

	// Registry errors
	RegistryOpenError
	RegistryCollisionError
	RegistryWriteError
	RegistryClosedError

	// Staged input errors
	StagedManifestError
	StagedBatchError
	StagedTableError

	// Precedence errors
	PrecedenceConfigError

	// Normalize errors
	NormalizeError
	NormalizeSnapshotError
	NormalizeCancelledError

	// Validate errors
	ValidateSnapshotError
	ValidateReportError

	// SQLite artifact errors
	SQLiteOpenError
	SchemaCreateError
	IndexCreateError
	TableInsertError
	TableReadError

	// Commit errors
	CommitBlockedError
	CommitVerifyError

	// Serve errors
	ServeBuildError
	ServeVerifyError
	ServeQueryError
	MetricsWriteError

	// Database (mirror) errors
	DBConnectionError
	DBNotConnectedError
	DBTableCheckError
	DBTableExistsCheckError
	DBQueryTablesError
	DBScanTableError
	DBDropTableError
	MirrorCopyError
)
