package iofs

import (
	"errors"
	"testing"

	"github.com/gnames/gn"
	"github.com/gnames/hktransit/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrors_Structure verifies codes, vars and wrapping of errors.
func TestErrors_Structure(t *testing.T) {
	cause := errors.New("root cause")

	tests := []struct {
		name  string
		err   error
		code  gn.ErrorCode
		vars  int
		inErr string
	}{
		{"CreateDirError", CreateDirError("/dir", cause),
			errcode.CreateDirError, 1, "cannot create"},
		{"CopyFileError", CopyFileError("/config.yaml", cause),
			errcode.CopyFileError, 1, "cannot copy"},
		{"ReadFileError", ReadFileError("/data", cause),
			errcode.ReadFileError, 1, "cannot read /data"},
		{"WriteFileError", WriteFileError("/out.json", cause),
			errcode.WriteFileError, 1, "cannot write /out.json"},
		{"AtomicReplaceError", AtomicReplaceError("/a.tmp", "/a", cause),
			errcode.AtomicReplaceError, 1, "cannot rename /a.tmp to /a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gnErr, ok := tt.err.(*gn.Error)
			require.True(t, ok, "Error should be of type *gn.Error")
			assert.Equal(t, tt.code, gnErr.Code)
			assert.NotEmpty(t, gnErr.Msg)
			assert.Len(t, gnErr.Vars, tt.vars)

			// caller context from runtime.Caller
			assert.Contains(t, gnErr.Err.Error(), "from")
			assert.Contains(t, gnErr.Err.Error(), tt.inErr)
			assert.ErrorIs(t, gnErr.Err, cause)
		})
	}
}
