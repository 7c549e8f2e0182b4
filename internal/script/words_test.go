package script

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitWords(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "", want: nil},
		{name: "simple", input: "exec insertCoin", want: []string{"exec", "insertCoin"}},
		{name: "extra spacing", input: "  can\t select  ", want: []string{"can", "select"}},
		{name: "double quote", input: `exec "turn on"`, want: []string{"exec", "turn on"}},
		{name: "single quote", input: `exec 'turn on'`, want: []string{"exec", "turn on"}},
		{name: "escaped space", input: `exec turn\ on`, want: []string{"exec", "turn on"}},
		{name: "empty quoted word", input: `exec ""`, want: []string{"exec", ""}},
		{name: "leading comment", input: "# exec insertCoin", want: nil},
		{name: "trailing comment", input: "undo # take it back", want: []string{"undo"}},
		{name: "hash inside word", input: "exec a#b", want: []string{"exec", "a#b"}},
		{name: "unterminated quote", input: `exec "oops`, wantErr: "unterminated quote"},
		{name: "unterminated escape", input: `exec oops\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := splitWords(tc.input)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
