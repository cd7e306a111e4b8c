package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
)

var personArgs = []string{"-schema", "testdata/person.graphql", "-type", "Person", "-rows", "testdata/people.json"}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = run(args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func TestHelp(t *testing.T) {
	out, _, err := runCmd(t, "help")
	require.NoError(t, err)
	require.Contains(t, out, "COMMANDS:")

	out, _, err = runCmd(t, "help", "eval")
	require.NoError(t, err)
	require.Contains(t, out, "eval FLAGS")
	require.Contains(t, out, "-encode")

	out, _, err = runCmd(t, "help", "verify")
	require.NoError(t, err)
	require.Contains(t, out, "verify FLAGS")

	_, _, err = runCmd(t, "help", "serve")
	require.EqualError(t, err, `unknown help topic "serve"`)
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, err := runCmd(t, "serve")
	require.EqualError(t, err, `unknown command "serve"`)
	require.Contains(t, stderr, "USAGE:")

	_, _, err = runCmd(t)
	require.EqualError(t, err, "missing command")
}

func TestEval(t *testing.T) {
	want := []string{
		`{"id":1,"name":"Ada","nickname":null,"born":"1815-12-10T00:00:00Z","balance":"12.5",` +
			`"tags":["math","engines"],"address":{"city":"London","zip":null}}`,
		`{"id":2,"name":"Grace","nickname":"Amazing","born":null,"balance":null,"tags":[],"address":null}`,
	}
	for _, mode := range []string{"interpreted", "codegen", "fallback"} {
		t.Run(mode, func(t *testing.T) {
			out, _, err := runCmd(t, append([]string{"eval", "-mode", mode}, personArgs...)...)
			require.NoError(t, err)
			got := lines(out)
			require.Len(t, got, len(want))
			for i := range want {
				require.JSONEq(t, want[i], got[i])
			}
		})
	}
}

func TestEvalEncode(t *testing.T) {
	out, _, err := runCmd(t, append([]string{"eval", "-encode"}, personArgs...)...)
	require.NoError(t, err)
	got := lines(out)
	require.Len(t, got, 2)

	var encoded string
	require.NoError(t, json.Unmarshal([]byte(got[1]), &encoded))
	payload, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, cbor.Unmarshal(payload, &decoded))
	require.Equal(t, "Grace", decoded["name"])
	require.Equal(t, uint64(2), decoded["id"])
	require.Nil(t, decoded["address"])
}

func TestEvalFastBackend(t *testing.T) {
	args := append([]string{"eval", "-config", "testdata/fast.toml"}, personArgs...)
	out, _, err := runCmd(t, args...)
	require.NoError(t, err)
	require.Len(t, lines(out), 2)

	out, _, err = runCmd(t, append([]string{"eval", "-encode", "-config", "testdata/fast.toml"}, personArgs...)...)
	require.EqualError(t, err, `-encode supports only the general serializer, got backend "fast"`)
	require.Empty(t, out)
}

func TestEvalWithConfigAndMetrics(t *testing.T) {
	metricsFile := filepath.Join(t.TempDir(), "objrow.prom")
	args := append([]string{"eval", "-config", "testdata/objrow.yaml", "-metrics.out", metricsFile}, personArgs...)
	out, stderr, err := runCmd(t, args...)
	require.NoError(t, err)
	require.Len(t, lines(out), 2)
	require.Contains(t, stderr, "batch finished")
	require.Contains(t, stderr, "mode=interpreted")

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	require.Contains(t, string(prom), `objrow_batches_total{mode="interpreted"} 1`)
	require.Contains(t, string(prom), "objrow_rows_total 2")
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing schema",
			args: []string{"eval", "-type", "Person", "-rows", "testdata/people.json"},
			want: "-schema is required",
		},
		{
			name: "missing rows",
			args: []string{"verify", "-schema", "testdata/person.graphql", "-type", "Person"},
			want: "-rows is required",
		},
		{
			name: "unknown type",
			args: []string{"eval", "-schema", "testdata/person.graphql", "-type", "Robot", "-rows", "testdata/people.json"},
			want: `type "Robot" not found in testdata/person.graphql`,
		},
		{
			name: "null in non-nullable field",
			args: []string{"eval", "-schema", "testdata/person.graphql", "-type", "Person", "-rows", "testdata/bad_rows.json"},
			want: "testdata/bad_rows.json: row 0: field name cannot be null",
		},
		{
			name: "unknown mode",
			args: append([]string{"eval", "-mode", "jit"}, personArgs...),
			want: `unknown evaluation mode "jit"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCmd(t, tt.args...)
			require.EqualError(t, err, tt.want)
		})
	}
}

func TestVerify(t *testing.T) {
	out, _, err := runCmd(t, append([]string{"verify"}, personArgs...)...)
	require.NoError(t, err)
	require.Equal(t, "2 rows verified\n", out)
}
