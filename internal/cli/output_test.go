package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slicemap/internal/host"
)

// decodeKeys returns the top-level keys of a JSON object.
func decodeKeys(t *testing.T, data []byte) map[string]json.RawMessage {
	t.Helper()
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	return raw
}

func TestOutputFormatter_ErrorCodes(t *testing.T) {
	for _, code := range []string{
		ErrCodeScenarioFailed,
		ErrCodeInvalidScenario,
		ErrCodeReplayMismatch,
		ErrCodeNotFound,
	} {
		t.Run(code, func(t *testing.T) {
			text := &bytes.Buffer{}
			require.NoError(t, (&OutputFormatter{Format: "text", Writer: text}).Error(code, "boom", nil))
			assert.Equal(t, "Error ["+code+"]: boom\n", text.String())

			js := &bytes.Buffer{}
			require.NoError(t, (&OutputFormatter{Format: "json", Writer: js}).Error(code, "boom", nil))
			raw := decodeKeys(t, js.Bytes())
			assert.JSONEq(t, `"error"`, string(raw["status"]))
			assert.JSONEq(t, `{"code":"`+code+`","message":"boom"}`, string(raw["error"]))
			assert.NotContains(t, raw, "data")
			assert.NotContains(t, raw, "session")
		})
	}
}

func TestOutputFormatter_SuccessCarriesTrace(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	records := []host.Record{{Session: "s-1", Seq: 1, Kind: host.KindDispatch, Name: "foo.inc"}}
	require.NoError(t, formatter.Success(records))

	raw := decodeKeys(t, buf.Bytes())
	assert.JSONEq(t, `"ok"`, string(raw["status"]))
	assert.NotContains(t, raw, "error")

	var got []host.Record
	require.NoError(t, json.Unmarshal(raw["data"], &got))
	require.Len(t, got, 1)
	assert.Equal(t, "foo.inc", got[0].Name)
	assert.Equal(t, host.KindDispatch, got[0].Kind)
}

func TestOutputFormatter_DetailsOnlyWhenVerbose(t *testing.T) {
	details := []string{"steps[1]: state mismatch"}

	quiet := &bytes.Buffer{}
	require.NoError(t, (&OutputFormatter{Format: "text", Writer: quiet}).Error(ErrCodeScenarioFailed, "failed", details))
	assert.NotContains(t, quiet.String(), "Details:")

	loud := &bytes.Buffer{}
	require.NoError(t, (&OutputFormatter{Format: "text", Writer: loud, Verbose: true}).Error(ErrCodeScenarioFailed, "failed", details))
	assert.Contains(t, loud.String(), "Details: [steps[1]: state mismatch]")

	// JSON always carries details.
	js := &bytes.Buffer{}
	require.NoError(t, (&OutputFormatter{Format: "json", Writer: js}).Error(ErrCodeScenarioFailed, "failed", details))
	var resp struct {
		Error struct {
			Details []string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(js.Bytes(), &resp))
	assert.Equal(t, details, resp.Error.Details)
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "json",
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   true,
	}

	formatter.VerboseLog("Validating %s", "quota.yaml")
	assert.Empty(t, out.String())
	assert.Equal(t, "Validating quota.yaml\n", errOut.String())
	assert.Same(t, errOut, formatter.GetErrWriter())

	formatter.Verbose = false
	formatter.VerboseLog("Validating %s", "sub_while.yaml")
	assert.Equal(t, "Validating quota.yaml\n", errOut.String())

	// Without an ErrWriter diagnostics fall back to Writer.
	fallback := &OutputFormatter{Format: "text", Writer: out, Verbose: true}
	fallback.VerboseLog("Running %s", "mapped_inc.yaml")
	assert.Equal(t, "Running mapped_inc.yaml\n", out.String())
}

func TestWriteJSON_Indented(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeJSON(buf, CLIResponse{Status: "ok", Session: "s-1"}))
	assert.Equal(t, "{\n  \"status\": \"ok\",\n  \"session\": \"s-1\"\n}\n", buf.String())
}
