package interpreter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParse_WellFormed(t *testing.T) {
	resp := Parse(`{"commands":["ls -la"],"explanation":"Lists all files","caution":null}`)

	assert.Equal(t, []string{"ls -la"}, resp.Commands)
	assert.Equal(t, "Lists all files", resp.Explanation)
	assert.Nil(t, resp.Caution)
	assert.Nil(t, resp.Error)
	assert.Nil(t, resp.ExecutionResults)
}

func TestParse_ModelDeclined(t *testing.T) {
	resp := Parse(`{"error":"Cannot map this request to a Linux command"}`)

	assert.Empty(t, resp.Commands)
	assert.NotNil(t, resp.Commands)
	require.True(t, resp.HasError())
	assert.Equal(t, "Cannot map this request to a Linux command", resp.ErrorText())
	assert.Equal(t, "", resp.Explanation)
}

func TestParse_CodeFences(t *testing.T) {
	body := `{"commands":["mkdir test","cd test"],"explanation":"Make and enter","caution":"cd only affects the subshell"}`
	want := Parse(body)
	require.Nil(t, want.Error)

	wrappers := map[string]string{
		"json tag":            "```json\n" + body + "\n```",
		"no tag":              "```\n" + body + "\n```",
		"upper case tag":      "```JSON\n" + body + "\n```",
		"surrounding space":   "\n\n  ```json\n" + body + "\n```  \n",
		"no newlines":         "```json" + body + "```",
		"trailing fence only": body + "\n```",
		"unwrapped":           "  " + body + "\n",
	}

	for name, raw := range wrappers {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, Parse(raw))
		})
	}
}

func TestParse_MalformedNeverFails(t *testing.T) {
	inputs := map[string]string{
		"empty":               "",
		"whitespace":          "   \n",
		"prose":               "Sure! Here is the command you asked for.",
		"truncated":           `{"commands":["ls"`,
		"single quotes":       `{'commands':['ls']}`,
		"array top level":     `["ls -la"]`,
		"string top level":    `"ls -la"`,
		"number top level":    `42`,
		"null":                `null`,
		"fenced garbage":      "```json\nnot json\n```",
		"commands wrong type": `{"commands":42,"explanation":"x"}`,
		"commands mixed":      `{"commands":["ls",3]}`,
		"explanation object":  `{"commands":["ls"],"explanation":{"text":"x"}}`,
		"caution number":      `{"commands":["ls"],"caution":5}`,
		"prose around json":   `Here you go: {"commands":["ls"]} hope that helps`,
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			var resp ParsedResponse
			assert.NotPanics(t, func() { resp = Parse(raw) })

			assert.NotNil(t, resp.Commands)
			assert.Empty(t, resp.Commands)
			assert.Equal(t, "", resp.Explanation)
			assert.Nil(t, resp.Caution)
			require.NotNil(t, resp.Error)
			assert.Equal(t, ParseFailureMessage, *resp.Error)
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	tests := []struct {
		name            string
		raw             string
		wantCommands    []string
		wantExplanation string
	}{
		{"missing caution", `{"commands":["pwd"],"explanation":"Print dir"}`, []string{"pwd"}, "Print dir"},
		{"missing explanation", `{"commands":["pwd"],"caution":null}`, []string{"pwd"}, ""},
		{"missing commands", `{"explanation":"nothing to run"}`, []string{}, "nothing to run"},
		{"null commands", `{"commands":null}`, []string{}, ""},
		{"null explanation", `{"commands":["pwd"],"explanation":null}`, []string{"pwd"}, ""},
		{"empty object", `{}`, []string{}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := Parse(tc.raw)
			assert.Nil(t, resp.Error)
			assert.Nil(t, resp.Caution)
			assert.Equal(t, tc.wantCommands, resp.Commands)
			assert.Equal(t, tc.wantExplanation, resp.Explanation)
		})
	}
}

func TestParse_CommandsAsSingleString(t *testing.T) {
	resp := Parse(`{"commands":"df -h | sort -k5","explanation":"Disk usage"}`)

	assert.Nil(t, resp.Error)
	assert.Equal(t, []string{"df -h | sort -k5"}, resp.Commands)
}

func TestParse_BlankCommandsDropped(t *testing.T) {
	resp := Parse(`{"commands":["echo a", "  ", "", "echo b"]}`)
	assert.Equal(t, []string{"echo a", "echo b"}, resp.Commands)

	resp = Parse(`{"commands":""}`)
	assert.Nil(t, resp.Error)
	assert.Empty(t, resp.Commands)
}

func TestParse_CautionAndErrorPassThrough(t *testing.T) {
	resp := Parse(`{"commands":["rm -rf ./build"],"explanation":"Remove build","caution":"Deletes files permanently","error":"partial"}`)

	assert.Equal(t, "Deletes files permanently", resp.CautionText())
	assert.Equal(t, "partial", resp.ErrorText())
	assert.True(t, resp.HasCommands())
}

func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{
		`{"commands":["find . -name '*.go'","wc -l"],"explanation":"Count","caution":null}`,
		`{"commands":[],"explanation":"","caution":"careful"}`,
		`{"commands":["a && b","c | d","e; f"],"explanation":"order matters","caution":"x"}`,
	}

	for _, raw := range inputs {
		resp := Parse(raw)
		require.Nil(t, resp.Error, raw)

		out, err := json.Marshal(struct {
			Commands    []string `json:"commands"`
			Explanation string   `json:"explanation"`
			Caution     *string  `json:"caution"`
		}{resp.Commands, resp.Explanation, resp.Caution})
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(out))

		// the response itself serializes to the same keys
		full, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(full))
	}
}

func TestParser_Lenient(t *testing.T) {
	p := NewParser(zaptest.NewLogger(t), LenientUnwrappers...)

	resp := p.Parse("Here you go:\n```json\n{\"commands\":[\"uptime\"],\"explanation\":\"Load\"}\n```\nEnjoy!")
	assert.Nil(t, resp.Error)
	assert.Equal(t, []string{"uptime"}, resp.Commands)

	resp = p.Parse(`Sure: {"commands":["ls"]} done`)
	assert.Nil(t, resp.Error)
	assert.Equal(t, []string{"ls"}, resp.Commands)

	resp = p.Parse("no object at all")
	assert.Equal(t, ParseFailureMessage, resp.ErrorText())
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence(`{"a":1}`))
	assert.Equal(t, `jsonish`, StripCodeFence("```\njsonish\n```"))
}

func TestExtractObject(t *testing.T) {
	assert.Equal(t, `{"a":{"b":1}}`, ExtractObject(`x {"a":{"b":1}} y`))
	assert.Equal(t, `no braces`, ExtractObject(`no braces`))
	assert.Equal(t, `} {`, ExtractObject(`} {`))
}
