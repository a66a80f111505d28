package output_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/ossl/internal/output"
)

func TestFormatter_JSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatJSON, &buf)

	require.NoError(t, f.Print(map[string]string{"backend": "OpenSSL"}))

	var result map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "OpenSSL", result["backend"])
}

func TestFormatter_Text(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatText, &buf)

	require.NoError(t, f.Print("hello world"))
	require.NoError(t, f.Printf("%d bytes\n", 32))
	require.NoError(t, f.Println("done"))
	assert.Equal(t, "hello world\n32 bytes\ndone\n", buf.String())
	assert.Equal(t, output.FormatText, f.Format())
	assert.Same(t, &buf, f.Writer())
}

func TestFormatter_Emit(t *testing.T) {
	t.Parallel()
	payload := map[string]int{"bytes": 32}
	text := func(w io.Writer) error {
		_, err := fmt.Fprintln(w, "32 bytes")
		return err
	}

	var jsonBuf bytes.Buffer
	require.NoError(t, output.NewFormatter(output.FormatJSON, &jsonBuf).Emit(payload, text))
	assert.JSONEq(t, `{"bytes": 32}`, jsonBuf.String())

	var textBuf bytes.Buffer
	require.NoError(t, output.NewFormatter(output.FormatText, &textBuf).Emit(payload, text))
	assert.Equal(t, "32 bytes\n", textBuf.String())
}

func TestFormatter_IsJSON(t *testing.T) {
	t.Parallel()
	assert.True(t, output.NewFormatter(output.FormatJSON, nil).IsJSON())
	assert.False(t, output.NewFormatter(output.FormatText, nil).IsJSON())
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected output.Format
	}{
		{"json", output.FormatJSON},
		{"JSON", output.FormatJSON},
		{" text ", output.FormatText},
		{"auto", output.FormatAuto},
		{"", output.FormatAuto},
		{"yaml", output.FormatAuto},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, output.ParseFormat(tt.input))
		})
	}
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&buf, output.FormatJSON))
	assert.Equal(t, output.FormatText, output.DetectFormat(&buf, output.FormatText))
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&buf, output.FormatAuto), "non-TTY defaults to JSON")
}

func TestDetectFormat_TTY(t *testing.T) {
	if os.Getenv("TEST_TTY") == "" {
		t.Skip("Skipping TTY test - set TEST_TTY=1 to run")
	}

	assert.Equal(t, output.FormatText, output.DetectFormat(os.Stdout, output.FormatAuto))
}

func TestTable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		build func() *output.Table
		want  string
	}{
		{
			name:  "empty",
			build: func() *output.Table { return output.NewTable() },
			want:  "",
		},
		{
			name: "header and rows",
			build: func() *output.Table {
				tbl := output.NewTable("ID", "LIBRARY")
				tbl.AddRow("9", "PEM routines")
				tbl.AddRow("36", "random number generator")
				return tbl
			},
			want: "ID  LIBRARY                \n" +
				"--  -----------------------\n" +
				"9   PEM routines           \n" +
				"36  random number generator\n",
		},
		{
			name: "right aligned column",
			build: func() *output.Table {
				tbl := output.NewTable("ID", "LIBRARY")
				tbl.SetAlign(0, output.AlignRight)
				tbl.AddRow("9", "PEM")
				tbl.AddRow("128", "BIO")
				return tbl
			},
			want: " ID  LIBRARY\n" +
				"---  -------\n" +
				"  9  PEM    \n" +
				"128  BIO    \n",
		},
		{
			name: "no header with separator",
			build: func() *output.Table {
				tbl := output.NewTable("K", "V")
				tbl.SetNoHeader(true)
				tbl.SetSeparator(" | ")
				tbl.AddRow("name", "OpenSSL")
				return tbl
			},
			want: "name | OpenSSL\n",
		},
		{
			name: "ragged rows",
			build: func() *output.Table {
				tbl := output.NewTable("A")
				tbl.AddRow("1", "extra")
				return tbl
			},
			want: "A       \n-  -----\n1  extra\n",
		},
		{
			name: "unicode width in runes",
			build: func() *output.Table {
				tbl := output.NewTable("NAME")
				tbl.AddRow("événement")
				return tbl
			},
			want: "NAME     \n---------\névénement\n",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tbl := tt.build()
			assert.Equal(t, tt.want, tbl.String())

			var buf bytes.Buffer
			require.NoError(t, tbl.Render(&buf))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestMessages(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	output.Info(&buf, "backend %s", "OpenSSL")
	output.Warn(&buf, "devices %s", "unsupported")
	output.Success(&buf, "round trip ok")

	assert.Equal(t, "ℹ️  backend OpenSSL\n⚠️  devices unsupported\n✅ round trip ok\n", buf.String())
}
