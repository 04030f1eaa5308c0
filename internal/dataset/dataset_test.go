package dataset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadCSVCoercesCells(t *testing.T) {
	p := writeFile(t, "people.csv", strings.Join([]string{
		"name,age,score,active,note",
		"ann,31,1.5,true,",
		"bob,,NaN,false,  ",
		"cid,40",
	}, "\n"))
	snap, err := Load(p, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "people.csv", snap.Name)
	assert.Equal(t, []string{"name", "age", "score", "active", "note"}, snap.Fields)
	require.Len(t, snap.Rows, 3)

	r0 := snap.Rows[0]
	assert.Equal(t, "ann", r0["name"])
	assert.Equal(t, 31.0, r0["age"])
	assert.Equal(t, 1.5, r0["score"])
	assert.Equal(t, true, r0["active"])
	assert.Equal(t, "", r0["note"])

	r1 := snap.Rows[1]
	assert.Equal(t, "", r1["age"])
	assert.True(t, math.IsNaN(r1["score"].(float64)))
	assert.Equal(t, false, r1["active"])

	// short record leaves trailing fields absent
	_, ok := snap.Rows[2]["score"]
	assert.False(t, ok)
}

func TestLoadCSVMaxRowsAndDelimiter(t *testing.T) {
	p := writeFile(t, "semi.txt.csv", "a;b\n1,5;x\n2,5;y\n3,5;z\n")
	snap, err := Load(p, LoadOptions{Delimiter: ';', MaxRows: 2})
	require.NoError(t, err)
	require.Len(t, snap.Rows, 2)
	assert.Equal(t, 3, snap.Seen)
	assert.True(t, snap.Truncated())
	assert.Equal(t, 1.5, snap.Rows[0]["a"])
}

func TestLoadTSVAndBlankHeaders(t *testing.T) {
	p := writeFile(t, "data.tsv", "\ufeffid\t\tid\n1\t2\t3\n")
	snap, err := Load(p, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "column_2", "id_2"}, snap.Fields)
	assert.Equal(t, 3.0, snap.Rows[0]["id_2"])
}

func TestLoadCSVGeneratedHeaderDoesNotCollide(t *testing.T) {
	p := writeFile(t, "dups.csv", "a,a,a_2,a\n1,2,3,4\n")
	snap, err := Load(p, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a_2", "a_2_2", "a_3"}, snap.Fields)
	assert.Equal(t, 3.0, snap.Rows[0]["a_2_2"])
	assert.Equal(t, 4.0, snap.Rows[0]["a_3"])
}

func TestLoadCSVRawStrings(t *testing.T) {
	p := writeFile(t, "zip.csv", "zip\n00501\n")
	snap, err := Load(p, LoadOptions{CoerceOptions: CoerceOptions{RawStrings: true}})
	require.NoError(t, err)
	assert.Equal(t, "00501", snap.Rows[0]["zip"])
}

func TestLoadEmptyCSV(t *testing.T) {
	p := writeFile(t, "empty.csv", "")
	snap, err := Load(p, LoadOptions{})
	require.NoError(t, err)
	assert.Empty(t, snap.Fields)
	assert.Empty(t, snap.Rows)
}

func TestLoadJSONArrayKeepsFirstSeenOrder(t *testing.T) {
	p := writeFile(t, "rows.json", `[
		{"b": 1, "a": null},
		{"a": "x", "c": true, "b": 2.5}
	]`)
	snap, err := Load(p, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, snap.Fields)
	require.Len(t, snap.Rows, 2)
	assert.Nil(t, snap.Rows[0]["a"])
	_, present := snap.Rows[0]["a"]
	assert.True(t, present)
	assert.Equal(t, 1.0, snap.Rows[0]["b"])
	assert.Equal(t, true, snap.Rows[1]["c"])
}

func TestDecodeJSONEnvelope(t *testing.T) {
	body := `{"name": "v2", "fields": ["x", "y"], "rows": [[1, null], {"y": "k"}, [3]]}`
	snap, err := DecodeJSON([]byte(body), "upload.json", LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "v2", snap.Name)
	assert.Equal(t, []string{"x", "y"}, snap.Fields)
	require.Len(t, snap.Rows, 3)
	assert.Equal(t, 1.0, snap.Rows[0]["x"])
	assert.Equal(t, "k", snap.Rows[1]["y"])
	_, ok := snap.Rows[2]["y"]
	assert.False(t, ok)

	_, err = DecodeJSON([]byte(`{"rows": [[1]]}`), "bad.json", LoadOptions{})
	assert.Error(t, err)
	_, err = DecodeJSON([]byte(`"str"`), "bad.json", LoadOptions{})
	assert.Error(t, err)
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	idx, err := f.NewSheet("Data")
	require.NoError(t, err)
	f.SetActiveSheet(idx)
	require.NoError(t, f.SetSheetRow("Data", "A1", &[]any{"id", "city", "amount"}))
	require.NoError(t, f.SetSheetRow("Data", "A2", &[]any{1, "Oslo", 12.5}))
	require.NoError(t, f.SetSheetRow("Data", "A3", &[]any{2, "", nil}))
	require.NoError(t, f.SetSheetRow("Data", "A4", &[]any{3}))
	p := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(p))

	snap, err := Load(p, LoadOptions{Sheet: "data"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "city", "amount"}, snap.Fields)
	require.Len(t, snap.Rows, 3)
	assert.Equal(t, "Oslo", snap.Rows[0]["city"])
	assert.Equal(t, 12.5, snap.Rows[0]["amount"])
	_, ok := snap.Rows[2]["city"]
	assert.False(t, ok)

	_, err = Load(p, LoadOptions{Sheet: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available sheets")

	_, err = Load(p, LoadOptions{SheetIndex: 9})
	assert.Error(t, err)
}

func TestLoadUnsupported(t *testing.T) {
	p := writeFile(t, "notes.docx", "x")
	_, err := Load(p, LoadOptions{})
	assert.True(t, errors.Is(err, ErrUnsupported))

	_, err = Load(filepath.Join(t.TempDir(), "nope.csv"), LoadOptions{})
	assert.Error(t, err)
}

func TestSnapshotValidate(t *testing.T) {
	assert.NoError(t, New("ok", []string{"a", "b"}, nil).Validate())
	assert.ErrorIs(t, New("dup", []string{"a", "a"}, nil).Validate(), ErrInvalidSnapshot)
	assert.ErrorIs(t, New("blank", []string{" "}, nil).Validate(), ErrInvalidSnapshot)
	var nilSnap *Snapshot
	assert.ErrorIs(t, nilSnap.Validate(), ErrInvalidSnapshot)
}

func TestCoerceCell(t *testing.T) {
	cases := []struct {
		in   string
		opt  CoerceOptions
		want any
	}{
		{"  ", CoerceOptions{}, ""},
		{"TRUE", CoerceOptions{}, true},
		{"12%", CoerceOptions{}, 12.0},
		{"1.234,5", CoerceOptions{}, 1234.5},
		{"1,234.5", CoerceOptions{}, 1234.5},
		{"0,5", CoerceOptions{DecimalSeparator: ','}, 0.5},
		{"Inf", CoerceOptions{}, "Inf"},
		{"abc", CoerceOptions{}, "abc"},
		{"42", CoerceOptions{RawStrings: true}, "42"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CoerceCell(tc.in, tc.opt), "CoerceCell(%q)", tc.in)
	}
}
