// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlscript_test

import (
	"bufio"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/mdhender/sqlseed/sqlscript"
)

// countingReader counts calls to Read.
type countingReader struct {
	io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.Reader.Read(p)
}

func collect(t *testing.T, sc *sqlscript.Scanner) []string {
	t.Helper()
	var got []string
	for sc.HasNext() {
		stmt, err := sc.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, stmt)
	}
	return got
}

func TestScanner(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "trailing content dropped",
			input: "insert into t1 values\n(1,'a');\ninsert into t2 values (2);\n\nfoo",
			want:  []string{"insert into t1 values (1,'a')", "insert into t2 values (2)"},
		},
		{
			name:  "newline runs folded",
			input: "select\r\n\r\n  1\n\n;",
			want:  []string{"select   1"},
		},
		{
			name:  "empty statements skipped",
			input: "a;;  ;\n;b;",
			want:  []string{"a", "b"},
		},
		{
			name:  "quoted semicolon splits",
			input: "insert into t values ('x;y');",
			want:  []string{"insert into t values ('x", "y')"},
		},
		{
			name:  "no terminator",
			input: "select 1",
			want:  nil,
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(t, sqlscript.NewScanner(strings.NewReader(tt.input)))
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScanner_WithComments(t *testing.T) {
	input := `-- seed data
insert into t values (1); -- first row
-- insert into t values (99);
insert into t
  values (2);
-- trailing comment`
	sc, err := sqlscript.Open(strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got := collect(t, sc)
	want := []string{"insert into t values (1)", "insert into t   values (2)"}
	if !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestScanner_Terminal(t *testing.T) {
	sc := sqlscript.NewScanner(strings.NewReader("select 1;"))
	if _, err := sc.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	for i := 0; i < 3; i++ {
		if sc.HasNext() {
			t.Fatalf("HasNext returned true after exhaustion (call %d)", i)
		}
	}
	if _, err := sc.Next(); !errors.Is(err, sqlscript.ErrEmptyIteration) {
		t.Errorf("expected ErrEmptyIteration, got %v", err)
	}
	if sc.Err() != nil {
		t.Errorf("expected nil Err after clean EOF, got %v", sc.Err())
	}
}

func TestScanner_Remove(t *testing.T) {
	sc := sqlscript.NewScanner(strings.NewReader("select 1;"))
	if err := sc.Remove(); !errors.Is(err, sqlscript.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
	sc.HasNext()
	if err := sc.Remove(); !errors.Is(err, sqlscript.ErrUnsupported) {
		t.Errorf("expected ErrUnsupported after HasNext, got %v", err)
	}
}

func TestScanner_HasNextCached(t *testing.T) {
	src := &countingReader{Reader: iotest.OneByteReader(strings.NewReader("a;b;"))}
	sc := sqlscript.NewScanner(src)
	if !sc.HasNext() {
		t.Fatal("expected a statement")
	}
	reads := src.reads
	for i := 0; i < 5; i++ {
		if !sc.HasNext() {
			t.Fatal("HasNext changed its answer")
		}
	}
	if src.reads != reads {
		t.Errorf("HasNext re-read input: %d reads, want %d", src.reads, reads)
	}
	if stmt, _ := sc.Next(); stmt != "a" {
		t.Errorf("got %q, want %q", stmt, "a")
	}
}

// TestScanner_ReadError documents the read error policy: the failure ends
// the sequence like end of input, and Err reports it.
func TestScanner_ReadError(t *testing.T) {
	boom := errors.New("disk on fire")
	src := &closeCounter{Reader: io.MultiReader(strings.NewReader("select 1; select"), iotest.ErrReader(boom))}
	sc := sqlscript.NewScanner(src)

	got := collect(t, sc)
	if !slices.Equal(got, []string{"select 1"}) {
		t.Errorf("got %q, want [select 1]", got)
	}
	if !errors.Is(sc.Err(), boom) {
		t.Errorf("expected Err to report the read error, got %v", sc.Err())
	}
	if src.closes != 1 {
		t.Errorf("expected source closed once, got %d", src.closes)
	}
	if sc.HasNext() {
		t.Error("HasNext returned true after read error")
	}
	if err := sc.Close(); err != nil {
		t.Errorf("Close after read error: %v", err)
	}
	if src.closes != 1 {
		t.Errorf("expected source closed once, got %d", src.closes)
	}
}

func TestScanner_TooLong(t *testing.T) {
	input := "select 1; select '" + strings.Repeat("x", 64) + "';"
	sc := sqlscript.NewScanner(strings.NewReader(input)).WithMaxStatementSize(32)
	if !sc.HasNext() {
		t.Fatal("expected the short statement first")
	}
	if stmt, err := sc.Next(); err != nil || stmt != "select 1" {
		t.Fatalf("Next = %q, %v", stmt, err)
	}
	if sc.HasNext() {
		t.Fatal("expected no statement")
	}
	if !errors.Is(sc.Err(), bufio.ErrTooLong) {
		t.Errorf("expected bufio.ErrTooLong, got %v", sc.Err())
	}
}

func TestScanner_LargeStatement(t *testing.T) {
	// larger than the bufio.Scanner default of 64 KiB
	values := strings.TrimSuffix(strings.Repeat("(1),", 1<<18), ",")
	input := "insert into t values " + values + ";\nselect 1;"
	sc := sqlscript.NewScanner(strings.NewReader(input))
	got := collect(t, sc)
	if sc.Err() != nil {
		t.Fatalf("unexpected error: %v", sc.Err())
	}
	if len(got) != 2 || len(got[0]) != len("insert into t values ")+len(values) {
		t.Errorf("expected the large statement intact, got %d statements", len(got))
	}
}

func TestScanner_MaxStatementSizeAfterStart(t *testing.T) {
	sc := sqlscript.NewScanner(strings.NewReader("select 1; select 2;"))
	if !sc.HasNext() {
		t.Fatal("expected a statement")
	}
	// too late to take effect; must not panic
	sc.WithMaxStatementSize(1)
	if got := collect(t, sc); len(got) != 2 {
		t.Errorf("expected 2 statements, got %v", got)
	}
}

func TestScanner_AllSinglePass(t *testing.T) {
	sc := sqlscript.NewScanner(strings.NewReader("a; b; c;"))
	var first []string
	for stmt := range sc.All() {
		first = append(first, stmt)
		if stmt == "b" {
			break
		}
	}
	rest := slices.Collect(sc.All())
	if !slices.Equal(first, []string{"a", "b"}) {
		t.Errorf("first pass: got %q", first)
	}
	if !slices.Equal(rest, []string{"c"}) {
		t.Errorf("second pass: got %q", rest)
	}
	if again := slices.Collect(sc.All()); len(again) != 0 {
		t.Errorf("exhausted scanner yielded %q", again)
	}
}

func TestScanner_CloseEarly(t *testing.T) {
	src := &closeCounter{Reader: strings.NewReader("a; b;")}
	sc := sqlscript.NewScanner(src)
	if !sc.HasNext() {
		t.Fatal("expected a statement")
	}
	if err := sc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if sc.HasNext() {
		t.Error("HasNext returned true after Close")
	}
	if err := sc.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if src.closes != 1 {
		t.Errorf("expected 1 close, got %d", src.closes)
	}
}

func TestScanStatements_SplitFunc(t *testing.T) {
	sc := bufio.NewScanner(strings.NewReader("create table t (id int);\ninsert into t values (1);"))
	sc.Split(sqlscript.ScanStatements)
	var got []string
	for sc.Scan() {
		got = append(got, sc.Text())
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{"create table t (id int)", "insert into t values (1)"}
	if !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}
