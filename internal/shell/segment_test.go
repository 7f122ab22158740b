package shell

import (
	"reflect"
	"testing"
)

func tokensOf(segs []Segment) [][]string {
	out := make([][]string, len(segs))
	for i, s := range segs {
		out[i] = s.Tokens
	}
	return out
}

func TestSplit_Segments(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		want [][]string
	}{
		{"simple", "git status", [][]string{{"git", "status"}}},
		{"and", "cd /tmp && rm -rf ./build", [][]string{{"cd", "/tmp"}, {"rm", "-rf", "./build"}}},
		{"or and semicolon", "a || b; c", [][]string{{"a"}, {"b"}, {"c"}}},
		{"pipe", "find . -print | xargs rm", [][]string{{"find", ".", "-print"}, {"xargs", "rm"}}},
		{"background", "sleep 1 & echo hi", [][]string{{"sleep", "1"}, {"echo", "hi"}}},
		{"newline", "ls\nrm -rf x", [][]string{{"ls"}, {"rm", "-rf", "x"}}},
		{"quoted operator", `echo "a; b"`, [][]string{{"echo", "a; b"}}},
		{"single quotes", `bash -c 'rm -rf /'`, [][]string{{"bash", "-c", "rm -rf /"}}},
		{"variable kept", `rm -rf "$TMPDIR/x"`, [][]string{{"rm", "-rf", "$TMPDIR/x"}}},
		{"braced variable kept", `rm -rf ${HOME}`, [][]string{{"rm", "-rf", "${HOME}"}}},
		{"assignment prefix", `TMPDIR=/etc rm -rf $TMPDIR/x`, [][]string{{"TMPDIR=/etc", "rm", "-rf", "$TMPDIR/x"}}},
		{"escaped terminator", `find . -exec rm -rf {} \;`, [][]string{{"find", ".", "-exec", "rm", "-rf", "{}", ";"}}},
		{"escaped quote in double quotes", `echo "say \"hi\""`, [][]string{{"echo", `say "hi"`}}},
		{"command substitution", "echo $(rm -rf /)", [][]string{{"echo", "$(rm -rf /)"}, {"rm", "-rf", "/"}}},
		{"backticks", "echo `git reset --hard`", [][]string{{"echo", "`git reset --hard`"}, {"git", "reset", "--hard"}}},
		{"subshell", "(cd /x && rm -rf y)", [][]string{{"cd", "/x"}, {"rm", "-rf", "y"}}},
		{"ansi-c quoting", `$'rm' -rf $'\x2f'`, [][]string{{"rm", "-rf", "/"}}},
		{"export", "export TMPDIR=/ && rm -rf $TMPDIR/x", [][]string{{"export", "TMPDIR=/"}, {"rm", "-rf", "$TMPDIR/x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokensOf(Split(tt.cmd))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Split(%q)=%q want %q", tt.cmd, got, tt.want)
			}
		})
	}
}

func TestSplit_Empty(t *testing.T) {
	if got := Split("   "); got != nil {
		t.Fatalf("expected nil for blank command, got %#v", got)
	}
}

func TestSplit_SegmentText(t *testing.T) {
	segs := Split("cd /tmp && rm -rf ./build")
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[1].Text != "rm -rf ./build" {
		t.Fatalf("unexpected text %q", segs[1].Text)
	}
	if segs[0].Opaque || segs[1].Opaque {
		t.Fatalf("parsed segments must not be opaque")
	}
}

func TestSplit_DegradesToOpaque(t *testing.T) {
	for _, cmd := range []string{
		`echo 'unbalanced`,
		`rm -rf "/tmp/x`,
		`echo )`,
	} {
		segs := Split(cmd)
		if len(segs) != 1 {
			t.Fatalf("Split(%q): expected 1 segment, got %d", cmd, len(segs))
		}
		if !segs[0].Opaque {
			t.Fatalf("Split(%q): expected opaque segment", cmd)
		}
		if !reflect.DeepEqual(segs[0].Tokens, []string{cmd}) || segs[0].Text != cmd {
			t.Fatalf("Split(%q): opaque segment must carry the raw command, got %#v", cmd, segs[0])
		}
	}
}

func TestHasUnbalancedQuotes(t *testing.T) {
	tests := []struct {
		cmd  string
		want bool
	}{
		{`echo "hi"`, false},
		{`echo 'hi'`, false},
		{`echo "it's"`, false},
		{`echo 'say "x'`, false},
		{`echo \"`, false},
		{`echo "a`, true},
		{`echo 'a`, true},
		{`echo 'a\'`, false},
	}
	for _, tt := range tests {
		if got := HasUnbalancedQuotes(tt.cmd); got != tt.want {
			t.Errorf("HasUnbalancedQuotes(%q)=%v want %v", tt.cmd, got, tt.want)
		}
	}
}

func TestJoin_RoundTrip(t *testing.T) {
	tokens := []string{"rm", "-rf", "a b", "it's", "$TMPDIR/x", "{}", ";"}
	segs := Split(Join(tokens))
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d (%q)", len(segs), Join(tokens))
	}
	if !reflect.DeepEqual(segs[0].Tokens, tokens) {
		t.Fatalf("round trip mismatch: got %q want %q", segs[0].Tokens, tokens)
	}
}
