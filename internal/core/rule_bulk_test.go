package core

import (
	"reflect"
	"strings"
	"testing"
)

func TestXargsChild(t *testing.T) {
	tests := []struct {
		args string
		want []string
	}{
		{"", nil},
		{"rm -rf", []string{"rm", "-rf"}},
		{"-0 rm -rf", []string{"rm", "-rf"}},
		{"-n 1 rm", []string{"rm"}},
		{"-n1 rm", []string{"rm"}},
		{"-I {} rm {}", []string{"rm", "{}"}},
		{"-i rm {}", []string{"rm", "{}"}},
		{"-P 4 -L 2 sh -c x", []string{"sh", "-c", "x"}},
		{"--max-args 2 git", []string{"git"}},
		{"--max-args=2 git", []string{"git"}},
		{"--null -- rm -rf", []string{"rm", "-rf"}},
		{"-0", nil},
	}
	for _, tt := range tests {
		if got := xargsChild(strings.Fields(tt.args)); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("xargsChild(%q)=%q want %q", tt.args, got, tt.want)
		}
	}
}

func TestParseParallel(t *testing.T) {
	tests := []struct {
		args string
		want parallelInvocation
	}{
		{
			"rm -rf ::: a b",
			parallelInvocation{template: []string{"rm", "-rf"}, values: []string{"a", "b"}, known: true},
		},
		{
			"-j 4 --keep-order gzip ::: x.log",
			parallelInvocation{template: []string{"gzip"}, values: []string{"x.log"}, known: true},
		},
		{
			"::: a ::: b",
			parallelInvocation{template: []string{}, values: []string{"a", "b"}, known: true},
		},
		{
			"rm -rf :::: files.txt",
			parallelInvocation{template: []string{"rm", "-rf"}},
		},
		{
			"echo {} -- ignored",
			parallelInvocation{template: []string{"echo", "{}"}},
		},
	}
	for _, tt := range tests {
		if got := parseParallel(strings.Fields(tt.args)); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseParallel(%q)=%+v want %+v", tt.args, got, tt.want)
		}
	}
}

func TestExpandPlaceholders(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"rm {}", "rm dir/file.txt"},
		{"rm {1}", "rm dir/file.txt"},
		{"mv {} {.}.bak", "mv dir/file.txt dir/file.bak"},
		{"echo {/}", "echo file.txt"},
		{"echo {//}", "echo dir"},
		{"echo {/.}", "echo file"},
		{"echo {#}", "echo 3"},
		{"echo plain", "echo plain"},
	}
	for _, tt := range tests {
		if got := expandPlaceholders(tt.in, "dir/file.txt", 3); got != tt.want {
			t.Errorf("expandPlaceholders(%q)=%q want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpandTokens_AppendsWithoutPlaceholder(t *testing.T) {
	got := expandTokens([]string{"rm", "-rf"}, "/", 1)
	if !reflect.DeepEqual(got, []string{"rm", "-rf", "/"}) {
		t.Fatalf("got %q", got)
	}
	got = expandTokens([]string{"rm", "-rf", "{}/cache"}, "build", 1)
	if !reflect.DeepEqual(got, []string{"rm", "-rf", "build/cache"}) {
		t.Fatalf("got %q", got)
	}
}

func TestEvaluateParallel_ScriptWithoutPlaceholder(t *testing.T) {
	if res := Analyze("parallel bash -c 'git reset --hard' ::: a", testContext()); res == nil || res.Reason != reasonGitResetHard {
		t.Fatalf("expected the script itself to be analyzed, got %+v", res)
	}
	if res := Analyze("parallel bash -c 'echo {}'", testContext()); res == nil || res.Reason != reasonParallelShell {
		t.Fatalf("placeholder script without arguments must block, got %+v", res)
	}
	if res := Analyze("parallel bash -c 'echo {}' ::: a b", testContext()); res != nil {
		t.Fatalf("harmless expansions should pass, got %+v", res)
	}
}
