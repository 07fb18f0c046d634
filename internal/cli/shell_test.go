package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestShell(t *testing.T) (*shell, *bytes.Buffer) {
	t.Helper()
	useOutline(t, false)
	s, err := openSession(nil)
	if err != nil {
		t.Fatalf("openSession: %v", err)
	}
	var buf bytes.Buffer
	return &shell{sess: s, out: &buf}, &buf
}

func TestShellComplete(t *testing.T) {
	sh, _ := newTestShell(t)

	tests := []struct {
		line string
		want []string
	}{
		{":pa", []string{":parse"}},
		{"#er", []string{"#errand"}},
		{"milk ta", []string{"milk tag:"}},
		{"(TAG:h", []string{"(TAG:home"}},
		{"milk ", nil},
		{"zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := sh.complete(tt.line)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("complete(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestShellCommands(t *testing.T) {
	sh, buf := newTestShell(t)

	if sh.command(":scope nope") {
		t.Fatal(":scope should not quit")
	}
	if sh.scope != "" {
		t.Errorf("scope = %q after unknown edge, want empty", sh.scope)
	}

	sh.command(":scope >groceries")
	if sh.scope != ">groceries" {
		t.Errorf("scope = %q, want >groceries", sh.scope)
	}
	if got := sh.prompt(); got != "outsearch [>groceries]> " {
		t.Errorf("prompt = %q", got)
	}

	buf.Reset()
	sh.run("plan")
	if !strings.Contains(buf.String(), "No matches") {
		t.Errorf("scoped run output = %q, want no matches", buf.String())
	}

	sh.command(":scope")
	buf.Reset()
	sh.run("plan")
	if !strings.Contains(buf.String(), "Project Plan") {
		t.Errorf("run output = %q, want Project Plan", buf.String())
	}

	buf.Reset()
	sh.command(":parse a b OR c")
	if !strings.Contains(buf.String(), "((text:a AND text:b) OR text:c)") {
		t.Errorf(":parse output = %q", buf.String())
	}

	if !sh.command(":quit") {
		t.Error(":quit should quit")
	}
}
