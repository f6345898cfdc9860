package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
)

func TestReadSource(t *testing.T) {
	t.Run("stdin", func(t *testing.T) {
		got, err := readSource(strings.NewReader("some script"), "-")
		if err != nil || got != "some script" {
			t.Errorf("readSource = %q, %v", got, err)
		}
	})

	t.Run("blank stdin", func(t *testing.T) {
		_, err := readSource(strings.NewReader(" \n\t"), "-")
		if !errors.Is(err, risk.ErrEmptyInput) {
			t.Errorf("err = %v, want ErrEmptyInput", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := readSource(nil, t.TempDir()+"/none.txt"); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestPolicyCmd_YAML(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"policy", "-o", "yaml"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, want := range []string{"categories:", "violence", "risk_levels:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestAnalyzeCmd_RejectsFormat(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"analyze", "-", "-o", "xml"})
	root.SetIn(strings.NewReader("text"))
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "xml") {
		t.Errorf("err = %v, want unsupported format", err)
	}
}
