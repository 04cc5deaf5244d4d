package main

import (
	"bytes"
	"testing"
)

func TestRunNoArgsExits2(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{}, &stdout, &stderr); code != 2 {
		t.Fatalf("want exit 2, got %d", code)
	}
}

func TestRunUnknownSubcommandExits2(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"teleport"}, &stdout, &stderr); code != 2 {
		t.Fatalf("want exit 2, got %d", code)
	}
}

func TestRunProveRejectsNonCubeCircuit(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"prove", "-circuit", "multiplier"}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("want exit 2, got %d", code)
	}
}

func TestRunProveRejectsMissingKeyDir(t *testing.T) {
	dir := t.TempDir() + "/does-not-exist"
	var stdout, stderr bytes.Buffer
	code := run([]string{"prove", "-keys", dir}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("want exit 1 for a missing key directory, got %d", code)
	}
}

func TestRunVerifyRejectsMissingDir(t *testing.T) {
	dir := t.TempDir() + "/does-not-exist"
	var stdout, stderr bytes.Buffer
	code := run([]string{"verify", "-dir", dir}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("want exit 1 for a missing proof directory, got %d", code)
	}
}

func TestRunRejectsBadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"prove", "-nosuchflag"}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("want exit 2, got %d", code)
	}
}
