package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"celltowers/internal/aggregate"
	"celltowers/internal/cleaner"
)

func TestParseQueries(t *testing.T) {
	got, err := parseQueries([]string{"operator=Jio", "circle:Delhi NCR", "CIRCLE=Kerala"})
	if err != nil {
		t.Fatal(err)
	}
	want := []query{{"operator", "Jio"}, {"circle", "Delhi NCR"}, {"circle", "Kerala"}}
	if len(got) != len(want) {
		t.Fatalf("queries = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("queries[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	for _, bad := range []string{"Jio", "state=Kerala", "operator="} {
		if _, err := parseQueries([]string{bad}); err == nil {
			t.Errorf("parseQueries(%q) succeeded", bad)
		}
	}
}

func TestCircleName(t *testing.T) {
	tests := map[string]string{
		"Delhi NCR":   "Delhi & NCR",
		"mp & cg":     "Madhya Pradesh & Chhattisgarh",
		"Kerala":      "Kerala",
		"Delhi & NCR": "Delhi & NCR",
	}
	for in, want := range tests {
		if got := circleName(in); got != want {
			t.Errorf("circleName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderQuery(t *testing.T) {
	mix := []aggregate.MixRow{
		{Operator: "Jio", Circle: "Delhi & NCR", Radio: "4G", Count: 3},
		{Operator: "Jio", Circle: "Kerala", Radio: "5G", Count: 1},
		{Operator: "AirTel", Circle: "Delhi & NCR", Radio: "2G", Count: 2},
	}

	var buf bytes.Buffer
	renderQuery(&buf, mix, query{kind: "circle", value: "delhi ncr"})
	out := buf.String()
	if !strings.Contains(out, "Technology mix for circle Delhi & NCR") {
		t.Fatalf("missing title:\n%s", out)
	}
	if !strings.Contains(out, "AirTel") || !strings.Contains(out, "Jio") {
		t.Fatalf("missing operators:\n%s", out)
	}

	buf.Reset()
	renderQuery(&buf, mix, query{kind: "operator", value: "jio"})
	if !strings.Contains(buf.String(), "Technology mix for operator Jio") || !strings.Contains(buf.String(), "Kerala") {
		t.Fatalf("operator mix:\n%s", buf.String())
	}

	buf.Reset()
	renderQuery(&buf, mix, query{kind: "operator", value: "Uninor"})
	if !strings.Contains(buf.String(), "No towers found") {
		t.Fatalf("unknown operator:\n%s", buf.String())
	}
}

func TestSelectorItems(t *testing.T) {
	mix := []aggregate.MixRow{
		{Operator: "Jio", Circle: "Kerala", Radio: "4G", Count: 1},
		{Operator: "AirTel", Circle: "Punjab", Radio: "2G", Count: 1},
	}
	items, lines := selectorItems(mix)
	specs := cleaner.CircleSpecs()
	if len(items) != 2+len(specs) || len(lines) != len(items) {
		t.Fatalf("items = %+v", items)
	}
	if items[0] != (query{"operator", "AirTel"}) || items[2] != (query{"circle", "Karnataka"}) {
		t.Fatalf("items = %+v", items)
	}
	// Circles without towers are still listed.
	if items[len(items)-1] != (query{"circle", "Jammu & Kashmir"}) {
		t.Fatalf("last item = %+v", items[len(items)-1])
	}
}

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	towers := writeFile(t, dir, "405.csv", "radio,mcc,mnc,lac,cid,long,lat,range,sample,changeable,avgsignal,created,updated\n"+
		"GSM,405,854,1,1,77.21,28.61,0,1,0,0,0,0\n"+
		"GSM,405,854,1,2,77.21,28.61,0,1,0,0,0,0\n"+
		"LTE,404,10,1,3,76.31,10.02,0,1,0,0,0,0\n"+
		"LTE,404,10,1,4,76.31,10.02,0,1,1,0,0,0\n")
	operators := writeFile(t, dir, "ops.csv", "MCC,MNC,Operator,Circle\n405,854,Jio,Delhi\n404,10,Airtel,Kerala\n")
	out := filepath.Join(dir, "out")
	metricsFile := filepath.Join(dir, "celltowers.prom")
	t.Setenv("METRICS_TEXTFILE", metricsFile)
	t.Setenv("TRACING_ENABLED", "false")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-env", "",
		"-towers", towers,
		"-operators", operators,
		"-out", out,
		"-source", "file",
		"-formats", "console,csv,geojson,sqlite",
		"circle=Delhi NCR",
	}, &stdout)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !strings.Contains(stdout.String(), "Technology mix for circle Delhi & NCR") {
		t.Fatalf("stdout missing circle query:\n%s", stdout.String())
	}
	for _, want := range []string{"Raw towers (first 4 of 4)", "Circle coordinate quantiles (before trim)", "Kerala"} {
		if !strings.Contains(stdout.String(), want) {
			t.Fatalf("stdout missing %q:\n%s", want, stdout.String())
		}
	}
	csv, err := os.ReadFile(filepath.Join(out, "towers_corrected.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(csv), "\n") != 4 || !strings.Contains(string(csv), "4G,405,854,1,77.21,28.61,Jio,Delhi & NCR") {
		t.Fatalf("corrected csv:\n%s", csv)
	}
	for _, p := range []string{"map_state.json", "towers.db", filepath.Join("geojson", "delhi_ncr.geojson")} {
		if _, err := os.Stat(filepath.Join(out, p)); err != nil {
			t.Fatalf("missing output %s: %v", p, err)
		}
	}
	prom, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(prom), `celltowers_rows{stage="output"} 3`) {
		t.Fatalf("metrics textfile:\n%s", prom)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad flag", []string{"-nope"}},
		{"bad format", []string{"-env", "", "-formats", "pdf"}},
		{"bad source", []string{"-env", "", "-source", "ftp"}},
		{"bad argument", []string{"-env", "", "-formats", "csv", "state=Kerala"}},
		{"missing towers", []string{"-env", "", "-source", "file", "-formats", "csv", "-towers", filepath.Join(t.TempDir(), "none.csv")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(context.Background(), tt.args, &bytes.Buffer{}); err == nil {
				t.Fatal("run succeeded")
			}
		})
	}
}

func TestEnableVTRestores(t *testing.T) {
	restore := enableVT()
	if restore == nil {
		t.Fatal("enableVT returned nil restore func")
	}
	restore()
}
