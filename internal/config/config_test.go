package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"TOWERS_CSV", "OPERATORS_CSV", "OUTPUT_DIR", "SOURCE", "OUTPUT_FORMATS", "DB_TOWERS_TABLE"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()

	if cfg.TowersPath != filepath.Join("data", "405.csv") {
		t.Fatalf("TowersPath = %q", cfg.TowersPath)
	}
	if cfg.OperatorsPath != filepath.Join("data", "MCC-MNC India.csv") {
		t.Fatalf("OperatorsPath = %q", cfg.OperatorsPath)
	}
	if cfg.Source != SourceFile {
		t.Fatalf("Source = %q, want %q", cfg.Source, SourceFile)
	}
	if cfg.DB.TowersTable != "TOWERS" {
		t.Fatalf("DB.TowersTable = %q", cfg.DB.TowersTable)
	}
	if !cfg.Wants(FormatCSV) || cfg.Wants(FormatSQLite) {
		t.Fatalf("default formats = %v", cfg.Formats)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nOUTPUT_DIR=\"from-file\"\nexport SOURCE='oracle'\nDB_USERNAME=scott\n\nbroken line\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OUTPUT_DIR", "from-env")
	t.Setenv("SOURCE", "")
	os.Unsetenv("SOURCE")
	t.Setenv("DB_USERNAME", "")
	os.Unsetenv("DB_USERNAME")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "from-env" {
		t.Fatalf("OutputDir = %q, want from-env", cfg.OutputDir)
	}
	if cfg.Source != SourceOracle {
		t.Fatalf("Source = %q, want oracle", cfg.Source)
	}
	if cfg.DB.Username != "scott" {
		t.Fatalf("DB.Username = %q, want scott", cfg.DB.Username)
	}
}

func TestLoadMissingEnvFileIsFine(t *testing.T) {
	t.Setenv("SOURCE", "file")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("Load with missing env file: %v", err)
	}
}

func TestLoadAppliesOverridesBeforeValidate(t *testing.T) {
	t.Setenv("SOURCE", "file")
	t.Setenv("OUTPUT_FORMATS", "pdf")

	cfg, err := Load("", func(c *Config) { c.Formats = ParseFormats("csv") })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Formats, []string{"csv"}) {
		t.Fatalf("Formats = %v, want [csv]", cfg.Formats)
	}

	if _, err := Load("", func(c *Config) { c.Source = "ftp" }); err == nil {
		t.Fatal("Load accepted an invalid source override")
	}
}

func TestValidate(t *testing.T) {
	base := Config{Source: SourceFile, TowersPath: "a.csv", OperatorsPath: "b.csv", Formats: []string{"csv"}}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"ok", func(*Config) {}, false},
		{"unknown source", func(c *Config) { c.Source = "s3" }, true},
		{"missing towers", func(c *Config) { c.TowersPath = "" }, true},
		{"oracle without user", func(c *Config) { c.Source = SourceOracle }, true},
		{"unknown format", func(c *Config) { c.Formats = []string{"pdf"} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			c.Formats = append([]string(nil), base.Formats...)
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	got := ParseFormats(" CSV, xlsx,,csv ,shp")
	want := []string{"csv", "xlsx", "shp"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseFormats = %v, want %v", got, want)
	}
}
