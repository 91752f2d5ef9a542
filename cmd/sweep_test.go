package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSweep_DryRunThenDelete(t *testing.T) {
	c := useTestConfig(t)
	withContext(t, sweepCmd)
	nested := filepath.Join(c.SkillDirs[0].Path, "docker", "docker.pss")
	queued := filepath.Join(c.QueueDir, "docker-1.pss")
	writeFile(t, nested, "{}")
	writeFile(t, queued, "{}")

	prev := flagSweepDryRun
	t.Cleanup(func() { flagSweepDryRun = prev })

	flagSweepDryRun = true
	if err := runSweep(sweepCmd, nil); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	for _, p := range []string{nested, queued} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("dry run deleted %s", p)
		}
	}

	flagSweepDryRun = false
	if err := runSweep(sweepCmd, nil); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	for _, p := range []string{nested, queued} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("%s survived the sweep", p)
		}
	}
}

func TestAggregate_WritesRegistry(t *testing.T) {
	c := useTestConfig(t)
	writeFile(t, c.IndexPath, `{"version":"3.0","generated":"2025-01-01T00:00:00Z","pass":1,"skills_count":2,"skills":{
"a":{"name":"a","domain_gates":{"lang_input":["Python"]}},
"b":{"name":"b","domain_gates":{"input_language":["go","generic"]}}}}`)

	if err := runAggregate(aggregateCmd, nil); err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	first, err := os.ReadFile(c.RegistryPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(first), `"input_language"`) || !strings.Contains(string(first), `"domain_count": 1`) {
		t.Fatalf("unexpected registry:\n%s", first)
	}

	if err := runAggregate(aggregateCmd, nil); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(c.RegistryPath)
	if string(first) != string(second) {
		t.Fatal("re-running aggregate changed the registry")
	}
}

func TestSchema(t *testing.T) {
	for _, kind := range schemaKinds() {
		s, err := generateSchema(kind)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if s.Type != "object" {
			t.Errorf("%s schema type = %q, want object", kind, s.Type)
		}
	}
	s, _ := generateSchema("descriptor")
	if _, ok := s.Properties.Get("co_usage"); !ok {
		t.Error("descriptor schema lacks co_usage")
	}
	if _, err := generateSchema("nope"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
