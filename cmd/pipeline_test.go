package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kamusis/pss-index/internal/descriptor"
	"github.com/kamusis/pss-index/internal/index"
)

const dockerPass1 = `{"name":"docker","source":"user","path":"/skills/docker","type":"skill",
"keywords":["docker","container"],"category":"devops","description":"Build images",
"domain_gates":{"lang_input":["dockerfile"]}}`

const dockerPass2 = `{"name":"docker","co_usage":{"usually_with":["compose"],"rationale":"often paired"},"tier":"primary"}`

func TestStageThenDrain(t *testing.T) {
	c := useTestConfig(t)
	withContext(t, stageCmd, drainCmd)
	src := t.TempDir()
	p1 := filepath.Join(src, "p1.json")
	p2 := filepath.Join(src, "p2.json")
	writeFile(t, p1, dockerPass1)
	writeFile(t, p2, dockerPass2)

	// Pass 2 staged first: drain must still apply pass 1 before it.
	if err := runStage(stageCmd, []string{p2, p1}); err != nil {
		t.Fatalf("stage: %v", err)
	}
	queued, err := descriptor.List(c.QueueDir)
	if err != nil || len(queued) != 2 {
		t.Fatalf("queue = %v (err %v), want 2 files", queued, err)
	}

	if err := runDrain(drainCmd, nil); err != nil {
		t.Fatalf("drain: %v", err)
	}
	idx, err := index.Load(c.IndexPath)
	if err != nil {
		t.Fatalf("load index: %v", err)
	}
	e := idx.Skills["docker"]
	if e == nil || e.Category != "devops" || e.Tier != "primary" || e.CoUsage == nil {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if idx.Pass != 2 {
		t.Fatalf("index pass = %d, want 2", idx.Pass)
	}
	if left, _ := descriptor.List(c.QueueDir); len(left) != 0 {
		t.Fatalf("queue not drained: %v", left)
	}
}

func TestMerge_UnknownSkillKeepsDescriptor(t *testing.T) {
	c := useTestConfig(t)
	p := filepath.Join(c.QueueDir, "docker.pss")
	writeFile(t, p, dockerPass2)

	prev := flagMergePass
	flagMergePass = 2
	t.Cleanup(func() { flagMergePass = prev })
	withContext(t, mergeCmd)

	if err := runMerge(mergeCmd, []string{p}); err == nil {
		t.Fatal("expected failure for pass 2 before pass 1")
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("descriptor must be kept: %v", err)
	}
	if _, err := os.Stat(c.IndexPath); !os.IsNotExist(err) {
		t.Fatalf("failed pass 2 must not create an index, stat err = %v", err)
	}
}

func TestParsePassFlag(t *testing.T) {
	if p, err := parsePassFlag(0); err != nil || p != descriptor.PassAuto {
		t.Fatalf("parsePassFlag(0) = %v, %v", p, err)
	}
	if _, err := parsePassFlag(3); err == nil {
		t.Fatal("expected error for pass 3")
	}
}

func TestInspect(t *testing.T) {
	c := useTestConfig(t)
	withContext(t, stageCmd, drainCmd)
	p := filepath.Join(t.TempDir(), "p1.json")
	writeFile(t, p, dockerPass1)
	if err := runStage(stageCmd, []string{p}); err != nil {
		t.Fatal(err)
	}
	if err := runDrain(drainCmd, nil); err != nil {
		t.Fatal(err)
	}
	idx, err := index.Load(c.IndexPath)
	if err != nil {
		t.Fatal(err)
	}

	names, err := resolveSkills(idx, "DOCK")
	if err != nil || len(names) != 1 || names[0] != "docker" {
		t.Fatalf("resolveSkills = %v, %v", names, err)
	}
	if _, err := resolveSkills(idx, "kubernetes"); err == nil {
		t.Fatal("expected not-found error")
	}

	var out strings.Builder
	printInspect(&out, "docker", idx.Skills["docker"])
	for _, want := range []string{"📦 Skill: docker", "lang_input (→ input_language): dockerfile", "(no pass-2 data yet)"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("inspect output missing %q:\n%s", want, out.String())
		}
	}
}

func TestCollectStatus(t *testing.T) {
	c := useTestConfig(t)
	idx := &index.Index{Skills: map[string]*index.Entry{
		"a": {Name: "a", CoUsage: &index.CoUsage{Rationale: "x"}},
		"b": {Name: "b"},
	}}
	writeFile(t, filepath.Join(c.QueueDir, "c.pss"), `{"name":"c"}`)
	writeFile(t, filepath.Join(c.QueueDir, "b.pss"), `{"name":"b","co_usage":{"follows":["a"]}}`)
	writeFile(t, filepath.Join(c.QueueDir, "bad.pss"), `{`)
	queue, err := descriptor.List(c.QueueDir)
	if err != nil {
		t.Fatal(err)
	}

	st := collectStatus(idx, []string{"a", "b", "c", "d"}, queue)
	check := func(label string, got, want []string) {
		t.Helper()
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("%s = %v, want %v", label, got, want)
		}
	}
	check("complete", st.complete, []string{"a"})
	check("pass1Only", st.pass1Only, []string{"b"})
	check("missing", st.missing, []string{"c", "d"})
	check("queued pass 1", st.queued[descriptor.Pass1], []string{"c"})
	check("queued pass 2", st.queued[descriptor.Pass2], []string{"b"})
	if len(st.broken) != 1 {
		t.Errorf("broken = %v, want 1 file", st.broken)
	}
}
