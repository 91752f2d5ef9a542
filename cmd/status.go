package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kamusis/pss-index/internal/descriptor"
	"github.com/kamusis/pss-index/internal/index"
	"github.com/kamusis/pss-index/internal/validate"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index build progress and the staging queue",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var flagStatusVerbose bool

func init() {
	statusCmd.Flags().BoolVar(&flagStatusVerbose, "verbose", false, "list every skill in each group")
	rootCmd.AddCommand(statusCmd)
}

// buildStatus groups skills by how far the index build got for them.
type buildStatus struct {
	complete  []string // pass-1 and pass-2 data present
	pass1Only []string
	missing   []string // on the checklist, absent from the index
	queued    map[descriptor.Pass][]string
	broken    []string // unreadable descriptors in the queue
}

func collectStatus(idx *index.Index, checklist []string, queue []string) buildStatus {
	st := buildStatus{queued: map[descriptor.Pass][]string{}}
	for name, e := range idx.Skills {
		if e.CoUsage != nil {
			st.complete = append(st.complete, name)
		} else {
			st.pass1Only = append(st.pass1Only, name)
		}
	}
	for _, name := range checklist {
		if _, ok := idx.Skills[name]; !ok {
			st.missing = append(st.missing, name)
		}
	}
	for _, p := range queue {
		d, err := descriptor.ReadFile(p)
		if err != nil {
			st.broken = append(st.broken, p)
			continue
		}
		pass := descriptor.DetectPass(d)
		st.queued[pass] = append(st.queued[pass], d.Name)
	}
	for _, s := range [][]string{st.complete, st.pass1Only, st.missing, st.queued[descriptor.Pass1], st.queued[descriptor.Pass2]} {
		sort.Strings(s)
	}
	return st
}

func runStatus(_ *cobra.Command, _ []string) error {
	idx, err := index.Load(cfg.IndexPath)
	if errors.Is(err, index.ErrNotFound) {
		idx = &index.Index{Skills: map[string]*index.Entry{}}
	} else if err != nil {
		return err
	}
	checklist, err := validate.LoadChecklist(cfg.ChecklistPath)
	if err != nil {
		return err
	}
	queue, err := descriptor.List(cfg.QueueDir)
	if err != nil {
		return err
	}
	st := collectStatus(idx, checklist, queue)

	printSection("Index Build Status")
	group := func(title string, names []string, line func(name, msg string)) {
		if len(names) == 0 {
			return
		}
		printBullet(fmt.Sprintf("%s (%d):", title, len(names)))
		if !flagStatusVerbose {
			return
		}
		for _, n := range names {
			line("", n)
		}
	}
	group("Complete (pass 1 + pass 2)", st.complete, printOK)
	group("Pass 1 only", st.pass1Only, printInfo)
	group("On checklist, not indexed", st.missing, printMiss)
	group("Queued for pass 1", st.queued[descriptor.Pass1], printSkip)
	group("Queued for pass 2", st.queued[descriptor.Pass2], printSkip)
	if len(st.broken) > 0 {
		printBullet("Unreadable descriptors:")
		for _, p := range st.broken {
			printErr("", p)
		}
	}

	fmt.Printf("\n  %d complete / %d pass 1 only / %d not indexed / %d queued / %d unreadable  (index pass: %d)\n",
		len(st.complete), len(st.pass1Only), len(st.missing),
		len(st.queued[descriptor.Pass1])+len(st.queued[descriptor.Pass2]), len(st.broken), idx.Pass)
	return nil
}
