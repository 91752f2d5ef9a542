package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// ── Unified output helpers ────────────────────────────────────────────────────
// All commands use these functions to ensure consistent icon usage and
// indentation throughout pssidx's CLI output.
//
// Icon semantics:
//   ✓  success / healthy
//   ✗  error / failure          (written to stderr)
//   ⚠  warning
//   ○  skipped / not applicable
//   -  not found / missing
//   ~  neutral info / state change
//   ↑  backup created
//   ↓  backup restored

var (
	iconOK      = color.GreenString("✓")
	iconErr     = color.RedString("✗")
	iconWarn    = color.YellowString("⚠")
	iconSkip    = color.HiBlackString("○")
	iconMiss    = color.HiBlackString("-")
	iconInfo    = color.CyanString("~")
	iconBackup  = color.BlueString("↑")
	iconRestore = color.BlueString("↓")
)

// printSection prints a top-level section header, e.g. "=== Drain ===".
func printSection(title string) {
	fmt.Printf("\n%s\n", color.New(color.Bold).Sprintf("=== %s ===", title))
}

// printBullet prints a grouped-section bullet, e.g. "● Merged:".
func printBullet(title string) {
	fmt.Printf("\n● %s\n", title)
}

// printLine prints "  <icon>  msg" or "  <icon>  [name] msg" to stdout.
func printLine(icon, name, msg string) {
	fprintLine(os.Stdout, icon, name, msg)
}

func fprintLine(w *os.File, icon, name, msg string) {
	if name == "" {
		fmt.Fprintf(w, "  %s  %s\n", icon, msg)
	} else {
		fmt.Fprintf(w, "  %s  [%s] %s\n", icon, name, msg)
	}
}

// printOK prints a success line.
//   name = "" → "  ✓  msg"
//   name set  → "  ✓  [name] msg"
func printOK(name, msg string) { printLine(iconOK, name, msg) }

// printErr prints an error line to stderr.
func printErr(name, msg string) { fprintLine(os.Stderr, iconErr, name, msg) }

// printWarn prints a warning line.
func printWarn(name, msg string) { printLine(iconWarn, name, msg) }

// printSkip prints a skipped / not-applicable line.
func printSkip(name, msg string) { printLine(iconSkip, name, msg) }

// printMiss prints a not-found / missing line.
func printMiss(name, msg string) { printLine(iconMiss, name, msg) }

// printInfo prints a neutral informational / state-change line.
func printInfo(name, msg string) { printLine(iconInfo, name, msg) }

// printBackup prints a backup-created line.
func printBackup(name, msg string) { printLine(iconBackup, name, msg) }

// printRestore prints a backup-restored line.
func printRestore(name, msg string) { printLine(iconRestore, name, msg) }
