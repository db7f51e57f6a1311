// Command gcpu10 assembles one or more base names into .ob object files
// (plus .ent/.ext side files when the program has any entry symbols or
// references to extern symbols), printing collected diagnostics to stderr and accumulating a
// non-zero exit code when any file fails.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"gcpu10/pkg/asm"
	"gcpu10/pkg/macro"
	"gcpu10/pkg/nameset"
	"gcpu10/pkg/output"
	"gcpu10/pkg/utils"
)

func main() {
	parallelism := flag.Int("j", runtime.GOMAXPROCS(0), "number of base names to assemble concurrently")
	view := flag.Bool("view", false, "launch the memory-image viewer on the last base name, when every file assembles successfully")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatalf("usage: gcpu10 [-j N] [-view] <base> [<base> ...]")
	}

	ok := runAll(flag.Args(), *parallelism)

	if *view && ok {
		launchViewer(flag.Args()[len(flag.Args())-1])
	}
	if !ok {
		os.Exit(1)
	}
}

// runAll assembles every base name, at most limit at a time, and reports
// whether every one of them succeeded. Each goroutine builds its own
// symbol table, diagnostic list, and identifier namespace so no state
// leaks between files assembled concurrently.
func runAll(args []string, limit int) bool {
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	results := make([]bool, len(args))
	for i, arg := range args {
		i, arg := i, arg
		g.Go(func() error {
			results[i] = assembleOne(arg)
			return nil
		})
	}
	_ = g.Wait()

	ok := true
	for _, r := range results {
		ok = ok && r
	}
	return ok
}

func assembleOne(arg string) bool {
	base := utils.BaseName(arg)

	srcBytes, err := os.ReadFile(utils.SourcePath(base))
	if err != nil {
		reportDiagnostic(base, fmt.Sprintf("cannot open %s: %v", utils.SourcePath(base), err))
		return false
	}

	lines := strings.Split(string(srcBytes), "\n")

	names := nameset.New()
	expanded, macroErrs := macro.Expand(lines, names)
	if macroErrs.Len() > 0 {
		macroErrs.Report(os.Stderr, base)
		return false
	}

	if err := writeMacroFile(utils.MacroPath(base), expanded); err != nil {
		reportDiagnostic(base, err.Error())
		return false
	}

	res := asm.Assemble(expanded, names)
	if res.Errors.Len() > 0 {
		res.Errors.Report(os.Stderr, base)
		return false
	}

	if err := writeOutputs(base, res); err != nil {
		// Remove whatever output files were already written so a failed
		// write leaves no partial artifacts behind.
		for _, p := range []string{utils.ObjectPath(base), utils.EntryPath(base), utils.ExternPath(base)} {
			os.Remove(p)
		}
		reportDiagnostic(base, err.Error())
		return false
	}
	return true
}

func writeOutputs(base string, res *asm.Result) error {
	obFile, err := os.Create(utils.ObjectPath(base))
	if err != nil {
		return err
	}
	defer obFile.Close()
	bw := bufio.NewWriter(obFile)
	if err := output.WriteObject(bw, res); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	if len(res.Entries) > 0 {
		if err := writeSideFile(utils.EntryPath(base), func(f *os.File) error {
			return output.WriteEntries(f, res)
		}); err != nil {
			return err
		}
	}
	if len(res.Externs) > 0 {
		if err := writeSideFile(utils.ExternPath(base), func(f *os.File) error {
			return output.WriteExterns(f, res)
		}); err != nil {
			return err
		}
	}
	return nil
}

// writeMacroFile writes the macro-expanded line stream to path, matching
// the reference pipeline's file-based handoff between the preassembler and
// Pass 1/2 (the <base>.am file).
func writeMacroFile(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			return err
		}
		if _, err := w.WriteString("\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeSideFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return write(f)
}

// reportDiagnostic prints a resource-level (not line-tagged) failure,
// wrapping it to the terminal width when stderr is a tty.
func reportDiagnostic(base, message string) {
	width := terminalWidth()
	for _, wrapped := range wrapText(fmt.Sprintf("%s: %s", base, message), width) {
		fmt.Fprintln(os.Stderr, wrapped)
	}
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil || width < 20 {
		return 80
	}
	return width
}

func wrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{text}
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var cur strings.Builder
	curLen := 0
	for _, w := range words {
		if curLen+len(w)+1 > maxWidth && curLen > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(w)
		curLen += len(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// launchViewer execs gcpu10view, expected to sit next to this binary, on
// the given base name. It blocks until the viewer window is closed.
func launchViewer(arg string) {
	self, err := os.Executable()
	if err != nil {
		log.Printf("cannot locate gcpu10view: %v", err)
		return
	}
	viewerPath := filepath.Join(filepath.Dir(self), "gcpu10view")

	cmd := exec.Command(viewerPath, utils.BaseName(arg))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		log.Printf("gcpu10view: %v", err)
	}
}
