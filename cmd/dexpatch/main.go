// dexpatch CLI - applies bundled patches to a class set snapshot
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/tliron/kutil/util"

	"github.com/chazu/dexpatch/container"
	"github.com/chazu/dexpatch/dalvik"
	"github.com/chazu/dexpatch/manifest"
	"github.com/chazu/dexpatch/patch"
	"github.com/chazu/dexpatch/patches"
	"github.com/chazu/dexpatch/smali"
)

var log = commonlog.GetLogger("dexpatch")

// verbosity counts repeated -v flags.
type verbosity int

func (v *verbosity) String() string   { return strconv.Itoa(int(*v)) }
func (v *verbosity) IsBoolFlag() bool { return true }
func (v *verbosity) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if on {
		*v++
	}
	return nil
}

func main() {
	var verbose verbosity
	dir := flag.String("C", ".", "Directory to search for dexpatch.toml")
	input := flag.String("i", "", "Input snapshot (overrides [input] path)")
	output := flag.String("o", "", "Output snapshot (overrides [output] path)")
	flag.Var(&verbose, "v", "Increase log verbosity (repeatable)")
	list := flag.Bool("list", false, "List bundled patches and exit")
	disasm := flag.String("disasm", "", "Print the smali of a method (e.g. 'Lcom/example/Foo;->bar') and exit")
	dryRun := flag.Bool("dry-run", false, "Run the patches but do not write the output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dexpatch [options]\n\n")
		fmt.Fprintf(os.Stderr, "Applies the patches selected by dexpatch.toml to a class set snapshot.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  dexpatch                         # Run ./dexpatch.toml\n")
		fmt.Fprintf(os.Stderr, "  dexpatch -C app -v -v            # Run app/dexpatch.toml with debug logging\n")
		fmt.Fprintf(os.Stderr, "  dexpatch -list                   # Show bundled patches\n")
		fmt.Fprintf(os.Stderr, "  dexpatch -i classes.dxp -disasm 'Lcom/example/Foo;->bar'\n")
	}
	flag.Parse()

	if *list {
		listPatches()
		util.Exit(0)
	}

	m, err := manifest.FindAndLoad(*dir)
	util.FailOnError(err)
	if m == nil {
		if *input == "" {
			util.Failf("no %s found in %s or its parents", manifest.FileName, *dir)
		}
		m = &manifest.Manifest{Log: manifest.Log{Verbosity: 1}}
	}

	logFile := m.LogFile()
	var logPath *string
	if logFile != "" {
		logPath = &logFile
	}
	commonlog.Configure(m.Log.Verbosity+int(verbose), logPath)

	inPath := inputPath(m, *input)
	cs, err := container.ReadFile(inPath)
	util.FailOnError(err)
	log.Infof("loaded %d classes from %s", cs.Len(), inPath)

	if *disasm != "" {
		util.FailOnError(printMethod(cs, *disasm))
		util.Exit(0)
	}

	runner := patch.NewRunner(patch.Options{
		Package:             m.Target.Package,
		Version:             m.Target.Version,
		Include:             m.Patches.Include,
		Exclude:             m.Patches.Exclude,
		FailFast:            m.Patches.FailFast,
		IgnoreCompatibility: m.Patches.IgnoreCompatibility,
	})
	if m.Target.Package == "" {
		log.Warning("no target package configured, skipping compatibility checks")
	}
	report := runner.Run(cs, patches.All())
	printReport(report)

	if !report.OK() {
		util.Exit(1)
	}
	if *dryRun {
		util.Exit(0)
	}

	outPath, err := outputPath(m, inPath, *output)
	util.FailOnError(err)
	util.FailOnError(container.WriteFile(outPath, cs))
	fmt.Printf("Wrote %s\n", outPath)
	util.Exit(0)
}

// inputPath returns the -i override or the manifest's input.
func inputPath(m *manifest.Manifest, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return m.InputPath()
}

// outputPath returns the -o override or the manifest's output. It refuses a
// path that names the input file.
func outputPath(m *manifest.Manifest, in, flagValue string) (string, error) {
	out := flagValue
	if out == "" {
		if m.Dir == "" {
			return "", errors.New("no output path: pass -o or add a dexpatch.toml")
		}
		out = m.OutputPath()
	}
	absIn, err := filepath.Abs(in)
	if err != nil {
		return "", err
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return "", err
	}
	if absIn == absOut {
		return "", fmt.Errorf("output %s would overwrite the input", out)
	}
	return out, nil
}

func listPatches() {
	for _, p := range patches.All() {
		fmt.Printf("%s\n", p.Name)
		if p.Description != "" {
			fmt.Printf("    %s\n", p.Description)
		}
		for _, c := range p.Compatibility {
			fmt.Printf("    compatible with %s\n", c)
		}
	}
}

func printReport(r *patch.Report) {
	fmt.Printf("Run %s\n", r.RunID)
	for _, res := range r.Results {
		line := fmt.Sprintf("  %-8s %s", res.Status, res.Patch)
		if res.Err != nil {
			line += ": " + res.Err.Error()
		}
		fmt.Println(line)
		for _, ch := range res.Changes {
			fmt.Printf("           %s\n", ch)
		}
	}
	fmt.Println(r.Summary())
}

// printMethod disassembles the methods selected by sel: either a full
// descriptor or "Lcls;->name" for every overload.
func printMethod(cs *dalvik.ClassSet, sel string) error {
	if strings.Contains(sel, "(") {
		ref, err := dalvik.ParseMethodRef(sel)
		if err != nil {
			return err
		}
		m, ok := cs.LookupMethod(ref)
		if !ok {
			return fmt.Errorf("method %s not found", sel)
		}
		fmt.Print(smali.Disassemble(m))
		return nil
	}

	typ, name, ok := strings.Cut(sel, "->")
	if !ok {
		return errors.New("expected Lclass;->name or a full method descriptor")
	}
	c, ok := cs.Class(typ)
	if !ok {
		return fmt.Errorf("class %s not found", typ)
	}
	found := false
	for _, m := range c.Methods {
		if m.Ref.Name == name {
			fmt.Print(smali.Disassemble(m))
			found = true
		}
	}
	if !found {
		return fmt.Errorf("method %s not found in %s", name, typ)
	}
	return nil
}
