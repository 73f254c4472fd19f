// Command coreloop is the CLI entry point around the dispatch core
// (KTStephano-GVM main.go provided a flag.Bool-driven single-file main;
// this replaces it with cobra subcommands the way rcornwell-S370 and
// weiyilai-calico structure their emulator/tool CLIs).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kstephano-gvm/coreloop/internal/asm"
	"github.com/kstephano-gvm/coreloop/internal/gvm"
	"github.com/kstephano-gvm/coreloop/internal/hll"
	"github.com/kstephano-gvm/coreloop/internal/trace"
)

var (
	debugFlag bool
	hllName   string
	frameName string
)

func main() {
	root := &cobra.Command{
		Use:   "coreloop",
		Short: "register-VM dispatch core",
	}
	root.PersistentFlags().StringVar(&hllName, "hll", "coreloop", "HLL name owning the boot types")

	runCmd := &cobra.Command{
		Use:   "run <file.asm>...",
		Short: "assemble and run one or more compilation units",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRun,
	}
	runCmd.Flags().BoolVar(&debugFlag, "debug", false, "enable per-instruction tracing")
	runCmd.Flags().StringVar(&frameName, "entry", "main", "entry frame name within the compilation unit")

	debugCmd := &cobra.Command{
		Use:   "debug <file.asm>...",
		Short: "run with tracing forced on, shorthand for run --debug",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			debugFlag = true
			return runRun(cmd, args)
		},
	}
	debugCmd.Flags().StringVar(&frameName, "entry", "main", "entry frame name within the compilation unit")

	disasmCmd := &cobra.Command{
		Use:   "disasm <file.asm>",
		Short: "assemble and print a textual disassembly",
		Args:  cobra.ExactArgs(1),
		RunE:  runDisasm,
	}

	root.AddCommand(runCmd, debugCmd, disasmCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func assembleFiles(files []string) (*gvm.CompilationUnit, error) {
	var cu *gvm.CompilationUnit
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		unit, err := asm.AssembleUnit(hllName, string(src))
		if err != nil {
			return nil, fmt.Errorf("assembling %s: %w", path, err)
		}
		if cu == nil {
			cu = unit
		} else {
			cu.Frames = append(cu.Frames, unit.Frames...)
		}
	}
	return cu, nil
}

func findFrame(cu *gvm.CompilationUnit, name string) *gvm.StaticFrame {
	for _, sf := range cu.Frames {
		if sf.Name == name {
			return sf
		}
	}
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cu, err := assembleFiles(args)
	if err != nil {
		return err
	}
	entry := findFrame(cu, frameName)
	if entry == nil {
		return fmt.Errorf("no frame named %q in %s", frameName, args[0])
	}

	logger, err := trace.New(trace.Config{Debug: debugFlag})
	if err != nil {
		return err
	}
	defer logger.Sync()

	inst, _ := hll.Boot(hll.DefaultConfig(hllName))
	hll.RegisterCompiler(inst, args[0], cu)

	tc := hll.NewThread(inst, 1)
	tc.Log = logger
	tracing := debugFlag
	tc.TracingEnabled = &tracing
	tc.CurFrame = gvm.NewFrame(entry, nil)

	result := gvm.Dispatch(tc)
	if result.Err != nil && result.Err != gvm.ErrProgramFinished {
		return result.Err
	}
	return nil
}

func runDisasm(cmd *cobra.Command, args []string) error {
	cu, err := assembleFiles(args[:1])
	if err != nil {
		return err
	}
	for _, sf := range cu.Frames {
		fmt.Printf(".frame %s\n", sf.Name)
		pc := 0
		for pc < len(sf.Bytecode) {
			op, ops, next, ok := gvm.DecodeNext(sf.Bytecode, pc)
			if !ok {
				break
			}
			fmt.Printf("  %04d: %s %v\n", pc, gvm.NameOf(op), ops)
			pc = next
		}
		fmt.Println(".end")
	}
	return nil
}
