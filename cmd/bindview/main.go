// Command bindview inspects and exercises the sample bindings.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/nativebind/bind"
	"github.com/wippyai/nativebind/descriptor"
	"github.com/wippyai/nativebind/examples/sample"
	"github.com/wippyai/nativebind/memvm"
	"github.com/wippyai/nativebind/registry"
	"github.com/wippyai/nativebind/signature"
	"github.com/wippyai/nativebind/testbed"
)

var logger = zap.NewNop()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool
	root := &cobra.Command{
		Use:           "bindview",
		Short:         "Inspect and call the sample native bindings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if !debug {
				return nil
			}
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			logger = l
			bind.SetLogger(l)
			descriptor.SetLogger(l)
			registry.SetLogger(l)
			memvm.SetLogger(l)
			testbed.SetLogger(l)
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "log binding activity to stderr")
	root.AddCommand(newListCmd(), newCallCmd(), newBrowseCmd())
	return root
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [class]",
		Short: "Print the managed declarations of every bound class",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := bind.NewModule(bind.WithLogger(logger))
			sample.Register(m, io.Discard)
			if err := m.Prepare(); err != nil {
				return err
			}
			var filter string
			if len(args) == 1 {
				filter = args[0]
			}
			return printStubs(cmd.OutOrStdout(), m, filter)
		},
	}
}

func printStubs(w io.Writer, m *bind.Module, filter string) error {
	var shown int
	for _, c := range m.Registry().Classes() {
		if filter != "" && !strings.HasSuffix(c.ID, filter) {
			continue
		}
		shown++
		fmt.Fprintf(w, "%s %s {\n", c.Kind, strings.ReplaceAll(c.ID, "/", "."))
		for _, d := range c.Declarations() {
			fmt.Fprintf(w, "    %s\n", d)
		}
		fmt.Fprintln(w, "}")
	}
	if shown == 0 {
		return fmt.Errorf("no class matches %q", filter)
	}
	return nil
}

func newCallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <class> <function> [args...]",
		Short: "Call a static function with primitive or string arguments",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			out := cmd.OutOrStdout()
			s, err := openSession(ctx, out)
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			e, err := s.find(args[0], args[1], len(args)-2)
			if err != nil {
				return err
			}
			res, err := s.call(e, args[2:])
			if err != nil {
				return fmt.Errorf("call %s: %w", e.name(), err)
			}
			if e.ret != signature.Void {
				fmt.Fprintln(out, res)
			}
			return nil
		},
	}
}

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Pick and call functions interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("browse needs a terminal; use list or call instead")
			}
			return runInteractive()
		},
	}
}
