package cli

import (
	"bytes"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/ramc/internal/lvm"
	"github.com/roach88/ramc/internal/store"
)

// StoreOptions holds flags for commands reading the program store.
type StoreOptions struct {
	*RootOptions
	Database string
}

// StoredProgram is the result of the show command.
type StoredProgram struct {
	Program     store.ProgramInfo `json:"program"`
	Builds      []store.Build     `json:"builds"`
	Disassembly string            `json:"disassembly"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <program-id>",
		Short: "Disassemble a stored program",
		Long: `Load a program from the store and print its disassembly. The id may
be any unique prefix of the program's content id.

Example:
  ramc show 3fa2c1 --db ./programs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List stored programs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func (o *StoreOptions) open() (*store.Store, error) {
	st, err := store.Open(o.Database)
	if err != nil {
		return nil, &CodedError{Code: ErrCodeStore, Message: "failed to open database", Err: err}
	}
	return st, nil
}

func runShow(opts *StoreOptions, id string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.open()
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	defer st.Close()

	prog, info, err := st.LoadProgram(cmd.Context(), id)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	builds, err := st.ListBuilds(cmd.Context(), info.ID)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	var buf bytes.Buffer
	if err := lvm.Disassemble(&buf, prog); err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	result := StoredProgram{Program: info, Builds: builds, Disassembly: buf.String()}
	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "program %s\n", info.ID)
		fmt.Fprintf(w, "name %s, seq %d, %d word(s), %d -> %d bytes\n",
			info.Name, info.Seq, info.Words, info.RawSize, info.StoredSize)
		for _, b := range builds {
			fmt.Fprintf(w, "build %s seq=%d parallel=%s source=%s\n", b.ID, b.Seq, b.Parallel, b.Source)
		}
		fmt.Fprintln(w)
		fmt.Fprint(w, buf.String())
	})
}

func runList(opts *StoreOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.open()
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	defer st.Close()

	programs, err := st.ListPrograms(cmd.Context())
	if err != nil {
		return formatter.Fail(ExitCommandError, &CodedError{Code: ErrCodeStore, Message: "failed to list programs", Err: err})
	}

	return formatter.Success(programs, func(w io.Writer) {
		if len(programs) == 0 {
			fmt.Fprintln(w, "No programs stored.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tID\tNAME\tRELATIONS\tWORDS\tSIZE")
		for _, p := range programs {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\n", p.Seq, shortID(p.ID), p.Name, p.Relations, p.Words, p.StoredSize)
		}
		tw.Flush()
	})
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
