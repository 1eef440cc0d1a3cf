package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/lindenmaker/pkg/lstring"
	"github.com/lemonberrylabs/lindenmaker/pkg/types"
)

func newTokenizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokenize LSTRING",
		Short: "Print the cut L-string and its tokens",
		Args:  cobra.ExactArgs(1),
		RunE:  runTokenize,
	}
	cmd.Flags().String("format", formatText, "Output format: text or json")
	return cmd
}

type tokenView struct {
	Raw    string    `json:"raw"`
	Pos    int       `json:"pos"`
	Symbol string    `json:"symbol"`
	Kind   string    `json:"kind"`
	Args   []float64 `json:"args"`
}

func runTokenize(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != formatText && format != formatJSON {
		return fmt.Errorf("unknown format %q", format)
	}

	cut := lstring.ApplyCuts(lstring.StripSpace(args[0]))
	tokens, err := lstring.NewLexer(cut).Tokenize()
	if err != nil {
		return err
	}

	views := make([]tokenView, 0, len(tokens))
	for _, tok := range tokens {
		c, err := tok.Command()
		if err != nil {
			if ie := types.AsInterpretError(err); ie != nil {
				return ie.At(tok.Pos, tok.Text)
			}
			return err
		}
		views = append(views, tokenView{
			Raw:    tok.Text,
			Pos:    tok.Pos,
			Symbol: string(tok.Symbol),
			Kind:   c.Kind.String(),
			Args:   c.Args,
		})
	}

	out := cmd.OutOrStdout()
	if format == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"cut": cut, "tokens": views})
	}

	fmt.Fprintf(out, "cut: %s\n", cut)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tTOKEN\tKIND\tARGS")
	for _, v := range views {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", v.Pos, v.Raw, v.Kind, formatArgs(v.Args))
	}
	return tw.Flush()
}

func formatArgs(args []float64) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%g", a)
	}
	return strings.Join(parts, ", ")
}
