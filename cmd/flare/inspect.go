package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/flare/pkg/expr"
)

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <file|->",
		Short: "Print the tokens of a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeIn, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeIn()

			data, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			printTokens(cmd.OutOrStdout(), expr.Tokenize(string(data)))
			return nil
		},
	}
}

func newASTCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ast <file|->",
		Short: "Print the parsed expressions of a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeIn, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeIn()

			return printAST(in, cmd.OutOrStdout(), args[0])
		},
	}
}

func printTokens(w io.Writer, tokens []expr.Token) {
	for _, tok := range tokens {
		kind := "bare"
		if tok.Quoted {
			kind = "quoted"
		}
		fmt.Fprintf(w, "%s\t%s\n", kind, tok.Text)
	}
}

// printAST parses in line by line and prints one expression per output line
// as "<line>\t<type>\t<rendering>". The first syntax error stops it.
func printAST(in io.Reader, w io.Writer, name string) error {
	scanner := bufio.NewScanner(in)
	for n := 1; scanner.Scan(); n++ {
		exprs, err := expr.ParseString(scanner.Text())
		if err != nil {
			return fmt.Errorf("%s:%d: %w", name, n, err)
		}
		for _, e := range exprs {
			fmt.Fprintf(w, "%d\t%s\t%s\n", n, e.Type(), e)
		}
	}
	return scanner.Err()
}
