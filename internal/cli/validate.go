package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/prg"
	perrors "github.com/matzehuels/plexsim/pkg/errors"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		n     int
		seed  uint64
		steps bool
	)

	cmd := &cobra.Command{
		Use:   "validate <domain> [values...]",
		Short: "Check values against an attribute domain",
		Long: `Parse an attribute domain and check values against it.

Each valid value is printed in its canonical form, and with --next also
the values before and after it. With --rand, values are drawn from the
domain instead.

Domains:
  bool | string | non-empty-string | dirpath | filepath
  int[min,max] | double[min,max]    (max may be the literal "max")
  int{a,b,...} | double{...} | string{...}`,
		Example: `  plexsim validate 'int[0,10]' 3 10 11
  plexsim validate 'string{low,mid,high}' high --next
  plexsim validate 'double[0, max]' --rand 5 --seed 7`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := attrs.ParseRange(0, "value", args[0])
			if !r.IsValid() {
				return perrors.New(perrors.ErrCodeInvalidRange, "%q is not a valid domain", args[0])
			}
			printInfo("%s %s", StyleHighlight.Render(r.String()), StyleDim.Render("("+r.Kind().String()+")"))

			if n > 0 {
				p := prg.New(seed)
				for range n {
					fmt.Fprintln(stdout, r.Rand(p).Text())
				}
			}
			return checkValues(r, args[1:], steps)
		},
	}

	cmd.Flags().IntVar(&n, "rand", 0, "draw this many random values from the domain")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for --rand")
	cmd.Flags().BoolVar(&steps, "next", false, "also print the previous and next value of each value")

	return cmd
}

// checkValues prints the canonical form of every value in r and fails if
// any is outside it.
func checkValues(r *attrs.Range, values []string, steps bool) error {
	invalid := 0
	for _, v := range values {
		if got := r.Validate(v); got.IsValid() {
			printSuccess("%s %s %s", v, StyleDim.Render(iconArrow), StyleValue.Render(got.String()))
			if steps {
				printDetail("prev %s · next %s", r.Prev(got), r.Next(got))
			}
			continue
		}
		invalid++
		printError("%s is not in %s", v, r)
	}
	if invalid > 0 {
		return perrors.New(perrors.ErrCodeInvalidValue, "%d of %d values are outside %s", invalid, len(values), r)
	}
	return nil
}
