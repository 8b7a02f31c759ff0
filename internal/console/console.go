package console

import (
	"bufio"
	"context"
	"fmt"
	"fxcache/internal/domain"
	"fxcache/internal/rate"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

type ratesReader interface {
	Rates(ctx context.Context, base domain.CurrencyCode) (rate.View, error)
}

// Console is the interactive presenter: one base currency choice per run.
type Console struct {
	service ratesReader
	lookup  domain.Lookup
	in      io.Reader
	out     io.Writer
}

// Run asks for a base currency, synchronizes it and prints the rate table.
// Any input outside the allow-list ends the session without touching the table.
func (c *Console) Run(ctx context.Context) error {
	base, ok, err := PromptBase(c.in, c.out, c.lookup)
	if err != nil {
		return err
	}

	if ok {
		view, ratesErr := c.service.Rates(ctx, base)
		if ratesErr != nil {
			logrus.WithError(ratesErr).WithField("base", base).Error("Rates weren't loaded")
			return fmt.Errorf("failed to load rates for %s: %w", base, ratesErr)
		}
		Render(c.out, view)
	}

	_, err = fmt.Fprint(c.out, "\nThank you for using our service.\n")
	return err
}

// PromptBase prints the numbered currency menu and reads one line.
// The answer is case-insensitive; ok is false for anything not on the menu.
func PromptBase(r io.Reader, w io.Writer, lookup domain.Lookup) (domain.CurrencyCode, bool, error) {
	var b strings.Builder
	b.WriteString("Please select a base currency from the following list :\n")
	b.WriteString("-------------------------------------------------------\n")
	for i, code := range lookup.Codes() {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, lookup[code], code)
	}
	b.WriteString("Press any other character to exit.\n")
	b.WriteString("Enter your option (E.g. AUD)\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return "", false, err
	}

	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		// EOF counts as "exit"
		return "", false, scanner.Err()
	}
	code := domain.CurrencyCode(strings.ToUpper(strings.TrimSpace(scanner.Text())))
	if !lookup.Contains(code) {
		return "", false, nil
	}
	return code, true, nil
}

// Render prints the mode notice followed by the rate table, base row excluded.
func Render(w io.Writer, view rate.View) {
	switch view.Mode {
	case domain.ModeRebuild:
		fmt.Fprintln(w, "Base currency changed. Loading fresh values..")
	case domain.ModeRefresh:
		fmt.Fprintln(w, "Updating currency rates...")
		fmt.Fprintln(w, "Finished updating currency rates...")
		fmt.Fprintln(w)
	case domain.ModeBootstrap:
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "--------")
	fmt.Fprintf(w, "1 %s is \n", view.Base)
	fmt.Fprintln(w, "--------")
	for _, l := range view.Lines {
		fmt.Fprintf(w, "       = %s %s(%s)\n", l.Rate.String(), l.Description, l.Code)
	}
	fmt.Fprintln(w, "**************************************")
}

func NewConsole(service ratesReader, lookup domain.Lookup, in io.Reader, out io.Writer) *Console {
	return &Console{service: service, lookup: lookup, in: in, out: out}
}
