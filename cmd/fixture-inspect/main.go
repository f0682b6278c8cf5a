// Command fixture-inspect loads a fixture file, checks its guard rules and
// prints the priced catalog and a sample quote for every country.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gsanchezm/OmniPizza/internal/domain"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/clock"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/jsonlogic"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/memstore"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/token"
	fixtures "github.com/gsanchezm/OmniPizza/internal/infrastructure/yaml"
	"github.com/gsanchezm/OmniPizza/internal/usecase"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "fixture-inspect: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("fixture-inspect", flag.ContinueOnError)
	fs.SetOutput(out)
	path := fs.String("fixtures", "", "fixture YAML file (embedded defaults when empty)")
	country := fs.String("country", "", "only inspect this country code")
	lang := fs.String("lang", "", "catalog language (country default when empty)")
	behavior := fs.String("behavior", string(domain.BehaviorStandard), "behavior applied to the catalog")
	if err := fs.Parse(args); err != nil {
		return err
	}
	b := domain.Behavior(*behavior)
	if !b.Valid() {
		return fmt.Errorf("unknown behavior %q", *behavior)
	}

	fx, err := fixtures.NewLoader(*path).Load(ctx)
	if err != nil {
		return err
	}

	guards := jsonlogic.NewGuardExecutor()
	tokens, err := token.NewJWTIssuer("fixture-inspect", time.Minute)
	if err != nil {
		return err
	}
	svc, err := usecase.New(fx, usecase.Deps{
		Store:      memstore.NewOrderStore(),
		Clock:      clock.System{},
		Random:     clock.NewRand(1),
		Sleeper:    noSleep{},
		Tokens:     tokens,
		Guards:     guards,
		Patcher:    infrastructure.NewMergePatcher(),
		BcryptCost: bcrypt.MinCost,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintln(out, "   OMNIPIZZA FIXTURE INSPECTOR")
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintln(out, "\n[1. GUARDS]")
	bad := 0
	check := func(scope string, rules []domain.GuardRule) {
		for _, r := range rules {
			status := "ok"
			if err := guards.Validate(r.Logic); err != nil {
				status = "INVALID: " + err.Error()
				bad++
			}
			fmt.Fprintf(out, "   [%-6s] %-20s field=%-10s %s\n", scope, r.ID, r.Field, status)
		}
	}
	check("common", fx.CheckoutGuards)
	for _, c := range fx.Countries {
		check(string(c.Code), c.Guards)
	}

	codes := svc.Countries.Codes()
	if *country != "" {
		p, err := svc.Countries.Resolve(*country)
		if err != nil {
			return err
		}
		codes = []domain.CountryCode{p.Code}
	}

	session := domain.Session{Username: "fixture-inspect", Behavior: b}
	for i, code := range codes {
		cat, err := svc.Catalog.Assemble(ctx, b, string(code), *lang)
		if err != nil {
			return err
		}
		displayCatalog(out, i+2, cat)

		if len(cat.Entries) == 0 {
			continue
		}
		totals, profile, err := svc.Checkout.Quote(ctx, session, domain.QuoteRequest{
			Country: string(code),
			Items:   []domain.LineItem{{ItemID: cat.Entries[0].ID, Quantity: 2}},
		})
		if err != nil {
			return err
		}
		p := profile.DecimalPlaces
		fmt.Fprintf(out, "   quote 2 x %s: subtotal %s  tax %s  total %s %s\n",
			cat.Entries[0].ID, totals.Subtotal.StringFixed(p), totals.Tax.StringFixed(p),
			totals.Total.StringFixed(p), totals.Currency)
	}

	fmt.Fprintln(out, strings.Repeat("=", 60))
	if bad > 0 {
		return fmt.Errorf("%d invalid guard rule(s)", bad)
	}
	return nil
}

func displayCatalog(out io.Writer, n int, cat domain.Catalog) {
	c := cat.Country
	fmt.Fprintf(out, "\n[%d. %s  %s  tax %s  required %v]\n",
		n, c.Code, c.Currency, c.TaxRate.String(), c.RequiredFields)
	for _, e := range cat.Entries {
		fmt.Fprintf(out, "   %-3s %-24s %s%s  (%s)\n",
			e.ID, e.Name, e.CurrencySymbol, e.Price.StringFixed(c.DecimalPlaces), e.Language)
	}
}

type noSleep struct{}

func (noSleep) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }
