// cmd/tools/catalog-tool/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"export-friction/internal/common/config"
	"export-friction/internal/common/database"
	"export-friction/internal/reference"
	"export-friction/internal/scoring"
	"export-friction/pkg/catalog"
)

const (
	defaultPath     = "configs/reference-data.json"
	defaultCacheKey = "friction:catalog:v1"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		help(out)
		return flag.ErrHelp
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		path := fs.String("path", defaultPath, "Path to reference data file")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		store, err := loadStore(*path)
		if err != nil {
			return fmt.Errorf("reference data validation failed: %w", err)
		}
		fmt.Fprintf(out, "Reference data %s is valid: %d products, %d countries.\n",
			versionOf(store), len(store.Products()), len(store.Countries()))
		return nil

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		path := fs.String("path", defaultPath, "Path to reference data file")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		store, err := loadStore(*path)
		if err != nil {
			return err
		}
		return list(out, store.Document())

	case "score":
		fs := flag.NewFlagSet("score", flag.ContinueOnError)
		path := fs.String("path", defaultPath, "Path to reference data file")
		product := fs.String("product", "", "Product ID (e.g., hops)")
		country := fs.String("country", "", "Country ID (e.g., fi)")
		wop := fs.String("wop", "", "Operational weight")
		wrel := fs.String("wrel", "", "Relational weight")
		scenario := fs.String("scenario", "", "Scenario multiplier")
		tariff := fs.String("tariff", "", "Tariff adjustment")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *product == "" || *country == "" {
			fs.Usage()
			return fmt.Errorf("product and country are required for score")
		}
		store, err := loadStore(*path)
		if err != nil {
			return err
		}
		return score(out, scoring.NewEngine(store), *product, *country, scoring.RawParameters{
			scoring.ParamWeightOperational:  *wop,
			scoring.ParamWeightRelational:   *wrel,
			scoring.ParamScenarioMultiplier: *scenario,
			scoring.ParamTariffAdjustment:   *tariff,
		})

	case "update":
		fs := flag.NewFlagSet("update", flag.ContinueOnError)
		path := fs.String("path", defaultPath, "Path to reference data file")
		kind := fs.String("kind", "", "Entry kind (product or country)")
		id := fs.String("id", "", "Entry ID to update")
		factor := fs.String("factor", "", "Factor name to set")
		value := fs.String("value", "", "New factor value")
		redisAddr := fs.String("redis", "", "Redis address of the catalog snapshot to invalidate (optional)")
		cacheKey := fs.String("cache-key", defaultCacheKey, "Redis key of the catalog snapshot")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *kind == "" || *id == "" || *factor == "" || *value == "" {
			fs.Usage()
			return fmt.Errorf("kind, id, factor, and value are required for update")
		}
		v, err := strconv.ParseFloat(*value, 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", *value, err)
		}
		if err := updateFactor(*path, *kind, *id, *factor, v); err != nil {
			return fmt.Errorf("error updating reference data: %w", err)
		}
		fmt.Fprintf(out, "Updated %s %s, factor %s to %s\n", *kind, *id, *factor, *value)
		if *redisAddr == "" {
			return nil
		}
		if err := invalidateSnapshot(*redisAddr, *cacheKey); err != nil {
			return fmt.Errorf("reference data updated but snapshot not invalidated: %w", err)
		}
		fmt.Fprintf(out, "Invalidated cached snapshot %s on %s\n", *cacheKey, *redisAddr)
		return nil

	case "help":
		help(out)
		return nil

	default:
		help(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// loadStore runs the same schema and integrity checks the server applies.
func loadStore(path string) (*reference.Store, error) {
	validator, err := reference.NewCatalogValidator()
	if err != nil {
		return nil, err
	}
	doc, err := reference.NewFileSource(path, validator).Load(context.Background())
	if err != nil {
		return nil, err
	}
	return reference.NewStore(doc)
}

func versionOf(store *reference.Store) string {
	if v := store.Version(); v != "" {
		return v
	}
	return "(unversioned)"
}

func list(out io.Writer, doc *catalog.Document) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tNAME\tORIGIN\tFACTORS")
	for _, p := range doc.Products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Origin, len(p.OperationalFactors))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "COUNTRY\tNAME\tBASE CONFIDENCE\tFACTORS")
	for _, c := range doc.Countries {
		fmt.Fprintf(w, "%s\t%s\t%g\t%d\n", c.ID, c.Name, c.BaseConfidence, len(c.RelationalFactors))
	}
	return w.Flush()
}

type scoreOutput struct {
	*scoring.Result
	Parameters  scoring.Parameters   `json:"parameters"`
	Adjustments []scoring.Adjustment `json:"parameterAdjustments,omitempty"`
}

func score(out io.Writer, engine *scoring.Engine, productID, countryID string, raw scoring.RawParameters) error {
	params, adjustments, err := scoring.Resolve(raw)
	if err != nil {
		return err
	}
	res, err := engine.Calculate(productID, countryID, params)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(scoreOutput{Result: res.Rounded(), Parameters: params, Adjustments: adjustments})
}

// updateFactor sets one factor on a product or country, adding it when absent,
// and only writes the file back if the result still passes the store checks.
func updateFactor(path, kind, id, factor string, value float64) error {
	doc, _, err := catalog.LoadDocument(path)
	if err != nil {
		return fmt.Errorf("failed to load reference data: %w", err)
	}

	var factors *[]catalog.Factor
	switch kind {
	case "product":
		for i := range doc.Products {
			if doc.Products[i].ID == id {
				factors = &doc.Products[i].OperationalFactors
			}
		}
	case "country":
		for i := range doc.Countries {
			if doc.Countries[i].ID == id {
				factors = &doc.Countries[i].RelationalFactors
			}
		}
	default:
		return fmt.Errorf("kind must be product or country, got %q", kind)
	}
	if factors == nil {
		return fmt.Errorf("%s with ID %s not found", kind, id)
	}

	set := false
	for i := range *factors {
		if (*factors)[i].Name == factor {
			(*factors)[i].Value = value
			set = true
		}
	}
	if !set {
		*factors = append(*factors, catalog.Factor{Name: factor, Value: value})
	}

	if _, err := reference.NewStore(doc); err != nil {
		return err
	}
	doc.LastUpdated = time.Now().Format(time.RFC3339)
	return catalog.SaveDocument(path, doc)
}

// invalidateSnapshot deletes the cached catalog so the next server start
// reloads the file.
func invalidateSnapshot(addr, key string) error {
	client := database.NewRedis(config.RedisConfig{Address: addr})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return reference.NewSnapshotCache(client.Client, key, 0).Invalidate(ctx)
}

func help(out io.Writer) {
	fmt.Fprintln(out, "Usage: catalog-tool <command> [arguments]")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  validate -path <file>                         Check schema and integrity")
	fmt.Fprintln(out, "  list     -path <file>                         List products and countries")
	fmt.Fprintln(out, "  score    -product <id> -country <id> [-wop <w>] [-wrel <w>] [-scenario <m>] [-tariff <t>]")
	fmt.Fprintln(out, "  update   -kind <product|country> -id <id> -factor <name> -value <v> [-redis <addr>] [-cache-key <key>]")
	fmt.Fprintln(out, "  help                                          Show this help")
}
