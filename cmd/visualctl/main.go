package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/ettle/strcase"

	"github.com/goliatone/go-visualsync/components/dashboard"
	"github.com/goliatone/go-visualsync/components/dashboard/commands"
	"github.com/goliatone/go-visualsync/components/dashboard/queries"
	"github.com/goliatone/go-visualsync/pkg/layoutapi"
)

type cli struct {
	Serve     serveCmd     `cmd:"" help:"Run the sync engine behind the JSON API and refresh WebSocket."`
	Layout    layoutCmd    `cmd:"" help:"Inspect or seed saved user layouts."`
	Normalize normalizeCmd `cmd:"" help:"Print the canonical value for raw selection values."`
	Catalog   catalogCmd   `cmd:"" help:"Edit the widget catalog of a page config."`
}

type layoutCmd struct {
	Show layoutShowCmd `cmd:"" help:"Print the saved layout for a viewer."`
	Seed layoutSeedCmd `cmd:"" help:"Write the default order for a viewer without a layout."`
}

type layoutFlags struct {
	URL   string `required:"" env:"VISUALSYNC_LAYOUT_URL" help:"Base URL of the layout API."`
	Token string `required:"" env:"VISUALSYNC_TOKEN" help:"Bearer token of the viewer."`
}

func (f layoutFlags) client() (*layoutapi.Client, error) {
	return layoutapi.NewClient(layoutapi.Config{BaseURL: f.URL})
}

type layoutShowCmd struct {
	layoutFlags
}

type layoutSeedCmd struct {
	layoutFlags
	Config string `type:"existingfile" help:"Page config; the built-in page is used when empty."`
}

type normalizeCmd struct {
	Config string   `type:"existingfile" help:"Page config; the built-in page is used when empty."`
	Seed   uint64   `help:"Seed for fallback picks (0 picks a random seed)."`
	Values []string `arg:"" help:"Raw values to normalize."`
}

type catalogCmd struct {
	Add catalogAddCmd `cmd:"" help:"Append a widget definition to a page config."`
}

type catalogAddCmd struct {
	Config  string   `required:"" type:"path" help:"Page config to update; created from the built-in page when missing."`
	Title   string   `required:"" help:"Widget title."`
	Type    string   `required:"" help:"Visual type reported by the embedding library."`
	ID      string   `help:"Widget id (defaults to the kebab-cased title)."`
	Binding []string `help:"Table.Column bindings (use multiple --binding flags)."`
	Policy  string   `enum:"literal,always_random" default:"literal" help:"Selection policy."`
}

func main() {
	ctx := kong.Parse(&cli{},
		kong.Description("Operator utility for the visual sync engine."),
		kong.UsageOnError(),
	)
	err := ctx.Run(context.Background())
	ctx.FatalIfErrorf(err)
}

func (cmd *layoutShowCmd) Run(ctx context.Context) error {
	client, err := cmd.client()
	if err != nil {
		return err
	}
	doc, err := queries.NewLayoutQuery(client).Query(ctx, queries.LayoutInput{BearerToken: cmd.Token})
	if errors.Is(err, dashboard.ErrLayoutNotFound) {
		fmt.Fprintln(os.Stdout, "no saved layout")
		return nil
	}
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, doc)
}

func (cmd *layoutSeedCmd) Run(ctx context.Context) error {
	client, err := cmd.client()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd.Config)
	if err != nil {
		return err
	}
	seed := commands.NewSeedLayoutCommand(client, cfg, nil)
	if err := seed.Execute(ctx, commands.SeedLayoutInput{BearerToken: cmd.Token}); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "layout seeded")
	return nil
}

func (cmd *normalizeCmd) Run(_ context.Context) error {
	cfg, err := loadConfig(cmd.Config)
	if err != nil {
		return err
	}
	var picker dashboard.Picker = dashboard.NewRandomPicker()
	if cmd.Seed != 0 {
		picker = dashboard.NewSeededPicker(cmd.Seed)
	}
	normalizer := dashboard.NewNormalizer(cfg.Normalizer, picker)
	for _, raw := range cmd.Values {
		fmt.Fprintf(os.Stdout, "%s\t%s\n", raw, normalizer.Normalize(raw))
	}
	return nil
}

func (cmd *catalogAddCmd) Run(_ context.Context) error {
	path, err := filepath.Abs(cmd.Config)
	if err != nil {
		return fmt.Errorf("visualctl: resolve config path: %w", err)
	}
	cfg, err := loadOrInitConfig(path)
	if err != nil {
		return err
	}
	def, err := cmd.definition()
	if err != nil {
		return err
	}
	for _, existing := range cfg.Widgets {
		if existing.ID == def.ID {
			return fmt.Errorf("visualctl: config already defines widget %s", def.ID)
		}
	}
	cfg.Widgets = append(cfg.Widgets, def)
	cfg.DefaultOrder = append(cfg.DefaultOrder, def.ID)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := writeConfig(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "added %s to %s\n", def.ID, path)
	return nil
}

func (cmd *catalogAddCmd) definition() (dashboard.WidgetDefinition, error) {
	id := strings.TrimSpace(cmd.ID)
	if id == "" {
		id = strcase.ToKebab(cmd.Title)
	}
	if id == "" {
		return dashboard.WidgetDefinition{}, errors.New("visualctl: widget id is required")
	}
	def := dashboard.WidgetDefinition{
		ID:     id,
		Title:  cmd.Title,
		Type:   strcase.ToCamel(cmd.Type),
		Policy: dashboard.SelectionPolicy(cmd.Policy),
	}
	if def.Policy == dashboard.PolicyLiteral {
		def.Policy = ""
	}
	for _, raw := range cmd.Binding {
		table, column, ok := strings.Cut(raw, ".")
		if !ok || table == "" || column == "" {
			return dashboard.WidgetDefinition{}, fmt.Errorf("visualctl: binding %q must be Table.Column", raw)
		}
		def.Bindings = append(def.Bindings, dashboard.Binding{Table: table, Column: column})
	}
	return def, nil
}

func loadConfig(path string) (dashboard.Config, error) {
	if path == "" {
		return dashboard.DefaultConfig(), nil
	}
	return dashboard.LoadConfig(path)
}

func loadOrInitConfig(path string) (dashboard.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return dashboard.DefaultConfig(), nil
		}
		return dashboard.Config{}, fmt.Errorf("visualctl: stat config: %w", err)
	}
	return dashboard.LoadConfig(path)
}

func writeConfig(path string, cfg dashboard.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("visualctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	var buf bytes.Buffer
	if err := dashboard.EncodeConfig(&buf, cfg); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("visualctl: write config %s: %w", path, err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
