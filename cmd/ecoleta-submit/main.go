package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"ecoleta/internal/client"
	"ecoleta/internal/domain"
	"ecoleta/internal/form"
	"ecoleta/internal/regions"
	"ecoleta/internal/validate"
)

func main() {
	_ = godotenv.Load()
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			for _, f := range apiErr.Fields {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", f.Field, f.Message)
			}
		}
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:  "ecoleta-submit",
		Usage: "register and browse collection points",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api", Value: "http://localhost:3333", EnvVars: []string{"ECOLETA_API"}, Usage: "API base URL"},
			&cli.StringFlag{Name: "ibge-url", Value: regions.DefaultBaseURL, EnvVars: []string{"IBGE_URL"}, Usage: "IBGE localities API"},
		},
		Writer: out,
		Commands: []*cli.Command{
			{
				Name:  "items",
				Usage: "list collection item categories",
				Action: func(c *cli.Context) error {
					items, err := client.New(c.String("api")).FetchItems(c.Context)
					if err != nil {
						return err
					}
					for _, it := range items {
						fmt.Fprintf(c.App.Writer, "%d\t%s\n", it.ID, it.Title)
					}
					return nil
				},
			},
			{
				Name:  "ufs",
				Usage: "list state codes",
				Action: func(c *cli.Context) error {
					ufs, err := regions.New(c.String("ibge-url")).States(c.Context)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, strings.Join(ufs, " "))
					return nil
				},
			},
			{
				Name:  "cities",
				Usage: "list the cities of a state",
				Flags: []cli.Flag{&cli.StringFlag{Name: "uf", Required: true}},
				Action: func(c *cli.Context) error {
					cities, err := regions.New(c.String("ibge-url")).Cities(c.Context, c.String("uf"))
					if err != nil {
						return err
					}
					for _, city := range cities {
						fmt.Fprintln(c.App.Writer, city)
					}
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "list points, optionally filtered",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "city"},
					&cli.StringFlag{Name: "uf"},
					&cli.StringFlag{Name: "items", Usage: "comma-separated item ids"},
				},
				Action: func(c *cli.Context) error {
					f := domain.PointFilter{City: c.String("city"), UF: c.String("uf")}
					if raw := c.String("items"); raw != "" {
						ids, ok := validate.ItemIDs(raw)
						if !ok {
							return fmt.Errorf("invalid --items %q", raw)
						}
						f.ItemIDs = ids
					}
					points, err := client.New(c.String("api")).FetchPoints(c.Context, f)
					if err != nil {
						return err
					}
					for _, p := range points {
						fmt.Fprintf(c.App.Writer, "%d\t%s\t%s/%s\n", p.ID, p.Name, p.City, p.UF)
					}
					return nil
				},
			},
			{
				Name:  "show",
				Usage: "print one point as JSON",
				Flags: []cli.Flag{&cli.Int64Flag{Name: "id", Required: true}},
				Action: func(c *cli.Context) error {
					p, err := client.New(c.String("api")).FetchPoint(c.Context, c.Int64("id"))
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, p)
				},
			},
			submitCommand(),
		},
	}
}

func submitCommand() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "fill in the point form and submit it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name"},
			&cli.StringFlag{Name: "email"},
			&cli.StringFlag{Name: "whatsapp"},
			&cli.StringFlag{Name: "uf"},
			&cli.StringFlag{Name: "city"},
			&cli.Float64Flag{Name: "lat"},
			&cli.Float64Flag{Name: "lng"},
			&cli.Int64SliceFlag{Name: "item", Usage: "item id, repeatable"},
			&cli.PathFlag{Name: "image"},
			&cli.BoolFlag{Name: "skip-city-check", Usage: "do not check the city against IBGE"},
		},
		Action: func(c *cli.Context) error {
			return submit(c)
		},
	}
}

func submit(c *cli.Context) error {
	ctx := c.Context
	f := form.New(client.New(c.String("api")), regions.New(c.String("ibge-url")))
	if err := f.Load(ctx); err != nil {
		// without IBGE the state list is only needed for the city check
		if !c.Bool("skip-city-check") || errors.Is(err, form.ErrItemsUnavailable) {
			return err
		}
		log.Printf("warning: %v", err)
	}

	if uf := c.String("uf"); uf != "" {
		if err := f.SelectUF(ctx, uf); err != nil && !c.Bool("skip-city-check") {
			return err
		}
	}
	city := c.String("city")
	if st := f.State(); city != "" && !c.Bool("skip-city-check") && !slices.Contains(st.Cities, city) {
		return fmt.Errorf("%q is not a city of %s", city, st.UF)
	}

	var image *client.Attachment
	if path := c.Path("image"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		image = &client.Attachment{Name: filepath.Base(path), Data: data}
	}

	err := f.Apply(func(s form.State) form.State {
		s = s.WithField("name", c.String("name")).
			WithField("email", c.String("email")).
			WithField("whatsapp", c.String("whatsapp")).
			SelectCity(city).
			ClickMap(c.Float64("lat"), c.Float64("lng"))
		seen := map[int64]bool{}
		for _, id := range c.Int64Slice("item") {
			if !seen[id] {
				seen[id] = true
				s = s.ToggleItem(id)
			}
		}
		if image != nil {
			s = s.Attach(image)
		}
		return s
	})
	if err != nil {
		return err
	}

	created, err := f.Submit(ctx)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, created)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
