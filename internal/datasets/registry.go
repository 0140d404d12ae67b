package datasets

import (
	"path"
)

// Category groups related datasets under one site section
type Category struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Order       int    `json:"order"`
}

// Dataset identifies one processed JSON file
type Dataset struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

// Path returns the dataset's location relative to the data directory
func (d Dataset) Path() string {
	return path.Join("processed", d.Category, d.ID+".json")
}

var categories = []Category{
	{
		Slug:        "reliability",
		Title:       "Grid Reliability",
		Description: "How reliably does the U.S. electric grid deliver power? Tracking outage duration, reserve margins, and major disturbance events.",
		Color:       "#0D7377",
		Icon:        "shield",
	},
	{
		Slug:        "affordability",
		Title:       "Electricity Affordability",
		Description: "What does electricity cost, and how does that burden vary across states, sectors, and household budgets?",
		Color:       "#D97706",
		Icon:        "dollar",
	},
	{
		Slug:        "generation-mix",
		Title:       "Generation Mix",
		Description: "How is U.S. electricity generated? Tracking the evolving share of coal, gas, nuclear, wind, solar, and other sources.",
		Color:       "#7C3AED",
		Icon:        "bolt",
	},
	{
		Slug:        "environmental",
		Title:       "Environmental Impact",
		Description: "What are the environmental consequences of electricity generation? Tracking CO2 emissions, emissions intensity, and criteria pollutants.",
		Color:       "#059669",
		Icon:        "leaf",
	},
	{
		Slug:        "market-trends",
		Title:       "Market & Industry Trends",
		Description: "What market forces shape the energy sector? Gas-electricity price linkages, technology costs, and demand growth drivers.",
		Color:       "#2563EB",
		Icon:        "chart",
	},
	{
		Slug:        "land-use",
		Title:       "Land Use Impacts",
		Description: "How much land does energy infrastructure require? Comparing the spatial footprint of generation technologies and tracking cumulative land commitments over time.",
		Color:       "#92400E",
		Icon:        "map",
	},
}

var catalog = []Dataset{
	{ID: "saidi-saifi", Category: "reliability"},
	{ID: "reserve-margins", Category: "reliability"},
	{ID: "disturbance-events", Category: "reliability"},
	{ID: "retail-prices", Category: "affordability"},
	{ID: "state-prices", Category: "affordability"},
	{ID: "household-spending", Category: "affordability"},
	{ID: "generation-by-source", Category: "generation-mix"},
	{ID: "capacity-changes", Category: "generation-mix"},
	{ID: "regional-mix", Category: "generation-mix"},
	{ID: "co2-emissions", Category: "environmental"},
	{ID: "emissions-intensity", Category: "environmental"},
	{ID: "criteria-pollutants", Category: "environmental"},
	{ID: "gas-electricity-correlation", Category: "market-trends"},
	{ID: "lcoe", Category: "market-trends"},
	{ID: "demand-growth", Category: "market-trends"},
	{ID: "cumulative-land", Category: "land-use"},
	{ID: "power-density", Category: "land-use"},
}

var catalogIndex = func() map[string]Dataset {
	idx := make(map[string]Dataset, len(catalog))
	for _, d := range catalog {
		idx[d.ID] = d
	}
	return idx
}()

// Categories returns the site sections in navigation order
func Categories() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		c.Order = i
		out[i] = c
	}
	return out
}

// CategoryBySlug finds a category
func CategoryBySlug(slug string) (Category, bool) {
	for i, c := range categories {
		if c.Slug == slug {
			c.Order = i
			return c, true
		}
	}
	return Category{}, false
}

// Catalog returns every known dataset grouped by category order
func Catalog() []Dataset {
	out := make([]Dataset, len(catalog))
	copy(out, catalog)
	return out
}

// InCategory returns the datasets of one category
func InCategory(slug string) []Dataset {
	var out []Dataset
	for _, d := range catalog {
		if d.Category == slug {
			out = append(out, d)
		}
	}
	return out
}

// Lookup resolves a dataset id
func Lookup(id string) (Dataset, bool) {
	d, ok := catalogIndex[id]
	return d, ok
}
