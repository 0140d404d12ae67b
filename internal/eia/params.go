package eia

import (
	"fmt"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Facet filters one dimension of a route, e.g. stateid=[CA TX]
type Facet struct {
	Key    string   `json:"key" validate:"required"`
	Values []string `json:"values"`
}

// SortSpec orders the upstream result
type SortSpec struct {
	Column    string `json:"column" validate:"required"`
	Direction string `json:"direction" validate:"required,oneof=asc desc"`
}

// Params describes one statistics API query. Facets keep the order in which
// their keys first appeared.
type Params struct {
	Route     string     `json:"route" validate:"required,eiaroute"`
	Frequency string     `json:"frequency,omitempty"`
	Data      []string   `json:"data,omitempty"`
	Facets    []Facet    `json:"facets,omitempty" validate:"dive"`
	Start     string     `json:"start,omitempty"`
	End       string     `json:"end,omitempty"`
	Sort      []SortSpec `json:"sort,omitempty" validate:"dive"`
	Length    int        `json:"length,omitempty" validate:"gte=0"`
}

// AddFacet appends value under key, creating the facet on first use
func (p *Params) AddFacet(key, value string) {
	for i := range p.Facets {
		if p.Facets[i].Key == key {
			p.Facets[i].Values = append(p.Facets[i].Values, value)
			return
		}
	}
	p.Facets = append(p.Facets, Facet{Key: key, Values: []string{value}})
}

// Facet returns the values filed under key
func (p *Params) Facet(key string) []string {
	for _, f := range p.Facets {
		if f.Key == key {
			return f.Values
		}
	}
	return nil
}

var (
	facetKeyPattern = regexp.MustCompile(`^facets\[(.+)\]\[\]$`)
	sortKeyPattern  = regexp.MustCompile(`^sort\[(\d+)\]\[(column|direction)\]$`)
)

// ParseQuery reads Params from a raw query string. The raw form is used
// because facet order is significant and url.Values does not keep it.
// A missing route is not an error here; Validate reports it.
func ParseQuery(rawQuery string) (Params, error) {
	var p Params
	sortSlots := map[int]*SortSpec{}
	lengthSeen := false

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return Params{}, fmt.Errorf("invalid query key %q: %w", rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return Params{}, fmt.Errorf("invalid value for %q: %w", key, err)
		}

		switch key {
		case "route":
			if p.Route == "" {
				p.Route = value
			}
		case "frequency":
			if p.Frequency == "" {
				p.Frequency = value
			}
		case "data[]":
			p.Data = append(p.Data, value)
		case "start":
			if p.Start == "" {
				p.Start = value
			}
		case "end":
			if p.End == "" {
				p.End = value
			}
		case "length":
			if lengthSeen {
				continue
			}
			lengthSeen = true
			p.Length = parseLength(value)
		default:
			if m := facetKeyPattern.FindStringSubmatch(key); m != nil {
				p.AddFacet(m[1], value)
				continue
			}
			if m := sortKeyPattern.FindStringSubmatch(key); m != nil {
				i, _ := strconv.Atoi(m[1])
				slot, ok := sortSlots[i]
				if !ok {
					slot = &SortSpec{}
					sortSlots[i] = slot
				}
				if m[2] == "column" {
					slot.Column = value
				} else {
					slot.Direction = value
				}
			}
		}
	}

	if len(sortSlots) > 0 {
		idx := make([]int, 0, len(sortSlots))
		for i := range sortSlots {
			idx = append(idx, i)
		}
		sort.Ints(idx)
		for _, i := range idx {
			p.Sort = append(p.Sort, *sortSlots[i])
		}
	}

	return p, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("eiaroute", isRoute)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// isRoute accepts slash separated path segments without traversal or query syntax
func isRoute(fl validator.FieldLevel) bool {
	route := fl.Field().String()
	if strings.HasPrefix(route, "/") || strings.ContainsAny(route, "?#\\ \t\r\n") {
		return false
	}
	for _, seg := range strings.Split(route, "/") {
		if seg == ".." || seg == "." {
			return false
		}
	}
	return true
}

// parseLength reads the first length value. Blank, unparsable, zero or
// fractional values mean "no limit" and yield 0.
func parseLength(value string) int {
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsInf(n, 0) || n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		return 0
	}
	return int(n)
}

// Validate checks p against its struct rules. Failures are
// validator.ValidationErrors.
func (p Params) Validate() error {
	return validate.Struct(p)
}
